// Package exporter renders case studies for download.
package exporter

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/BerylCAtieno/casevia/internal/models"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts the format names and common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatPDF:
		return "pdf"
	default:
		return "md"
	}
}

// Render renders cs in format f.
func Render(cs *models.CaseStudy, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return execute(markdownTemplate, cs)
	case FormatHTML:
		var buf bytes.Buffer
		if err := htmlTemplate.Execute(&buf, cs); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		return buf.Bytes(), nil
	case FormatPDF:
		return renderPDF(cs)
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

func execute(t *template.Template, cs *models.CaseStudy) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, cs); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

var markdownTemplate = template.Must(template.New("markdown").Parse(`# {{.Title}}

{{.Summary}}

## The challenge

{{.Challenge}}

## The solution

{{.Solution}}

## The results

{{.Results}}
{{- if .Metrics}}

## By the numbers
{{range .Metrics}}
- **{{.Value}}** {{.Label}}
{{- end}}
{{- end}}
{{- if .Quotes}}

## In their words
{{range .Quotes}}
> {{.Text}}{{if .Speaker}}
> -- {{.Speaker}}{{end}}
{{end}}
{{- end}}
{{- if .KeyTakeaways}}

## Key takeaways
{{range .KeyTakeaways}}
- {{.}}
{{- end}}
{{- end}}
`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .SEOTitle}}{{.SEOTitle}}{{else}}{{.Title}}{{end}}</title>
{{- if .SEODescription}}
<meta name="description" content="{{.SEODescription}}">
{{- end}}
</head>
<body>
<article>
<h1>{{.Title}}</h1>
<p class="summary">{{.Summary}}</p>
<h2>The challenge</h2>
<p>{{.Challenge}}</p>
<h2>The solution</h2>
<p>{{.Solution}}</p>
<h2>The results</h2>
<p>{{.Results}}</p>
{{- if .Metrics}}
<ul class="metrics">
{{- range .Metrics}}
<li><strong>{{.Value}}</strong> {{.Label}}</li>
{{- end}}
</ul>
{{- end}}
{{- range .Quotes}}
<blockquote>{{.Text}}{{if .Speaker}}<cite>{{.Speaker}}</cite>{{end}}</blockquote>
{{- end}}
{{- if .KeyTakeaways}}
<h2>Key takeaways</h2>
<ul>
{{- range .KeyTakeaways}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</article>
</body>
</html>
`))
