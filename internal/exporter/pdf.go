package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/BerylCAtieno/casevia/internal/models"
)

func renderPDF(cs *models.CaseStudy) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(cs.Title, true)
	pdf.SetAuthor("Casevia", false)
	pdf.AddPage()

	// Core fonts are cp1252; translate UTF-8 input.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(cs.Title), "", "L", false)
	pdf.Ln(4)

	if cs.Summary != "" {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.MultiCell(0, 6, tr(cs.Summary), "", "L", false)
		pdf.Ln(4)
	}

	writeSection(pdf, tr, "The challenge", cs.Challenge)
	writeSection(pdf, tr, "The solution", cs.Solution)
	writeSection(pdf, tr, "The results", cs.Results)

	if len(cs.Metrics) > 0 {
		lines := make([]string, 0, len(cs.Metrics))
		for _, m := range cs.Metrics {
			lines = append(lines, fmt.Sprintf("- %s %s", m.Value, m.Label))
		}
		writeSection(pdf, tr, "By the numbers", strings.Join(lines, "\n"))
	}

	for _, q := range cs.Quotes {
		text := fmt.Sprintf("\"%s\"", q.Text)
		if q.Speaker != "" {
			text += "\n- " + q.Speaker
		}
		pdf.SetFont("Helvetica", "I", 12)
		pdf.MultiCell(0, 6, tr(text), "", "L", false)
		pdf.Ln(3)
	}

	if len(cs.KeyTakeaways) > 0 {
		lines := make([]string, 0, len(cs.KeyTakeaways))
		for _, k := range cs.KeyTakeaways {
			lines = append(lines, "- "+k)
		}
		writeSection(pdf, tr, "Key takeaways", strings.Join(lines, "\n"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, tr func(string) string, title, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, tr(content), "", "L", false)
	pdf.Ln(4)
}
