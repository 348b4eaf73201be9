package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/casevia/internal/config"
)

// Notifier sends pipeline emails. Callers treat failures as best-effort.
type Notifier interface {
	NotifyCaseStudyReady(ctx context.Context, to, projectName, caseStudyID, title string) error
}

// New builds a Resend-backed notifier when an API key is configured and a
// noop notifier otherwise.
func New(cfg *config.Config) Notifier {
	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		return noopNotifier{}
	}
	return &resendNotifier{
		apiKey:  cfg.ResendAPIKey,
		baseURL: strings.TrimRight(cfg.ResendBaseURL, "/"),
		from:    cfg.EmailFrom,
		appURL:  cfg.AppURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type resendNotifier struct {
	apiKey  string
	baseURL string
	from    string
	appURL  string
	client  *http.Client
}

type email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (n *resendNotifier) NotifyCaseStudyReady(ctx context.Context, to, projectName, caseStudyID, title string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}

	link := fmt.Sprintf("%s/case-studies/%s", n.appURL, caseStudyID)
	body := fmt.Sprintf(
		`<p>Your case study from <strong>%s</strong> is ready.</p><h2>%s</h2><p><a href="%s">Review and publish it</a></p>`,
		html.EscapeString(projectName), html.EscapeString(title), html.EscapeString(link),
	)

	return n.send(ctx, email{
		From:    n.from,
		To:      []string{to},
		Subject: "Your case study is ready: " + title,
		HTML:    body,
	})
}

func (n *resendNotifier) send(ctx context.Context, msg email) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyCaseStudyReady(context.Context, string, string, string, string) error {
	return nil
}
