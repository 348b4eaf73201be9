package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BerylCAtieno/casevia/internal/utils"
)

// WebhookSecretHeader carries the shared secret on provider callbacks.
const WebhookSecretHeader = "X-Webhook-Secret"

type Transcriber interface {
	// Submit starts a diarized transcription of audioURL and returns the
	// provider job id.
	Submit(ctx context.Context, audioURL string, opts SubmitOptions) (string, error)
	// Fetch returns the current outcome of a provider job.
	Fetch(ctx context.Context, jobID string) (Outcome, error)
}

type SubmitOptions struct {
	WebhookURL    string
	WebhookSecret string
}

// ProviderError is a non-2xx response from the provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("assemblyai returned status %d: %s", e.StatusCode, e.Body)
}

type assemblyAIClient struct {
	apiKey  string
	baseURL string
	logger  *utils.Logger
	client  *http.Client
}

type submitRequest struct {
	AudioURL               string `json:"audio_url"`
	SpeakerLabels          bool   `json:"speaker_labels"`
	WebhookURL             string `json:"webhook_url,omitempty"`
	WebhookAuthHeaderName  string `json:"webhook_auth_header_name,omitempty"`
	WebhookAuthHeaderValue string `json:"webhook_auth_header_value,omitempty"`
}

func NewAssemblyAIClient(apiKey, baseURL string, logger *utils.Logger) Transcriber {
	return &assemblyAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "assemblyai"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *assemblyAIClient) Submit(ctx context.Context, audioURL string, opts SubmitOptions) (string, error) {
	reqBody := submitRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
	}
	if opts.WebhookURL != "" {
		reqBody.WebhookURL = opts.WebhookURL
		if opts.WebhookSecret != "" {
			reqBody.WebhookAuthHeaderName = WebhookSecretHeader
			reqBody.WebhookAuthHeaderValue = opts.WebhookSecret
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var payload Payload
	if err := c.do(ctx, http.MethodPost, "/v2/transcript", bytes.NewReader(jsonData), &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("assemblyai response has no transcript id")
	}

	c.logger.Info("Transcription submitted", "job_id", payload.ID)
	return payload.ID, nil
}

func (c *assemblyAIClient) Fetch(ctx context.Context, jobID string) (Outcome, error) {
	var payload Payload
	if err := c.do(ctx, http.MethodGet, "/v2/transcript/"+url.PathEscape(jobID), nil, &payload); err != nil {
		return nil, err
	}
	outcome, err := ParseOutcome(payload)
	if err != nil {
		return nil, err
	}
	if pending, ok := outcome.(Pending); ok && !pending.Recognized() {
		c.logger.Warn("Unrecognized transcript status, treating as pending", "transcript_id", jobID, "status", pending.Status)
	}
	return outcome, nil
}

func (c *assemblyAIClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("AssemblyAI API error", "status", resp.StatusCode, "path", path)
		return &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
