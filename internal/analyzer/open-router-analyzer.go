package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BerylCAtieno/casevia/internal/utils"

	"github.com/BerylCAtieno/casevia/internal/models"
)

// maxTranscriptBytes bounds the prompt; roughly two hours of conversation.
const maxTranscriptBytes = 120000

type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (*models.AnalysisDraft, error)
}

type openRouterAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	logger  *utils.Logger
	client  *http.Client
}

type OpenRouterRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenRouterResponse struct {
	Choices []Choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

type Choice struct {
	Message Message `json:"message"`
}

func NewOpenRouterAnalyzer(apiKey, model, baseURL string, logger *utils.Logger) Analyzer {
	return &openRouterAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "analyzer"),
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

const systemPrompt = `You are a B2B marketing writer. You turn customer interview transcripts into
customer case studies. Only use facts stated in the transcript. Respond ONLY with a valid JSON object
(no markdown, no code blocks) with exactly these fields:
{
  "title": "Headline for the case study",
  "summary": "Two or three sentence overview",
  "challenge": "The problem the customer faced before",
  "solution": "How the product solved it",
  "results": "Outcomes the customer described",
  "metrics": [{"label": "What was measured", "value": "The number, e.g. +300%"}],
  "quotes": [{"text": "Verbatim customer quote", "speaker": "Speaker label or name"}],
  "key_takeaways": ["Short takeaway"],
  "seo_title": "Under 60 characters",
  "seo_description": "Under 160 characters",
  "linkedin_post": "A LinkedIn post announcing the case study",
  "twitter_post": "A post under 280 characters"
}`

func (a *openRouterAnalyzer) Analyze(ctx context.Context, transcript string) (*models.AnalysisDraft, error) {
	transcript = truncate(transcript, maxTranscriptBytes)

	reqBody := OpenRouterRequest{
		Model: a.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Interview transcript:\n\n" + transcript},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Temperature:    0.4,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "Casevia")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("OpenRouter API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode)
	}

	var openRouterResp OpenRouterResponse
	if err := json.Unmarshal(body, &openRouterResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if openRouterResp.Error != nil {
		return nil, fmt.Errorf("OpenRouter API error: %s", openRouterResp.Error.Message)
	}

	if len(openRouterResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return ParseDraft(openRouterResp.Choices[0].Message.Content)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence and
// marks the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// ParseDraft decodes the model output into a case study draft.
func ParseDraft(content string) (*models.AnalysisDraft, error) {
	var draft models.AnalysisDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		// Some models wrap JSON in markdown code blocks despite json mode.
		stripped := extractJSON(strings.TrimSpace(content))
		if err := json.Unmarshal([]byte(stripped), &draft); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	if strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("LLM response has no title")
	}

	return &draft, nil
}

// extractJSON attempts to extract JSON from markdown code blocks
func extractJSON(content string) string {
	if len(content) > 7 && content[:3] == "```" {
		start := 0
		end := len(content)

		// Find first newline after opening ```
		for i := 3; i < len(content); i++ {
			if content[i] == '\n' {
				start = i + 1
				break
			}
		}

		// Find closing ```
		for i := len(content) - 1; i >= 0; i-- {
			if i >= 2 && content[i-2:i+1] == "```" {
				end = i - 2
				break
			}
		}

		if start < end {
			content = content[start:end]
		}
	}

	return content
}
