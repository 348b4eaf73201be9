package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

const validDraft = `{"title":"How Acme Corp Increased Leads by 300%!","summary":"s","challenge":"c","solution":"so","results":"r",
"metrics":[{"label":"Leads","value":"+300%"}],"quotes":[{"text":"We love it","speaker":"A"}],"key_takeaways":["one"],
"seo_title":"st","seo_description":"sd","linkedin_post":"li","twitter_post":"tw"}`

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenRouterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("json mode not requested")
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func TestAnalyzeParsesDraft(t *testing.T) {
	server := chatServer(t, http.StatusOK, validDraft)
	defer server.Close()

	a := NewOpenRouterAnalyzer("key", "model", server.URL, utils.NewNopLogger())
	draft, err := a.Analyze(context.Background(), "Speaker A: hello")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if draft.Title != "How Acme Corp Increased Leads by 300%!" {
		t.Errorf("title = %q", draft.Title)
	}
	if len(draft.Metrics) != 1 || draft.Metrics[0].Value != "+300%" {
		t.Errorf("metrics = %+v", draft.Metrics)
	}
	if draft.LinkedInPost != "li" || draft.TwitterPost != "tw" {
		t.Errorf("social drafts = %q %q", draft.LinkedInPost, draft.TwitterPost)
	}
}

func TestAnalyzeRejectsNonJSON(t *testing.T) {
	server := chatServer(t, http.StatusOK, "Sure! Here is your case study: Acme did great.")
	defer server.Close()

	a := NewOpenRouterAnalyzer("key", "model", server.URL, utils.NewNopLogger())
	if _, err := a.Analyze(context.Background(), "text"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAnalyzeUpstreamError(t *testing.T) {
	server := chatServer(t, http.StatusTooManyRequests, validDraft)
	defer server.Close()

	a := NewOpenRouterAnalyzer("key", "model", server.URL, utils.NewNopLogger())
	_, err := a.Analyze(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status 429", err)
	}
}

func TestParseDraftStripsCodeFence(t *testing.T) {
	draft, err := ParseDraft("```json\n" + validDraft + "\n```")
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if draft.SEOTitle != "st" {
		t.Errorf("seo title = %q", draft.SEOTitle)
	}
}

func TestParseDraftRequiresTitle(t *testing.T) {
	if _, err := ParseDraft(`{"summary":"no title"}`); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript("ignored", []models.Utterance{
		{Speaker: "A", Text: " How did it go? "},
		{Speaker: "B", Text: "Great."},
	})
	want := "Speaker A: How did it go?\n\nSpeaker B: Great."
	if got != want {
		t.Fatalf("FormatTranscript = %q, want %q", got, want)
	}

	if got := FormatTranscript("plain text", nil); got != "plain text" {
		t.Fatalf("FormatTranscript without utterances = %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"héllo", 2, "h..."},
		{"héllo", 3, "hé..."},
		{"日本語", 4, "日..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}

	long := strings.Repeat("é", maxTranscriptBytes)
	if got := truncate(long, maxTranscriptBytes); !utf8.ValidString(got) || len(got) > maxTranscriptBytes+3 {
		t.Errorf("truncate of long transcript: len %d valid %v", len(got), utf8.ValidString(got))
	}
}
