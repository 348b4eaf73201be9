package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/casevia/internal/utils"
)

func strPtr(s string) *string { return &s }

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    Outcome
		wantErr bool
	}{
		{
			name:    "completed keeps text verbatim",
			payload: Payload{ID: "t1", Status: "completed", Text: strPtr("  Hello, world.  "), Utterances: []utterancePayload{{Speaker: "A", Text: "Hello"}}},
		},
		{
			name:    "error with message",
			payload: Payload{ID: "t1", Status: "error", Error: "audio too short"},
			want:    Errored{JobID: "t1", Message: "audio too short"},
		},
		{
			name:    "error without message uses default",
			payload: Payload{TranscriptID: "t1", Status: "error"},
			want:    Errored{JobID: "t1", Message: DefaultErrorMessage},
		},
		{
			name:    "processing is pending",
			payload: Payload{ID: "t1", Status: "processing"},
			want:    Pending{JobID: "t1", Status: "processing"},
		},
		{
			name:    "unknown status is pending",
			payload: Payload{ID: "t1", Status: "throttled"},
			want:    Pending{JobID: "t1", Status: "throttled"},
		},
		{
			name:    "missing status rejected",
			payload: Payload{ID: "t1"},
			wantErr: true,
		},
		{
			name:    "missing id rejected",
			payload: Payload{Status: "queued"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutcome(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOutcome: %v", err)
			}
			if c, ok := got.(Completed); ok {
				if c.Text != *tt.payload.Text {
					t.Fatalf("text = %q, want %q", c.Text, *tt.payload.Text)
				}
				if len(c.Utterances) != 1 || c.Utterances[0].Speaker != "A" {
					t.Fatalf("utterances = %+v", c.Utterances)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseOutcomeCompletedWithoutText(t *testing.T) {
	_, err := ParseOutcome(Payload{TranscriptID: "t1", Status: "completed"})
	if !errors.Is(err, ErrMissingText) {
		t.Fatalf("err = %v, want ErrMissingText", err)
	}
}

func TestSubmitRequestsDiarizationAndWebhook(t *testing.T) {
	var got submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/transcript" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"id":"job-123","status":"queued"}`))
	}))
	defer server.Close()

	client := NewAssemblyAIClient("key", server.URL, utils.NewNopLogger())
	id, err := client.Submit(context.Background(), "https://files/a.mp3", SubmitOptions{
		WebhookURL:    "https://api/hook",
		WebhookSecret: "s3cret",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "job-123" {
		t.Fatalf("id = %q", id)
	}
	if !got.SpeakerLabels || got.AudioURL != "https://files/a.mp3" {
		t.Fatalf("request = %+v", got)
	}
	if got.WebhookAuthHeaderName != WebhookSecretHeader || got.WebhookAuthHeaderValue != "s3cret" {
		t.Fatalf("webhook auth not forwarded: %+v", got)
	}
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid audio_url"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewAssemblyAIClient("key", server.URL, utils.NewNopLogger())
	_, err := client.Submit(context.Background(), "bad", SubmitOptions{})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want ProviderError 400", err)
	}
}

func TestFetchCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/transcript/job-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"job-1","status":"completed","text":"Hi there","utterances":[{"speaker":"A","text":"Hi there","start":0,"end":900}]}`))
	}))
	defer server.Close()

	client := NewAssemblyAIClient("key", server.URL, utils.NewNopLogger())
	outcome, err := client.Fetch(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	completed, ok := outcome.(Completed)
	if !ok {
		t.Fatalf("outcome = %#v, want Completed", outcome)
	}
	if completed.Text != "Hi there" || completed.Utterances[0].End != 900 {
		t.Fatalf("completed = %+v", completed)
	}
	if completed.JobID != "job-1" {
		t.Fatalf("JobID = %q", completed.JobID)
	}
}

func TestFetchUnknownStatusIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1","status":"throttled"}`))
	}))
	defer server.Close()

	client := NewAssemblyAIClient("key", server.URL, utils.NewNopLogger())
	outcome, err := client.Fetch(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	pending, ok := outcome.(Pending)
	if !ok || pending.Status != "throttled" || pending.Recognized() {
		t.Fatalf("outcome = %#v, want unrecognized Pending", outcome)
	}
}
