package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jmorales/normrag/internal/retry"
)

type fakeChat struct {
	reply    string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newTestEnricher(chat ChatCompleter) *Enricher {
	caller := &retry.Caller{MaxRetries: 1, BaseDelay: time.Millisecond}
	return New(chat, "test-model", caller, NewStats(time.Minute), nil)
}

func TestDocumentSummary(t *testing.T) {
	chat := &fakeChat{reply: "  A summary of the document.  "}
	e := newTestEnricher(chat)

	got, err := e.DocumentSummary(context.Background(), "Manual", "# Intro\n\nContent here.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "A summary of the document." {
		t.Errorf("summary = %q", got)
	}
	if len(chat.requests) != 1 {
		t.Fatalf("requests = %d", len(chat.requests))
	}
	user := chat.requests[0].Messages[1].Content
	if !strings.Contains(user, "Manual") || !strings.Contains(user, "Content here.") {
		t.Errorf("prompt missing inputs: %q", user)
	}
}

func TestDocumentSummaryExcerptCap(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	e := newTestEnricher(chat)

	long := strings.Repeat("a", summaryExcerptLimit+5000)
	if _, err := e.DocumentSummary(context.Background(), "T", long); err != nil {
		t.Fatal(err)
	}
	user := chat.requests[0].Messages[1].Content
	if len(user) > summaryExcerptLimit+500 {
		t.Errorf("prompt length %d, excerpt cap not applied", len(user))
	}
}

func TestDocumentSummaryError(t *testing.T) {
	chat := &fakeChat{err: errors.New("model gone")}
	e := newTestEnricher(chat)

	if _, err := e.DocumentSummary(context.Background(), "T", "body"); err == nil {
		t.Fatal("summary failure must propagate")
	}
	snap := e.Stats().Snapshot()
	if snap.Operations[OpSummary].Failures != 1 {
		t.Errorf("failures = %d, want 1", snap.Operations[OpSummary].Failures)
	}
}

func TestInferTitle(t *testing.T) {
	chat := &fakeChat{reply: `"Norma Técnica 1462"`}
	e := newTestEnricher(chat)

	got, err := e.InferTitle(context.Background(), "NORMA TÉCNICA 1462\n\nFirst page body")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Norma Técnica 1462" {
		t.Errorf("title = %q", got)
	}
}

func TestInferTitleEmpty(t *testing.T) {
	chat := &fakeChat{reply: "   "}
	e := newTestEnricher(chat)
	if _, err := e.InferTitle(context.Background(), "page"); err == nil {
		t.Fatal("empty title must be an error")
	}
}

func TestContextualizeChunk(t *testing.T) {
	chat := &fakeChat{reply: "This fragment covers grounding rules. Original text follows."}
	e := newTestEnricher(chat)

	got, fallback := e.ContextualizeChunk(context.Background(), ChunkInput{
		Content:         "Original text.",
		DocumentTitle:   "Electrical Code",
		DocumentSummary: "A code about wiring.",
		VisualSummary:   "Contains 1 table",
		PageNumber:      7,
	})
	if fallback {
		t.Fatal("unexpected fallback")
	}
	if got != chat.reply {
		t.Errorf("content = %q", got)
	}
	user := chat.requests[0].Messages[1].Content
	for _, want := range []string{"Electrical Code", "A code about wiring.", "Contains 1 table", "Original text.", "page 7"} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestContextualizeChunkFallback(t *testing.T) {
	chat := &fakeChat{err: &openai.APIError{HTTPStatusCode: 500, Message: "down"}}
	e := newTestEnricher(chat)

	got, fallback := e.ContextualizeChunk(context.Background(), ChunkInput{
		Content:       "Chunk body.",
		DocumentTitle: "Manual",
		PageNumber:    3,
	})
	if !fallback {
		t.Fatal("expected fallback")
	}
	want := "[Manual, Page 3] Chunk body."
	if got != want {
		t.Errorf("fallback = %q, want %q", got, want)
	}
	// Transient error means the caller retried before giving up.
	if len(chat.requests) != 2 {
		t.Errorf("requests = %d, want 2 (one retry)", len(chat.requests))
	}
	snap := e.Stats().Snapshot()
	if snap.Operations[OpContextualize].Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", snap.Operations[OpContextualize].Fallbacks)
	}
}

func TestStatsSnapshot(t *testing.T) {
	s := NewStats(time.Minute)
	for _, ms := range []int64{10, 20, 30, 40} {
		s.Record(OpContextualize, ms)
	}
	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Errorf("count = %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("min/max = %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("avg = %v", snap.AvgMs)
	}
	if snap.Operations[OpContextualize].Calls != 4 {
		t.Errorf("calls = %d", snap.Operations[OpContextualize].Calls)
	}
}
