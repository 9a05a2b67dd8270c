package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func fastCaller(retries int) *Caller {
	return &Caller{MaxRetries: retries, BaseDelay: time.Millisecond}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastCaller(3).Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	err := fastCaller(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &TransientError{StatusCode: 503, Message: "overloaded"}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoPermanentFailsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	err := fastCaller(3).Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := fastCaller(2).Do(context.Background(), func() error {
		calls++
		return &TransientError{StatusCode: 429, Message: "rate limited"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Errorf("final error should wrap the transient cause, got %v", err)
	}
}

func TestDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := (&Caller{MaxRetries: 5, BaseDelay: time.Hour}).Do(ctx, func() error {
		calls++
		cancel()
		return &TransientError{StatusCode: 500, Message: "boom"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("nope"), false},
		{"transient", &TransientError{StatusCode: 502}, true},
		{"wrapped transient", fmt.Errorf("call: %w", &TransientError{StatusCode: 429}), true},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429}, true},
		{"openai 500", &openai.APIError{HTTPStatusCode: 500}, true},
		{"openai 400", &openai.APIError{HTTPStatusCode: 400}, false},
		{"openai 401", &openai.APIError{HTTPStatusCode: 401}, false},
		{"request transport", &openai.RequestError{HTTPStatusCode: 0, Err: errors.New("eof")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffGrowthAndCap(t *testing.T) {
	c := &Caller{MaxRetries: 10, BaseDelay: time.Second}
	if d := c.backoff(0); d != time.Second {
		t.Errorf("backoff(0) = %v", d)
	}
	if d := c.backoff(1); d != 2*time.Second {
		t.Errorf("backoff(1) = %v", d)
	}
	if d := c.backoff(2); d != 4*time.Second {
		t.Errorf("backoff(2) = %v", d)
	}
	if d := c.backoff(20); d != maxBackoff {
		t.Errorf("backoff(20) = %v, want cap %v", d, maxBackoff)
	}
}
