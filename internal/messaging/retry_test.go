package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithRetry_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	res, err := RunWithRetry(context.Background(), func(ctx context.Context) (*SendResult, error) {
		attempts++
		return &SendResult{RequestID: "r1"}, nil
	}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("RunWithRetry returned error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if res.RequestID != "r1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunWithRetry_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	res, err := RunWithRetry(context.Background(), func(ctx context.Context) (*SendResult, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return &SendResult{RequestID: "r3"}, nil
	}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("RunWithRetry returned error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if res.RequestID != "r3" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunWithRetry_ExhaustionReturnsFinalError(t *testing.T) {
	final := NewRejected("provider rejected", "last response")
	attempts := 0
	_, err := RunWithRetry(context.Background(), func(ctx context.Context) (*SendResult, error) {
		attempts++
		return nil, final
	}, 2, time.Millisecond)

	// maxRetries of 2 means three attempts total.
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, final) {
		t.Fatalf("expected the final error unchanged, got %v", err)
	}
	if CodeOf(err) != CodeProviderRejected {
		t.Fatalf("expected code preserved, got %q", CodeOf(err))
	}
}

func TestRunWithRetry_ZeroRetriesSingleAttempt(t *testing.T) {
	attempts := 0
	_, err := RunWithRetry(context.Background(), func(ctx context.Context) (*SendResult, error) {
		attempts++
		return nil, errors.New("boom")
	}, 0, time.Millisecond)
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := RunWithRetry(ctx, func(ctx context.Context) (*SendResult, error) {
		attempts++
		cancel()
		return nil, errors.New("transient")
	}, 5, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected retry loop to stop after cancellation, got %d attempts", attempts)
	}
}
