package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatchUnknownToolAnswersWithFallback(t *testing.T) {
	d := NewDispatcher(time.Second)

	res := d.Dispatch(context.Background(), Invocation{ID: "call-1", Name: "launchRocket"})
	if res.ID != "call-1" || res.Name != "launchRocket" {
		t.Fatalf("result identity = %q/%q", res.ID, res.Name)
	}
	if res.Response != FallbackResponse {
		t.Fatalf("Response = %q, want fallback", res.Response)
	}
}

func TestDispatchHandlerErrorUsesSpokenMessage(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register("broken", func(context.Context, Invocation) (string, error) {
		return "Sorry, that didn't work.", errors.New("backend down")
	})

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: "broken"})
	if res.Response != "Sorry, that didn't work." {
		t.Fatalf("Response = %q", res.Response)
	}
}

func TestDispatchHandlerErrorWithoutMessage(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register("broken", func(context.Context, Invocation) (string, error) {
		return "", errors.New("backend down")
	})

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: "broken"})
	if res.Response != genericErrorResponse {
		t.Fatalf("Response = %q, want generic error", res.Response)
	}
}

func TestDispatchHandlerPanicStillAnswers(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register("panicky", func(context.Context, Invocation) (string, error) {
		panic("boom")
	})

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: "panicky"})
	if res.Response != FallbackResponse {
		t.Fatalf("Response = %q, want fallback", res.Response)
	}
}

func TestDispatchTimeoutCancelsHandler(t *testing.T) {
	d := NewDispatcher(20 * time.Millisecond)
	d.Register("slow", func(ctx context.Context, _ Invocation) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: "slow"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("dispatch took %s, timeout did not fire", elapsed)
	}
	if res.Response != genericErrorResponse {
		t.Fatalf("Response = %q", res.Response)
	}
}

func TestDispatchConcurrentCallsEachAnswered(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register("echo", func(_ context.Context, inv Invocation) (string, error) {
		s, err := stringArg(inv.Args, "text")
		return s, err
	})

	const n = 8
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.Dispatch(context.Background(), Invocation{
				ID:   string(rune('a' + i)),
				Name: "echo",
				Args: map[string]any{"text": "hello"},
			})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res.Response != "hello" {
			t.Fatalf("result %d = %q, want %q", i, res.Response, "hello")
		}
		if res.ID != string(rune('a'+i)) {
			t.Fatalf("result %d id = %q", i, res.ID)
		}
	}
}
