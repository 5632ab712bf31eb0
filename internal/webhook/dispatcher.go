package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/hearth/internal/reliability"
)

// EventKind names an outbound integration event.
type EventKind string

const (
	EventLeadCaptured          EventKind = "lead_captured"
	EventReportSent            EventKind = "report_sent"
	EventConsultationScheduled EventKind = "consultation_scheduled"
)

// Endpoint is one registered webhook target.
type Endpoint struct {
	ID            string
	URL           string
	Events        []EventKind
	SigningSecret string
}

// envelope is the JSON body delivered to endpoints.
type envelope struct {
	ID        string         `json:"id"`
	Event     EventKind      `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Dispatcher delivers events to registered endpoints. Notify is
// fire-and-forget from the caller's perspective: delivery happens on its own
// goroutine with capped retries and never blocks or fails the caller.
type Dispatcher struct {
	endpoints []Endpoint
	client    *http.Client
	attempts  int
	backoff   time.Duration
	onDone    func(kind EventKind, url string, err error)
}

func NewDispatcher(endpoints []Endpoint, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		attempts:  3,
		backoff:   500 * time.Millisecond,
	}
}

// Notify dispatches the event to every endpoint subscribed to its kind.
func (d *Dispatcher) Notify(ctx context.Context, kind EventKind, payload map[string]any) {
	env := envelope{
		ID:        uuid.NewString(),
		Event:     kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("webhook: marshal %s event: %v", kind, err)
		return
	}
	for _, ep := range d.endpoints {
		if !subscribed(ep, kind) {
			continue
		}
		go d.deliver(ctx, ep, kind, body)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ep Endpoint, kind EventKind, body []byte) {
	var lastErr error
	for attempt := 0; attempt < d.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				d.finish(kind, ep.URL, lastErr)
				return
			case <-time.After(reliability.ExponentialBackoff(attempt-1, d.backoff, 8*time.Second)):
			}
		}
		retryable, err := d.post(ctx, ep, body)
		if err == nil {
			d.finish(kind, ep.URL, nil)
			return
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	log.Printf("webhook: deliver %s to %s failed: %v", kind, ep.URL, lastErr)
	d.finish(kind, ep.URL, lastErr)
}

func (d *Dispatcher) post(ctx context.Context, ep Endpoint, body []byte) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.SigningSecret != "" {
		req.Header.Set("X-Hearth-Signature", Sign(ep.SigningSecret, body))
	}

	res, err := d.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("webhook status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return false, nil
}

// SetOnDone installs a completion hook invoked once per delivery attempt
// chain, successful or not. Used for metrics.
func (d *Dispatcher) SetOnDone(fn func(kind EventKind, url string, err error)) {
	d.onDone = fn
}

func (d *Dispatcher) finish(kind EventKind, url string, err error) {
	if d.onDone != nil {
		d.onDone(kind, url, err)
	}
}

// Sign computes the hex HMAC-SHA256 of the body under the endpoint's secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func subscribed(ep Endpoint, kind EventKind) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, e := range ep.Events {
		if e == kind {
			return true
		}
	}
	return false
}
