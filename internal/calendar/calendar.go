package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Event is one calendar entry requested by the agent.
type Event struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// Service writes events to the widget owner's calendar. Connected reports
// whether the integration is wired up; callers must check it before invoking
// CreateEvent.
type Service interface {
	Connected() bool
	CreateEvent(ctx context.Context, ev Event) error
}

// Relay posts events to a configured calendar relay endpoint (typically the
// owner's workspace automation). An empty URL means not connected.
type Relay struct {
	url    string
	client *http.Client
}

func NewRelay(url string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Relay{url: strings.TrimSpace(url), client: &http.Client{Timeout: timeout}}
}

func (r *Relay) Connected() bool { return r.url != "" }

func (r *Relay) CreateEvent(ctx context.Context, ev Event) error {
	if !r.Connected() {
		return fmt.Errorf("calendar integration not connected")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return fmt.Errorf("calendar relay status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
