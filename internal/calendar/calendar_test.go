package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRelayNotConnected(t *testing.T) {
	r := NewRelay("", 0)
	if r.Connected() {
		t.Fatalf("Connected() = true for empty URL")
	}
	if err := r.CreateEvent(context.Background(), Event{Title: "x"}); err == nil {
		t.Fatalf("CreateEvent() succeeded while not connected")
	}
}

func TestRelayPostsEvent(t *testing.T) {
	var received Event
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	r := NewRelay(ts.URL, 2*time.Second)
	ev := Event{
		Title:    "Design consultation",
		StartsAt: time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 9, 1, 16, 0, 0, 0, time.UTC),
	}
	if err := r.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if received.Title != ev.Title {
		t.Fatalf("relayed title = %q, want %q", received.Title, ev.Title)
	}
}

func TestRelayReportsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	r := NewRelay(ts.URL, 2*time.Second)
	if err := r.CreateEvent(context.Background(), Event{Title: "x"}); err == nil {
		t.Fatalf("CreateEvent() succeeded on 403")
	}
}
