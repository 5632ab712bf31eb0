package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/antoniostano/hearth/internal/persona"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s, err := m.Create("v1", persona.ContractorAgent, persona.Settings{AgentName: "Elena"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.VisitorID != "v1" || got.PersonaID != persona.ContractorAgent || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}
	if got.Settings.AgentName != "Elena" {
		t.Fatalf("Settings.AgentName = %q", got.Settings.AgentName)
	}

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
}

func TestManagerRejectsSecondSessionForVisitor(t *testing.T) {
	m := NewManager(time.Minute)
	s, err := m.Create("v1", persona.LiveVoiceAgent, persona.Settings{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := m.Create("v1", persona.LiveVoiceAgent, persona.Settings{}); !errors.Is(err, ErrVisitorBusy) {
		t.Fatalf("second Create() error = %v, want ErrVisitorBusy", err)
	}

	if _, err := m.End(s.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if _, err := m.Create("v1", persona.LiveVoiceAgent, persona.Settings{}); err != nil {
		t.Fatalf("Create() after End error = %v", err)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s, err := m.Create("v1", persona.LiveVoiceAgent, persona.Settings{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	expired := make(chan string, 1)
	m.SetExpireHook(func(s *Session) { expired <- s.ID })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case id := <-expired:
		if id != s.ID {
			t.Fatalf("expired session = %q, want %q", id, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("janitor did not expire the session")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
}
