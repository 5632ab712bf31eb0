package live

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antoniostano/hearth/internal/calendar"
	"github.com/antoniostano/hearth/internal/config"
	"github.com/antoniostano/hearth/internal/imagegen"
	"github.com/antoniostano/hearth/internal/observability"
	"github.com/antoniostano/hearth/internal/persona"
	"github.com/antoniostano/hearth/internal/protocol"
	"github.com/antoniostano/hearth/internal/session"
	"github.com/antoniostano/hearth/internal/store"
)

type orchestratorFixture struct {
	orch      *Orchestrator
	transport *MockTransport
	sessions  *session.Manager
	store     *store.InMemoryStore
	inbound   chan any
	outbound  chan any

	mu       sync.Mutex
	received []any
	runDone  chan error
}

func newOrchestratorFixture(t *testing.T, personaID persona.ID) (*orchestratorFixture, *session.Session) {
	t.Helper()
	cfg := config.Config{
		LiveModel:       "test-live-model",
		ToolCallTimeout: 2 * time.Second,
		MediaAckTimeout: 2 * time.Second,
	}
	transport := NewMockTransport()
	st := store.NewInMemoryStore()
	sessions := session.NewManager(2 * time.Minute)
	metrics := observability.NewMetrics("test_live_orch_" + t.Name() + time.Now().Format("150405000000000"))
	orch := NewOrchestrator(cfg, transport, imagegen.NewMockGenerator(), sessions, st, nil, calendar.NewRelay("", 0), metrics)

	sess, err := sessions.Create("visitor-1", personaID, persona.Settings{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f := &orchestratorFixture{
		orch:      orch,
		transport: transport,
		sessions:  sessions,
		store:     st,
		inbound:   make(chan any, 32),
		outbound:  make(chan any, 256),
		runDone:   make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// Pump outbound like the widget would: record everything and grant
	// every media directive.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-f.outbound:
				f.mu.Lock()
				f.received = append(f.received, msg)
				f.mu.Unlock()
				if d, ok := msg.(protocol.MediaDirective); ok && d.Action == "acquire" {
					f.inbound <- protocol.MediaAck{
						Type:      protocol.TypeMediaAck,
						SessionID: sess.ID,
						Kind:      d.Kind,
						Granted:   true,
						TrackID:   "track-" + d.Kind,
					}
				}
			}
		}
	}()

	go func() {
		f.runDone <- orch.RunConnection(ctx, sess, f.inbound, f.outbound)
	}()

	return f, sess
}

func (f *orchestratorFixture) messages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.received))
	copy(out, f.received)
	return out
}

func TestRunConnectionStartsAndEndsSession(t *testing.T) {
	f, sess := newOrchestratorFixture(t, persona.LiveVoiceAgent)

	waitFor(t, "transport session", func() bool { return len(f.transport.Sessions()) == 1 })
	conn := f.transport.Sessions()[0]
	if conn.Params().Model != "test-live-model" {
		t.Fatalf("Model = %q, want %q", conn.Params().Model, "test-live-model")
	}
	waitFor(t, "listening cue", func() bool { return len(conn.SentTexts()) >= 1 })

	f.inbound <- protocol.EndSession{Type: protocol.TypeEndSession, SessionID: sess.ID}

	select {
	case err := <-f.runDone:
		if err != nil {
			t.Fatalf("RunConnection() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunConnection did not return after end_session")
	}
	if !conn.Closed() {
		t.Fatalf("transport connection not closed after end_session")
	}
	if _, err := f.orch.HandlePhoto(context.Background(), sess.ID, "image/jpeg", []byte{1}); err != ErrNoRuntime {
		t.Fatalf("HandlePhoto after end error = %v, want %v", err, ErrNoRuntime)
	}
}

func TestSessionActivatesWithGrantsOnInbound(t *testing.T) {
	f, _ := newOrchestratorFixture(t, persona.LiveVoiceAgent)

	// Grants only ever arrive as media_ack messages on the inbound channel,
	// so the start must run alongside the drain loop to see them.
	waitFor(t, "active status", func() bool {
		for _, msg := range f.messages() {
			if st, ok := msg.(protocol.SessionStatus); ok && st.Status == string(StatusActive) {
				return true
			}
		}
		return false
	})
	select {
	case err := <-f.runDone:
		t.Fatalf("RunConnection returned early: %v", err)
	default:
	}
	if got := len(f.transport.Sessions()); got != 1 {
		t.Fatalf("transport sessions = %d, want 1", got)
	}
}

func TestRunConnectionForwardsAudio(t *testing.T) {
	f, sess := newOrchestratorFixture(t, persona.LiveVoiceAgent)

	waitFor(t, "transport session", func() bool { return len(f.transport.Sessions()) == 1 })
	conn := f.transport.Sessions()[0]

	pcm := []byte{1, 2, 3, 4}
	f.inbound <- protocol.ClientAudioChunk{
		Type:        protocol.TypeClientAudioChunk,
		SessionID:   sess.ID,
		Seq:         1,
		PCM16Base64: base64.StdEncoding.EncodeToString(pcm),
		SampleRate:  16000,
	}

	waitFor(t, "forwarded audio", func() bool { return len(conn.SentAudio()) == 1 })
	if got := conn.SentAudio()[0]; string(got) != string(pcm) {
		t.Fatalf("forwarded audio = %v, want %v", got, pcm)
	}
}

func TestHandlePhotoCreatesSpaceAndAnalyzes(t *testing.T) {
	f, sess := newOrchestratorFixture(t, persona.LiveVoiceAgent)

	waitFor(t, "transport session", func() bool { return len(f.transport.Sessions()) == 1 })
	conn := f.transport.Sessions()[0]
	waitFor(t, "listening cue", func() bool { return len(conn.SentTexts()) >= 1 })

	result, err := f.orch.HandlePhoto(context.Background(), sess.ID, "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("HandlePhoto() error = %v", err)
	}
	if result.SpaceID == "" || result.ImageID == "" {
		t.Fatalf("photo result incomplete: %+v", result)
	}
	if result.Analysis == "" {
		t.Fatalf("missing analysis in photo result")
	}

	// The capture flow shows the photo and briefs the model.
	waitFor(t, "design image", func() bool {
		for _, msg := range f.messages() {
			if _, ok := msg.(protocol.DesignImage); ok {
				return true
			}
		}
		return false
	})
	waitFor(t, "model briefing", func() bool { return len(conn.SentTexts()) >= 2 })
}

func TestHandlePhotoWaterDamagePipeline(t *testing.T) {
	f, sess := newOrchestratorFixture(t, persona.WaterDamageRestoration)

	waitFor(t, "transport session", func() bool { return len(f.transport.Sessions()) == 1 })
	conn := f.transport.Sessions()[0]
	waitFor(t, "listening cue", func() bool { return len(conn.SentTexts()) >= 1 })

	result, err := f.orch.HandlePhoto(context.Background(), sess.ID, "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("HandlePhoto() error = %v", err)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("missing style suggestions in water damage result")
	}

	// Original photo plus the cleaned-slate rendering.
	waitFor(t, "cleaned-slate image", func() bool {
		count := 0
		for _, msg := range f.messages() {
			if _, ok := msg.(protocol.DesignImage); ok {
				count++
			}
		}
		return count >= 2
	})
}

func TestCreateSpaceMessageBriefsModel(t *testing.T) {
	f, sess := newOrchestratorFixture(t, persona.RemodelingConsultant)

	waitFor(t, "transport session", func() bool { return len(f.transport.Sessions()) == 1 })
	conn := f.transport.Sessions()[0]
	waitFor(t, "listening cue", func() bool { return len(conn.SentTexts()) >= 1 })

	f.inbound <- protocol.CreateSpace{Type: protocol.TypeCreateSpace, SessionID: sess.ID, Name: "Kitchen"}

	waitFor(t, "space announcement", func() bool { return len(conn.SentTexts()) >= 2 })
	texts := conn.SentTexts()
	last := texts[len(texts)-1]
	if want := "Kitchen"; !strings.Contains(last, want) {
		t.Fatalf("space announcement = %q, want mention of %q", last, want)
	}
}
