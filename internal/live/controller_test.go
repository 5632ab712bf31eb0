package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/antoniostano/hearth/internal/media"
	"github.com/antoniostano/hearth/internal/persona"
	"github.com/antoniostano/hearth/internal/reliability"
	"github.com/antoniostano/hearth/internal/store"
	"github.com/antoniostano/hearth/internal/tools"
	"github.com/antoniostano/hearth/internal/transcript"
)

type audioItem struct {
	seq      int
	pcm      []byte
	startAt  time.Time
	duration time.Duration
}

type fakeOutput struct {
	mu         sync.Mutex
	mediaMgr   *media.Manager
	grants     map[media.Kind]media.Grant
	statuses   []Status
	directives []media.Directive
	audio      []audioItem
	turns      [][]transcript.Entry
	updates    []transcript.Update
	errors     []string
	flushes    int
}

func (o *fakeOutput) SendMediaDirective(d media.Directive) error {
	o.mu.Lock()
	o.directives = append(o.directives, d)
	mgr := o.mediaMgr
	var grant media.Grant
	granted := false
	if d.Action == media.ActionAcquire {
		grant, granted = o.grants[d.Kind]
	}
	o.mu.Unlock()
	if granted {
		go mgr.HandleGrant(grant)
	}
	return nil
}

func (o *fakeOutput) SendStatus(status Status, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *fakeOutput) SendTranscript(u transcript.Update) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, u)
}

func (o *fakeOutput) SendTurnCommitted(entries []transcript.Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, entries)
}

func (o *fakeOutput) SendAgentAudio(seq int, pcm []byte, startAt time.Time, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio = append(o.audio, audioItem{seq: seq, pcm: pcm, startAt: startAt, duration: duration})
}

func (o *fakeOutput) SendFlush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes++
}

func (o *fakeOutput) SendError(_, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, message)
}

func (o *fakeOutput) releaseDirectives(kind media.Kind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, d := range o.directives {
		if d.Action == media.ActionRelease && d.Kind == kind {
			n++
		}
	}
	return n
}

func (o *fakeOutput) lastErrors() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.errors))
	copy(out, o.errors)
	return out
}

func (o *fakeOutput) audioItems() []audioItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]audioItem, len(o.audio))
	copy(out, o.audio)
	return out
}

func (o *fakeOutput) committedTurns() [][]transcript.Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]transcript.Entry, len(o.turns))
	copy(out, o.turns)
	return out
}

func (o *fakeOutput) transcriptUpdates() []transcript.Update {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]transcript.Update, len(o.updates))
	copy(out, o.updates)
	return out
}

func allGrants() map[media.Kind]media.Grant {
	return map[media.Kind]media.Grant{
		media.KindMicrophone: {Kind: media.KindMicrophone, Granted: true, TrackID: "mic-1"},
		media.KindCamera:     {Kind: media.KindCamera, Granted: true, TrackID: "cam-1"},
	}
}

func testProfile(needsVideo bool) persona.Profile {
	return persona.Profile{
		ID:                persona.LiveVoiceAgent,
		SystemInstruction: "You are a helpful live agent.",
		VoiceID:           persona.DefaultVoiceID,
		NeedsVideo:        needsVideo,
	}
}

func newControllerFixture(grants map[media.Kind]media.Grant) (*Controller, *fakeOutput, *MockTransport, *store.InMemoryStore) {
	out := &fakeOutput{grants: grants}
	mgr := media.NewManager(out, 200*time.Millisecond)
	out.mediaMgr = mgr
	transport := NewMockTransport()
	st := store.NewInMemoryStore()
	ctrl := NewController(ControllerConfig{
		SessionID:  "sess-1",
		Transport:  transport,
		Model:      "live-model",
		Media:      mgr,
		Output:     out,
		Dispatcher: tools.NewDispatcher(time.Second),
		Store:      st,
	})
	return ctrl, out, transport, st
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartSessionOpensTransportWithProfile(t *testing.T) {
	ctrl, _, transport, _ := newControllerFixture(allGrants())

	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	if got := ctrl.Status(); got != StatusActive {
		t.Fatalf("Status() = %q, want active", got)
	}
	sessions := transport.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	params := sessions[0].Params()
	if params.SystemInstruction != "You are a helpful live agent." {
		t.Fatalf("SystemInstruction = %q", params.SystemInstruction)
	}
	if params.VoiceID != persona.DefaultVoiceID {
		t.Fatalf("VoiceID = %q", params.VoiceID)
	}

	// The greeting cue goes out as soon as the connection is live.
	waitFor(t, "listening cue", func() bool {
		texts := sessions[0].SentTexts()
		return len(texts) == 1 && texts[0] == listeningCue
	})
}

func TestStartSessionRejectsWhileActive(t *testing.T) {
	ctrl, _, _, _ := newControllerFixture(allGrants())

	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if err := ctrl.StartSession(context.Background(), testProfile(false)); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second StartSession() error = %v, want ErrSessionActive", err)
	}

	ctrl.Close()
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() after Close error = %v", err)
	}
	ctrl.Close()
}

func TestStartSessionCameraDenialReleasesEverything(t *testing.T) {
	grants := allGrants()
	grants[media.KindCamera] = media.Grant{Kind: media.KindCamera, Granted: false, Reason: "NotAllowedError"}
	ctrl, out, transport, _ := newControllerFixture(grants)

	err := ctrl.StartSession(context.Background(), testProfile(true))
	var acqErr *reliability.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("StartSession() error = %v, want acquisition error", err)
	}
	if got := ctrl.Status(); got != StatusInactive {
		t.Fatalf("Status() = %q, want inactive", got)
	}
	if n := out.releaseDirectives(media.KindMicrophone); n != 1 {
		t.Fatalf("microphone release directives = %d, want 1", n)
	}
	if len(transport.Sessions()) != 0 {
		t.Fatalf("transport opened despite failed acquisition")
	}

	// A later start is clean.
	grants[media.KindCamera] = media.Grant{Kind: media.KindCamera, Granted: true, TrackID: "cam-1"}
	if err := ctrl.StartSession(context.Background(), testProfile(true)); err != nil {
		t.Fatalf("retry StartSession() error = %v", err)
	}
	ctrl.Close()
}

func TestStartSessionTransportFailureReleasesMedia(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	transport.FailNextOpen(&reliability.TransportError{Op: "connect", Err: errors.New("dial failed")})

	err := ctrl.StartSession(context.Background(), testProfile(false))
	var terr *reliability.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("StartSession() error = %v, want transport error", err)
	}
	if got := ctrl.Status(); got != StatusInactive {
		t.Fatalf("Status() = %q, want inactive", got)
	}
	if n := out.releaseDirectives(media.KindMicrophone); n != 1 {
		t.Fatalf("microphone release directives = %d, want 1", n)
	}
}

func TestAgentAudioScheduledGapless(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	conn := transport.Sessions()[0]
	chunk := make([]byte, 4800) // 100ms at 24kHz mono 16-bit
	conn.Emit(ServerEvent{Audio: chunk})
	conn.Emit(ServerEvent{Audio: chunk})

	waitFor(t, "two audio items", func() bool { return len(out.audioItems()) == 2 })

	items := out.audioItems()
	if items[0].seq != 1 || items[1].seq != 2 {
		t.Fatalf("seq = %d, %d", items[0].seq, items[1].seq)
	}
	wantStart := items[0].startAt.Add(items[0].duration)
	if !items[1].startAt.Equal(wantStart) {
		t.Fatalf("second chunk starts at %v, want %v", items[1].startAt, wantStart)
	}
	if items[0].duration != 100*time.Millisecond {
		t.Fatalf("duration = %v, want 100ms", items[0].duration)
	}
}

func TestInterruptionFlushesPlayback(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	conn := transport.Sessions()[0]
	conn.Emit(ServerEvent{Audio: make([]byte, 4800)})
	conn.Emit(ServerEvent{Interrupted: true})

	waitFor(t, "flush", func() bool {
		out.mu.Lock()
		defer out.mu.Unlock()
		return out.flushes == 1
	})
}

func TestTurnCommitPersistsEntries(t *testing.T) {
	ctrl, out, transport, st := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	conn := transport.Sessions()[0]
	conn.Emit(ServerEvent{InputTranscript: "how much would "})
	conn.Emit(ServerEvent{InputTranscript: "a remodel cost?"})
	conn.Emit(ServerEvent{OutputTranscript: "It depends on the scope."})
	conn.Emit(ServerEvent{TurnComplete: true})

	waitFor(t, "committed turn", func() bool { return len(out.committedTurns()) == 1 })

	entries := out.committedTurns()[0]
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Speaker != transcript.SpeakerUser || entries[0].Text != "how much would a remodel cost?" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Speaker != transcript.SpeakerModel {
		t.Fatalf("second entry = %+v", entries[1])
	}

	records, err := st.SessionTranscript(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("SessionTranscript() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(records))
	}
}

func TestToolCallsAlwaysAnswered(t *testing.T) {
	ctrl, _, transport, _ := newControllerFixture(allGrants())
	ctrl.cfg.Dispatcher.Register("echo", func(_ context.Context, inv tools.Invocation) (string, error) {
		s, _ := inv.Args["text"].(string)
		return s, nil
	})
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	conn := transport.Sessions()[0]
	conn.Emit(ServerEvent{ToolCalls: []ToolCall{
		{ID: "c1", Name: "echo", Args: map[string]any{"text": "hi"}},
		{ID: "c2", Name: "doesNotExist"},
	}})

	waitFor(t, "two tool responses", func() bool { return len(conn.ToolResponses()) == 2 })

	byID := map[string]MockToolResponse{}
	for _, r := range conn.ToolResponses() {
		byID[r.ID] = r
	}
	if byID["c1"].Response != "hi" {
		t.Fatalf("echo response = %q", byID["c1"].Response)
	}
	if byID["c2"].Response != tools.FallbackResponse {
		t.Fatalf("unknown tool response = %q, want fallback", byID["c2"].Response)
	}
}

func TestSystemMessageReachesModel(t *testing.T) {
	ctrl, _, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer ctrl.Close()

	diagnostic := "(System: The user's photo shows a kitchen with oak cabinets.)"
	if err := ctrl.SendSystemMessage(context.Background(), diagnostic); err != nil {
		t.Fatalf("SendSystemMessage() error = %v", err)
	}

	conn := transport.Sessions()[0]
	waitFor(t, "system text", func() bool {
		for _, text := range conn.SentTexts() {
			if text == diagnostic {
				return true
			}
		}
		return false
	})
}

func TestTransportErrorMidSessionRecovers(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	conn := transport.Sessions()[0]
	conn.Emit(ServerEvent{Err: &reliability.TransportError{Op: "receive", Err: errors.New("connection reset")}})

	waitFor(t, "error status", func() bool { return ctrl.Status() == StatusError })

	if n := out.releaseDirectives(media.KindMicrophone); n != 1 {
		t.Fatalf("microphone release directives = %d, want 1", n)
	}
	if msgs := out.lastErrors(); len(msgs) == 0 {
		t.Fatalf("no error event sent")
	}

	// A fresh start after the failure works.
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() after error = %v", err)
	}
	if got := ctrl.Status(); got != StatusActive {
		t.Fatalf("Status() = %q, want active", got)
	}
	ctrl.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	releases := out.releaseDirectives(media.KindMicrophone)
	if err := ctrl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if got := out.releaseDirectives(media.KindMicrophone); got != releases {
		t.Fatalf("second Close released again: %d -> %d", releases, got)
	}
	if !transport.Sessions()[0].Closed() {
		t.Fatalf("connection not closed")
	}
	if got := ctrl.Status(); got != StatusInactive {
		t.Fatalf("Status() = %q, want inactive", got)
	}
}

func TestUserAudioForwardedOnlyWhileActive(t *testing.T) {
	ctrl, _, transport, _ := newControllerFixture(allGrants())

	if err := ctrl.ForwardUserAudio(context.Background(), []byte{1, 2}); err != nil {
		t.Fatalf("ForwardUserAudio() before start error = %v", err)
	}

	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if err := ctrl.ForwardUserAudio(context.Background(), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("ForwardUserAudio() error = %v", err)
	}
	conn := transport.Sessions()[0]
	if got := len(conn.SentAudio()); got != 1 {
		t.Fatalf("sent audio chunks = %d, want 1", got)
	}
	ctrl.Close()

	if err := ctrl.ForwardUserAudio(context.Background(), []byte{5, 6}); err != nil {
		t.Fatalf("ForwardUserAudio() after close error = %v", err)
	}
	if got := len(conn.SentAudio()); got != 1 {
		t.Fatalf("audio forwarded after close: %d chunks", got)
	}
}

func TestCloseDuringConnectingAbortsStart(t *testing.T) {
	// No grants configured, so the start parks in media acquisition until the
	// test hands one over.
	ctrl, out, transport, _ := newControllerFixture(map[media.Kind]media.Grant{})

	startErr := make(chan error, 1)
	go func() {
		startErr <- ctrl.StartSession(context.Background(), testProfile(false))
	}()

	waitFor(t, "connecting status", func() bool { return ctrl.Status() == StatusConnecting })
	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The widget's grant lands after the close; the start must unwind
	// instead of bringing the session up.
	out.mediaMgr.HandleGrant(media.Grant{Kind: media.KindMicrophone, Granted: true, TrackID: "mic-1"})

	select {
	case err := <-startErr:
		if !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("StartSession() error = %v, want ErrSessionClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("StartSession did not return after Close")
	}
	if got := ctrl.Status(); got != StatusInactive {
		t.Fatalf("Status() = %q, want inactive", got)
	}
	waitFor(t, "aborted connection closed", func() bool {
		sessions := transport.Sessions()
		return len(sessions) == 1 && sessions[0].Closed()
	})
	if n := out.releaseDirectives(media.KindMicrophone); n != 1 {
		t.Fatalf("microphone release directives = %d, want 1", n)
	}
}

func TestStaleEventsAfterRestartAreDropped(t *testing.T) {
	ctrl, out, transport, _ := newControllerFixture(allGrants())
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	oldConn := transport.Sessions()[0]
	ctrl.mu.Lock()
	oldGen := ctrl.gen
	ctrl.mu.Unlock()

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := ctrl.StartSession(context.Background(), testProfile(false)); err != nil {
		t.Fatalf("restart StartSession() error = %v", err)
	}
	defer ctrl.Close()

	updatesBefore := len(out.transcriptUpdates())
	turnsBefore := len(out.committedTurns())

	// Events the old receive loop had buffered when the session closed must
	// not touch the restarted session's scheduler or transcript.
	ctrl.handleEvent(context.Background(), oldGen, oldConn, ServerEvent{Audio: make([]byte, 4800)})
	ctrl.handleEvent(context.Background(), oldGen, oldConn, ServerEvent{InputTranscript: "stale fragment"})
	ctrl.handleEvent(context.Background(), oldGen, oldConn, ServerEvent{TurnComplete: true})

	if got := len(out.audioItems()); got != 0 {
		t.Fatalf("stale audio scheduled: %d items", got)
	}
	if got := len(out.transcriptUpdates()); got != updatesBefore {
		t.Fatalf("stale transcript updates sent: %d -> %d", updatesBefore, got)
	}
	if got := len(out.committedTurns()); got != turnsBefore {
		t.Fatalf("stale turn committed: %d -> %d", turnsBefore, got)
	}
	if got := ctrl.Status(); got != StatusActive {
		t.Fatalf("Status() = %q, want active", got)
	}
}
