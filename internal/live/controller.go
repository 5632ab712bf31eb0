package live

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/antoniostano/hearth/internal/audio"
	"github.com/antoniostano/hearth/internal/media"
	"github.com/antoniostano/hearth/internal/observability"
	"github.com/antoniostano/hearth/internal/persona"
	"github.com/antoniostano/hearth/internal/reliability"
	"github.com/antoniostano/hearth/internal/store"
	"github.com/antoniostano/hearth/internal/tools"
	"github.com/antoniostano/hearth/internal/transcript"
)

// Status is the lifecycle state of the widget's live session.
type Status string

const (
	StatusInactive   Status = "inactive"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusError      Status = "error"
)

// ErrSessionActive is returned when a start is requested while a session is
// connecting or active. The caller must close the current session first.
var ErrSessionActive = errors.New("a live session is already active")

// ErrSessionClosed is returned when Close arrives while a start is still in
// flight; the start unwinds everything it acquired and the session stays
// inactive.
var ErrSessionClosed = errors.New("session closed during start")

// listeningCue tells the model the user is present so it speaks its greeting
// without waiting for audio.
const listeningCue = "<user_is_listening>"

// Output is the widget-facing side of the controller: status changes,
// transcripts, scheduled agent audio, and media directives.
type Output interface {
	media.DirectiveSink
	SendStatus(status Status, detail string)
	SendTranscript(update transcript.Update)
	SendTurnCommitted(entries []transcript.Entry)
	SendAgentAudio(seq int, pcm []byte, startAt time.Time, duration time.Duration)
	SendFlush()
	SendError(class, message string)
}

// ControllerConfig wires one controller to its collaborators.
type ControllerConfig struct {
	SessionID     string
	Transport     Transport
	Model         string
	Media         *media.Manager
	Output        Output
	Dispatcher    *tools.Dispatcher
	Store         store.Store
	Metrics       *observability.Metrics
	FirstAudioSLO time.Duration
}

// Controller owns one widget's live session lifecycle: media acquisition,
// the model connection, audio scheduling, transcription, and tool dispatch.
// At most one session is live at a time; starts while one is running are
// rejected.
type Controller struct {
	cfg ControllerConfig

	mu          sync.Mutex
	status      Status
	conn        Conn
	handle      *media.Handle
	accumulator *transcript.Accumulator
	scheduler   *audio.Scheduler
	cancel      context.CancelFunc
	gen         int
	seq         int
	startedAt   time.Time
	firstAudio  bool
}

func NewController(cfg ControllerConfig) *Controller {
	return &Controller{cfg: cfg, status: StatusInactive}
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// StartSession acquires media, opens the model connection, and begins
// processing events. On any failure the session returns to inactive with
// every acquired resource released.
func (c *Controller) StartSession(ctx context.Context, profile persona.Profile) error {
	c.mu.Lock()
	if c.status == StatusConnecting || c.status == StatusActive {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.gen++
	gen := c.gen
	c.setStatusLocked(StatusConnecting, "")
	c.mu.Unlock()

	startAttempt := time.Now()
	handle, err := c.cfg.Media.Acquire(ctx, profile.NeedsVideo)
	if err != nil {
		c.failStart(gen, err)
		return err
	}

	conn, events, err := c.cfg.Transport.Open(ctx, OpenParams{
		Model:               c.cfg.Model,
		SystemInstruction:   profile.SystemInstruction,
		Tools:               profile.Tools,
		VoiceID:             profile.VoiceID,
		InputTranscription:  true,
		OutputTranscription: true,
	})
	if err != nil {
		c.cfg.Media.Release(handle)
		c.failStart(gen, err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	if gen != c.gen {
		// Close ran while we were connecting; unwind what was acquired.
		c.mu.Unlock()
		cancel()
		if cerr := conn.Close(); cerr != nil {
			log.Printf("live: close aborted connection: %v", cerr)
		}
		c.cfg.Media.Release(handle)
		return ErrSessionClosed
	}
	c.conn = conn
	c.handle = handle
	c.accumulator = transcript.NewAccumulator(c.cfg.Output.SendTranscript)
	c.scheduler = audio.NewScheduler(audio.PlaybackSampleRate)
	c.cancel = cancel
	done := make(chan struct{})
	c.seq = 0
	c.firstAudio = false
	c.startedAt = time.Now()
	c.setStatusLocked(StatusActive, "")
	c.mu.Unlock()

	if m := c.cfg.Metrics; m != nil {
		m.ActiveSessions.Inc()
		m.SessionEvents.WithLabelValues("started").Inc()
		m.Latency.Observe(observability.StageStartToActive, time.Since(startAttempt))
	}

	go c.run(runCtx, gen, done, conn, events)

	if err := conn.SendText(ctx, listeningCue); err != nil {
		log.Printf("live: send listening cue: %v", err)
	}
	return nil
}

// Close ends the session and releases everything. Safe to call repeatedly
// and in any state.
func (c *Controller) Close() error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.teardown(gen, StatusInactive, "")
	return nil
}

// SendSystemMessage injects out-of-band context into the conversation, such
// as photo analysis results. The text is recorded as a system transcript
// entry and forwarded to the model.
func (c *Controller) SendSystemMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	conn := c.conn
	acc := c.accumulator
	active := c.status == StatusActive
	c.mu.Unlock()
	if !active || conn == nil {
		return errors.New("no active session")
	}
	if acc != nil {
		acc.AddSystem(text)
	}
	return conn.SendText(ctx, text)
}

// ForwardUserAudio relays one captured microphone chunk to the model.
// Chunks arriving outside an active session are dropped.
func (c *Controller) ForwardUserAudio(ctx context.Context, pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	active := c.status == StatusActive
	c.mu.Unlock()
	if !active || conn == nil {
		return nil
	}
	return conn.SendAudio(ctx, pcm)
}

// ForwardVideoFrame relays one captured camera frame to the model. Frames
// arriving outside an active session are dropped.
func (c *Controller) ForwardVideoFrame(ctx context.Context, mimeType string, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	active := c.status == StatusActive
	c.mu.Unlock()
	if !active || conn == nil {
		return nil
	}
	return conn.SendVideo(ctx, mimeType, data)
}

// BindCameraSurface attaches the session's camera stream to a widget surface.
func (c *Controller) BindCameraSurface(surfaceID string) error {
	c.mu.Lock()
	handle := c.handle
	c.mu.Unlock()
	return c.cfg.Media.Bind(handle, surfaceID)
}

func (c *Controller) run(ctx context.Context, gen int, done chan struct{}, conn Conn, events <-chan ServerEvent) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.teardown(gen, StatusInactive, "stream ended")
				return
			}
			if ev.Err != nil {
				c.handleTransportError(gen, ev.Err)
				return
			}
			c.handleEvent(ctx, gen, conn, ev)
		}
	}
}

// handleEvent processes one transport event for the given generation. Events
// buffered before a close can surface after it; anything from a retired
// generation is dropped so it never bleeds into a restarted session.
func (c *Controller) handleEvent(ctx context.Context, gen int, conn Conn, ev ServerEvent) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	acc := c.accumulator
	sched := c.scheduler
	c.mu.Unlock()

	switch {
	case len(ev.Audio) > 0:
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		slot := c.scheduler.Schedule(ev.Audio)
		c.seq++
		seq := c.seq
		first := !c.firstAudio
		c.firstAudio = true
		startedAt := c.startedAt
		c.mu.Unlock()
		if first {
			elapsed := time.Since(startedAt)
			if m := c.cfg.Metrics; m != nil {
				m.ObserveFirstAudioLatency(elapsed)
				if c.cfg.FirstAudioSLO > 0 && elapsed > c.cfg.FirstAudioSLO {
					m.Latency.ObserveIndicator("first_audio_slo_miss")
				}
			}
			if c.cfg.FirstAudioSLO > 0 && elapsed > c.cfg.FirstAudioSLO {
				log.Printf("live: first audio after %s exceeded SLO %s", elapsed.Round(time.Millisecond), c.cfg.FirstAudioSLO)
			}
		}
		c.cfg.Output.SendAgentAudio(seq, ev.Audio, slot.StartAt, slot.Duration)

	case ev.InputTranscript != "":
		acc.AppendFragment(transcript.SpeakerUser, ev.InputTranscript)

	case ev.OutputTranscript != "":
		acc.AppendFragment(transcript.SpeakerModel, ev.OutputTranscript)

	case ev.Interrupted:
		sched.Flush()
		c.cfg.Output.SendFlush()
		if m := c.cfg.Metrics; m != nil {
			m.Latency.ObserveIndicator("interrupted")
		}

	case ev.TurnComplete:
		entries := acc.CommitTurn()
		c.persistEntries(ctx, entries)
		c.cfg.Output.SendTurnCommitted(entries)

	case len(ev.ToolCalls) > 0:
		for _, call := range ev.ToolCalls {
			go c.dispatchTool(ctx, conn, call)
		}
	}
}

// dispatchTool answers one model function call. Dispatch never fails, so
// every call gets exactly one response even when the handler misbehaves.
func (c *Controller) dispatchTool(ctx context.Context, conn Conn, call ToolCall) {
	began := time.Now()
	res := c.cfg.Dispatcher.Dispatch(ctx, tools.Invocation{ID: call.ID, Name: call.Name, Args: call.Args})
	if m := c.cfg.Metrics; m != nil {
		outcome := "ok"
		if res.Response == tools.FallbackResponse {
			outcome = "fallback"
			m.Latency.ObserveIndicator("tool_fallback")
		}
		m.ToolCalls.WithLabelValues(call.Name, outcome).Inc()
		m.Latency.Observe(observability.StageToolDispatch, time.Since(began))
	}
	if err := conn.SendToolResponse(ctx, res.ID, res.Name, res.Response); err != nil {
		log.Printf("live: send tool response %s: %v", call.Name, err)
	}
}

func (c *Controller) handleTransportError(gen int, err error) {
	log.Printf("live: transport error: %v", err)
	if m := c.cfg.Metrics; m != nil {
		op := "receive"
		var terr *reliability.TransportError
		if errors.As(err, &terr) {
			op = terr.Op
		}
		m.TransportErrors.WithLabelValues(op).Inc()
	}
	c.cfg.Output.SendError(reliability.Classify(err), err.Error())
	c.teardown(gen, StatusError, err.Error())
}

// failStart reports a start failure and returns the controller to inactive.
// The status is left alone when a close already retired this start.
func (c *Controller) failStart(gen int, err error) {
	c.cfg.Output.SendError(reliability.Classify(err), err.Error())
	c.mu.Lock()
	if gen == c.gen {
		c.setStatusLocked(StatusInactive, err.Error())
	}
	c.mu.Unlock()
	if m := c.cfg.Metrics; m != nil {
		m.SessionEvents.WithLabelValues("start_failed").Inc()
	}
}

// teardown releases all session resources and settles on the given status.
// Idempotent, and a no-op when a newer session has already started: the old
// receive loop observing its channel close must not touch the new session.
func (c *Controller) teardown(gen int, status Status, detail string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	wasLive := c.status == StatusConnecting || c.status == StatusActive
	wasActive := c.status == StatusActive
	conn := c.conn
	handle := c.handle
	acc := c.accumulator
	sched := c.scheduler
	cancel := c.cancel
	c.conn = nil
	c.handle = nil
	c.cancel = nil
	c.setStatusLocked(status, detail)
	if wasLive {
		// Retire the generation so buffered events and an in-flight start
		// both observe the close.
		c.gen++
	}
	c.mu.Unlock()

	if !wasLive {
		return
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("live: close connection: %v", err)
		}
	}
	c.cfg.Media.Release(handle)
	if sched != nil {
		sched.Flush()
	}
	if acc != nil {
		// Flush any half-spoken turn so nothing buffered is lost.
		entries := acc.CommitTurn()
		c.persistEntries(context.Background(), entries)
		if len(entries) > 0 {
			c.cfg.Output.SendTurnCommitted(entries)
		}
	}
	if m := c.cfg.Metrics; m != nil && wasActive {
		m.ActiveSessions.Dec()
		m.SessionEvents.WithLabelValues("ended").Inc()
	}
}

func (c *Controller) persistEntries(ctx context.Context, entries []transcript.Entry) {
	if c.cfg.Store == nil {
		return
	}
	for _, e := range entries {
		record := store.EntryRecord{
			SessionID: c.cfg.SessionID,
			Speaker:   string(e.Speaker),
			Text:      e.Text,
			Seq:       e.Seq,
			CreatedAt: e.CreatedAt,
		}
		if err := c.cfg.Store.SaveTranscriptEntry(ctx, record); err != nil {
			log.Printf("live: save transcript entry: %v", err)
		}
	}
}

func (c *Controller) setStatusLocked(status Status, detail string) {
	if c.status == status {
		return
	}
	c.status = status
	c.cfg.Output.SendStatus(status, detail)
}
