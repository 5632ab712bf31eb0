package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/antoniostano/hearth/internal/reliability"
)

type Kind string

const (
	KindMicrophone Kind = "microphone"
	KindCamera     Kind = "camera"
)

// Directive is a media control message for the widget shell: acquire a
// device, bind the camera stream to a display surface, or stop tracks.
type Directive struct {
	Action    string `json:"action"`
	Kind      Kind   `json:"kind,omitempty"`
	SurfaceID string `json:"surface_id,omitempty"`
}

const (
	ActionAcquire = "acquire"
	ActionRelease = "release"
	ActionBind    = "bind"
)

// DirectiveSink delivers directives to the widget. Implemented by the
// session's outbound channel.
type DirectiveSink interface {
	SendMediaDirective(d Directive) error
}

// Grant is the widget's answer to an acquire directive.
type Grant struct {
	Kind    Kind
	Granted bool
	TrackID string
	Reason  string
}

// Track is one live hardware track the widget holds on our behalf.
type Track struct {
	Kind Kind
	ID   string
}

// Handle owns the set of acquired tracks for one session. Exclusively owned
// by the manager; released on every session-end path.
type Handle struct {
	mu       sync.Mutex
	tracks   []Track
	surface  string
	released bool
}

// ActiveTracks reports the tracks not yet stopped.
func (h *Handle) ActiveTracks() []Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	out := make([]Track, len(h.tracks))
	copy(out, h.tracks)
	return out
}

// BoundSurface reports the display surface the camera is attached to.
func (h *Handle) BoundSurface() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface
}

// Manager acquires and releases widget media hardware for the active
// session. Acquisition is request/ack over the widget connection with a
// deadline; a denied or timed-out grant is fatal to session start.
type Manager struct {
	sink       DirectiveSink
	ackTimeout time.Duration

	mu      sync.Mutex
	pending map[Kind]chan Grant
}

func NewManager(sink DirectiveSink, ackTimeout time.Duration) *Manager {
	if ackTimeout <= 0 {
		ackTimeout = 10 * time.Second
	}
	return &Manager{
		sink:       sink,
		ackTimeout: ackTimeout,
		pending:    make(map[Kind]chan Grant),
	}
}

// Acquire requests the microphone, plus the camera when needsVideo is set.
// On any failure every already-acquired track is stopped before the error is
// reported, so a failed start never leaks hardware.
func (m *Manager) Acquire(ctx context.Context, needsVideo bool) (*Handle, error) {
	h := &Handle{}

	mic, err := m.acquireOne(ctx, KindMicrophone)
	if err != nil {
		return nil, err
	}
	h.tracks = append(h.tracks, mic)

	if needsVideo {
		cam, err := m.acquireOne(ctx, KindCamera)
		if err != nil {
			m.Release(h)
			return nil, err
		}
		h.tracks = append(h.tracks, cam)
	}
	return h, nil
}

// Bind attaches the live camera stream to a display surface. Voice-only
// sessions never touch the surface.
func (m *Manager) Bind(h *Handle, surfaceID string) error {
	if h == nil || surfaceID == "" {
		return nil
	}
	h.mu.Lock()
	hasCamera := false
	for _, t := range h.tracks {
		if t.Kind == KindCamera {
			hasCamera = true
		}
	}
	if !hasCamera || h.released {
		h.mu.Unlock()
		return nil
	}
	h.surface = surfaceID
	h.mu.Unlock()

	return m.sink.SendMediaDirective(Directive{Action: ActionBind, Kind: KindCamera, SurfaceID: surfaceID})
}

// Release stops every track and detaches any bound surface. Idempotent and
// safe on partially-acquired handles.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	tracks := h.tracks
	h.tracks = nil
	h.surface = ""
	h.mu.Unlock()

	for _, t := range tracks {
		// Best effort: the widget may already be gone.
		_ = m.sink.SendMediaDirective(Directive{Action: ActionRelease, Kind: t.Kind})
	}
}

// HandleGrant routes the widget's acquire response to the waiting caller.
// Grants for kinds nobody is waiting on are dropped.
func (m *Manager) HandleGrant(g Grant) {
	m.mu.Lock()
	ch, ok := m.pending[g.Kind]
	if ok {
		delete(m.pending, g.Kind)
	}
	m.mu.Unlock()
	if ok {
		ch <- g
	}
}

func (m *Manager) acquireOne(ctx context.Context, kind Kind) (Track, error) {
	ch := make(chan Grant, 1)
	m.mu.Lock()
	m.pending[kind] = ch
	m.mu.Unlock()

	if err := m.sink.SendMediaDirective(Directive{Action: ActionAcquire, Kind: kind}); err != nil {
		m.cancelPending(kind)
		return Track{}, &reliability.AcquisitionError{Device: string(kind), Err: err}
	}

	timer := time.NewTimer(m.ackTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		m.cancelPending(kind)
		return Track{}, &reliability.AcquisitionError{Device: string(kind), Err: ctx.Err()}
	case <-timer.C:
		m.cancelPending(kind)
		return Track{}, &reliability.AcquisitionError{Device: string(kind), Err: fmt.Errorf("no grant within %s", m.ackTimeout)}
	case g := <-ch:
		if !g.Granted {
			reason := g.Reason
			if reason == "" {
				reason = "permission denied"
			}
			return Track{}, &reliability.AcquisitionError{Device: string(kind), Err: fmt.Errorf("%s", reason)}
		}
		return Track{Kind: kind, ID: g.TrackID}, nil
	}
}

func (m *Manager) cancelPending(kind Kind) {
	m.mu.Lock()
	delete(m.pending, kind)
	m.mu.Unlock()
}
