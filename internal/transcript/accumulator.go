package transcript

import (
	"strings"
	"sync"
	"time"
)

type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerModel  Speaker = "model"
	SpeakerSystem Speaker = "system"
)

// Entry is one committed utterance. Immutable once created.
type Entry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Update carries the in-flight buffers for live captioning.
type Update struct {
	UserText  string `json:"user_text"`
	ModelText string `json:"model_text"`
}

// Accumulator buffers incremental transcript fragments and commits them as
// ordered entries on turn boundaries. Fragments are applied in arrival order;
// nothing delivered before a commit is ever dropped.
type Accumulator struct {
	mu       sync.Mutex
	userBuf  strings.Builder
	modelBuf strings.Builder
	history  []Entry
	seq      int
	onUpdate func(Update)
	now      func() time.Time
}

func NewAccumulator(onUpdate func(Update)) *Accumulator {
	return &Accumulator{onUpdate: onUpdate, now: time.Now}
}

// AppendFragment folds a transcript delta into the matching buffer and
// notifies observers with both buffers' current content.
func (a *Accumulator) AppendFragment(speaker Speaker, delta string) {
	if delta == "" {
		return
	}
	a.mu.Lock()
	switch speaker {
	case SpeakerUser:
		a.userBuf.WriteString(delta)
	case SpeakerModel:
		a.modelBuf.WriteString(delta)
	default:
		a.mu.Unlock()
		return
	}
	update := Update{UserText: a.userBuf.String(), ModelText: a.modelBuf.String()}
	a.mu.Unlock()
	a.notify(update)
}

// CommitTurn converts the buffered fragments into committed entries, user
// before model, omitting empty sides, then clears both buffers. Returns the
// newly committed entries in order.
func (a *Accumulator) CommitTurn() []Entry {
	a.mu.Lock()
	user := strings.TrimSpace(a.userBuf.String())
	model := strings.TrimSpace(a.modelBuf.String())
	a.userBuf.Reset()
	a.modelBuf.Reset()

	var committed []Entry
	if user != "" {
		committed = append(committed, a.appendLocked(SpeakerUser, user))
	}
	if model != "" {
		committed = append(committed, a.appendLocked(SpeakerModel, model))
	}
	a.mu.Unlock()

	a.notify(Update{})
	return committed
}

// AddSystem appends an out-of-band entry directly to the history, bypassing
// the turn buffers.
func (a *Accumulator) AddSystem(text string) Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.appendLocked(SpeakerSystem, text)
}

// Pending returns the current in-flight buffers.
func (a *Accumulator) Pending() Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Update{UserText: a.userBuf.String(), ModelText: a.modelBuf.String()}
}

// History returns a copy of the committed entries in order.
func (a *Accumulator) History() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Accumulator) appendLocked(speaker Speaker, text string) Entry {
	a.seq++
	e := Entry{Speaker: speaker, Text: text, Seq: a.seq, CreatedAt: a.now().UTC()}
	a.history = append(a.history, e)
	return e
}

func (a *Accumulator) notify(u Update) {
	if a.onUpdate != nil {
		a.onUpdate(u)
	}
}
