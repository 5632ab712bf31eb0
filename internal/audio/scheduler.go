package audio

import (
	"sync"
	"time"
)

// Scheduler assigns playback start times to inbound synthesized audio chunks
// so consecutive chunks play back-to-back with no overlap and no gap. It
// tracks a monotonically advancing watermark: each chunk starts where the
// previous one ends, clamped forward to now when playback has underrun.
type Scheduler struct {
	mu         sync.Mutex
	sampleRate int
	next       time.Time
	now        func() time.Time
}

// Slot is one scheduled playback window.
type Slot struct {
	StartAt  time.Time
	Duration time.Duration
}

func NewScheduler(sampleRate int) *Scheduler {
	if sampleRate <= 0 {
		sampleRate = PlaybackSampleRate
	}
	return &Scheduler{sampleRate: sampleRate, now: time.Now}
}

// Schedule reserves the next playback slot for a PCM16LE chunk.
func (s *Scheduler) Schedule(pcm []byte) Slot {
	dur := Duration(pcm, s.sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.next
	if now := s.now(); start.Before(now) {
		start = now
	}
	s.next = start.Add(dur)
	return Slot{StartAt: start, Duration: dur}
}

// Flush abandons all pending playback, so the next chunk starts immediately.
// Called when the model is interrupted mid-utterance.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = time.Time{}
}

// BufferedUntil reports the end of the last scheduled slot.
func (s *Scheduler) BufferedUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
