package audio

import (
	"testing"
	"time"
)

func pcmOfDuration(d time.Duration, rate int) []byte {
	samples := int(d.Seconds() * float64(rate))
	return make([]byte, samples*2)
}

func TestScheduleBackToBack(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewScheduler(PlaybackSampleRate)
	s.now = func() time.Time { return base }

	chunks := []time.Duration{
		120 * time.Millisecond,
		80 * time.Millisecond,
		200 * time.Millisecond,
	}
	var slots []Slot
	for _, d := range chunks {
		slots = append(slots, s.Schedule(pcmOfDuration(d, PlaybackSampleRate)))
	}

	if !slots[0].StartAt.Equal(base) {
		t.Fatalf("first slot starts %v, want %v", slots[0].StartAt, base)
	}
	for i := 1; i < len(slots); i++ {
		prevEnd := slots[i-1].StartAt.Add(slots[i-1].Duration)
		if slots[i].StartAt.Before(prevEnd) {
			t.Fatalf("slot %d starts %v before previous end %v", i, slots[i].StartAt, prevEnd)
		}
		if !slots[i].StartAt.Equal(prevEnd) {
			t.Fatalf("slot %d starts %v, want gapless %v", i, slots[i].StartAt, prevEnd)
		}
	}
}

func TestScheduleClampsToNowOnUnderrun(t *testing.T) {
	clock := time.Unix(1000, 0)
	s := NewScheduler(PlaybackSampleRate)
	s.now = func() time.Time { return clock }

	s.Schedule(pcmOfDuration(50*time.Millisecond, PlaybackSampleRate))

	// Playback drained long before the next chunk arrives.
	clock = clock.Add(2 * time.Second)
	slot := s.Schedule(pcmOfDuration(50*time.Millisecond, PlaybackSampleRate))
	if !slot.StartAt.Equal(clock) {
		t.Fatalf("underrun slot starts %v, want clamped to %v", slot.StartAt, clock)
	}
}

func TestFlushResetsWatermark(t *testing.T) {
	clock := time.Unix(1000, 0)
	s := NewScheduler(PlaybackSampleRate)
	s.now = func() time.Time { return clock }

	s.Schedule(pcmOfDuration(5*time.Second, PlaybackSampleRate))
	s.Flush()

	slot := s.Schedule(pcmOfDuration(50*time.Millisecond, PlaybackSampleRate))
	if !slot.StartAt.Equal(clock) {
		t.Fatalf("post-flush slot starts %v, want %v", slot.StartAt, clock)
	}
}

func TestDuration(t *testing.T) {
	pcm := make([]byte, PlaybackSampleRate*2) // one second of mono PCM16
	if got := Duration(pcm, PlaybackSampleRate); got != time.Second {
		t.Fatalf("Duration = %v, want 1s", got)
	}
	if got := Duration(nil, PlaybackSampleRate); got != 0 {
		t.Fatalf("Duration(nil) = %v, want 0", got)
	}
}

func TestFloat32ToPCM16Clamps(t *testing.T) {
	out := Float32ToPCM16([]float32{0, 1, -1, 2, -2})
	if len(out) != 10 {
		t.Fatalf("output length = %d, want 10", len(out))
	}
	// Index 3 (input 2) must clamp to the same value as index 1 (input 1).
	if out[6] != out[2] || out[7] != out[3] {
		t.Fatalf("positive overflow not clamped: % x", out)
	}
	if out[8] != out[4] || out[9] != out[5] {
		t.Fatalf("negative overflow not clamped: % x", out)
	}
}
