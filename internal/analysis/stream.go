package analysis

import (
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
)

// Stream classifies stage windows incrementally while a session is tracked. Samples are
// fed as they arrive and Advance emits every window that has fully elapsed, exactly once
// and in order. Emitted windows are not smoothed: smoothing needs the following window,
// and the final sequence is recomputed with Estimate when the session stops.
//
// A Stream is not safe for concurrent use; it belongs to the tracker loop.
type Stream struct {
	start   time.Time
	emitted int
	pending map[int]*bucket
}

// NewStream starts a stream at the session start.
func NewStream(start time.Time) *Stream {
	s := &Stream{}
	s.Reset(start)
	return s
}

// Reset discards all state and restarts the stream at start.
func (s *Stream) Reset(start time.Time) {
	s.start = start
	s.emitted = 0
	s.pending = make(map[int]*bucket)
}

// AddMovement records a movement intensity reading. Readings for windows that were
// already emitted, or from before the stream start, are ignored.
func (s *Stream) AddMovement(ts time.Time, intensity float64) {
	if b := s.bucketFor(ts); b != nil {
		b.addMovement(intensity)
	}
}

// AddSound records a sound level reading.
func (s *Stream) AddSound(ts time.Time, decibels float64) {
	if b := s.bucketFor(ts); b != nil {
		b.addSound(decibels)
	}
}

// Advance returns the windows that ended at or before now and were not emitted yet.
func (s *Stream) Advance(now time.Time) []domain.StageWindow {
	if now.Before(s.start) {
		return nil
	}
	complete := int(now.Sub(s.start) / WindowLength)
	if complete <= s.emitted {
		return nil
	}

	out := make([]domain.StageWindow, 0, complete-s.emitted)
	for i := s.emitted; i < complete; i++ {
		var b bucket
		if p, ok := s.pending[i]; ok {
			b = *p
			delete(s.pending, i)
		}
		ws := s.start.Add(time.Duration(i) * WindowLength)
		out = append(out, domain.StageWindow{
			StartAt: ws,
			EndAt:   ws.Add(WindowLength),
			Stage:   b.classify(),
		})
	}
	s.emitted = complete
	return out
}

func (s *Stream) bucketFor(ts time.Time) *bucket {
	if ts.Before(s.start) {
		return nil
	}
	i := int(ts.Sub(s.start) / WindowLength)
	if i < s.emitted {
		return nil
	}
	b, ok := s.pending[i]
	if !ok {
		b = &bucket{}
		s.pending[i] = b
	}
	return b
}
