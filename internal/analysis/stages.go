// Package analysis holds the pure sleep analysis functions: stage estimation,
// metrics aggregation and the smart alarm wake-time search. Nothing in here keeps
// state between calls except Stream, which is owned by a single tracker.
package analysis

import (
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
)

// WindowLength is the fixed length of a stage window.
const WindowLength = 300 * time.Second

// Classification thresholds. Intensity is in [0,1], sound in dB.
const (
	AwakeIntensity = 0.30
	AwakeDecibels  = 50.0
	LightIntensity = 0.15
	LightDecibels  = 40.0
	DeepIntensity  = 0.05
	DeepDecibels   = 35.0
)

// Classify maps the mean movement intensity and mean sound level of a window to a stage.
// The first matching rule wins.
func Classify(meanIntensity, meanDecibels float64) domain.SleepStage {
	switch {
	case meanIntensity > AwakeIntensity || meanDecibels > AwakeDecibels:
		return domain.StageAwake
	case meanIntensity > LightIntensity || meanDecibels > LightDecibels:
		return domain.StageLight
	case meanIntensity < DeepIntensity && meanDecibels < DeepDecibels:
		return domain.StageDeep
	default:
		return domain.StageREM
	}
}

// Estimate partitions [start, end) into WindowLength windows, classifies each one from
// the samples falling inside it and applies one smoothing pass. The last window is
// truncated to end. The result is contiguous: windows[0].StartAt == start,
// windows[i].EndAt == windows[i+1].StartAt and the last EndAt == end.
func Estimate(movement []domain.MovementSample, sound []domain.SoundSample, start, end time.Time) []domain.StageWindow {
	if !end.After(start) {
		return nil
	}

	n := windowCount(start, end)
	buckets := make([]bucket, n)
	for _, s := range movement {
		if i, ok := windowIndex(start, end, s.Timestamp); ok {
			buckets[i].addMovement(s.Intensity)
		}
	}
	for _, s := range sound {
		if i, ok := windowIndex(start, end, s.Timestamp); ok {
			buckets[i].addSound(s.Decibels)
		}
	}

	windows := make([]domain.StageWindow, n)
	for i := range windows {
		ws := start.Add(time.Duration(i) * WindowLength)
		we := ws.Add(WindowLength)
		if we.After(end) {
			we = end
		}
		windows[i] = domain.StageWindow{
			StartAt: ws,
			EndAt:   we,
			Stage:   buckets[i].classify(),
		}
	}

	return Smooth(windows)
}

// Smooth removes single-window spikes: an interior window whose stage differs from both
// neighbours, when the neighbours agree, takes the neighbours' stage. Decisions are made
// against the input sequence, so one pass never cascades. The input is not modified.
func Smooth(windows []domain.StageWindow) []domain.StageWindow {
	out := make([]domain.StageWindow, len(windows))
	copy(out, windows)

	for i := 1; i < len(windows)-1; i++ {
		prev, cur, next := windows[i-1].Stage, windows[i].Stage, windows[i+1].Stage
		if prev == next && cur != prev {
			out[i].Stage = prev
		}
	}
	return out
}

func windowCount(start, end time.Time) int {
	span := end.Sub(start)
	n := int(span / WindowLength)
	if span%WindowLength != 0 {
		n++
	}
	return n
}

func windowIndex(start, end, ts time.Time) (int, bool) {
	if ts.Before(start) || !ts.Before(end) {
		return 0, false
	}
	return int(ts.Sub(start) / WindowLength), true
}

// bucket accumulates the per-channel sums for one window.
type bucket struct {
	intensitySum float64
	intensityN   int
	decibelSum   float64
	decibelN     int
}

func (b *bucket) addMovement(v float64) {
	b.intensitySum += v
	b.intensityN++
}

func (b *bucket) addSound(v float64) {
	b.decibelSum += v
	b.decibelN++
}

func (b *bucket) classify() domain.SleepStage {
	return Classify(mean(b.intensitySum, b.intensityN), mean(b.decibelSum, b.decibelN))
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
