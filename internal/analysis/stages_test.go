package analysis

import (
	"testing"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/go-cmp/cmp"
)

var night = time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)

func movementEvery(start, end time.Time, step time.Duration, intensity float64) []domain.MovementSample {
	var out []domain.MovementSample
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		out = append(out, domain.MovementSample{Timestamp: ts, Intensity: intensity})
	}
	return out
}

func soundEvery(start, end time.Time, step time.Duration, db float64) []domain.SoundSample {
	var out []domain.SoundSample
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		out = append(out, domain.SoundSample{Timestamp: ts, Decibels: db})
	}
	return out
}

func stagesOf(windows []domain.StageWindow) []domain.SleepStage {
	out := make([]domain.SleepStage, len(windows))
	for i, w := range windows {
		out[i] = w.Stage
	}
	return out
}

func windowsOf(start time.Time, stages ...domain.SleepStage) []domain.StageWindow {
	out := make([]domain.StageWindow, len(stages))
	for i, s := range stages {
		ws := start.Add(time.Duration(i) * WindowLength)
		out[i] = domain.StageWindow{StartAt: ws, EndAt: ws.Add(WindowLength), Stage: s}
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		intensity float64
		decibels  float64
		want      domain.SleepStage
	}{
		{"high movement", 0.31, 0, domain.StageAwake},
		{"loud", 0, 51, domain.StageAwake},
		{"awake threshold is exclusive", 0.30, 50, domain.StageLight},
		{"moderate movement", 0.2, 20, domain.StageLight},
		{"moderate sound", 0.01, 45, domain.StageLight},
		{"light threshold is exclusive", 0.15, 40, domain.StageREM},
		{"still and quiet", 0.02, 20, domain.StageDeep},
		{"no samples", 0, 0, domain.StageDeep},
		{"still but not quiet", 0.01, 36, domain.StageREM},
		{"quiet but not still", 0.10, 20, domain.StageREM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.intensity, tt.decibels); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", tt.intensity, tt.decibels, got, tt.want)
			}
		})
	}
}

func TestEstimate_Contiguous(t *testing.T) {
	durations := []time.Duration{
		time.Second,
		299 * time.Second,
		WindowLength,
		WindowLength + time.Second,
		47*time.Minute + 13*time.Second,
		8 * time.Hour,
	}

	for _, d := range durations {
		t.Run(d.String(), func(t *testing.T) {
			end := night.Add(d)
			windows := Estimate(movementEvery(night, end, 30*time.Second, 0.1), nil, night, end)

			if len(windows) == 0 {
				t.Fatal("Estimate() returned no windows")
			}
			if !windows[0].StartAt.Equal(night) {
				t.Errorf("first window starts at %v, want %v", windows[0].StartAt, night)
			}
			if last := windows[len(windows)-1]; !last.EndAt.Equal(end) {
				t.Errorf("last window ends at %v, want %v", last.EndAt, end)
			}
			for i := 0; i < len(windows)-1; i++ {
				if !windows[i].EndAt.Equal(windows[i+1].StartAt) {
					t.Errorf("gap between window %d and %d: %v != %v", i, i+1, windows[i].EndAt, windows[i+1].StartAt)
				}
				if windows[i].Duration() != WindowLength {
					t.Errorf("window %d duration = %v, want %v", i, windows[i].Duration(), WindowLength)
				}
			}
		})
	}
}

func TestEstimate_ShortSessionHasOneWindow(t *testing.T) {
	end := night.Add(299 * time.Second)
	windows := Estimate(nil, nil, night, end)

	want := []domain.StageWindow{{StartAt: night, EndAt: end, Stage: domain.StageDeep}}
	if diff := cmp.Diff(want, windows); diff != "" {
		t.Errorf("Estimate() mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimate_ZeroDuration(t *testing.T) {
	if windows := Estimate(nil, nil, night, night); len(windows) != 0 {
		t.Errorf("Estimate() = %v, want no windows", windows)
	}
	if windows := Estimate(nil, nil, night, night.Add(-time.Minute)); len(windows) != 0 {
		t.Errorf("Estimate() with end before start = %v, want no windows", windows)
	}
}

func TestEstimate_Scenarios(t *testing.T) {
	end := night.Add(10 * time.Minute)

	tests := []struct {
		name     string
		movement []domain.MovementSample
		sound    []domain.SoundSample
		want     []domain.SleepStage
	}{
		{
			name:     "still and quiet night is deep",
			movement: movementEvery(night, end, 30*time.Second, 0.02),
			sound:    soundEvery(night, end, 30*time.Second, 20),
			want:     []domain.SleepStage{domain.StageDeep, domain.StageDeep},
		},
		{
			name:     "restless night is awake",
			movement: movementEvery(night, end, 30*time.Second, 0.5),
			want:     []domain.SleepStage{domain.StageAwake, domain.StageAwake},
		},
		{
			name:  "sound alone wakes",
			sound: soundEvery(night, end, time.Minute, 60),
			want:  []domain.SleepStage{domain.StageAwake, domain.StageAwake},
		},
		{
			name: "samples outside the session are ignored",
			movement: append(
				movementEvery(night, end, 30*time.Second, 0.02),
				domain.MovementSample{Timestamp: night.Add(-time.Minute), Intensity: 1},
				domain.MovementSample{Timestamp: end, Intensity: 1},
			),
			want: []domain.SleepStage{domain.StageDeep, domain.StageDeep},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stagesOf(Estimate(tt.movement, tt.sound, night, end))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("stages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEstimate_EmptyChannelCountsAsZero(t *testing.T) {
	end := night.Add(10 * time.Minute)
	// Movement only in the second window; the first has no samples on either channel.
	movement := movementEvery(night.Add(WindowLength), end, 30*time.Second, 0.2)
	// Quiet sound only in the first window.
	sound := soundEvery(night, night.Add(WindowLength), 30*time.Second, 38)

	got := stagesOf(Estimate(movement, sound, night, end))
	want := []domain.SleepStage{domain.StageREM, domain.StageLight}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestSmooth(t *testing.T) {
	const (
		A = domain.StageDeep
		B = domain.StageAwake
		C = domain.StageLight
	)

	tests := []struct {
		name string
		in   []domain.SleepStage
		want []domain.SleepStage
	}{
		{"single spike removed", []domain.SleepStage{A, B, A}, []domain.SleepStage{A, A, A}},
		{"two-window run kept", []domain.SleepStage{A, B, B, A}, []domain.SleepStage{A, B, B, A}},
		{"alternating pattern does not cascade", []domain.SleepStage{A, B, A, B}, []domain.SleepStage{A, A, B, B}},
		{"neighbours disagree", []domain.SleepStage{A, B, C}, []domain.SleepStage{A, B, C}},
		{"edges untouched", []domain.SleepStage{B, A, A, B}, []domain.SleepStage{B, A, A, B}},
		{"single window", []domain.SleepStage{B}, []domain.SleepStage{B}},
		{"empty", []domain.SleepStage{}, []domain.SleepStage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := windowsOf(night, tt.in...)
			got := stagesOf(Smooth(in))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Smooth() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.in, stagesOf(in)); diff != "" {
				t.Errorf("Smooth() modified its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSmooth_SinglePassIsNotAFixedPoint(t *testing.T) {
	in := windowsOf(night, domain.StageDeep, domain.StageAwake, domain.StageDeep, domain.StageAwake, domain.StageDeep)
	once := Smooth(in)
	want := []domain.SleepStage{domain.StageDeep, domain.StageDeep, domain.StageAwake, domain.StageDeep, domain.StageDeep}
	if diff := cmp.Diff(want, stagesOf(once)); diff != "" {
		t.Errorf("Smooth() mismatch (-want +got):\n%s", diff)
	}
}
