package analysis

import (
	"math"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
)

// Quality score weights and the awakening count at which the penalty saturates.
const (
	efficiencyWeight    = 0.3
	deepShareWeight     = 0.3
	awakeningsWeight    = 0.2
	calmnessWeight      = 0.2
	awakeningsSaturated = 10
)

// ComputeMetrics derives the summary statistics of a session from its stage windows and
// movement samples. An open session is measured up to now. Empty inputs yield zero values.
func ComputeMetrics(session *domain.SleepSession, now time.Time) domain.SessionMetrics {
	var m domain.SessionMetrics

	for _, w := range session.Stages {
		d := w.Duration()
		switch w.Stage {
		case domain.StageDeep:
			m.Deep += d
		case domain.StageREM:
			m.REM += d
		case domain.StageLight:
			m.Light += d
		case domain.StageAwake:
			m.Awake += d
		}
	}
	m.TotalSleep = m.Deep + m.REM + m.Light

	end := now
	if session.EndAt != nil {
		end = *session.EndAt
	}
	m.Efficiency = Efficiency(m.TotalSleep, end.Sub(session.StartAt))
	m.Awakenings = CountAwakenings(session.Stages)
	m.Restlessness = Restlessness(session.MovementSamples)
	m.TimeToFallAsleep = TimeToFallAsleep(session.Stages, session.StartAt)
	m.QualityScore = QualityScore(m)

	return m
}

// Efficiency is the percentage of time in bed classified as sleep, in [0,100].
func Efficiency(totalSleep, timeInBed time.Duration) float64 {
	if timeInBed <= 0 {
		return 0
	}
	pct := 100 * float64(totalSleep) / float64(timeInBed)
	return round2(clamp(pct, 0, 100))
}

// CountAwakenings counts transitions from a sleeping window into an awake window.
// A leading awake run is not an awakening, and a run of awake windows counts once.
// An awake run that lasts until the end of the session still counts.
func CountAwakenings(stages []domain.StageWindow) int {
	count := 0
	for i := 1; i < len(stages); i++ {
		if stages[i].Stage == domain.StageAwake && stages[i-1].Stage.IsAsleep() {
			count++
		}
	}
	return count
}

// Restlessness scales the mean movement intensity to [0,100].
func Restlessness(samples []domain.MovementSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Intensity
	}
	return round2(math.Min(100, 100*sum/float64(len(samples))))
}

// TimeToFallAsleep is the offset of the first sleeping window from the session start.
func TimeToFallAsleep(stages []domain.StageWindow, start time.Time) time.Duration {
	for _, w := range stages {
		if w.Stage.IsAsleep() {
			return w.StartAt.Sub(start)
		}
	}
	return 0
}

// QualityScore combines efficiency, deep sleep share, awakenings and calmness into an
// informational 0-100 score.
func QualityScore(m domain.SessionMetrics) float64 {
	var deepShare float64
	if m.TotalSleep > 0 {
		deepShare = 100 * float64(m.Deep) / float64(m.TotalSleep)
	}
	awakenings := math.Min(float64(m.Awakenings), awakeningsSaturated)
	awakeningsTerm := 100 * (1 - awakenings/awakeningsSaturated)

	score := m.Efficiency*efficiencyWeight +
		deepShare*deepShareWeight +
		awakeningsTerm*awakeningsWeight +
		(100-m.Restlessness)*calmnessWeight

	return math.Round(clamp(score, 0, 100)*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
