package sensor

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is one stretch of the simulated night.
type Phase struct {
	Stage    domain.SleepStage
	Duration time.Duration
}

// NightProfile is a typical night: a quarter hour to fall asleep followed by five
// ninety minute cycles where deep sleep shrinks and REM grows, with two short awakenings.
func NightProfile() []Phase {
	p := []Phase{{domain.StageAwake, 15 * time.Minute}}
	deep := []time.Duration{40, 35, 25, 15, 10}
	for i, d := range deep {
		deepMin := d * time.Minute
		remMin := (90 - 30 - d) * time.Minute
		p = append(p,
			Phase{domain.StageLight, 20 * time.Minute},
			Phase{domain.StageDeep, deepMin},
			Phase{domain.StageLight, 10 * time.Minute},
		)
		if i == 1 || i == 3 {
			p = append(p, Phase{domain.StageREM, remMin - 5*time.Minute}, Phase{domain.StageAwake, 5 * time.Minute})
		} else {
			p = append(p, Phase{domain.StageREM, remMin})
		}
	}
	return p
}

// level is the centre and jitter of a channel for one stage. Jitter keeps the window
// means inside the stage's classification band.
type level struct {
	intensity, intensityJitter float64
	decibels, decibelsJitter   float64
}

var levels = map[domain.SleepStage]level{
	domain.StageAwake: {0.45, 0.10, 56, 4},
	domain.StageLight: {0.21, 0.04, 37, 2},
	domain.StageDeep:  {0.02, 0.015, 26, 4},
	domain.StageREM:   {0.09, 0.03, 31, 3},
}

// Simulator produces synthetic movement and sound readings that follow a night profile.
type Simulator struct {
	Interval time.Duration
	profile  []Phase
	rng      *rand.Rand
}

// NewSimulator returns a deterministic simulator for seed.
func NewSimulator(seed uint64, interval time.Duration) *Simulator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Simulator{
		Interval: interval,
		profile:  NightProfile(),
		rng:      rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}
}

// StageAt returns the profile stage elapsed into the night. Past the end of the
// profile the sleeper stays in light sleep.
func (s *Simulator) StageAt(elapsed time.Duration) domain.SleepStage {
	for _, p := range s.profile {
		if elapsed < p.Duration {
			return p.Stage
		}
		elapsed -= p.Duration
	}
	return domain.StageLight
}

// Sample returns one movement and one sound reading at ts.
func (s *Simulator) Sample(start, ts time.Time) []domain.Reading {
	l := levels[s.StageAt(ts.Sub(start))]
	return []domain.Reading{
		domain.Reading{Kind: domain.SampleMovement, Timestamp: ts, Value: l.intensity + s.jitter(l.intensityJitter)}.Clamped(),
		domain.Reading{Kind: domain.SampleSound, Timestamp: ts, Value: l.decibels + s.jitter(l.decibelsJitter)}.Clamped(),
	}
}

// Generate returns the readings of a whole night in timestamp order.
func (s *Simulator) Generate(start, end time.Time) []domain.Reading {
	var out []domain.Reading
	for ts := start; ts.Before(end); ts = ts.Add(s.Interval) {
		out = append(out, s.Sample(start, ts)...)
	}
	return out
}

// Run feeds live readings for userID into sink every Interval until ctx is done.
func (s *Simulator) Run(ctx context.Context, userID uuid.UUID, sink Sink, logger *zap.Logger) error {
	start := time.Now()
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			if err := sink.Record(ctx, userID, s.Sample(start, ts)...); err != nil {
				logger.Warn("simulated reading rejected", zap.Error(err))
			}
		}
	}
}

func (s *Simulator) jitter(amplitude float64) float64 {
	return (s.rng.Float64()*2 - 1) * amplitude
}
