// Package seed fills an empty database with demo sleepers and simulated nights.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/sensor"
	"github.com/blaisecz/smart-sleep/internal/tracking"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	seededNights   = 40
	sampleInterval = time.Minute
	batchSize      = 500
)

var nightNamespace = uuid.MustParse("6f1c2a4e-93d7-4b8e-a0f5-2c7d9e1b3a58")

// Users are the demo sleepers.
var Users = []domain.User{
	{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Timezone: "Europe/Amsterdam"},
	{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Timezone: "America/New_York"},
	{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Timezone: "Asia/Tokyo"},
	{ID: uuid.MustParse("44444444-4444-4444-4444-444444444444"), Timezone: "Australia/Sydney"},
}

// Run seeds the database with the demo users and their last nights. Safe to call
// multiple times: nights are keyed by user and date.
func Run(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	db = db.WithContext(ctx)
	for _, user := range Users {
		if err := db.Where("id = ?", user.ID).FirstOrCreate(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.ID, err)
		}
	}

	now := time.Now().UTC()
	created := 0
	for _, user := range Users {
		n, err := seedNights(db, user, now)
		if err != nil {
			return err
		}
		created += n
	}

	logger.Info("seed completed", zap.Int("users", len(Users)), zap.Int("sessions_created", created))
	return nil
}

func seedNights(db *gorm.DB, user domain.User, now time.Time) (int, error) {
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return 0, fmt.Errorf("user %s: %w", user.ID, err)
	}

	created := 0
	for i := 1; i <= seededNights; i++ {
		date := now.In(loc).AddDate(0, 0, -i)
		id := NightID(user.ID, date)

		var count int64
		if err := db.Model(&domain.SleepSession{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		session := BuildNight(user, date, loc)
		if err := insertNight(db, session); err != nil {
			return created, fmt.Errorf("failed to create night %s for %s: %w", date.Format(time.DateOnly), user.ID, err)
		}
		created++
	}
	return created, nil
}

// NightID is the stable session ID of a user's seeded night starting on date.
func NightID(userID uuid.UUID, date time.Time) uuid.UUID {
	return uuid.NewSHA1(nightNamespace, []byte(userID.String()+"/"+date.Format(time.DateOnly)))
}

// BuildNight simulates one finalized night starting on the evening of date. Every
// third night uses the smart alarm.
func BuildNight(user domain.User, date time.Time, loc *time.Location) *domain.SleepSession {
	id := NightID(user.ID, date)
	seed := uint64(id.ID())
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	start := time.Date(date.Year(), date.Month(), date.Day(), 22+rng.IntN(2), rng.IntN(60), 0, 0, loc).UTC()
	end := start.Add(6*time.Hour + time.Duration(rng.IntN(180))*time.Minute)

	session := &domain.SleepSession{
		ID:            id,
		UserID:        user.ID,
		StartAt:       start,
		LocalTimezone: user.Timezone,
		SyncStatus:    domain.SyncDisabled,
		CreatedAt:     start,
	}

	if date.Day()%3 == 0 {
		target := end
		session.TargetWakeAt = &target
		session.PreWakeWindow = domain.DefaultPreWakeWindow
	}

	Simulate(session, end, seed, sampleInterval)
	return session
}

// Simulate records simulated readings into session from its start until end and
// finalizes it. When a target wake time is set the night ends at the first light
// sleep inside the pre-wake window, or at end.
func Simulate(session *domain.SleepSession, end time.Time, seed uint64, interval time.Duration) domain.SessionMetrics {
	sim := sensor.NewSimulator(seed, interval)
	for _, r := range sim.Generate(session.StartAt, end) {
		switch r.Kind {
		case domain.SampleMovement:
			session.MovementSamples = append(session.MovementSamples, domain.MovementSample{SessionID: session.ID, Timestamp: r.Timestamp, Intensity: r.Value})
		case domain.SampleSound:
			session.SoundSamples = append(session.SoundSamples, domain.SoundSample{SessionID: session.ID, Timestamp: r.Timestamp, Decibels: r.Value})
		}
	}

	if session.TargetWakeAt != nil {
		stages := analysis.Estimate(session.MovementSamples, session.SoundSamples, session.StartAt, end)
		if wake, ok := analysis.FindWakeTime(stages, *session.PreWakeWindowStart(), end); ok {
			end = wake
			session.AlarmTriggered = true
		}
		session.ActualWakeAt = &end
		session.MovementSamples = trimMovement(session.MovementSamples, end)
		session.SoundSamples = trimSound(session.SoundSamples, end)
	}

	return tracking.Finalize(session, end)
}

func trimMovement(samples []domain.MovementSample, end time.Time) []domain.MovementSample {
	for i, s := range samples {
		if !s.Timestamp.Before(end) {
			return samples[:i]
		}
	}
	return samples
}

func trimSound(samples []domain.SoundSample, end time.Time) []domain.SoundSample {
	for i, s := range samples {
		if !s.Timestamp.Before(end) {
			return samples[:i]
		}
	}
	return samples
}

func insertNight(db *gorm.DB, session *domain.SleepSession) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(session).Error; err != nil {
			return err
		}
		if len(session.MovementSamples) > 0 {
			if err := tx.CreateInBatches(session.MovementSamples, batchSize).Error; err != nil {
				return err
			}
		}
		if len(session.SoundSamples) > 0 {
			if err := tx.CreateInBatches(session.SoundSamples, batchSize).Error; err != nil {
				return err
			}
		}
		if len(session.Stages) == 0 {
			return nil
		}
		return tx.CreateInBatches(session.Stages, batchSize).Error
	})
}
