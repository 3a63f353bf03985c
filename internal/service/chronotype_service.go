package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/google/uuid"
)

const (
	// Default values for chronotype calculation
	DefaultChronotypeWindowDays  = 30
	DefaultChronotypeMinSessions = 7

	// Chronotype thresholds (minutes after midnight for mid-sleep)
	EarlyBirdThreshold    = 150 // < 150 = early bird (mid-sleep before 2:30 AM)
	IntermediateThreshold = 270 // 150-269 = intermediate, >= 270 = night owl (4:30 AM)
)

// ChronotypeService computes chronotype from tracked sessions.
type ChronotypeService interface {
	// Compute calculates the user's chronotype based on sessions in the given window.
	Compute(ctx context.Context, userID uuid.UUID, windowDays, minSessions int) (*domain.ChronotypeResult, error)
}

type chronotypeService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

// NewChronotypeService creates a new ChronotypeService.
func NewChronotypeService(sessionRepo repository.SessionRepository, userRepo repository.UserRepository) ChronotypeService {
	return &chronotypeService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func (s *chronotypeService) Compute(ctx context.Context, userID uuid.UUID, windowDays, minSessions int) (*domain.ChronotypeResult, error) {
	// Validate user exists
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if windowDays <= 0 {
		windowDays = DefaultChronotypeWindowDays
	}
	if minSessions <= 0 {
		minSessions = DefaultChronotypeMinSessions
	}

	now := s.now().UTC()
	sessions, err := s.sessionRepo.ListByEndRange(ctx, userID, now.AddDate(0, 0, -windowDays), now)
	if err != nil {
		return nil, err
	}

	var midMinutes []int
	for i := range sessions {
		if mid, ok := midSleep(&sessions[i]); ok {
			midMinutes = append(midMinutes, mid)
		}
	}

	result := &domain.ChronotypeResult{
		WindowDays:   windowDays,
		SessionsUsed: len(midMinutes),
	}

	// Not enough nights to classify
	if len(midMinutes) < minSessions {
		result.Chronotype = domain.ChronotypeUnknown
		return result, nil
	}

	medianMid := median(midMinutes)
	result.MidSleepMinutesAfterMidnight = medianMid
	result.MidSleepLocalTime = minutesToTimeString(medianMid)
	result.Chronotype = classifyChronotype(medianMid)

	return result, nil
}

// midSleep returns the local midpoint between sleep onset and wake, in minutes after
// midnight. Onset skips the initial awake windows; wake is the alarm time when one fired.
func midSleep(session *domain.SleepSession) (int, bool) {
	if session.EndAt == nil {
		return 0, false
	}
	onset := session.StartAt.Add(analysis.TimeToFallAsleep(session.Stages, session.StartAt))
	wake := *session.EndAt
	if session.ActualWakeAt != nil && session.ActualWakeAt.Before(wake) {
		wake = *session.ActualWakeAt
	}
	if wake.Sub(onset) < MinSessionMinutes*time.Minute {
		return 0, false
	}

	mid := onset.Add(wake.Sub(onset) / 2).In(session.Location())
	return mid.Hour()*60 + mid.Minute(), true
}

// median calculates the median of a slice of integers.
func median(values []int) int {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// minutesToTimeString converts minutes after midnight to HH:MM format.
func minutesToTimeString(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// classifyChronotype determines chronotype based on mid-sleep minutes.
func classifyChronotype(midMinutes int) domain.ChronotypeType {
	if midMinutes < EarlyBirdThreshold {
		return domain.ChronotypeEarlyBird
	}
	if midMinutes < IntermediateThreshold {
		return domain.ChronotypeIntermediate
	}
	return domain.ChronotypeNightOwl
}
