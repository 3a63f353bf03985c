package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTrendsWindowDays is the default window for trends calculation.
	DefaultTrendsWindowDays = 30

	// MinSessionMinutes is the shortest tracked session that counts as a night.
	MinSessionMinutes = 90
)

// TrendsService aggregates finalized sessions over a time window.
type TrendsService interface {
	// Compute calculates trends for a user over the last windowDays.
	Compute(ctx context.Context, userID uuid.UUID, windowDays int) (*domain.WindowTrends, error)
	// ComputeWindow calculates trends for sessions that ended in [from, to).
	ComputeWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.WindowTrends, error)
}

type trendsService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

// NewTrendsService creates a new TrendsService.
func NewTrendsService(sessionRepo repository.SessionRepository, userRepo repository.UserRepository) TrendsService {
	return &trendsService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func (s *trendsService) Compute(ctx context.Context, userID uuid.UUID, windowDays int) (*domain.WindowTrends, error) {
	// Validate user exists
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if windowDays <= 0 {
		windowDays = DefaultTrendsWindowDays
	}

	now := s.now().UTC()
	return s.ComputeWindow(ctx, userID, now.AddDate(0, 0, -windowDays), now)
}

func (s *trendsService) ComputeWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.WindowTrends, error) {
	tracer := otel.Tracer("smart-sleep/trends")
	ctx, span := tracer.Start(ctx, "TrendsService.ComputeWindow",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("window.from", from.Format(time.RFC3339)),
			attribute.String("window.to", to.Format(time.RFC3339)),
		),
	)
	defer span.End()

	windowDays := max(int(to.Sub(from).Hours()/24), 1)
	span.SetAttributes(attribute.String("window.description", fmt.Sprintf("%dd window", windowDays)))

	sessions, err := s.sessionRepo.ListByEndRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	result := &domain.WindowTrends{From: from, To: to}
	var qualities []float64
	result.Nightly, qualities = computeNightlyTrends(sessions)
	result.Scores = computeTrendScores(result.Nightly, qualities)

	if out, err := json.Marshal(result.Scores); err == nil {
		span.SetAttributes(attribute.String("trends.scores", string(out)))
	}
	return result, nil
}

// night holds the values of one session that feed the trends.
type night struct {
	totalSleepHours float64
	efficiency      float64
	awakenings      float64
	restlessness    float64
	deepSharePct    float64
	bedtimeMinutes  float64
	quality         float64
	smartWake       bool
}

func extractNight(session *domain.SleepSession) (night, bool) {
	if session.EndAt == nil || session.EndAt.Sub(session.StartAt) < MinSessionMinutes*time.Minute {
		return night{}, false
	}

	m := storedMetrics(session, *session.EndAt)
	n := night{
		totalSleepHours: m.TotalSleep.Hours(),
		efficiency:      session.Efficiency,
		awakenings:      float64(session.Awakenings),
		restlessness:    session.Restlessness,
		bedtimeMinutes:  float64(bedtimeMinutes(session.StartAt.In(session.Location()))),
		quality:         m.QualityScore,
		smartWake: session.AlarmTriggered && session.ActualWakeAt != nil &&
			session.TargetWakeAt != nil && session.ActualWakeAt.Before(*session.TargetWakeAt),
	}
	if m.TotalSleep > 0 {
		n.deepSharePct = 100 * float64(m.Deep) / float64(m.TotalSleep)
	}
	return n, true
}

// bedtimeMinutes is minutes after local midnight; bedtimes in the early morning continue
// past 1440 so that 23:30 and 00:30 stay an hour apart.
func bedtimeMinutes(t time.Time) int {
	minutes := t.Hour()*60 + t.Minute()
	if t.Hour() < 12 {
		minutes += 24 * 60
	}
	return minutes
}

func computeNightlyTrends(sessions []domain.SleepSession) (domain.NightlyTrends, []float64) {
	var (
		result                                           domain.NightlyTrends
		sleep, eff, awakenings, restless, deep, bedtimes []float64
		qualities                                        []float64
	)

	for i := range sessions {
		n, ok := extractNight(&sessions[i])
		if !ok {
			continue
		}
		sleep = append(sleep, n.totalSleepHours)
		eff = append(eff, n.efficiency)
		awakenings = append(awakenings, n.awakenings)
		restless = append(restless, n.restlessness)
		deep = append(deep, n.deepSharePct)
		bedtimes = append(bedtimes, n.bedtimeMinutes)
		qualities = append(qualities, n.quality)
		if n.smartWake {
			result.SmartWakeCount++
		}
	}

	result.SessionCount = len(sleep)
	if result.SessionCount > 0 {
		result.TotalSleepHours = computeStats(sleep)
		result.Efficiency = computeStats(eff)
		result.Awakenings = computeStats(awakenings)
		result.Restlessness = computeStats(restless)
		result.DeepSharePct = computeStats(deep)
		result.Bedtime = computeStats(bedtimes)
	}
	return result, qualities
}

// computeTrendScores calculates 0-100 scores from nightly trends.
func computeTrendScores(nightly domain.NightlyTrends, qualities []float64) domain.TrendScores {
	var scores domain.TrendScores
	if nightly.SessionCount == 0 {
		return scores
	}

	// Map bedtime std of 0-120 minutes to 100-0
	bedtimeStd := min(nightly.Bedtime.Std, 120)
	scores.ConsistencyScore = math.Max(round1((1-bedtimeStd/120)*100), 0)

	// Map avg total sleep of 5-9 hours to 0-100
	avg := nightly.TotalSleepHours.Avg
	switch {
	case avg < 5:
		scores.SufficiencyScore = 0
	case avg >= 9:
		scores.SufficiencyScore = 100
	default:
		scores.SufficiencyScore = round1((avg - 5) / 4 * 100)
	}

	scores.QualityScore = computeStats(qualities).Avg

	// 40% consistency, 30% sufficiency, 30% quality
	scores.OverallSleepScore = round1(
		scores.ConsistencyScore*0.4 +
			scores.SufficiencyScore*0.3 +
			scores.QualityScore*0.3)

	return scores
}

// storedMetrics rebuilds the metrics of a finalized session loaded without its samples,
// reusing the restlessness saved at finalization.
func storedMetrics(session *domain.SleepSession, end time.Time) domain.SessionMetrics {
	m := analysis.ComputeMetrics(session, end)
	m.Restlessness = session.Restlessness
	m.QualityScore = analysis.QualityScore(m)
	return m
}

// computeStats calculates descriptive statistics for a slice of values.
func computeStats(values []float64) domain.DescriptiveStats {
	if len(values) == 0 {
		return domain.DescriptiveStats{}
	}

	sum := 0.0
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		sum += v
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	avg := sum / float64(len(values))

	// Sample standard deviation
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(sumSquares / float64(len(values)-1))
	}

	return domain.DescriptiveStats{
		Avg: round2(avg),
		Std: round2(std),
		Min: round2(minVal),
		Max: round2(maxVal),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
