package service

import (
	"context"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/llm"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Windows compared in the insights prompt.
const (
	HistoryWindowDays = 30
	RecentWindowDays  = 7
)

// InsightsService turns chronotype, trends and the last tracked night into LLM insights.
type InsightsService interface {
	Generate(ctx context.Context, userID uuid.UUID) (*domain.InsightsResponse, error)
}

type insightsService struct {
	chronotypeService ChronotypeService
	trendsService     TrendsService
	llmClient         llm.InsightsLLM
	sessionRepo       repository.SessionRepository
	userRepo          repository.UserRepository
	now               func() time.Time
}

func NewInsightsService(
	chronotypeService ChronotypeService,
	trendsService TrendsService,
	llmClient llm.InsightsLLM,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
) InsightsService {
	return &insightsService{
		chronotypeService: chronotypeService,
		trendsService:     trendsService,
		llmClient:         llmClient,
		sessionRepo:       sessionRepo,
		userRepo:          userRepo,
		now:               time.Now,
	}
}

func (s *insightsService) Generate(ctx context.Context, userID uuid.UUID) (*domain.InsightsResponse, error) {
	ctx, span := otel.Tracer("smart-sleep/insights").Start(ctx, "InsightsService.Generate",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	now := s.now().UTC()
	var (
		in        domain.InsightsContext
		chronoRes *domain.ChronotypeResult
		history   *domain.WindowTrends
		recent    *domain.WindowTrends
	)

	// The inputs read disjoint windows and can be gathered in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chronoRes, err = s.chronotypeService.Compute(gctx, userID, HistoryWindowDays, DefaultChronotypeMinSessions)
		return err
	})
	g.Go(func() (err error) {
		history, err = s.trendsService.ComputeWindow(gctx, userID, now.AddDate(0, 0, -HistoryWindowDays), now)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.trendsService.ComputeWindow(gctx, userID, now.AddDate(0, 0, -RecentWindowDays), now)
		return err
	})
	g.Go(func() (err error) {
		in.LastNight, err = s.lastNight(gctx, userID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gather insights input")
		return nil, err
	}
	in.Chronotype, in.History, in.Recent = *chronoRes, *history, *recent
	span.SetAttributes(
		attribute.Int("insights.history_nights", history.Nightly.SessionCount),
		attribute.Bool("insights.has_last_night", in.LastNight != nil),
	)

	out, err := s.llmClient.GenerateInsights(ctx, &in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate insights")
		return nil, err
	}

	resp := &domain.InsightsResponse{
		Chronotype: in.Chronotype,
		LastNight:  in.LastNight,
		Insights:   *out,
	}
	resp.Trends.History = in.History
	resp.Trends.Recent = in.Recent
	return resp, nil
}

// lastNight returns the metrics of the most recent session that ended in the recent window.
func (s *insightsService) lastNight(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.SessionMetricsResponse, error) {
	sessions, err := s.sessionRepo.ListByEndRange(ctx, userID, now.AddDate(0, 0, -RecentWindowDays), now)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	last := &sessions[len(sessions)-1]
	resp := storedMetrics(last, *last.EndAt).ToResponse()
	return &resp, nil
}
