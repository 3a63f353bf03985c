package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blaisecz/smart-sleep/internal/alarm"
	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/blaisecz/smart-sleep/internal/tracking"
	"github.com/blaisecz/smart-sleep/pkg/pagination"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SnapshotReader returns the last published snapshot of a tracker owned by any process.
type SnapshotReader interface {
	Latest(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error)
}

// SessionService drives live tracking and serves finalized sessions.
type SessionService interface {
	Start(ctx context.Context, userID uuid.UUID, req *domain.StartSessionRequest) (*domain.SleepSession, error)
	Active(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error)
	// Follow streams the snapshots of the user's tracker until cancel is called.
	Follow(ctx context.Context, userID uuid.UUID) (<-chan domain.TrackerSnapshot, func(), error)
	RecordSamples(ctx context.Context, userID uuid.UUID, req *domain.RecordSamplesRequest) (*domain.RecordSamplesResponse, error)
	Stop(ctx context.Context, userID uuid.UUID) (*domain.SessionDetailResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) (*domain.SessionListResponse, error)
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SessionDetailResponse, error)
	// Sync mirrors a finalized session again and records the outcome.
	Sync(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SyncReport, error)
	// ResyncPending retries mirroring of finalized sessions whose next attempt is due.
	// Sessions that failed for a reason needing user action are left to Sync.
	ResyncPending(ctx context.Context, limit int) (int, error)
	Export(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]byte, error)
}

type sessionService struct {
	repo      repository.SessionRepository
	userRepo  repository.UserRepository
	trackers  *tracking.Manager
	mirror    tracking.Mirror
	snapshots SnapshotReader
	cache     *ReportCache
	now       func() time.Time
	logger    *zap.Logger
}

// NewSessionService creates a new SessionService. mirror and snapshots may be nil.
func NewSessionService(
	repo repository.SessionRepository,
	userRepo repository.UserRepository,
	trackers *tracking.Manager,
	mirror tracking.Mirror,
	snapshots SnapshotReader,
	cache *ReportCache,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		repo:      repo,
		userRepo:  userRepo,
		trackers:  trackers,
		mirror:    mirror,
		snapshots: snapshots,
		cache:     cache,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *sessionService) tracer() trace.Tracer {
	return otel.Tracer("smart-sleep/sessions")
}

func (s *sessionService) Start(ctx context.Context, userID uuid.UUID, req *domain.StartSessionRequest) (*domain.SleepSession, error) {
	ctx, span := s.tracer().Start(ctx, "SessionService.Start",
		trace.WithAttributes(attribute.String("user.id", userID.String())),
	)
	defer span.End()

	// Load user to confirm existence and get their home timezone
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	localTZ := user.Timezone
	if req.LocalTimezone != nil && *req.LocalTimezone != "" {
		localTZ = *req.LocalTimezone
	}
	if localTZ == "" {
		localTZ = "UTC"
	}

	params := tracking.StartParams{LocalTimezone: localTZ}
	if req.TargetWakeAt != nil {
		target := req.TargetWakeAt.UTC()
		// Invalid alarm settings never reach the tracker.
		if _, err := alarm.Validate(target, req.PreWakeWindow(), s.now()); err != nil {
			return nil, err
		}
		params.TargetWake = &target
		params.PreWakeWindow = req.PreWakeWindow()
		span.SetAttributes(attribute.String("alarm.target", target.Format(time.RFC3339)))
	}

	tr, err := s.trackers.Tracker(userID)
	if err != nil {
		return nil, err
	}
	session, err := tr.Start(ctx, params)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", session.ID.String()))
	return session, nil
}

func (s *sessionService) Active(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	if tr, ok := s.trackers.Lookup(userID); ok {
		snap := tr.Snapshot()
		return &snap, nil
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Latest(ctx, userID)
		switch {
		case err == nil:
			return snap, nil
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("failed to read shared snapshot", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	return &domain.TrackerSnapshot{UserID: userID, Status: domain.TrackerIdle, Stages: []domain.StageWindow{}, UpdatedAt: s.now().UTC()}, nil
}

func (s *sessionService) Follow(ctx context.Context, userID uuid.UUID) (<-chan domain.TrackerSnapshot, func(), error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, nil, err
	}
	tr, err := s.trackers.Tracker(userID)
	if err != nil {
		return nil, nil, err
	}
	updates, cancel := tr.Subscribe()
	return updates, cancel, nil
}

func (s *sessionService) RecordSamples(ctx context.Context, userID uuid.UUID, req *domain.RecordSamplesRequest) (*domain.RecordSamplesResponse, error) {
	readings := make([]domain.Reading, len(req.Samples))
	for i, in := range req.Samples {
		readings[i] = domain.Reading{Kind: in.Kind, Value: in.Value}
		if in.Timestamp != nil {
			readings[i].Timestamp = in.Timestamp.UTC()
		}
	}

	tr, ok := s.trackers.Lookup(userID)
	if !ok {
		if err := s.ensureUser(ctx, userID); err != nil {
			return nil, err
		}
		return &domain.RecordSamplesResponse{Dropped: len(readings)}, nil
	}

	accepted, dropped, err := tr.Record(ctx, readings...)
	if err != nil {
		return nil, err
	}
	return &domain.RecordSamplesResponse{Accepted: accepted, Dropped: dropped}, nil
}

func (s *sessionService) Stop(ctx context.Context, userID uuid.UUID) (*domain.SessionDetailResponse, error) {
	ctx, span := s.tracer().Start(ctx, "SessionService.Stop",
		trace.WithAttributes(attribute.String("user.id", userID.String())),
	)
	defer span.End()

	tr, ok := s.trackers.Lookup(userID)
	if !ok {
		if err := s.ensureUser(ctx, userID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoActiveSession
	}

	res, err := tr.Stop(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", res.Session.ID.String()),
		attribute.Float64("session.efficiency", res.Metrics.Efficiency),
	)
	detail := buildDetail(res.Session, res.Metrics)
	return &detail, nil
}

func (s *sessionService) List(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) (*domain.SessionListResponse, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListByRange(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	sessions, next := pagination.Page(sessions, filter.Limit, func(sess domain.SleepSession) pagination.Cursor {
		return pagination.Cursor{ID: sess.ID, StartAt: sess.StartAt}
	})

	response := &domain.SessionListResponse{
		Data:       make([]domain.SessionResponse, len(sessions)),
		Pagination: domain.PaginationResponse{NextCursor: next, HasMore: next != ""},
	}
	for i := range sessions {
		response.Data[i] = sessions[i].ToResponse()
	}
	return response, nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SessionDetailResponse, error) {
	if detail, ok := s.cache.Get(sessionID); ok {
		if detail.UserID != userID {
			return nil, domain.ErrNotFound
		}
		return detail, nil
	}

	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	detail := buildDetail(session, analysis.ComputeMetrics(session, s.now()))
	if !session.IsOpen() {
		s.cache.Set(&detail)
	}
	return &detail, nil
}

func (s *sessionService) Sync(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SyncReport, error) {
	ctx, span := s.tracer().Start(ctx, "SessionService.Sync",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("session.id", sessionID.String()),
		),
	)
	defer span.End()

	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsOpen() {
		return nil, fmt.Errorf("%w: session is still being tracked", domain.ErrConflict)
	}

	report := s.sync(ctx, session)
	span.SetAttributes(attribute.String("sync.status", string(report.Status())))
	return &report, nil
}

func (s *sessionService) ResyncPending(ctx context.Context, limit int) (int, error) {
	if s.mirror == nil {
		return 0, nil
	}
	now := s.now()
	settled := now.Add(-s.trackers.SyncTimeout())
	sessions, err := s.repo.ListUnsynced(ctx, now, settled, limit)
	if err != nil {
		return 0, err
	}
	for i := range sessions {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		s.sync(ctx, &sessions[i])
	}
	return len(sessions), nil
}

func (s *sessionService) sync(ctx context.Context, session *domain.SleepSession) domain.SyncReport {
	var report domain.SyncReport
	if s.mirror == nil {
		report = domain.SyncReport{
			SessionID: session.ID,
			Health:    domain.SinkResult{Status: domain.SyncDisabled},
			Cloud:     domain.SinkResult{Status: domain.SyncDisabled},
		}
	} else {
		report = s.mirror.Sync(ctx, session)
	}

	session.ApplySyncReport(report, s.now())
	if err := s.repo.MarkSynced(ctx, session); err != nil {
		s.logger.Warn("failed to record sync status",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}
	s.cache.Invalidate(session.ID)
	return report
}

// owned loads a session and hides sessions of other users.
func (s *sessionService) owned(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SleepSession, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *sessionService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func buildDetail(session *domain.SleepSession, m domain.SessionMetrics) domain.SessionDetailResponse {
	stages := session.Stages
	if stages == nil {
		stages = []domain.StageWindow{}
	}
	return domain.SessionDetailResponse{
		SessionResponse:     session.ToResponse(),
		Metrics:             m.ToResponse(),
		Stages:              stages,
		MovementSampleCount: len(session.MovementSamples),
		SoundSampleCount:    len(session.SoundSamples),
	}
}
