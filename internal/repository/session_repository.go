package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sampleBatchSize = 500

type SessionRepository interface {
	Create(ctx context.Context, session *domain.SleepSession) error
	AppendSamples(ctx context.Context, sessionID uuid.UUID, movement []domain.MovementSample, sound []domain.SoundSample) error
	Finalize(ctx context.Context, session *domain.SleepSession, movement []domain.MovementSample, sound []domain.SoundSample) error
	MarkSynced(ctx context.Context, session *domain.SleepSession) error
	// GetByID loads a session with its samples and stage windows.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SleepSession, error)
	// ListByRange lists finalized sessions by start time, newest first, fetching limit+1 rows.
	ListByRange(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error)
	// ListByEndRange returns finalized sessions that ended in [from, to), oldest first.
	ListByEndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.SleepSession, error)
	// ListUnsynced returns finalized sessions due for an automatic resync at now, see
	// domain.SleepSession.DueForResync.
	ListUnsynced(ctx context.Context, now, settledBefore time.Time, limit int) ([]domain.SleepSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.SleepSession) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *sessionRepository) AppendSamples(ctx context.Context, sessionID uuid.UUID, movement []domain.MovementSample, sound []domain.SoundSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertSamples(tx, movement, sound)
	})
}

func (r *sessionRepository) Finalize(ctx context.Context, session *domain.SleepSession, movement []domain.MovementSample, sound []domain.SoundSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.SleepSession{ID: session.ID}).
			Select("end_at", "actual_wake_at", "alarm_triggered", "total_sleep", "efficiency",
				"awakenings", "restlessness", "sync_status").
			Updates(session).Error
		if err != nil {
			return err
		}

		if err := insertSamples(tx, movement, sound); err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", session.ID).Delete(&domain.StageWindow{}).Error; err != nil {
			return err
		}
		if len(session.Stages) == 0 {
			return nil
		}
		stages := make([]domain.StageWindow, len(session.Stages))
		for i, w := range session.Stages {
			stages[i] = domain.StageWindow{SessionID: session.ID, StartAt: w.StartAt, EndAt: w.EndAt, Stage: w.Stage}
		}
		return tx.CreateInBatches(stages, sampleBatchSize).Error
	})
}

func (r *sessionRepository) MarkSynced(ctx context.Context, session *domain.SleepSession) error {
	return r.db.WithContext(ctx).
		Model(&domain.SleepSession{ID: session.ID}).
		Select("sync_status", "sync_error", "health_synced_at", "cloud_synced_at", "sync_attempts", "next_sync_at").
		Updates(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SleepSession, error) {
	var session domain.SleepSession
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("start_at ASC") }).
		Preload("MovementSamples", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("SoundSamples", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ListByRange(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("end_at IS NOT NULL").
		Order("start_at DESC").
		Order("id DESC")

	// Apply time filters
	if filter.From != nil {
		query = query.Where("start_at >= ?", filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_at <= ?", filter.To)
	}

	if filter.Cursor != "" {
		cursor, err := pagination.DecodeCursor(filter.Cursor)
		if err == nil && cursor != nil {
			query = query.Where(
				"(start_at < ?) OR (start_at = ? AND id < ?)",
				cursor.StartAt, cursor.StartAt, cursor.ID,
			)
		}
	}

	// Fetch one extra to determine if there are more results
	limit := pagination.NormalizeLimit(filter.Limit)
	query = query.Limit(limit + 1)

	var sessions []domain.SleepSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) ListByEndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.SleepSession, error) {
	var sessions []domain.SleepSession
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("start_at ASC") }).
		Where("user_id = ?", userID).
		Where("end_at >= ? AND end_at < ?", from, to).
		Order("end_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) ListUnsynced(ctx context.Context, now, settledBefore time.Time, limit int) ([]domain.SleepSession, error) {
	var sessions []domain.SleepSession
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("start_at ASC") }).
		Where("end_at IS NOT NULL").
		Where(
			r.db.Where("sync_status = ? AND next_sync_at IS NULL AND end_at <= ?", domain.SyncPending, settledBefore).
				Or("sync_status IN ? AND next_sync_at <= ?", []domain.SyncStatus{domain.SyncPending, domain.SyncFailed, domain.SyncPartial}, now),
		).
		Order("end_at ASC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func insertSamples(tx *gorm.DB, movement []domain.MovementSample, sound []domain.SoundSample) error {
	if len(movement) > 0 {
		if err := tx.CreateInBatches(movement, sampleBatchSize).Error; err != nil {
			return err
		}
	}
	if len(sound) > 0 {
		if err := tx.CreateInBatches(sound, sampleBatchSize).Error; err != nil {
			return err
		}
	}
	return nil
}
