package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"go.uber.org/zap"
)

// Rows are versioned by the sync time so a re-sync replaces the previous copy.
const (
	createStageWindowsTable = `
		CREATE TABLE IF NOT EXISTS sleep_stage_windows (
			session_id UUID,
			user_id UUID,
			start_at DateTime64(3, 'UTC'),
			end_at DateTime64(3, 'UTC'),
			stage LowCardinality(String),
			version DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY (session_id, start_at)
	`

	createSessionSummaryTable = `
		CREATE TABLE IF NOT EXISTS sleep_session_summaries (
			session_id UUID,
			user_id UUID,
			start_at DateTime64(3, 'UTC'),
			end_at DateTime64(3, 'UTC'),
			total_sleep_seconds Int64,
			efficiency Float64,
			awakenings UInt32,
			restlessness Float64,
			alarm_triggered Bool,
			version DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY (user_id, start_at, session_id)
	`

	insertStageWindows   = `INSERT INTO sleep_stage_windows`
	insertSessionSummary = `INSERT INTO sleep_session_summaries`
)

// ClickHouse server error codes that map to a specific failure kind.
const (
	chMemoryLimitExceeded = 241
	chTooManyParts        = 252
	chTooManyQueries      = 202
	chQuotaExceeded       = 201
	chAccessDenied        = 497
	chAuthFailed          = 516
	chUnknownDatabase     = 81
)

// HealthConfig holds the ClickHouse connection settings.
type HealthConfig struct {
	Addr        string
	Database    string
	Username    string
	Password    string
	DialTimeout time.Duration
}

// StageRow is one row of sleep_stage_windows.
type StageRow struct {
	SessionID string
	UserID    string
	StartAt   time.Time
	EndAt     time.Time
	Stage     string
}

// HealthSink writes stage windows and a session summary to the health data store.
type HealthSink struct {
	conn   driver.Conn
	now    func() time.Time
	logger *zap.Logger
}

// OpenHealthStore connects to ClickHouse and creates the tables if needed.
func OpenHealthStore(ctx context.Context, cfg HealthConfig, logger *zap.Logger) (*HealthSink, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: cfg.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	for _, stmt := range []string{createStageWindowsTable, createSessionSummaryTable} {
		if err := conn.Exec(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to create health table: %w", err)
		}
	}

	logger.Info("connected to health store", zap.String("addr", cfg.Addr), zap.String("database", cfg.Database))
	return &HealthSink{conn: conn, now: time.Now, logger: logger}, nil
}

func (s *HealthSink) Name() string {
	return "health"
}

func (s *HealthSink) Push(ctx context.Context, session *domain.SleepSession) error {
	if session.EndAt == nil {
		return &SyncError{Sink: s.Name(), Kind: KindRejected, Err: errors.New("session is not finalized")}
	}
	version := s.now().UTC()

	batch, err := s.conn.PrepareBatch(ctx, insertStageWindows)
	if err != nil {
		return s.classify(err)
	}
	for _, row := range StageRows(session) {
		if err := batch.Append(row.SessionID, row.UserID, row.StartAt, row.EndAt, row.Stage, version); err != nil {
			_ = batch.Abort()
			return &SyncError{Sink: s.Name(), Kind: KindRejected, Err: err}
		}
	}
	if err := batch.Send(); err != nil {
		return s.classify(err)
	}

	err = s.conn.Exec(ctx, insertSessionSummary+` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID.String(),
		session.UserID.String(),
		session.StartAt.UTC(),
		session.EndAt.UTC(),
		int64(session.TotalSleep/time.Second),
		session.Efficiency,
		uint32(session.Awakenings),
		session.Restlessness,
		session.AlarmTriggered,
		version,
	)
	if err != nil {
		// The windows are already stored, so a retry only has to replace them.
		se := s.classify(err)
		if se.Kind.Transient() {
			se.Kind = KindPartialFailure
		}
		return se
	}

	s.logger.Debug("health record stored",
		zap.String("session_id", session.ID.String()),
		zap.Int("windows", len(session.Stages)),
	)
	return nil
}

func (s *HealthSink) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}
	return nil
}

// StageRows converts the session's stage windows into health store rows.
func StageRows(session *domain.SleepSession) []StageRow {
	rows := make([]StageRow, 0, len(session.Stages))
	for _, w := range session.Stages {
		rows = append(rows, StageRow{
			SessionID: session.ID.String(),
			UserID:    session.UserID.String(),
			StartAt:   w.StartAt.UTC(),
			EndAt:     w.EndAt.UTC(),
			Stage:     string(w.Stage),
		})
	}
	return rows
}

func (s *HealthSink) classify(err error) *SyncError {
	return &SyncError{Sink: s.Name(), Kind: kindForClickHouse(err), Err: err}
}

func kindForClickHouse(err error) FailureKind {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		switch ex.Code {
		case chMemoryLimitExceeded, chTooManyParts, chTooManyQueries, chQuotaExceeded:
			return KindQuotaExceeded
		case chAccessDenied, chAuthFailed, chUnknownDatabase:
			return KindAccountUnavailable
		default:
			return KindServerError
		}
	}
	return Classify("health", err).Kind
}
