package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/tracking"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var fastTracking = tracking.Config{
	SampleInterval:     2 * time.Millisecond,
	SaveInterval:       5 * time.Millisecond,
	AlarmCheckInterval: 2 * time.Millisecond,
	IOTimeout:          time.Second,
}

type sessionFixture struct {
	svc       SessionService
	repo      *MockSessionRepository
	users     *MockUserRepository
	mirror    *MockMirror
	snapshots *MockSnapshotReader
	user      *domain.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		repo:      NewMockSessionRepository(),
		users:     NewMockUserRepository(),
		mirror:    &MockMirror{},
		snapshots: &MockSnapshotReader{snaps: map[uuid.UUID]domain.TrackerSnapshot{}},
	}
	f.mirror.report = domain.SyncReport{
		Health: domain.SinkResult{Status: domain.SyncSynced, Attempts: 1},
		Cloud:  domain.SinkResult{Status: domain.SyncFailed, Attempts: 4, FailureKind: "network_unavailable", Error: "dial tcp: refused"},
	}

	f.user = &domain.User{Timezone: "Europe/Prague"}
	if err := f.users.Create(context.Background(), f.user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	manager := tracking.NewManager(fastTracking, tracking.Deps{Store: f.repo, Logger: zap.NewNop()})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = manager.Shutdown(ctx)
	})

	f.svc = NewSessionService(f.repo, f.users, manager, f.mirror, f.snapshots, NewReportCache(10, time.Minute), zap.NewNop())
	return f
}

func TestSessionService_Start(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		userID  func(f *sessionFixture) uuid.UUID
		req     *domain.StartSessionRequest
		wantErr error
		wantTZ  string
	}{
		{
			name:   "without alarm uses the user's timezone",
			userID: func(f *sessionFixture) uuid.UUID { return f.user.ID },
			req:    &domain.StartSessionRequest{},
			wantTZ: "Europe/Prague",
		},
		{
			name:   "timezone override",
			userID: func(f *sessionFixture) uuid.UUID { return f.user.ID },
			req:    &domain.StartSessionRequest{LocalTimezone: strPtr("Asia/Tokyo")},
			wantTZ: "Asia/Tokyo",
		},
		{
			name:   "with smart alarm",
			userID: func(f *sessionFixture) uuid.UUID { return f.user.ID },
			req:    &domain.StartSessionRequest{TargetWakeAt: timePtr(now.Add(8 * time.Hour)), PreWakeMinutes: 20},
			wantTZ: "Europe/Prague",
		},
		{
			name:    "target in the past",
			userID:  func(f *sessionFixture) uuid.UUID { return f.user.ID },
			req:     &domain.StartSessionRequest{TargetWakeAt: timePtr(now.Add(-time.Hour))},
			wantErr: domain.ErrInvalidAlarmConfig,
		},
		{
			name:    "window starts before now",
			userID:  func(f *sessionFixture) uuid.UUID { return f.user.ID },
			req:     &domain.StartSessionRequest{TargetWakeAt: timePtr(now.Add(10 * time.Minute)), PreWakeMinutes: 30},
			wantErr: domain.ErrInvalidAlarmConfig,
		},
		{
			name:    "unknown user",
			userID:  func(*sessionFixture) uuid.UUID { return uuid.New() },
			req:     &domain.StartSessionRequest{},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			session, err := f.svc.Start(context.Background(), tt.userID(f), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if n := f.repo.Count(); n != 0 {
					t.Errorf("Start() persisted %d sessions on error", n)
				}
				return
			}
			if session.LocalTimezone != tt.wantTZ {
				t.Errorf("Start() timezone = %v, want %v", session.LocalTimezone, tt.wantTZ)
			}
			if tt.req.TargetWakeAt != nil {
				if session.TargetWakeAt == nil {
					t.Fatal("Start() TargetWakeAt = nil")
				}
				if got, want := session.PreWakeWindow, tt.req.PreWakeWindow(); got != want {
					t.Errorf("Start() PreWakeWindow = %v, want %v", got, want)
				}
			}
			if _, ok := f.repo.Stored(session.ID); !ok {
				t.Error("Start() did not persist the session")
			}
		})
	}
}

func TestSessionService_StartTwice(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, f.user.ID, &domain.StartSessionRequest{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := f.svc.Start(ctx, f.user.ID, &domain.StartSessionRequest{}); !errors.Is(err, domain.ErrSessionActive) {
		t.Errorf("second Start() error = %v, want ErrSessionActive", err)
	}
}

func TestSessionService_TrackingLifecycle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, f.user.ID, &domain.StartSessionRequest{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ts := time.Now().UTC()
	resp, err := f.svc.RecordSamples(ctx, f.user.ID, &domain.RecordSamplesRequest{Samples: []domain.SampleInput{
		{Kind: domain.SampleMovement, Value: 0.02, Timestamp: &ts},
		{Kind: domain.SampleSound, Value: 31},
		{Kind: domain.SampleMovement, Value: 0.4},
	}})
	if err != nil {
		t.Fatalf("RecordSamples() error = %v", err)
	}
	if resp.Accepted != 3 || resp.Dropped != 0 {
		t.Errorf("RecordSamples() = %+v, want 3 accepted", resp)
	}

	snap, err := f.svc.Active(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if snap.Status != domain.TrackerTracking {
		t.Errorf("Active() status = %v, want %v", snap.Status, domain.TrackerTracking)
	}
	if snap.SessionID == nil || *snap.SessionID != started.ID {
		t.Errorf("Active() session = %v, want %v", snap.SessionID, started.ID)
	}
	if snap.MovementCount != 2 || snap.SoundCount != 1 {
		t.Errorf("Active() counts = %d/%d, want 2/1", snap.MovementCount, snap.SoundCount)
	}

	detail, err := f.svc.Stop(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if detail.ID != started.ID {
		t.Errorf("Stop() id = %v, want %v", detail.ID, started.ID)
	}
	if detail.EndAt == nil {
		t.Error("Stop() EndAt = nil")
	}
	if detail.MovementSampleCount != 2 || detail.SoundSampleCount != 1 {
		t.Errorf("Stop() sample counts = %d/%d, want 2/1", detail.MovementSampleCount, detail.SoundSampleCount)
	}

	if _, err := f.svc.Stop(ctx, f.user.ID); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Errorf("second Stop() error = %v, want ErrNoActiveSession", err)
	}

	got, err := f.svc.Get(ctx, f.user.ID, started.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EndAt == nil || !got.EndAt.Equal(*detail.EndAt) {
		t.Errorf("Get() EndAt = %v, want %v", got.EndAt, detail.EndAt)
	}

	resp, err = f.svc.RecordSamples(ctx, f.user.ID, &domain.RecordSamplesRequest{Samples: []domain.SampleInput{
		{Kind: domain.SampleMovement, Value: 0.1},
	}})
	if err != nil {
		t.Fatalf("RecordSamples() after Stop error = %v", err)
	}
	if resp.Accepted != 0 || resp.Dropped != 1 {
		t.Errorf("RecordSamples() after Stop = %+v, want 1 dropped", resp)
	}
}

func TestSessionService_WithoutTracker(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	resp, err := f.svc.RecordSamples(ctx, f.user.ID, &domain.RecordSamplesRequest{Samples: []domain.SampleInput{
		{Kind: domain.SampleMovement, Value: 0.1},
		{Kind: domain.SampleSound, Value: 40},
	}})
	if err != nil {
		t.Fatalf("RecordSamples() error = %v", err)
	}
	if resp.Dropped != 2 {
		t.Errorf("RecordSamples() dropped = %d, want 2", resp.Dropped)
	}

	if _, err := f.svc.Stop(ctx, f.user.ID); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Errorf("Stop() error = %v, want ErrNoActiveSession", err)
	}
	if _, err := f.svc.Stop(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Stop() for unknown user error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.RecordSamples(ctx, uuid.New(), &domain.RecordSamplesRequest{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RecordSamples() for unknown user error = %v, want ErrNotFound", err)
	}
}

func TestSessionService_Active(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Active(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if snap.Status != domain.TrackerIdle {
		t.Errorf("Active() status = %v, want idle", snap.Status)
	}
	if snap.Stages == nil {
		t.Error("Active() stages should be an empty slice")
	}

	sessionID := uuid.New()
	f.snapshots.snaps[f.user.ID] = domain.TrackerSnapshot{
		UserID:    f.user.ID,
		Status:    domain.TrackerTracking,
		SessionID: &sessionID,
		Version:   7,
	}
	snap, err = f.svc.Active(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if snap.Version != 7 || snap.Status != domain.TrackerTracking {
		t.Errorf("Active() = %+v, want the shared snapshot", snap)
	}

	f.snapshots.err = errors.New("redis down")
	snap, err = f.svc.Active(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Active() with failing snapshot store error = %v", err)
	}
	if snap.Status != domain.TrackerIdle {
		t.Errorf("Active() status = %v, want idle", snap.Status)
	}

	if _, err := f.svc.Active(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Active() for unknown user error = %v, want ErrNotFound", err)
	}
}

func TestSessionService_Follow(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	updates, cancel, err := f.svc.Follow(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	defer cancel()

	if _, err := f.svc.Start(ctx, f.user.ID, &domain.StartSessionRequest{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				t.Fatal("Follow() channel closed")
			}
			if snap.Status == domain.TrackerTracking {
				return
			}
		case <-deadline:
			t.Fatal("Follow() never delivered a tracking snapshot")
		}
	}
}

func TestSessionService_Get(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	night := finishedNight(f.user.ID, start,
		stageRun{domain.StageAwake, 3},
		stageRun{domain.StageLight, 20},
		stageRun{domain.StageDeep, 12},
		stageRun{domain.StageREM, 10},
	)
	open := domain.SleepSession{ID: uuid.New(), UserID: f.user.ID, StartAt: start, LocalTimezone: "UTC"}
	other := finishedNight(uuid.New(), start, stageRun{domain.StageLight, 4})
	f.repo.Add(night, open, other)

	tests := []struct {
		name    string
		id      uuid.UUID
		wantErr error
	}{
		{name: "finalized", id: night.ID},
		{name: "open", id: open.ID},
		{name: "other user's session", id: other.ID, wantErr: domain.ErrNotFound},
		{name: "missing", id: uuid.New(), wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := f.svc.Get(ctx, f.user.ID, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && detail.ID != tt.id {
				t.Errorf("Get() id = %v, want %v", detail.ID, tt.id)
			}
		})
	}

	detail, _ := f.svc.Get(ctx, f.user.ID, night.ID)
	if len(detail.Stages) != 45 {
		t.Errorf("Get() stages = %d, want 45", len(detail.Stages))
	}
	if detail.Metrics.DeepMinutes != 60 {
		t.Errorf("Get() deep minutes = %v, want 60", detail.Metrics.DeepMinutes)
	}

	// A cached report survives the repository going away.
	f.repo.SetError(errors.New("db down"))
	if _, err := f.svc.Get(ctx, f.user.ID, night.ID); err != nil {
		t.Errorf("Get() of cached report error = %v", err)
	}
	if _, err := f.svc.Get(ctx, f.user.ID, open.ID); err == nil {
		t.Error("Get() of open session should not be cached")
	}
}

func TestSessionService_Sync(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	night := finishedNight(f.user.ID, start, stageRun{domain.StageLight, 10})
	night.SyncStatus = domain.SyncFailed
	open := domain.SleepSession{ID: uuid.New(), UserID: f.user.ID, StartAt: start}
	f.repo.Add(night, open)

	if _, err := f.svc.Sync(ctx, f.user.ID, open.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Sync() of open session error = %v, want ErrConflict", err)
	}

	report, err := f.svc.Sync(ctx, f.user.ID, night.ID)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got := report.Status(); got != domain.SyncPartial {
		t.Errorf("Sync() status = %v, want %v", got, domain.SyncPartial)
	}

	stored, _ := f.repo.Stored(night.ID)
	if stored.SyncStatus != domain.SyncPartial {
		t.Errorf("stored SyncStatus = %v, want %v", stored.SyncStatus, domain.SyncPartial)
	}
	if stored.SyncError == nil {
		t.Error("stored SyncError = nil, want the cloud failure")
	}
}

func TestSessionService_ResyncPending(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.mirror.report = domain.SyncReport{
		Health: domain.SinkResult{Status: domain.SyncSynced},
		Cloud:  domain.SinkResult{Status: domain.SyncSynced},
	}

	start := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	due := start.Add(24 * time.Hour)
	var sessions []domain.SleepSession
	for _, status := range []domain.SyncStatus{domain.SyncPending, domain.SyncFailed, domain.SyncPartial, domain.SyncSynced, domain.SyncDisabled} {
		s := finishedNight(f.user.ID, start, stageRun{domain.StageLight, 2})
		s.SyncStatus = status
		if status == domain.SyncFailed || status == domain.SyncPartial {
			s.NextSyncAt = &due
		}
		sessions = append(sessions, s)
	}
	f.repo.Add(sessions...)

	n, err := f.svc.ResyncPending(ctx, 10)
	if err != nil {
		t.Fatalf("ResyncPending() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ResyncPending() = %d, want 3", n)
	}
	if f.mirror.Calls() != 3 {
		t.Errorf("mirror calls = %d, want 3", f.mirror.Calls())
	}
	for _, s := range sessions {
		stored, _ := f.repo.Stored(s.ID)
		if s.SyncStatus == domain.SyncDisabled {
			continue
		}
		if stored.SyncStatus != domain.SyncSynced {
			t.Errorf("session %s status = %v, want synced", s.ID, stored.SyncStatus)
		}
		if stored.NextSyncAt != nil {
			t.Errorf("session %s NextSyncAt = %v, want nil once synced", s.ID, stored.NextSyncAt)
		}
	}
}

func TestSessionService_ResyncPendingWaitsForRetryAfter(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.mirror.report = domain.SyncReport{
		Health: domain.SinkResult{Status: domain.SyncSynced},
		Cloud: domain.SinkResult{
			Status:            domain.SyncFailed,
			FailureKind:       "quota_exceeded",
			RetryAfterSeconds: 3600,
			Retryable:         true,
		},
	}

	clock := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	f.svc.(*sessionService).now = func() time.Time { return clock }

	night := finishedNight(f.user.ID, time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC), stageRun{domain.StageLight, 2})
	night.SyncStatus = domain.SyncPending
	f.repo.Add(night)

	sweep := func(at time.Time) int {
		t.Helper()
		clock = at
		n, err := f.svc.ResyncPending(ctx, 10)
		if err != nil {
			t.Fatalf("ResyncPending() error = %v", err)
		}
		return n
	}

	if n := sweep(clock); n != 1 {
		t.Fatalf("first sweep = %d, want 1", n)
	}
	stored, _ := f.repo.Stored(night.ID)
	wantNext := clock.Add(time.Hour)
	if stored.NextSyncAt == nil || !stored.NextSyncAt.Equal(wantNext) {
		t.Fatalf("NextSyncAt = %v, want %v", stored.NextSyncAt, wantNext)
	}
	if stored.SyncAttempts != 1 {
		t.Errorf("SyncAttempts = %d, want 1", stored.SyncAttempts)
	}

	if n := sweep(clock.Add(10 * time.Minute)); n != 0 {
		t.Errorf("sweep before Retry-After = %d, want 0", n)
	}
	if got := f.mirror.Calls(); got != 1 {
		t.Errorf("mirror calls before Retry-After = %d, want 1", got)
	}

	if n := sweep(wantNext); n != 1 {
		t.Errorf("sweep at Retry-After = %d, want 1", n)
	}
	if got := f.mirror.Calls(); got != 2 {
		t.Errorf("mirror calls after Retry-After = %d, want 2", got)
	}
}

func TestSessionService_ResyncPendingSkips(t *testing.T) {
	base := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		report domain.SyncReport
		night  func(userID uuid.UUID) domain.SleepSession
	}{
		{
			name: "failure needing user action",
			report: domain.SyncReport{
				Health: domain.SinkResult{Status: domain.SyncSynced},
				Cloud:  domain.SinkResult{Status: domain.SyncFailed, FailureKind: "account_unavailable"},
			},
			night: func(userID uuid.UUID) domain.SleepSession {
				s := finishedNight(userID, base.Add(-10*time.Hour), stageRun{domain.StageLight, 2})
				s.SyncStatus = domain.SyncPending
				return s
			},
		},
		{
			name: "session finalized moments ago",
			report: domain.SyncReport{
				Health: domain.SinkResult{Status: domain.SyncSynced},
				Cloud:  domain.SinkResult{Status: domain.SyncSynced},
			},
			night: func(userID uuid.UUID) domain.SleepSession {
				s := finishedNight(userID, base.Add(-10*time.Minute), stageRun{domain.StageLight, 2})
				s.SyncStatus = domain.SyncPending
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			ctx := context.Background()
			f.mirror.report = tt.report
			f.svc.(*sessionService).now = func() time.Time { return base }

			night := tt.night(f.user.ID)
			f.repo.Add(night)

			first, err := f.svc.ResyncPending(ctx, 10)
			if err != nil {
				t.Fatalf("ResyncPending() error = %v", err)
			}
			calls := f.mirror.Calls()

			f.svc.(*sessionService).now = func() time.Time { return base.Add(500 * time.Millisecond) }
			if _, err := f.svc.ResyncPending(ctx, 10); err != nil {
				t.Fatalf("ResyncPending() error = %v", err)
			}
			if got := f.mirror.Calls(); got != calls {
				t.Errorf("mirror calls = %d after a second sweep, want %d (first sweep picked %d)", got, calls, first)
			}

			if _, err := f.svc.Sync(ctx, f.user.ID, night.ID); err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if got := f.mirror.Calls(); got != calls+1 {
				t.Errorf("manual Sync() mirror calls = %d, want %d", got, calls+1)
			}
		})
	}
}

func TestSessionService_List(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	for i := range 3 {
		f.repo.Add(finishedNight(f.user.ID, base.AddDate(0, 0, i), stageRun{domain.StageLight, 2}))
	}

	resp, err := f.svc.List(ctx, f.user.ID, domain.SessionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("List() len = %d, want 2", len(resp.Data))
	}
	if !resp.Pagination.HasMore || resp.Pagination.NextCursor == "" {
		t.Errorf("List() pagination = %+v, want more results with a cursor", resp.Pagination)
	}
	if !resp.Data[0].StartAt.After(resp.Data[1].StartAt) {
		t.Error("List() should return newest sessions first")
	}

	if _, err := f.svc.List(ctx, uuid.New(), domain.SessionFilter{Limit: 2}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("List() for unknown user error = %v, want ErrNotFound", err)
	}
}

func TestSessionService_Export(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	night := finishedNight(f.user.ID, base, stageRun{domain.StageLight, 6}, stageRun{domain.StageDeep, 6})
	night.LocalTimezone = "Europe/Prague"
	f.repo.Add(night)

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantErr error
	}{
		{name: "valid range", from: base.AddDate(0, 0, -1), to: base.AddDate(0, 0, 2)},
		{name: "reversed range", from: base, to: base.AddDate(0, 0, -1), wantErr: domain.ErrInvalidInput},
		{name: "range too long", from: base, to: base.AddDate(2, 0, 0), wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := f.svc.Export(ctx, f.user.ID, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Export() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			wb, err := excelize.OpenReader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("OpenReader() error = %v", err)
			}
			defer wb.Close()

			rows, err := wb.GetRows(sessionsSheet)
			if err != nil {
				t.Fatalf("GetRows(%s) error = %v", sessionsSheet, err)
			}
			if len(rows) != 2 {
				t.Fatalf("sessions rows = %d, want header + 1", len(rows))
			}
			if rows[1][0] != night.ID.String() {
				t.Errorf("session row id = %v, want %v", rows[1][0], night.ID)
			}

			stages, err := wb.GetRows(stagesSheet)
			if err != nil {
				t.Fatalf("GetRows(%s) error = %v", stagesSheet, err)
			}
			if len(stages) != 13 {
				t.Errorf("stage rows = %d, want header + 12", len(stages))
			}
		})
	}
}
