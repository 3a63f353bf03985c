package tracking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blaisecz/smart-sleep/internal/alarm"
	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of a tracker. Only Store is required.
type Deps struct {
	Store     Store
	Mirror    Mirror
	Notifier  Notifier
	Publisher Publisher
	Logger    *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now for the tracker and its alarm planners.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker records the sessions of one user. All session state is owned by the loop
// goroutine; exported methods marshal their work onto it.
type Tracker struct {
	userID    uuid.UUID
	cfg       Config
	store     Store
	mirror    Mirror
	notifier  Notifier
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	cmds     chan func()
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	bg       sync.WaitGroup
	pub      chan domain.TrackerSnapshot
	pubDone  chan struct{}
	snap     atomic.Pointer[domain.TrackerSnapshot]
	subMu    sync.Mutex
	subs     map[chan domain.TrackerSnapshot]struct{}

	// Loop-owned.
	session       *domain.SleepSession
	stream        *analysis.Stream
	planner       *alarm.Planner
	liveStages    []domain.StageWindow
	savedMovement int
	savedSound    int
	dropped       int
	version       uint64
	sampleTicker  *time.Ticker
	saveTicker    *time.Ticker
}

// NewTracker starts the loop of a tracker for userID. Call Close to release it.
func NewTracker(userID uuid.UUID, cfg Config, deps Deps, opts ...Option) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		userID:    userID,
		cfg:       cfg.withDefaults(),
		store:     deps.Store,
		mirror:    deps.Mirror,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		cmds:      make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		pub:       make(chan domain.TrackerSnapshot, 1),
		pubDone:   make(chan struct{}),
		subs:      make(map[chan domain.TrackerSnapshot]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	t.logger = t.logger.With(zap.String("user_id", userID.String()))
	if t.notifier == nil {
		t.notifier = nopNotifier{}
	}

	t.refresh(false)
	go t.loop()
	if t.publisher != nil {
		go t.publishLoop()
	} else {
		close(t.pubDone)
	}
	return t
}

// UserID returns the owner of the tracker.
func (t *Tracker) UserID() uuid.UUID {
	return t.userID
}

// Start begins a new session. It fails with domain.ErrSessionActive when a session is
// already tracked and with domain.ErrInvalidAlarmConfig when the alarm parameters are
// rejected; in both cases nothing is created.
func (t *Tracker) Start(ctx context.Context, p StartParams) (*domain.SleepSession, error) {
	var (
		session *domain.SleepSession
		err     error
	)
	if derr := t.do(ctx, func() { session, err = t.start(ctx, p) }); derr != nil {
		return nil, derr
	}
	return session, err
}

// Record appends readings to the active session in the order given. Readings that
// arrive while no session is tracked are dropped and counted.
func (t *Tracker) Record(ctx context.Context, readings ...domain.Reading) (accepted, dropped int, err error) {
	err = t.do(ctx, func() { accepted, dropped = t.record(readings) })
	return accepted, dropped, err
}

// Stop ends the active session: the alarm and timers are cancelled, stages and metrics
// are computed and the session is persisted and mirrored. Persistence and mirroring
// failures are logged and never fail the call.
func (t *Tracker) Stop(ctx context.Context) (*Result, error) {
	var (
		res *Result
		err error
	)
	if derr := t.do(ctx, func() { res, err = t.stop(ctx) }); derr != nil {
		return nil, derr
	}
	return res, err
}

// Snapshot returns the latest published state.
func (t *Tracker) Snapshot() domain.TrackerSnapshot {
	return *t.snap.Load()
}

// Subscribe returns a channel that receives the current snapshot and every later one.
// Slow subscribers only see the most recent snapshot. The returned func unsubscribes.
func (t *Tracker) Subscribe() (<-chan domain.TrackerSnapshot, func()) {
	ch := make(chan domain.TrackerSnapshot, 1)

	t.subMu.Lock()
	t.subs[ch] = struct{}{}
	offer(ch, *t.snap.Load())
	t.subMu.Unlock()

	return ch, func() {
		t.subMu.Lock()
		defer t.subMu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}

// Close stops an active session, waits for background work and shuts the loop down.
func (t *Tracker) Close(ctx context.Context) error {
	if _, err := t.Stop(ctx); err == nil {
		t.logger.Info("active session stopped on shutdown")
	}

	waited := make(chan struct{})
	go func() {
		t.bg.Wait()
		close(waited)
	}()
	var err error
	select {
	case <-waited:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for background work: %w", ctx.Err())
	}

	t.quitOnce.Do(func() { close(t.quit) })
	<-t.done
	t.cancel()
	<-t.pubDone

	t.subMu.Lock()
	for ch := range t.subs {
		delete(t.subs, ch)
		close(ch)
	}
	t.subMu.Unlock()
	return err
}

func (t *Tracker) loop() {
	defer close(t.done)
	for {
		var sampleC, saveC <-chan time.Time
		if t.sampleTicker != nil {
			sampleC = t.sampleTicker.C
			saveC = t.saveTicker.C
		}

		select {
		case fn := <-t.cmds:
			fn()
		case <-sampleC:
			t.sampleTick()
		case <-saveC:
			t.saveTick()
		case <-t.quit:
			t.stopTickers()
			return
		}
	}
}

// do runs fn on the loop and waits for it.
func (t *Tracker) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	select {
	case t.cmds <- func() { defer close(ran); fn() }:
	case <-t.quit:
		return domain.ErrTrackerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}

// post queues fn on the loop without waiting for it to run.
func (t *Tracker) post(fn func()) bool {
	select {
	case t.cmds <- fn:
		return true
	case <-t.quit:
		return false
	}
}

// background runs fn outside the loop with a bounded context.
func (t *Tracker) background(fn func(ctx context.Context)) {
	t.bg.Add(1)
	go func() {
		defer t.bg.Done()
		ctx, cancel := context.WithTimeout(t.ctx, t.cfg.IOTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (t *Tracker) start(ctx context.Context, p StartParams) (*domain.SleepSession, error) {
	if t.session != nil {
		return nil, domain.ErrSessionActive
	}

	now := t.now()
	session := &domain.SleepSession{
		ID:            uuid.New(),
		UserID:        t.userID,
		StartAt:       now,
		LocalTimezone: p.LocalTimezone,
		SyncStatus:    domain.SyncPending,
	}
	if session.LocalTimezone == "" {
		session.LocalTimezone = "UTC"
	}

	var planner *alarm.Planner
	if p.TargetWake != nil {
		target := p.TargetWake.UTC()
		var err error
		planner, err = alarm.New(
			alarm.Config{TargetWake: target, Window: p.PreWakeWindow, CheckInterval: t.cfg.AlarmCheckInterval},
			func(d alarm.Decision) {
				t.post(func() { t.wake(planner, d) })
			},
			alarm.WithClock(t.now),
			alarm.WithLogger(t.logger.With(zap.String("session_id", session.ID.String()))),
		)
		if err != nil {
			return nil, err
		}
		windowStart, _ := planner.Window()
		session.TargetWakeAt = &target
		session.PreWakeWindow = target.Sub(windowStart)
	}

	if err := t.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	t.session = session
	t.stream = analysis.NewStream(now)
	t.liveStages = nil
	t.savedMovement, t.savedSound = 0, 0
	t.sampleTicker = time.NewTicker(t.cfg.SampleInterval)
	t.saveTicker = time.NewTicker(t.cfg.SaveInterval)

	if planner != nil {
		if err := planner.Start(t.ctx); err != nil {
			t.logger.Error("failed to start smart alarm", zap.Error(err))
		} else {
			t.planner = planner
			windowStart, _ := planner.Window()
			reminder := cloneSession(session)
			t.background(func(ctx context.Context) {
				if err := t.notifier.ScheduleReminder(ctx, reminder, windowStart); err != nil {
					t.logger.Warn("failed to schedule alarm reminder", zap.Error(err))
				}
			})
		}
	}

	t.logger.Info("tracking started",
		zap.String("session_id", session.ID.String()),
		zap.Bool("smart_alarm", t.planner != nil),
	)
	t.refresh(true)
	return cloneSession(session), nil
}

func (t *Tracker) record(readings []domain.Reading) (accepted, dropped int) {
	if t.session == nil {
		t.dropped += len(readings)
		if len(readings) > 0 {
			t.refresh(false)
		}
		return 0, len(readings)
	}

	now := t.now()
	for _, r := range readings {
		r = r.Clamped()
		if r.Timestamp.IsZero() {
			r.Timestamp = now
		}
		switch r.Kind {
		case domain.SampleMovement:
			t.session.MovementSamples = append(t.session.MovementSamples, domain.MovementSample{
				SessionID: t.session.ID,
				Timestamp: r.Timestamp,
				Intensity: r.Value,
			})
			t.stream.AddMovement(r.Timestamp, r.Value)
		case domain.SampleSound:
			t.session.SoundSamples = append(t.session.SoundSamples, domain.SoundSample{
				SessionID: t.session.ID,
				Timestamp: r.Timestamp,
				Decibels:  r.Value,
			})
			t.stream.AddSound(r.Timestamp, r.Value)
		default:
			dropped++
			continue
		}
		accepted++
	}
	t.dropped += dropped
	t.refresh(false)
	return accepted, dropped
}

func (t *Tracker) sampleTick() {
	if t.session == nil {
		return
	}
	windows := t.stream.Advance(t.now())
	for i := range windows {
		windows[i].SessionID = t.session.ID
	}
	t.liveStages = append(t.liveStages, windows...)
	if t.planner != nil {
		t.planner.Observe(windows...)
	}
	t.refresh(true)
}

func (t *Tracker) saveTick() {
	if t.session == nil {
		return
	}
	movement, sound := t.unsaved()
	if len(movement) == 0 && len(sound) == 0 {
		return
	}

	sessionID := t.session.ID
	t.background(func(ctx context.Context) {
		if err := t.store.AppendSamples(ctx, sessionID, movement, sound); err != nil {
			t.logger.Warn("periodic save failed",
				zap.String("session_id", sessionID.String()),
				zap.Int("movement", len(movement)),
				zap.Int("sound", len(sound)),
				zap.Error(err),
			)
		}
	})
}

// unsaved returns copies of the samples not yet handed to the store and marks them saved.
func (t *Tracker) unsaved() ([]domain.MovementSample, []domain.SoundSample) {
	movement := append([]domain.MovementSample(nil), t.session.MovementSamples[t.savedMovement:]...)
	sound := append([]domain.SoundSample(nil), t.session.SoundSamples[t.savedSound:]...)
	t.savedMovement = len(t.session.MovementSamples)
	t.savedSound = len(t.session.SoundSamples)
	return movement, sound
}

func (t *Tracker) stop(ctx context.Context) (*Result, error) {
	if t.session == nil {
		return nil, domain.ErrNoActiveSession
	}

	if t.planner != nil {
		t.planner.Cancel()
	}
	t.stopTickers()

	session := t.session
	metrics := Finalize(session, t.now())
	if t.mirror == nil {
		session.SyncStatus = domain.SyncDisabled
	}

	movement, sound := t.unsaved()
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.IOTimeout)
	if err := t.store.Finalize(saveCtx, session, movement, sound); err != nil {
		t.logger.Error("failed to save finalized session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}
	cancel()

	t.session = nil
	t.stream = nil
	t.planner = nil
	t.liveStages = nil

	t.logger.Info("tracking stopped",
		zap.String("session_id", session.ID.String()),
		zap.Duration("total_sleep", metrics.TotalSleep),
		zap.Float64("efficiency", metrics.Efficiency),
		zap.Int("awakenings", metrics.Awakenings),
		zap.Bool("alarm_triggered", session.AlarmTriggered),
	)
	t.refresh(true)

	if t.mirror != nil {
		t.sync(session)
	}
	return &Result{Session: cloneSession(session), Metrics: metrics}, nil
}

// sync mirrors a finalized session in the background and applies the outcome on the loop.
func (t *Tracker) sync(session *domain.SleepSession) {
	frozen := cloneSession(session)
	t.background(func(ctx context.Context) {
		report := t.mirror.Sync(ctx, frozen)
		applied := make(chan struct{})
		if !t.post(func() {
			defer close(applied)
			session.ApplySyncReport(report, t.now())
			updated := cloneSession(session)
			t.background(func(ctx context.Context) {
				if err := t.store.MarkSynced(ctx, updated); err != nil {
					t.logger.Warn("failed to record sync status",
						zap.String("session_id", updated.ID.String()),
						zap.Error(err),
					)
				}
			})
		}) {
			return
		}
		<-applied
	})
}

func (t *Tracker) wake(p *alarm.Planner, d alarm.Decision) {
	if t.session == nil || t.planner != p {
		t.logger.Info("dropping alarm decision for a finished session", zap.Time("trigger_at", d.At))
		return
	}

	at := d.At
	t.session.ActualWakeAt = &at
	t.session.AlarmTriggered = true

	ringing := cloneSession(t.session)
	t.background(func(ctx context.Context) {
		if err := t.notifier.Trigger(ctx, ringing, at); err != nil {
			t.logger.Error("failed to deliver alarm", zap.Error(err))
		}
	})
	t.refresh(true)
}

func (t *Tracker) stopTickers() {
	if t.sampleTicker != nil {
		t.sampleTicker.Stop()
		t.saveTicker.Stop()
		t.sampleTicker, t.saveTicker = nil, nil
	}
}

// refresh rebuilds the snapshot. Broadcast snapshots also go to subscribers and the publisher.
func (t *Tracker) refresh(broadcast bool) {
	t.version++
	snap := domain.TrackerSnapshot{
		UserID:       t.userID,
		Status:       domain.TrackerIdle,
		DroppedCount: t.dropped,
		Stages:       []domain.StageWindow{},
		Version:      t.version,
		UpdatedAt:    t.now(),
	}
	if s := t.session; s != nil {
		id, started := s.ID, s.StartAt
		snap.Status = domain.TrackerTracking
		snap.SessionID = &id
		snap.StartedAt = &started
		snap.MovementCount = len(s.MovementSamples)
		snap.SoundCount = len(s.SoundSamples)
		if n := len(s.MovementSamples); n > 0 {
			v := s.MovementSamples[n-1].Intensity
			snap.LastIntensity = &v
		}
		if n := len(s.SoundSamples); n > 0 {
			v := s.SoundSamples[n-1].Decibels
			snap.LastDecibels = &v
		}
		snap.Stages = append(snap.Stages, t.liveStages...)
	}
	if t.planner != nil {
		st := t.planner.Status()
		snap.Alarm = &st
	}
	t.snap.Store(&snap)

	if !broadcast {
		return
	}
	t.subMu.Lock()
	for ch := range t.subs {
		offer(ch, snap)
	}
	t.subMu.Unlock()
	if t.publisher != nil {
		offer(t.pub, snap)
	}
}

func (t *Tracker) publishLoop() {
	defer close(t.pubDone)
	for {
		select {
		case <-t.ctx.Done():
			return
		case snap := <-t.pub:
			ctx, cancel := context.WithTimeout(t.ctx, t.cfg.IOTimeout)
			if err := t.publisher.Publish(ctx, snap); err != nil {
				t.logger.Warn("failed to publish tracker snapshot", zap.Error(err))
			}
			cancel()
		}
	}
}

// offer replaces any unread value in ch with v.
func offer(ch chan domain.TrackerSnapshot, v domain.TrackerSnapshot) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// cloneSession returns a copy that shares no mutable state with the loop. Sample and
// stage slices are capped so appends on either side never alias.
func cloneSession(s *domain.SleepSession) *domain.SleepSession {
	c := *s
	c.MovementSamples = s.MovementSamples[:len(s.MovementSamples):len(s.MovementSamples)]
	c.SoundSamples = s.SoundSamples[:len(s.SoundSamples):len(s.SoundSamples)]
	c.Stages = s.Stages[:len(s.Stages):len(s.Stages)]
	return &c
}

type nopNotifier struct{}

func (nopNotifier) ScheduleReminder(context.Context, *domain.SleepSession, time.Time) error {
	return nil
}

func (nopNotifier) Trigger(context.Context, *domain.SleepSession, time.Time) error {
	return nil
}
