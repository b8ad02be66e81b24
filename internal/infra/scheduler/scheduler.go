package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/usecase"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
	"github.com/jeonjuho23/claude-daily/internal/infra/worker"
)

var _ usecase.ScheduleController = (*Scheduler)(nil)

const (
	weeklyReportJob  = "weekly_report"
	monthlyReportJob = "monthly_report"

	// a topic request claim outlives the longest retry sequence
	requestClaimTTL = 2 * time.Hour
)

// ContentRunner runs one retry-governed generation. It is satisfied by usecase.ContentUseCase.
type ContentRunner interface {
	Execute(ctx context.Context, scheduleID *int64, req *model.TopicRequest) (*model.ContentRecord, error)
}

// ReportRunner is satisfied by usecase.ReportUseCase.
type ReportRunner interface {
	GenerateWeekly(ctx context.Context) (*model.ReportData, error)
	GenerateMonthly(ctx context.Context) (*model.ReportData, error)
}

// Dispatcher runs detached work. It is satisfied by *worker.Pool.
type Dispatcher interface {
	Submit(name string, task worker.Task) error
}

// Options are the scheduler settings taken from config.
type Options struct {
	DefaultTime string
	Location    *time.Location
	Report      config.ReportConfig
	LockTTL     time.Duration
}

// Scheduler owns the live trigger set and the pause flag. One cron entry exists
// per active schedule plus the two report entries.
type Scheduler struct {
	schedules repository.ScheduleRepository
	contents  repository.ContentRepository
	logs      repository.ExecutionLogRepository
	requests  repository.TopicRequestRepository

	content ContentRunner
	reports ReportRunner
	pool    Dispatcher
	locker  red.Locker // nil runs every fire locally

	opts Options
	log  *zerolog.Logger
	now  func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	baseCtx context.Context

	running   atomic.Bool
	paused    atomic.Bool
	startedAt atomic.Int64 // unix nanos

	dispatched sync.Map // topic request id -> struct{}
}

func New(
	schedules repository.ScheduleRepository,
	contents repository.ContentRepository,
	logs repository.ExecutionLogRepository,
	requests repository.TopicRequestRepository,
	content ContentRunner,
	reports ReportRunner,
	pool Dispatcher,
	locker red.Locker,
	opts Options,
	logger *zerolog.Logger,
) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	l := logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{log: &l}
	return &Scheduler{
		schedules: schedules,
		contents:  contents,
		logs:      logs,
		requests:  requests,
		content:   content,
		reports:   reports,
		pool:      pool,
		locker:    locker,
		opts:      opts,
		log:       &l,
		now:       time.Now,
		cron:      cron.New(cron.WithLocation(opts.Location), cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl)),
		entries:   make(map[string]cron.EntryID),
		baseCtx:   context.Background(),
	}
}

// Start loads active schedules, creating the default one when none exist,
// registers their triggers plus the report triggers and starts the engine.
// Trigger runs use ctx as their parent.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}

	active, err := s.schedules.ListByStatus(ctx, repository.NoTX, model.ScheduleStatusActive)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	if len(active) == 0 {
		def, err := model.NewSchedule(s.opts.DefaultTime)
		if err != nil {
			return fmt.Errorf("default schedule: %w", err)
		}
		if err := s.schedules.Save(ctx, repository.NoTX, def); err != nil {
			return fmt.Errorf("save default schedule: %w", err)
		}
		s.log.Info().Str("time", def.Time).Msg("created default schedule")
		active = append(active, def)
	}

	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	for _, sch := range active {
		if err := s.register(sch); err != nil {
			return err
		}
	}
	if err := s.registerReports(); err != nil {
		return err
	}

	s.cron.Start()
	s.startedAt.Store(s.now().UnixNano())
	s.running.Store(true)
	s.log.Info().Int("schedules", len(active)).Str("timezone", s.opts.Location.String()).Msg("scheduler started")
	return nil
}

// Stop halts new fires. Runs already in progress keep going.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) register(sch *model.Schedule) error {
	tod, err := model.ParseTimeOfDay(sch.Time)
	if err != nil {
		return err
	}
	id := sch.ID
	jobID := sch.JobID()
	spec := fmt.Sprintf("%d %d * * *", tod.Minute, tod.Hour)
	return s.addJob(jobID, spec, func() { s.fireContent(jobID, id) })
}

// registerReports maps config weekday 0=Monday onto cron's 0=Sunday.
func (s *Scheduler) registerReports() error {
	wt, err := model.ParseTimeOfDay(s.opts.Report.WeeklyTime)
	if err != nil {
		return fmt.Errorf("weekly report time: %w", err)
	}
	mt, err := model.ParseTimeOfDay(s.opts.Report.MonthlyTime)
	if err != nil {
		return fmt.Errorf("monthly report time: %w", err)
	}

	weekly := fmt.Sprintf("%d %d * * %d", wt.Minute, wt.Hour, (s.opts.Report.WeeklyDay+1)%7)
	monthly := fmt.Sprintf("%d %d %d * *", mt.Minute, mt.Hour, s.opts.Report.MonthlyDay)
	if err := s.addJob(weeklyReportJob, weekly, func() { s.fireReport(weeklyReportJob, s.reports.GenerateWeekly) }); err != nil {
		return err
	}
	return s.addJob(monthlyReportJob, monthly, func() { s.fireReport(monthlyReportJob, s.reports.GenerateMonthly) })
}

// addJob replaces any entry already registered under jobID.
func (s *Scheduler) addJob(jobID, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[jobID]; ok {
		s.cron.Remove(old)
		delete(s.entries, jobID)
	}
	eid, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("register %s (%s): %w", jobID, spec, err)
	}
	s.entries[jobID] = eid
	s.log.Debug().Str("job", jobID).Str("cron", spec).Msg("trigger registered")
	return nil
}

func (s *Scheduler) removeJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eid, ok := s.entries[jobID]; ok {
		s.cron.Remove(eid)
		delete(s.entries, jobID)
	}
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// fireContent is the trigger callback for one schedule. A paused scheduler
// still fires but does no work.
func (s *Scheduler) fireContent(jobID string, scheduleID int64) {
	ctx := s.runContext()
	log := s.log.With().Str("job", jobID).Logger()

	if s.paused.Load() {
		metrics.IncTrigger("content", "paused")
		log.Info().Msg("scheduler paused; skipping fire")
		return
	}
	if !s.claimFire(ctx, jobID) {
		metrics.IncTrigger("content", "locked")
		log.Info().Msg("fire claimed by another replica")
		return
	}
	metrics.IncTrigger("content", "run")

	// failures are already logged and notified by the content workflow
	if _, err := s.content.Execute(ctx, &scheduleID, nil); err != nil {
		log.Warn().Err(err).Msg("scheduled generation ended without content")
	}
}

func (s *Scheduler) fireReport(jobID string, run func(ctx context.Context) (*model.ReportData, error)) {
	ctx := s.runContext()
	if !s.claimFire(ctx, jobID) {
		metrics.IncTrigger(jobID, "locked")
		return
	}
	metrics.IncTrigger(jobID, "run")
	if _, err := run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", jobID).Msg("report generation failed")
	}
}

// claimFire fails open: a redis outage must not stop generation.
func (s *Scheduler) claimFire(ctx context.Context, jobID string) bool {
	if s.locker == nil {
		return true
	}
	_, ok, err := s.locker.TryLock(ctx, red.FireKey(jobID, s.now()), s.opts.LockTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("job", jobID).Msg("fire lock unavailable; running locally")
		return true
	}
	return ok
}

func (s *Scheduler) SetTime(ctx context.Context, hhmm string) (string, error) {
	hhmm, err := model.ValidateTimeOfDay(hhmm)
	if err != nil {
		return "", err
	}
	active, err := s.schedules.ListByStatus(ctx, repository.NoTX, model.ScheduleStatusActive)
	if err != nil {
		return "", fmt.Errorf("list schedules: %w", err)
	}
	if len(active) == 0 {
		if _, err := s.AddSchedule(ctx, hhmm); err != nil {
			return "", err
		}
		return "", nil
	}

	primary := active[0]
	prev := primary.Time
	if prev == hhmm {
		return prev, nil
	}
	if other, err := s.schedules.FindByTime(ctx, repository.NoTX, hhmm); err == nil && other.ID != primary.ID {
		return "", fmt.Errorf("%w: %s", domain.ErrScheduleExists, hhmm)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("find schedule: %w", err)
	}

	primary.Time = hhmm
	primary.UpdatedAt = s.now()
	if err := s.schedules.Update(ctx, repository.NoTX, primary); err != nil {
		return "", fmt.Errorf("update schedule: %w", err)
	}
	if err := s.register(primary); err != nil {
		return "", err
	}
	s.log.Info().Int64("schedule_id", primary.ID).Str("from", prev).Str("to", hhmm).Msg("schedule time changed")
	return prev, nil
}

func (s *Scheduler) AddSchedule(ctx context.Context, hhmm string) (*model.Schedule, error) {
	sch, err := model.NewSchedule(hhmm)
	if err != nil {
		return nil, err
	}
	if _, err := s.schedules.FindByTime(ctx, repository.NoTX, sch.Time); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleExists, sch.Time)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find schedule: %w", err)
	}

	if err := s.schedules.Save(ctx, repository.NoTX, sch); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	if err := s.register(sch); err != nil {
		return nil, err
	}
	s.log.Info().Int64("schedule_id", sch.ID).Str("time", sch.Time).Msg("schedule added")
	return sch, nil
}

func (s *Scheduler) RemoveSchedule(ctx context.Context, hhmm string) error {
	norm, err := model.ValidateTimeOfDay(hhmm)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, hhmm)
	}
	sch, err := s.schedules.FindByTime(ctx, repository.NoTX, norm)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, norm)
	}
	if err != nil {
		return fmt.Errorf("find schedule: %w", err)
	}

	s.removeJob(sch.JobID())
	if err := s.schedules.SoftDelete(ctx, repository.NoTX, sch.ID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.log.Info().Int64("schedule_id", sch.ID).Str("time", sch.Time).Msg("schedule removed")
	return nil
}

func (s *Scheduler) ListSchedules(ctx context.Context) ([]usecase.ScheduleView, error) {
	active, err := s.schedules.ListByStatus(ctx, repository.NoTX, model.ScheduleStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	now := s.now().In(s.opts.Location)
	views := make([]usecase.ScheduleView, 0, len(active))
	for _, sch := range active {
		next, err := model.NextRun(sch.Time, now)
		if err != nil {
			s.log.Warn().Err(err).Int64("schedule_id", sch.ID).Msg("skipping schedule with invalid time")
			continue
		}
		views = append(views, usecase.ScheduleView{ID: sch.ID, Time: sch.Time, NextRun: next})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Time < views[j].Time })
	return views, nil
}

func (s *Scheduler) Pause() bool {
	changed := s.paused.CompareAndSwap(false, true)
	if changed {
		s.log.Info().Msg("scheduler paused")
	}
	return changed
}

func (s *Scheduler) Resume() bool {
	changed := s.paused.CompareAndSwap(true, false)
	if changed {
		s.log.Info().Msg("scheduler resumed")
	}
	return changed
}

func (s *Scheduler) Paused() bool { return s.paused.Load() }

// RunNow queues a manual generation and returns without waiting for it.
func (s *Scheduler) RunNow(ctx context.Context) error {
	err := s.pool.Submit("run_now", func(ctx context.Context) error {
		_, err := s.content.Execute(ctx, nil, nil)
		return err
	})
	if err != nil {
		metrics.IncTrigger("manual", "dropped")
		return err
	}
	metrics.IncTrigger("manual", "queued")
	logging.With(ctx, s.log).Info().Msg("manual generation queued")
	return nil
}

// RequestTopic persists the request and queues a generation scoped to it.
func (s *Scheduler) RequestTopic(ctx context.Context, topic, requestedBy string) (*model.TopicRequest, error) {
	req, err := model.NewTopicRequest(topic, requestedBy)
	if err != nil {
		return nil, err
	}
	if err := s.requests.Save(ctx, repository.NoTX, req); err != nil {
		return nil, fmt.Errorf("save topic request: %w", err)
	}
	if err := s.DispatchRequest(req); err != nil {
		// the request stays pending and is picked up later
		logging.With(ctx, s.log).Warn().Err(err).Int64("request_id", req.ID).Msg("topic request not dispatched")
	}
	return req, nil
}

// DispatchRequest queues req at most once per process. Across replicas the
// run is guarded by a redis claim when a locker is configured.
func (s *Scheduler) DispatchRequest(req *model.TopicRequest) error {
	if _, loaded := s.dispatched.LoadOrStore(req.ID, struct{}{}); loaded {
		return nil
	}
	err := s.pool.Submit("topic_request", func(ctx context.Context) error {
		if s.locker != nil {
			key := red.TopicRequestKey(req.ID)
			token, ok, err := s.locker.TryLock(ctx, key, requestClaimTTL)
			if err == nil && !ok {
				return nil
			}
			if ok {
				defer func() { _ = s.locker.Unlock(context.WithoutCancel(ctx), key, token) }()
			}
		}
		_, err := s.content.Execute(ctx, nil, req)
		return err
	})
	if err != nil {
		s.dispatched.Delete(req.ID)
		metrics.IncTrigger("request", "dropped")
		return err
	}
	metrics.IncTrigger("request", "queued")
	return nil
}

func (s *Scheduler) Status(ctx context.Context) (*model.BotStatus, error) {
	active, err := s.schedules.ListByStatus(ctx, repository.NoTX, model.ScheduleStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	total, err := s.contents.Count(ctx, repository.NoTX, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("count contents: %w", err)
	}
	recent, err := s.logs.ListRecent(ctx, repository.NoTX, 1)
	if err != nil {
		return nil, fmt.Errorf("recent executions: %w", err)
	}

	now := s.now().In(s.opts.Location)
	st := &model.BotStatus{
		IsRunning:       s.running.Load(),
		IsPaused:        s.paused.Load(),
		ActiveSchedules: make([]string, 0, len(active)),
		TotalGenerated:  total,
	}
	for _, sch := range active {
		st.ActiveSchedules = append(st.ActiveSchedules, sch.Time)
		next, err := model.NextRun(sch.Time, now)
		if err != nil {
			continue
		}
		if st.NextExecution == nil || next.Before(*st.NextExecution) {
			n := next
			st.NextExecution = &n
		}
	}
	sort.Strings(st.ActiveSchedules)
	if len(recent) > 0 {
		last := recent[0].StartedAt
		st.LastExecution = &last
		st.LastError = recent[0].ErrorMessage
	}
	if st.IsRunning {
		st.Uptime = now.Sub(time.Unix(0, s.startedAt.Load()))
	}
	return st, nil
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct{ log *zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
