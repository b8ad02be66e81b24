//go:build !integration

package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	"github.com/jeonjuho23/claude-daily/internal/infra/worker"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- schedules ---

type memScheduleRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*model.Schedule
}

func newMemScheduleRepo(times ...string) *memScheduleRepo {
	r := &memScheduleRepo{rows: map[int64]*model.Schedule{}}
	for _, t := range times {
		s, _ := model.NewSchedule(t)
		_ = r.Save(context.Background(), nil, s)
	}
	return r
}

func (r *memScheduleRepo) Save(_ context.Context, _ repository.Tx, s *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.rows[s.ID] = &cp
	return nil
}

func (r *memScheduleRepo) Update(_ context.Context, _ repository.Tx, s *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.rows[s.ID] = &cp
	return nil
}

func (r *memScheduleRepo) FindByID(_ context.Context, _ repository.Tx, id int64) (*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memScheduleRepo) FindByTime(_ context.Context, _ repository.Tx, hhmm string) (*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *model.Schedule
	for _, s := range r.rows {
		if s.Time == hhmm && !s.Deleted() && (found == nil || s.ID < found.ID) {
			found = s
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *memScheduleRepo) ListByStatus(_ context.Context, _ repository.Tx, status model.ScheduleStatus) ([]*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Schedule
	for _, s := range r.rows {
		if s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (r *memScheduleRepo) SoftDelete(_ context.Context, _ repository.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.Deleted() {
		return domain.ErrNotFound
	}
	s.Status = model.ScheduleStatusDeleted
	return nil
}

// --- contents, logs, requests ---

type stubContentRepo struct {
	repository.ContentRepository
	total int
}

func (s *stubContentRepo) Count(context.Context, repository.Tx, *time.Time, *time.Time) (int, error) {
	return s.total, nil
}

type stubLogRepo struct {
	repository.ExecutionLogRepository
	recent []*model.ExecutionLog
}

func (s *stubLogRepo) ListRecent(context.Context, repository.Tx, int) ([]*model.ExecutionLog, error) {
	return s.recent, nil
}

type memRequestRepo struct {
	repository.TopicRequestRepository
	mu    sync.Mutex
	saved []*model.TopicRequest
}

func (m *memRequestRepo) Save(_ context.Context, _ repository.Tx, r *model.TopicRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, r)
	return nil
}

// --- runners ---

type runCall struct {
	scheduleID *int64
	req        *model.TopicRequest
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
	err   error
}

func (f *fakeRunner) Execute(_ context.Context, scheduleID *int64, req *model.TopicRequest) (*model.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runCall{scheduleID: scheduleID, req: req})
	if f.err != nil {
		return nil, f.err
	}
	return &model.ContentRecord{ID: 1}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeReports struct {
	weekly, monthly int
}

func (f *fakeReports) GenerateWeekly(context.Context) (*model.ReportData, error) {
	f.weekly++
	return &model.ReportData{Type: model.ReportTypeWeekly}, nil
}

func (f *fakeReports) GenerateMonthly(context.Context) (*model.ReportData, error) {
	f.monthly++
	return &model.ReportData{Type: model.ReportTypeMonthly}, nil
}

// inlineDispatcher runs tasks on the caller's goroutine.
type inlineDispatcher struct {
	names []string
	err   error
}

func (d *inlineDispatcher) Submit(name string, task worker.Task) error {
	if d.err != nil {
		return d.err
	}
	d.names = append(d.names, name)
	_ = task(context.Background())
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	unlocked []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return "", false, nil
	}
	l.held[key] = true
	return "tok", true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.unlocked = append(l.unlocked, key)
	return nil
}
