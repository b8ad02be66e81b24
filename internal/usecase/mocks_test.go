//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Repositories
// =============================

// ---- In-memory ContentRepository ----

type memContentRepo struct {
	mu     sync.Mutex
	nextID int64
	store  map[int64]*model.ContentRecord

	SaveFunc  func(ctx context.Context, tx repository.Tx, c *model.ContentRecord) error
	CountFunc func(ctx context.Context, tx repository.Tx, start, end *time.Time) (int, error)
	DistFunc  func(ctx context.Context, tx repository.Tx, start, end time.Time) (map[model.Category]int, error)
}

var _ repository.ContentRepository = (*memContentRepo)(nil)

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{store: make(map[int64]*model.ContentRecord)}
}

func (m *memContentRepo) Save(ctx context.Context, tx repository.Tx, c *model.ContentRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Title == c.Title {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memContentRepo) Update(ctx context.Context, tx repository.Tx, c *model.ContentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memContentRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memContentRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ContentRecord, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memContentRepo) Count(ctx context.Context, tx repository.Tx, start, end *time.Time) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, tx, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *memContentRepo) UsedTopics(ctx context.Context, tx repository.Tx) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.store))
	for _, c := range m.store {
		out = append(out, c.Title)
	}
	return out, nil
}

func (m *memContentRepo) CategoryDistribution(ctx context.Context, tx repository.Tx, start, end time.Time) (map[model.Category]int, error) {
	if m.DistFunc != nil {
		return m.DistFunc(ctx, tx, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.Category]int{}
	for _, c := range m.store {
		out[c.Category]++
	}
	return out, nil
}

// ---- In-memory TopicRequestRepository ----

type memTopicRequestRepo struct {
	mu     sync.Mutex
	nextID int64
	store  map[int64]*model.TopicRequest
}

var _ repository.TopicRequestRepository = (*memTopicRequestRepo)(nil)

func newMemTopicRequestRepo() *memTopicRequestRepo {
	return &memTopicRequestRepo{store: make(map[int64]*model.TopicRequest)}
}

func (m *memTopicRequestRepo) Save(ctx context.Context, tx repository.Tx, r *model.TopicRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *memTopicRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.TopicRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memTopicRequestRepo) MarkProcessed(ctx context.Context, tx repository.Tx, id, contentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	r.IsProcessed = true
	r.ContentID = &contentID
	r.ProcessedAt = &now
	return nil
}

func (m *memTopicRequestRepo) ListPending(ctx context.Context, tx repository.Tx, createdBefore time.Time, limit int) ([]*model.TopicRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TopicRequest
	for _, r := range m.store {
		if !r.IsProcessed && r.CreatedAt.Before(createdBefore) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- In-memory ExecutionLogRepository ----

type memExecutionLogRepo struct {
	mu      sync.Mutex
	nextID  int64
	store   map[int64]*model.ExecutionLog
	updates int

	StatsFunc func(ctx context.Context, tx repository.Tx, start, end time.Time) (model.ExecutionStats, error)
}

var _ repository.ExecutionLogRepository = (*memExecutionLogRepo)(nil)

func newMemExecutionLogRepo() *memExecutionLogRepo {
	return &memExecutionLogRepo{store: make(map[int64]*model.ExecutionLog)}
}

func (m *memExecutionLogRepo) Save(ctx context.Context, tx repository.Tx, l *model.ExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	cp := *l
	m.store[l.ID] = &cp
	return nil
}

func (m *memExecutionLogRepo) Update(ctx context.Context, tx repository.Tx, l *model.ExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[l.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *l
	m.store[l.ID] = &cp
	m.updates++
	return nil
}

func (m *memExecutionLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.ExecutionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ExecutionLog, 0, len(m.store))
	for _, l := range m.store {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memExecutionLogRepo) Stats(ctx context.Context, tx repository.Tx, start, end time.Time) (model.ExecutionStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, tx, start, end)
	}
	return model.ExecutionStats{}, nil
}

func (m *memExecutionLogRepo) get(id int64) *model.ExecutionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id]
}

// ---- TransactionManager ----

// fakeTxManager runs fn inline with a nil tx.
type fakeTxManager struct{}

var _ repository.TransactionManager = fakeTxManager{}

func (fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock ContentGenerator ----

type MockGenerator struct {
	mu    sync.Mutex
	Calls []generateCall

	GenerateFunc       func(ctx context.Context, topic string, category model.Category, difficulty model.Difficulty, lang string) (*model.GeneratedContent, error)
	GenerateRandomFunc func(ctx context.Context, used []string, preferred *model.Category, lang string) (*model.GeneratedContent, error)
}

type generateCall struct {
	Topic      string
	Category   model.Category
	Difficulty model.Difficulty
}

var _ adapter.ContentGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(ctx context.Context, topic string, category model.Category, difficulty model.Difficulty, lang string) (*model.GeneratedContent, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, generateCall{Topic: topic, Category: category, Difficulty: difficulty})
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, topic, category, difficulty, lang)
	}
	return &model.GeneratedContent{
		Title:      topic,
		Summary:    "summary of " + topic,
		Tags:       []string{"cs"},
		Category:   category,
		Difficulty: difficulty,
		Topic:      topic,
	}, nil
}

func (m *MockGenerator) GenerateRandom(ctx context.Context, used []string, preferred *model.Category, lang string) (*model.GeneratedContent, error) {
	if m.GenerateRandomFunc != nil {
		return m.GenerateRandomFunc(ctx, used, preferred, lang)
	}
	return m.Generate(ctx, "TCP vs UDP 비교", model.CategoryNetwork, model.DifficultyIntermediate, lang)
}

func (m *MockGenerator) HealthCheck(ctx context.Context) bool { return true }

// ---- Mock ChatPublisher ----

type MockChat struct {
	mu      sync.Mutex
	Reports []string // document urls passed with report notifications
	Errors  []string
	Content int

	SendContentFunc func(ctx context.Context, c *model.ContentRecord) (string, error)
	SendReportFunc  func(ctx context.Context, r *model.ReportData, documentURL string) (string, error)
}

var _ adapter.ChatPublisher = (*MockChat)(nil)

func (m *MockChat) SendContentNotification(ctx context.Context, c *model.ContentRecord) (string, error) {
	m.mu.Lock()
	m.Content++
	m.mu.Unlock()
	if m.SendContentFunc != nil {
		return m.SendContentFunc(ctx, c)
	}
	return "msg-1", nil
}

func (m *MockChat) SendReportNotification(ctx context.Context, r *model.ReportData, documentURL string) (string, error) {
	m.mu.Lock()
	m.Reports = append(m.Reports, documentURL)
	m.mu.Unlock()
	if m.SendReportFunc != nil {
		return m.SendReportFunc(ctx, r, documentURL)
	}
	return "msg-report", nil
}

func (m *MockChat) SendErrorNotification(ctx context.Context, message string, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, message)
	return "msg-error", nil
}

func (m *MockChat) SendStatus(ctx context.Context, s *model.BotStatus, target string) error { return nil }

func (m *MockChat) HealthCheck(ctx context.Context) bool { return true }

// ---- Mock DocumentPublisher ----

type MockDocs struct {
	CreateContentFunc func(ctx context.Context, c *model.ContentRecord) (string, string, error)
	CreateReportFunc  func(ctx context.Context, r *model.ReportData) (string, string, error)
}

var _ adapter.DocumentPublisher = (*MockDocs)(nil)

func (m *MockDocs) CreateContentPage(ctx context.Context, c *model.ContentRecord) (string, string, error) {
	if m.CreateContentFunc != nil {
		return m.CreateContentFunc(ctx, c)
	}
	return "page-1", "https://notion.so/page-1", nil
}

func (m *MockDocs) CreateReportPage(ctx context.Context, r *model.ReportData) (string, string, error) {
	if m.CreateReportFunc != nil {
		return m.CreateReportFunc(ctx, r)
	}
	return "report-1", "https://notion.so/report-1", nil
}

func (m *MockDocs) HealthCheck(ctx context.Context) bool { return true }
