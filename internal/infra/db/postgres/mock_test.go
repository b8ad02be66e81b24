//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
)

type mockInnerScheduleRepo struct {
	SaveFunc         func(ctx context.Context, tx repository.Tx, s *model.Schedule) error
	UpdateFunc       func(ctx context.Context, tx repository.Tx, s *model.Schedule) error
	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id int64) (*model.Schedule, error)
	FindByTimeFunc   func(ctx context.Context, tx repository.Tx, hhmm string) (*model.Schedule, error)
	ListByStatusFunc func(ctx context.Context, tx repository.Tx, status model.ScheduleStatus) ([]*model.Schedule, error)
	SoftDeleteFunc   func(ctx context.Context, tx repository.Tx, id int64) error
}

var _ repository.ScheduleRepository = (*mockInnerScheduleRepo)(nil)

func (m *mockInnerScheduleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockInnerScheduleRepo) Update(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	return m.UpdateFunc(ctx, tx, s)
}
func (m *mockInnerScheduleRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Schedule, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerScheduleRepo) FindByTime(ctx context.Context, tx repository.Tx, hhmm string) (*model.Schedule, error) {
	return m.FindByTimeFunc(ctx, tx, hhmm)
}
func (m *mockInnerScheduleRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ScheduleStatus) ([]*model.Schedule, error) {
	return m.ListByStatusFunc(ctx, tx, status)
}
func (m *mockInnerScheduleRepo) SoftDelete(ctx context.Context, tx repository.Tx, id int64) error {
	return m.SoftDeleteFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) DelIfEquals(context.Context, string, string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Ping(context.Context) error                  { return nil }
func (m *mockRedisClient) Incr(context.Context, string) (int64, error) { return 1, nil }
func (m *mockRedisClient) Expire(context.Context, string, time.Duration) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }
