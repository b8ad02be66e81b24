package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Locker hands out short-lived exclusive claims shared by every replica.
type Locker interface {
	// TryLock returns ok=false without error when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli RedisClient
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", false, fmt.Errorf("setnx %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock is a no-op when the claim already expired or changed hands.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.cli.DelIfEquals(ctx, key, token)
	return err
}

// FireKey identifies one trigger fire. Replicas firing the same job in the same minute share it.
func FireKey(jobID string, at time.Time) string {
	return fmt.Sprintf("trigger:%s:%s", jobID, at.UTC().Format("200601021504"))
}

// TopicRequestKey claims the dispatch of one pending topic request.
func TopicRequestKey(id int64) string {
	return fmt.Sprintf("topic_request:%d", id)
}
