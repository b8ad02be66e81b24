//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/config"
)

// memRedis is an in-memory RedisClient; expirations are recorded but never enforced.
type memRedis struct {
	data    map[string]string
	expires map[string]time.Duration
	SetNXFn func(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}, expires: map[string]time.Duration{}}
}

func (m *memRedis) Ping(context.Context) error { return nil }
func (m *memRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	m.data[key] = toString(value)
	m.expires[key] = exp
	return nil
}
func (m *memRedis) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	if m.SetNXFn != nil {
		return m.SetNXFn(ctx, key, value, exp)
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	return true, m.Set(ctx, key, value, exp)
}
func (m *memRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}
func (m *memRedis) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	for _, c := range m.data[key] {
		n = n*10 + int64(c-'0')
	}
	n++
	m.data[key] = itoa(n)
	return n, nil
}
func (m *memRedis) Expire(_ context.Context, key string, exp time.Duration) error {
	m.expires[key] = exp
	return nil
}
func (m *memRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
func (m *memRedis) DelIfEquals(_ context.Context, key, value string) (bool, error) {
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}
func (m *memRedis) Close() error { return nil }

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second claim on the same key is refused", func(t *testing.T) {
		// --- Arrange ---
		cli := newMemRedis()
		locker := NewLocker(cli)

		// --- Act ---
		token, ok, err := locker.TryLock(ctx, "k", time.Minute)
		_, ok2, err2 := locker.TryLock(ctx, "k", time.Minute)

		// --- Assert ---
		if err != nil || err2 != nil {
			t.Fatalf("expected no errors, got %v / %v", err, err2)
		}
		if !ok || token == "" {
			t.Fatal("expected the first claim to succeed with a token")
		}
		if ok2 {
			t.Error("expected the second claim to be refused")
		}
		if cli.expires["k"] != time.Minute {
			t.Errorf("expected ttl to be set, got %v", cli.expires["k"])
		}
	})

	t.Run("unlock with a stale token keeps the claim", func(t *testing.T) {
		cli := newMemRedis()
		locker := NewLocker(cli)
		token, _, _ := locker.TryLock(ctx, "k", time.Minute)

		if err := locker.Unlock(ctx, "k", "someone-else"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, held := cli.data["k"]; !held {
			t.Fatal("expected the claim to survive a foreign unlock")
		}
		if err := locker.Unlock(ctx, "k", token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, held := cli.data["k"]; held {
			t.Error("expected the owner's unlock to release the claim")
		}
	})

	t.Run("redis failure surfaces as error", func(t *testing.T) {
		cli := newMemRedis()
		cli.SetNXFn = func(context.Context, string, interface{}, time.Duration) (bool, error) {
			return false, errors.New("connection refused")
		}
		_, ok, err := NewLocker(cli).TryLock(ctx, "k", time.Minute)
		if err == nil || ok {
			t.Fatalf("expected an error and no claim, got ok=%v err=%v", ok, err)
		}
	})
}

func TestFireKey(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	a := FireKey("content_generation_1", time.Date(2026, 3, 2, 7, 0, 5, 0, loc))
	b := FireKey("content_generation_1", time.Date(2026, 3, 2, 7, 0, 55, 0, loc))
	if a != b {
		t.Errorf("fires within one minute should share a key: %s vs %s", a, b)
	}
	if a != "trigger:content_generation_1:202603012200" {
		t.Errorf("unexpected key %s", a)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	cli := newMemRedis()
	rl := NewRateLimiter(cli)
	now := time.Date(2026, 10, 17, 9, 0, 10, 0, time.UTC)
	rl.now = func() time.Time { return now }
	key := UserCommandKey(42, "daily")

	// --- Act ---
	var allowed int
	for i := 0; i < 5; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			allowed++
		}
	}

	// --- Assert ---
	if allowed != 3 {
		t.Errorf("expected 3 allowed calls, got %d", allowed)
	}
	bucket := windowKey(key, now, time.Minute)
	if cli.expires[bucket] != 2*time.Minute {
		t.Errorf("expected the bucket ttl to be set on first hit, got %v", cli.expires[bucket])
	}
	if key != "cmd_rate:daily:42" {
		t.Errorf("unexpected key %s", key)
	}

	t.Run("next window starts fresh", func(t *testing.T) {
		now = now.Add(time.Minute)
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("expected the next window to allow, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("non-positive limit disables the check", func(t *testing.T) {
		ok, err := rl.Allow(ctx, "other", 0, time.Minute)
		if err != nil || !ok {
			t.Fatalf("expected allow, got ok=%v err=%v", ok, err)
		}
	})
}

func TestClientOptions(t *testing.T) {
	t.Run("bare address", func(t *testing.T) {
		opts, err := clientOptions(&config.RedisConfig{URL: "localhost:6379", DB: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if opts.Addr != "localhost:6379" || opts.DB != 2 {
			t.Errorf("unexpected options: addr=%s db=%d", opts.Addr, opts.DB)
		}
	})

	t.Run("url with overrides", func(t *testing.T) {
		opts, err := clientOptions(&config.RedisConfig{URL: "redis://:frompath@cache:6380/1", Password: "fromcfg"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if opts.Addr != "cache:6380" || opts.DB != 1 || opts.Password != "fromcfg" {
			t.Errorf("unexpected options: addr=%s db=%d password=%s", opts.Addr, opts.DB, opts.Password)
		}
	})

	t.Run("bad url", func(t *testing.T) {
		if _, err := clientOptions(&config.RedisConfig{URL: "http://cache:6379"}); err == nil {
			t.Error("expected an error for a non-redis scheme")
		}
	})
}
