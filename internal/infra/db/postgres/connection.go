package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/jeonjuho23/claude-daily/internal/config"
)

// Connector opens the pool on first use and hands the same pool to every caller.
// A failed attempt is not cached, so the next caller tries again.
type Connector struct {
	cfg config.DatabaseConfig

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewConnector(cfg config.DatabaseConfig) *Connector {
	return &Connector{cfg: cfg}
}

func (c *Connector) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		return c.pool, nil
	}
	pool, err := Connect(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	c.pool = pool
	return pool, nil
}

// Close releases the pool if it was opened. The connector can be reused afterwards.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

// Connect returns a live *pgxpool.Pool sized by cfg.MaxConns.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pgxpool connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
