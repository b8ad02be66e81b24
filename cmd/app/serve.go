package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeonjuho23/claude-daily/internal/application"
	tele "github.com/jeonjuho23/claude-daily/internal/infra/adapters/telegram"
	pg "github.com/jeonjuho23/claude-daily/internal/infra/db/postgres"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
	"github.com/jeonjuho23/claude-daily/internal/infra/sched"
	"github.com/jeonjuho23/claude-daily/internal/infra/scheduler"
	"github.com/jeonjuho23/claude-daily/internal/infra/web"
	"github.com/jeonjuho23/claude-daily/internal/infra/worker"
)

func serveCMD(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, chat bot and admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, flags)
		},
	}
}

func serve(ctx context.Context, flags *rootFlags) error {
	cfg, logger, err := load(flags)
	if err != nil {
		return err
	}
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	if cfg.Database.Migrate {
		if err := pg.MigrateUp(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	// ---- Worker pool + scheduler ----
	pool := worker.NewPool(cfg.Scheduler.Workers, cfg.Scheduler.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	var locker red.Locker
	var limiter tele.CommandLimiter
	if a.redis != nil {
		locker = red.NewLocker(a.redis)
		limiter = red.NewRateLimiter(a.redis)
	}

	sch := scheduler.New(a.schedules, a.contents, a.logs, a.requests, a.content, a.reports, pool, locker,
		scheduler.Options{
			DefaultTime: cfg.Scheduler.DefaultTime,
			Location:    cfg.Location(),
			Report:      cfg.Report,
			LockTTL:     cfg.Redis.TTL,
		}, logger)
	if err := sch.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sch.Stop()

	facade := application.NewCommandFacade(sch, a.chat, a.tr, cfg.Location(), logger)

	// ---- Telegram commands ----
	bot := tele.NewBot(a.bot, a.chatPub, facade, cfg.Bot, limiter, cfg.RateLimit.CommandsPerMinute, a.tr, logger)
	bot.RegisterCommands(ctx)

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.APIKey, cfg.Admin.CookieSecure, cfg.Admin.TokenTTL)
	srv := web.NewServer(facade, sch, a.reports, auth, a.healthChecks(), logger)

	// ---- Background workers ----
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.StartPolling(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, fmt.Sprintf(":%d", cfg.Admin.Port)) })
	g.Go(func() error {
		return sched.NewPendingRequestWorker(cfg.Requests.SweepInterval, cfg.Requests.PendingGrace, a.requests, sch, logger).Run(gctx)
	})

	logger.Info().Int("port", cfg.Admin.Port).Str("timezone", cfg.Location().String()).Msg("service started")
	err = g.Wait()
	bot.StopPolling()
	logger.Info().Msg("shutdown complete")
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// healthChecks checks the publishers actually in use, so a disabled chat or
// document publisher never reports healthy.
func (a *app) healthChecks() map[string]web.HealthCheck {
	checks := map[string]web.HealthCheck{
		"database":  func(ctx context.Context) bool { return a.pool != nil && a.pool.Ping(ctx) == nil },
		"generator": a.generator.HealthCheck,
		"chat":      a.chat.HealthCheck,
	}
	if a.docsReady {
		checks["documents"] = a.docs.HealthCheck
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) bool { return a.redis.Ping(ctx) == nil }
	}
	return checks
}
