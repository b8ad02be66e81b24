package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/application"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/usecase"
)

// CommandHandler runs one control command and returns the reply text.
type CommandHandler interface {
	Handle(ctx context.Context, req application.CommandRequest) string
}

type ReportRunner interface {
	GenerateWeekly(ctx context.Context) (*model.ReportData, error)
	GenerateMonthly(ctx context.Context) (*model.ReportData, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

type Server struct {
	commands CommandHandler
	ctrl     usecase.ScheduleController
	reports  ReportRunner
	auth     *AuthManager
	checks   map[string]HealthCheck
	timeout  time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewServer(
	commands CommandHandler,
	ctrl usecase.ScheduleController,
	reports ReportRunner,
	auth *AuthManager,
	checks map[string]HealthCheck,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		commands: commands,
		ctrl:     ctrl,
		reports:  reports,
		auth:     auth,
		checks:   checks,
		timeout:  30 * time.Second,
		now:      time.Now,
		log:      &l,
	}
}

// Routes builds the admin router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), TraceID(), RequestLog(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(s.timeout))
		r.Post("/admin/auth/login", s.handleLogin)
		r.Post("/admin/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(s.auth, s.log))
			r.Get("/status", s.handleStatus)
			r.Get("/schedules", s.handleSchedules)
			r.Post("/commands", s.handleCommand)
			r.Post("/reports/{kind}", s.handleReport)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("admin api listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
