//go:build !integration

package application_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/application"
	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/usecase"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
)

// mockController records calls and returns configurable results.
type mockController struct {
	paused    bool
	runs      int
	requested []string
	requester string

	SetTimeFunc func(ctx context.Context, hhmm string) (string, error)
	AddFunc     func(ctx context.Context, hhmm string) (*model.Schedule, error)
	RemoveFunc  func(ctx context.Context, hhmm string) error
	ListFunc    func(ctx context.Context) ([]usecase.ScheduleView, error)
	StatusFunc  func(ctx context.Context) (*model.BotStatus, error)
}

var _ usecase.ScheduleController = (*mockController)(nil)

func (m *mockController) SetTime(ctx context.Context, hhmm string) (string, error) {
	if m.SetTimeFunc != nil {
		return m.SetTimeFunc(ctx, hhmm)
	}
	return "07:00", nil
}

func (m *mockController) AddSchedule(ctx context.Context, hhmm string) (*model.Schedule, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, hhmm)
	}
	return model.NewSchedule(hhmm)
}

func (m *mockController) RemoveSchedule(ctx context.Context, hhmm string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, hhmm)
	}
	return nil
}

func (m *mockController) ListSchedules(ctx context.Context) ([]usecase.ScheduleView, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockController) Pause() bool {
	if m.paused {
		return false
	}
	m.paused = true
	return true
}

func (m *mockController) Resume() bool {
	if !m.paused {
		return false
	}
	m.paused = false
	return true
}

func (m *mockController) RunNow(ctx context.Context) error {
	m.runs++
	return nil
}

func (m *mockController) RequestTopic(ctx context.Context, topic, requestedBy string) (*model.TopicRequest, error) {
	m.requested = append(m.requested, topic)
	m.requester = requestedBy
	return model.NewTopicRequest(topic, requestedBy)
}

func (m *mockController) Status(ctx context.Context) (*model.BotStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return &model.BotStatus{IsRunning: true}, nil
}

// statusSink captures SendStatus calls; the other publisher methods are unused here.
type statusSink struct {
	sent    []*model.BotStatus
	targets []string
	err     error
}

func (s *statusSink) SendContentNotification(ctx context.Context, c *model.ContentRecord) (string, error) {
	return "", nil
}
func (s *statusSink) SendReportNotification(ctx context.Context, r *model.ReportData, documentURL string) (string, error) {
	return "", nil
}
func (s *statusSink) SendErrorNotification(ctx context.Context, message string, fields map[string]any) (string, error) {
	return "", nil
}
func (s *statusSink) SendStatus(ctx context.Context, st *model.BotStatus, target string) error {
	s.sent = append(s.sent, st)
	s.targets = append(s.targets, target)
	return s.err
}
func (s *statusSink) HealthCheck(ctx context.Context) bool { return true }

func newFacade(t *testing.T, ctrl *mockController, sink *statusSink) *application.CommandFacade {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}
	logger := zerolog.New(io.Discard)
	return application.NewCommandFacade(ctrl, sink, tr, time.UTC, &logger)
}

func TestCommandFacade_Parsing(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text shows help", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "  "}); !strings.Contains(got, "Daily-Bot commands") {
			t.Errorf("expected help text, got %q", got)
		}
	})

	t.Run("unknown verb is rejected with its name", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		got := f.Handle(ctx, application.CommandRequest{Text: "dance now"})
		if !strings.Contains(got, "Unknown command") || !strings.Contains(got, "dance") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("verbs are case insensitive", func(t *testing.T) {
		ctrl := &mockController{}
		f := newFacade(t, ctrl, &statusSink{})
		f.Handle(ctx, application.CommandRequest{Text: "NOW"})
		if ctrl.runs != 1 {
			t.Errorf("expected one run, got %d", ctrl.runs)
		}
	})
}

func TestCommandFacade_Schedules(t *testing.T) {
	ctx := context.Background()

	t.Run("time rejects an invalid value without calling the controller", func(t *testing.T) {
		// --- Arrange ---
		called := false
		ctrl := &mockController{SetTimeFunc: func(ctx context.Context, hhmm string) (string, error) {
			called = true
			return "", nil
		}}
		f := newFacade(t, ctrl, &statusSink{})

		// --- Act ---
		got := f.Handle(ctx, application.CommandRequest{Text: "time 25:00"})

		// --- Assert ---
		if called || !strings.Contains(got, "Invalid time format") {
			t.Errorf("unexpected reply %q (controller called: %v)", got, called)
		}
	})

	t.Run("time reports the previous value", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		got := f.Handle(ctx, application.CommandRequest{Text: "time 8:30"})
		if !strings.Contains(got, "`07:00` → `08:30`") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("time without a previous schedule reports creation", func(t *testing.T) {
		ctrl := &mockController{SetTimeFunc: func(ctx context.Context, hhmm string) (string, error) { return "", nil }}
		f := newFacade(t, ctrl, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "time 09:00"}); !strings.Contains(got, "New schedule created") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("time onto another schedule's slot is a user-facing error", func(t *testing.T) {
		ctrl := &mockController{SetTimeFunc: func(ctx context.Context, hhmm string) (string, error) {
			return "", domain.ErrScheduleExists
		}}
		f := newFacade(t, ctrl, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "time 19:00"}); !strings.Contains(got, "already exists") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("add with a duplicate time is a user-facing error", func(t *testing.T) {
		ctrl := &mockController{AddFunc: func(ctx context.Context, hhmm string) (*model.Schedule, error) {
			return nil, domain.ErrScheduleExists
		}}
		f := newFacade(t, ctrl, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "add 19:00"}); !strings.Contains(got, "already exists") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("remove of a nonexistent time is a user-facing error", func(t *testing.T) {
		ctrl := &mockController{RemoveFunc: func(ctx context.Context, hhmm string) error {
			return domain.ErrScheduleNotFound
		}}
		f := newFacade(t, ctrl, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "remove 19:00"}); !strings.Contains(got, "No `19:00` schedule found") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("missing arguments print usage", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		for _, verb := range []string{"time", "add", "remove", "request"} {
			if got := f.Handle(ctx, application.CommandRequest{Text: verb}); !strings.Contains(got, "Usage") {
				t.Errorf("%s: expected usage, got %q", verb, got)
			}
		}
	})

	t.Run("list renders next run times", func(t *testing.T) {
		next := time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)
		ctrl := &mockController{ListFunc: func(ctx context.Context) ([]usecase.ScheduleView, error) {
			return []usecase.ScheduleView{{ID: 1, Time: "07:00", NextRun: next}}, nil
		}}
		f := newFacade(t, ctrl, &statusSink{})
		got := f.Handle(ctx, application.CommandRequest{Text: "list"})
		if !strings.Contains(got, "`07:00` (next run: 03/11 07:00)") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("list with nothing active", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "list"}); !strings.Contains(got, "No schedules") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("internal errors become a failure reply", func(t *testing.T) {
		ctrl := &mockController{ListFunc: func(ctx context.Context) ([]usecase.ScheduleView, error) {
			return nil, errors.New("db unavailable")
		}}
		f := newFacade(t, ctrl, &statusSink{})
		got := f.Handle(ctx, application.CommandRequest{Text: "list"})
		if !strings.Contains(got, "Command processing failed: db unavailable") {
			t.Errorf("unexpected reply %q", got)
		}
	})
}

func TestCommandFacade_Execution(t *testing.T) {
	ctx := context.Background()

	t.Run("pause and resume are idempotent", func(t *testing.T) {
		f := newFacade(t, &mockController{}, &statusSink{})
		steps := []struct{ text, want string }{
			{"pause", "paused"},
			{"pause", "Already paused"},
			{"resume", "resumed"},
			{"resume", "Already running"},
		}
		for _, s := range steps {
			if got := f.Handle(ctx, application.CommandRequest{Text: s.text}); !strings.Contains(got, s.want) {
				t.Errorf("%s: expected %q in %q", s.text, s.want, got)
			}
		}
	})

	t.Run("request strips surrounding quotes and records the user", func(t *testing.T) {
		ctrl := &mockController{}
		f := newFacade(t, ctrl, &statusSink{})
		got := f.Handle(ctx, application.CommandRequest{Text: `request "TCP 3-way handshake"`, UserID: "42"})
		if len(ctrl.requested) != 1 || ctrl.requested[0] != "TCP 3-way handshake" || ctrl.requester != "42" {
			t.Fatalf("unexpected request %v by %q", ctrl.requested, ctrl.requester)
		}
		if !strings.Contains(got, "`TCP 3-way handshake`") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("request keeps unquoted topics as-is", func(t *testing.T) {
		ctrl := &mockController{}
		f := newFacade(t, ctrl, &statusSink{})
		f.Handle(ctx, application.CommandRequest{Text: "request 'CQRS"})
		if ctrl.requested[0] != "'CQRS" {
			t.Errorf("expected the unbalanced quote to be kept, got %q", ctrl.requested[0])
		}
	})

	t.Run("status pushes a snapshot and replies with nothing", func(t *testing.T) {
		sink := &statusSink{}
		f := newFacade(t, &mockController{}, sink)
		got := f.Handle(ctx, application.CommandRequest{Text: "status", Target: "-100123"})
		if got != "" {
			t.Errorf("expected empty reply, got %q", got)
		}
		if len(sink.sent) != 1 || sink.targets[0] != "-100123" {
			t.Errorf("expected one status push to -100123, got %v", sink.targets)
		}
	})

	t.Run("status push failure is reported", func(t *testing.T) {
		sink := &statusSink{err: errors.New("telegram down")}
		f := newFacade(t, &mockController{}, sink)
		if got := f.Handle(ctx, application.CommandRequest{Text: "status"}); !strings.Contains(got, "telegram down") {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("a panicking controller still yields a reply", func(t *testing.T) {
		ctrl := &mockController{StatusFunc: func(ctx context.Context) (*model.BotStatus, error) { panic("boom") }}
		f := newFacade(t, ctrl, &statusSink{})
		if got := f.Handle(ctx, application.CommandRequest{Text: "status"}); !strings.Contains(got, "boom") {
			t.Errorf("unexpected reply %q", got)
		}
	})
}
