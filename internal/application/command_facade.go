package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/usecase"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

// CommandRequest is one invocation of the control command, independent of transport.
type CommandRequest struct {
	Text   string // everything after the command name, e.g. `add 19:00`
	UserID string
	// Target is where rich replies such as the status snapshot go. Empty means the default channel.
	Target string
}

// CommandFacade routes control sub-commands to the schedule controller and renders
// every outcome as a short reply string. It never returns an error.
type CommandFacade struct {
	ctrl usecase.ScheduleController
	chat adapter.ChatPublisher
	tr   *i18n.Translator
	loc  *time.Location
	log  *zerolog.Logger
}

func NewCommandFacade(ctrl usecase.ScheduleController, chat adapter.ChatPublisher, tr *i18n.Translator, loc *time.Location, logger *zerolog.Logger) *CommandFacade {
	if loc == nil {
		loc = time.Local
	}
	l := logger.With().Str("component", "CommandFacade").Logger()
	return &CommandFacade{ctrl: ctrl, chat: chat, tr: tr, loc: loc, log: &l}
}

type commandFunc func(ctx context.Context, args string, req CommandRequest) (string, error)

func (f *CommandFacade) routes() map[string]commandFunc {
	return map[string]commandFunc{
		"time":    f.handleTime,
		"add":     f.handleAdd,
		"remove":  f.handleRemove,
		"list":    f.handleList,
		"pause":   f.handlePause,
		"resume":  f.handleResume,
		"now":     f.handleNow,
		"request": f.handleRequest,
		"status":  f.handleStatus,
		"help":    f.handleHelp,
	}
}

// Handle parses req.Text and dispatches it. Unknown verbs and internal failures
// come back as localized error strings.
func (f *CommandFacade) Handle(ctx context.Context, req CommandRequest) (reply string) {
	if req.UserID != "" {
		ctx = logging.WithUserID(ctx, req.UserID)
	}
	log := logging.With(ctx, f.log)

	text := strings.TrimSpace(req.Text)
	if text == "" {
		metrics.IncCommand("help", "ok")
		return f.tr.T("help")
	}

	verb, args, _ := strings.Cut(text, " ")
	verb = strings.ToLower(verb)
	args = strings.TrimSpace(args)

	fn, ok := f.routes()[verb]
	if !ok {
		metrics.IncCommand("unknown", "rejected")
		return f.tr.T("error_unknown_command", verb)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("verb", verb).Msg("command handler panicked")
			metrics.IncCommand(verb, "error")
			reply = f.tr.T("error_command_failed", fmt.Sprint(r))
		}
	}()

	log.Info().Str("verb", verb).Str("args", args).Msg("command received")
	out, err := fn(ctx, args, req)
	if err != nil {
		log.Error().Err(err).Str("verb", verb).Msg("command processing failed")
		metrics.IncCommand(verb, "error")
		return f.tr.T("error_command_failed", err.Error())
	}
	metrics.IncCommand(verb, "ok")
	return out
}

func (f *CommandFacade) handleTime(ctx context.Context, args string, _ CommandRequest) (string, error) {
	if args == "" {
		return f.tr.T("usage_time"), nil
	}
	hhmm, err := model.ValidateTimeOfDay(args)
	if err != nil {
		return f.tr.T("error_invalid_time", args), nil
	}
	prev, err := f.ctrl.SetTime(ctx, hhmm)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleExists) {
			return f.tr.T("schedule_exists", hhmm), nil
		}
		return "", err
	}
	if prev == "" {
		return f.tr.T("schedule_created", hhmm), nil
	}
	return f.tr.T("schedule_time_changed", prev, hhmm), nil
}

func (f *CommandFacade) handleAdd(ctx context.Context, args string, _ CommandRequest) (string, error) {
	if args == "" {
		return f.tr.T("usage_add"), nil
	}
	hhmm, err := model.ValidateTimeOfDay(args)
	if err != nil {
		return f.tr.T("error_invalid_time", args), nil
	}
	if _, err := f.ctrl.AddSchedule(ctx, hhmm); err != nil {
		if errors.Is(err, domain.ErrScheduleExists) {
			return f.tr.T("schedule_exists", hhmm), nil
		}
		return "", err
	}
	return f.tr.T("schedule_added", hhmm), nil
}

func (f *CommandFacade) handleRemove(ctx context.Context, args string, _ CommandRequest) (string, error) {
	if args == "" {
		return f.tr.T("usage_remove"), nil
	}
	hhmm, err := model.ValidateTimeOfDay(args)
	if err != nil {
		// an unparseable time cannot match any schedule
		return f.tr.T("schedule_not_found", args), nil
	}
	if err := f.ctrl.RemoveSchedule(ctx, hhmm); err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			return f.tr.T("schedule_not_found", hhmm), nil
		}
		return "", err
	}
	return f.tr.T("schedule_removed", hhmm), nil
}

func (f *CommandFacade) handleList(ctx context.Context, _ string, _ CommandRequest) (string, error) {
	views, err := f.ctrl.ListSchedules(ctx)
	if err != nil {
		return "", err
	}
	if len(views) == 0 {
		return f.tr.T("schedule_list_empty"), nil
	}
	lines := []string{f.tr.T("schedule_list_header")}
	for _, v := range views {
		lines = append(lines, f.tr.T("schedule_list_item", v.Time, v.NextRun.In(f.loc).Format("01/02 15:04")))
	}
	return strings.Join(lines, "\n"), nil
}

func (f *CommandFacade) handlePause(_ context.Context, _ string, _ CommandRequest) (string, error) {
	if !f.ctrl.Pause() {
		return f.tr.T("pause_already"), nil
	}
	return f.tr.T("pause_done"), nil
}

func (f *CommandFacade) handleResume(_ context.Context, _ string, _ CommandRequest) (string, error) {
	if !f.ctrl.Resume() {
		return f.tr.T("resume_already"), nil
	}
	return f.tr.T("resume_done"), nil
}

func (f *CommandFacade) handleNow(ctx context.Context, _ string, _ CommandRequest) (string, error) {
	if err := f.ctrl.RunNow(ctx); err != nil {
		return "", err
	}
	return f.tr.T("run_now_started"), nil
}

var quotedTopic = regexp.MustCompile(`^["'](.+)["']$`)

func (f *CommandFacade) handleRequest(ctx context.Context, args string, req CommandRequest) (string, error) {
	if args == "" {
		return f.tr.T("usage_request"), nil
	}
	topic := args
	if m := quotedTopic.FindStringSubmatch(args); m != nil {
		topic = m[1]
	}
	if _, err := f.ctrl.RequestTopic(ctx, topic, req.UserID); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return f.tr.T("usage_request"), nil
		}
		return "", err
	}
	return f.tr.T("request_accepted", topic), nil
}

// handleStatus pushes the snapshot as a rich message and replies with nothing.
func (f *CommandFacade) handleStatus(ctx context.Context, _ string, req CommandRequest) (string, error) {
	st, err := f.ctrl.Status(ctx)
	if err != nil {
		return "", err
	}
	if err := f.chat.SendStatus(ctx, st, req.Target); err != nil {
		return "", fmt.Errorf("send status: %w", err)
	}
	return "", nil
}

func (f *CommandFacade) handleHelp(_ context.Context, _ string, _ CommandRequest) (string, error) {
	return f.tr.T("help"), nil
}
