package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/application"
	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
)

// CommandHandler turns one control command into a reply.
type CommandHandler interface {
	Handle(ctx context.Context, req application.CommandRequest) string
}

// CommandLimiter is satisfied by *redis.RateLimiter. It reports whether key may run another command inside window.
type CommandLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot long-polls Telegram and feeds the control command to a CommandHandler.
type Bot struct {
	updates updateSource
	pub     *ChatPublisher
	handler CommandHandler
	tr      *i18n.Translator
	log     *zerolog.Logger

	command string
	admins  map[int64]struct{}
	workers int

	limiter   CommandLimiter // nil disables per-user limits
	perMinute int

	cancelPolling context.CancelFunc
}

func NewBot(updates updateSource, pub *ChatPublisher, handler CommandHandler, cfg config.BotConfig, limiter CommandLimiter, perMinute int, tr *i18n.Translator, logger *zerolog.Logger) *Bot {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &Bot{
		updates:   updates,
		pub:       pub,
		handler:   handler,
		tr:        tr,
		log:       &l,
		command:   strings.TrimPrefix(cfg.Command, "/"),
		admins:    admins,
		workers:   workers,
		limiter:   limiter,
		perMinute: perMinute,
	}
}

// RegisterCommands publishes the command menu. Failure is logged only.
func (b *Bot) RegisterCommands(ctx context.Context) {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: b.command, Description: "schedule and control daily content"},
	)
	if _, err := b.pub.bot.Request(cmds); err != nil {
		b.log.Warn().Err(err).Msg("failed to register bot commands")
	}
}

// StartPolling processes updates with a fixed worker set until ctx is cancelled.
func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.updates.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := b.handleUpdate(ctx, update); err != nil {
						b.log.Error().Err(err).Int("worker", workerID).Int("update_id", update.UpdateID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	b.log.Info().Int("workers", b.workers).Str("command", b.command).Msg("telegram polling started")
	<-ctx.Done()
	b.updates.StopReceivingUpdates()
	wg.Wait()
	b.log.Info().Msg("telegram polling stopped")
	return nil
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || !msg.IsCommand() {
		return nil
	}
	if msg.Command() != b.command {
		return nil
	}

	ctx = logging.WithTgID(ctx, msg.From.ID)
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	verb, _, _ := strings.Cut(args, " ")

	if !b.isAdmin(msg.From.ID) {
		metrics.IncCommand(strings.ToLower(verb), "unauthorized")
		return b.pub.Reply(ctx, chatID, b.tr.T("error_unauthorized"))
	}

	if b.limiter != nil && b.perMinute > 0 {
		ok, err := b.limiter.Allow(ctx, red.UserCommandKey(msg.From.ID, b.command), b.perMinute, time.Minute)
		if err != nil {
			// the limiter is advisory; a redis fault must not block the operator
			logging.With(ctx, b.log).Warn().Err(err).Msg("command rate limiter unavailable")
		} else if !ok {
			metrics.IncCommand(strings.ToLower(verb), "rate_limited")
			return b.pub.Reply(ctx, chatID, b.tr.T("error_rate_limited"))
		}
	}

	reply := b.handler.Handle(ctx, application.CommandRequest{
		Text:   args,
		UserID: strconv.FormatInt(msg.From.ID, 10),
		Target: strconv.FormatInt(chatID, 10),
	})
	if reply == "" {
		return nil
	}
	if err := b.pub.Reply(ctx, chatID, reply); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// isAdmin allows everyone when no admin ids are configured.
func (b *Bot) isAdmin(tgID int64) bool {
	if len(b.admins) == 0 {
		return true
	}
	_, ok := b.admins[tgID]
	return ok
}

