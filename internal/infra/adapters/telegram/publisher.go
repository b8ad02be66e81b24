package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

var _ adapter.ChatPublisher = (*ChatPublisher)(nil)

// sender is the part of *tgbotapi.BotAPI the publisher needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetMe() (tgbotapi.User, error)
}

// ChatPublisher posts notifications to the channel of record. Every outbound
// message waits on a shared limiter.
type ChatPublisher struct {
	bot     sender
	chatID  int64
	tr      *i18n.Translator
	cat     *catalog.Catalog
	loc     *time.Location
	limiter *rate.Limiter
	log     *zerolog.Logger
}

func NewChatPublisher(bot sender, chatID int64, perMinute int, tr *i18n.Translator, cat *catalog.Catalog, loc *time.Location, logger *zerolog.Logger) *ChatPublisher {
	if perMinute <= 0 {
		perMinute = 50
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	l := logger.With().Str("component", "ChatPublisher").Logger()
	return &ChatPublisher{
		bot:     bot,
		chatID:  chatID,
		tr:      tr,
		cat:     cat,
		loc:     loc,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		log:     &l,
	}
}

func (p *ChatPublisher) SendContentNotification(ctx context.Context, c *model.ContentRecord) (string, error) {
	var b strings.Builder
	b.WriteString(p.tr.T("content_header"))
	b.WriteString("\n\n*")
	b.WriteString(escapeMarkdown(c.Title))
	b.WriteString("*\n")
	b.WriteString(p.tr.T("content_meta", p.cat.DisplayName(c.Category, p.tr.Lang()), p.tr.T("difficulty_"+string(c.Difficulty))))
	b.WriteString("\n\n")
	b.WriteString(escapeMarkdown(c.Summary))
	if len(c.Tags) > 0 {
		tags := make([]string, len(c.Tags))
		for i, t := range c.Tags {
			tags[i] = "#" + escapeMarkdown(strings.ReplaceAll(t, " ", "_"))
		}
		b.WriteString("\n\n")
		b.WriteString(p.tr.T("content_tags", strings.Join(tags, " ")))
	}
	if c.DocumentURL != nil && *c.DocumentURL != "" {
		b.WriteString("\n")
		b.WriteString(p.tr.T("content_document", *c.DocumentURL))
	}

	return p.send(ctx, p.chatID, b.String())
}

func (p *ChatPublisher) SendReportNotification(ctx context.Context, r *model.ReportData, documentURL string) (string, error) {
	return p.send(ctx, p.chatID, p.formatReport(r, documentURL))
}

func (p *ChatPublisher) formatReport(r *model.ReportData, documentURL string) string {
	titleKey := "report_weekly_title"
	if r.Type == model.ReportTypeMonthly {
		titleKey = "report_monthly_title"
	}
	lines := []string{
		p.tr.T(titleKey, r.PeriodStart.In(p.loc).Format("2006-01-02"), r.LastDay().In(p.loc).Format("2006-01-02")),
		"",
		p.tr.T("report_totals", r.TotalCount, r.SuccessCount, r.FailedCount, r.RetryCount, r.SuccessRate()),
	}
	if r.AvgDurationMs != nil && r.MinDurationMs != nil && r.MaxDurationMs != nil {
		lines = append(lines, p.tr.T("report_duration", *r.AvgDurationMs, *r.MinDurationMs, *r.MaxDurationMs))
	} else {
		lines = append(lines, p.tr.T("report_no_duration"))
	}

	if len(r.CategoryDistribution) > 0 {
		lines = append(lines, "", p.tr.T("report_distribution"))
		for _, c := range sortedByCount(r.CategoryDistribution) {
			lines = append(lines, fmt.Sprintf("• %s: %d", p.cat.DisplayName(c, p.tr.Lang()), r.CategoryDistribution[c]))
		}
	}
	if len(r.UncoveredCategories) > 0 {
		names := make([]string, len(r.UncoveredCategories))
		for i, c := range r.UncoveredCategories {
			names[i] = p.cat.DisplayName(c, p.tr.Lang())
		}
		lines = append(lines, "", p.tr.T("report_uncovered", strings.Join(names, ", ")))
	}
	if documentURL != "" {
		lines = append(lines, "", p.tr.T("report_document", documentURL))
	}
	return strings.Join(lines, "\n")
}

func (p *ChatPublisher) SendErrorNotification(ctx context.Context, message string, fields map[string]any) (string, error) {
	lines := []string{p.tr.T("error_notification_title"), "", escapeMarkdown(message)}
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, "")
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("• %s: %v", escapeMarkdown(k), fields[k]))
		}
	}
	id, err := p.send(ctx, p.chatID, strings.Join(lines, "\n"))
	metrics.IncPublish("chat", "error", err == nil)
	return id, err
}

func (p *ChatPublisher) SendStatus(ctx context.Context, s *model.BotStatus, target string) error {
	chatID := p.chatID
	if target != "" {
		id, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: chat target %q", domain.ErrInvalidArgument, target)
		}
		chatID = id
	}
	_, err := p.send(ctx, chatID, p.formatStatus(s))
	metrics.IncPublish("chat", "status", err == nil)
	return err
}

func (p *ChatPublisher) formatStatus(s *model.BotStatus) string {
	none := p.tr.T("word_none")
	schedules := none
	if len(s.ActiveSchedules) > 0 {
		schedules = strings.Join(s.ActiveSchedules, ", ")
	}
	next := none
	if s.NextExecution != nil {
		next = s.NextExecution.In(p.loc).Format("2006-01-02 15:04")
	}
	last := none
	if s.LastExecution != nil {
		last = s.LastExecution.In(p.loc).Format("2006-01-02 15:04")
	}

	lines := []string{
		p.tr.T("status_header"),
		"",
		p.tr.T("status_running", p.yesNo(s.IsRunning)),
		p.tr.T("status_paused", p.yesNo(s.IsPaused)),
		p.tr.T("status_schedules", schedules),
		p.tr.T("status_next", next),
		p.tr.T("status_total", s.TotalGenerated),
		p.tr.T("status_last", last),
	}
	if s.LastError != nil && *s.LastError != "" {
		lines = append(lines, p.tr.T("status_last_error", escapeMarkdown(*s.LastError)))
	}
	lines = append(lines, p.tr.T("status_uptime", s.Uptime.Round(time.Second).String()))
	return strings.Join(lines, "\n")
}

func (p *ChatPublisher) yesNo(v bool) string {
	if v {
		return p.tr.T("word_yes")
	}
	return p.tr.T("word_no")
}

// Reply sends a command reply to chatID.
func (p *ChatPublisher) Reply(ctx context.Context, chatID int64, text string) error {
	_, err := p.send(ctx, chatID, text)
	return err
}

func (p *ChatPublisher) HealthCheck(ctx context.Context) bool {
	if _, err := p.bot.GetMe(); err != nil {
		p.log.Warn().Err(err).Msg("telegram health check failed")
		return false
	}
	return true
}

// send posts text as Markdown and retries once as plain text when Telegram
// rejects the entities.
func (p *ChatPublisher) send(ctx context.Context, chatID int64, text string) (string, error) {
	if chatID == 0 {
		return "", domain.ErrPublisherDisabled
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	sent, err := p.bot.Send(msg)
	if err != nil && isEntityError(err) {
		p.log.Debug().Err(err).Msg("markdown rejected; resending as plain text")
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
		msg.ParseMode = ""
		sent, err = p.bot.Send(msg)
	}
	if err != nil {
		return "", classifySendError(err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

func isEntityError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

// classifySendError marks throttling and server faults as retryable.
func classifySendError(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		if tgErr.Code == 429 || tgErr.Code >= 500 {
			return domain.Retryable(fmt.Errorf("telegram: %w", err))
		}
		return fmt.Errorf("telegram: %w", err)
	}
	return domain.Retryable(fmt.Errorf("telegram: %w", err))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

func sortedByCount(dist map[model.Category]int) []model.Category {
	out := make([]model.Category, 0, len(dist))
	for c := range dist {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if dist[out[i]] != dist[out[j]] {
			return dist[out[i]] > dist[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
