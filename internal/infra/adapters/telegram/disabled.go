package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
)

var _ adapter.ChatPublisher = (*DisabledChatPublisher)(nil)

// DisabledChatPublisher stands in when no chat id is configured. It logs what
// would have been posted and fails every send with domain.ErrPublisherDisabled,
// so nothing counts as delivered.
type DisabledChatPublisher struct {
	log *zerolog.Logger
}

func NewDisabledChatPublisher(logger *zerolog.Logger) *DisabledChatPublisher {
	l := logger.With().Str("component", "DisabledChatPublisher").Logger()
	return &DisabledChatPublisher{log: &l}
}

func (d *DisabledChatPublisher) SendContentNotification(_ context.Context, c *model.ContentRecord) (string, error) {
	d.log.Info().Str("title", c.Title).Str("category", string(c.Category)).Msg("content notification not sent")
	return "", domain.ErrPublisherDisabled
}

func (d *DisabledChatPublisher) SendReportNotification(_ context.Context, r *model.ReportData, documentURL string) (string, error) {
	d.log.Info().Str("type", string(r.Type)).Int("total", r.TotalCount).Str("document", documentURL).Msg("report notification not sent")
	return "", domain.ErrPublisherDisabled
}

func (d *DisabledChatPublisher) SendErrorNotification(_ context.Context, message string, fields map[string]any) (string, error) {
	d.log.Warn().Fields(fields).Msg(message)
	return "", domain.ErrPublisherDisabled
}

func (d *DisabledChatPublisher) SendStatus(_ context.Context, s *model.BotStatus, target string) error {
	d.log.Info().Bool("paused", s.IsPaused).Strs("schedules", s.ActiveSchedules).Str("target", target).Msg("status not sent")
	return domain.ErrPublisherDisabled
}

func (d *DisabledChatPublisher) HealthCheck(context.Context) bool { return false }
