package adapter

import (
	"context"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

// ChatPublisher pushes notifications to the chat channel of record.
type ChatPublisher interface {
	// SendContentNotification returns an opaque message handle.
	SendContentNotification(ctx context.Context, c *model.ContentRecord) (string, error)
	// SendReportNotification links documentURL when it is not empty.
	SendReportNotification(ctx context.Context, r *model.ReportData, documentURL string) (string, error)
	SendErrorNotification(ctx context.Context, message string, fields map[string]any) (string, error)
	// SendStatus pushes a status snapshot to target, or to the default channel when target is empty.
	SendStatus(ctx context.Context, s *model.BotStatus, target string) error
	HealthCheck(ctx context.Context) bool
}

// DocumentPublisher creates pages in the document workspace.
type DocumentPublisher interface {
	CreateContentPage(ctx context.Context, c *model.ContentRecord) (pageID, url string, err error)
	CreateReportPage(ctx context.Context, r *model.ReportData) (pageID, url string, err error)
	HealthCheck(ctx context.Context) bool
}
