package notion

import (
	"context"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
)

var _ adapter.DocumentPublisher = DisabledPublisher{}

// DisabledPublisher stands in when no Notion credentials are configured.
// Every page call fails with domain.ErrPublisherDisabled.
type DisabledPublisher struct{}

func (DisabledPublisher) CreateContentPage(context.Context, *model.ContentRecord) (string, string, error) {
	return "", "", domain.ErrPublisherDisabled
}

func (DisabledPublisher) CreateReportPage(context.Context, *model.ReportData) (string, string, error) {
	return "", "", domain.ErrPublisherDisabled
}

func (DisabledPublisher) HealthCheck(context.Context) bool { return false }
