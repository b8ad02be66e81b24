package model

import (
	"strings"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain"
)

// TopicRequest is a user demand for a specific topic.
type TopicRequest struct {
	ID          int64
	Topic       string
	RequestedBy string
	IsProcessed bool
	ContentID   *int64
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewTopicRequest(topic, requestedBy string) (*TopicRequest, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &TopicRequest{
		Topic:       topic,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now(),
	}, nil
}
