package adapter

import (
	"context"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

// ContentGenerator produces title/summary/tags for a topic.
type ContentGenerator interface {
	Generate(ctx context.Context, topic string, category model.Category, difficulty model.Difficulty, lang string) (*model.GeneratedContent, error)

	// GenerateRandom picks an unused catalog topic. It fails with domain.ErrNoTopicsLeft
	// when every topic is already in used.
	GenerateRandom(ctx context.Context, used []string, preferred *model.Category, lang string) (*model.GeneratedContent, error)

	HealthCheck(ctx context.Context) bool
}
