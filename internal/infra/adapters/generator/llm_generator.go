package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*LLMGenerator)(nil)

// LLMGenerator turns catalog topics into explainers through the AI port.
type LLMGenerator struct {
	ai    adapter.AIServiceAdapter
	model string
	cat   *catalog.Catalog
	log   *zerolog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*LLMGenerator)

// WithRand fixes the random source, for reproducible picks.
func WithRand(r *rand.Rand) Option { return func(g *LLMGenerator) { g.rnd = r } }

func NewLLMGenerator(ai adapter.AIServiceAdapter, aiModel string, cat *catalog.Catalog, logger *zerolog.Logger, opts ...Option) *LLMGenerator {
	if cat == nil {
		cat = catalog.Default()
	}
	l := logger.With().Str("component", "LLMGenerator").Logger()
	seed := uint64(time.Now().UnixNano())
	g := &LLMGenerator{
		ai:    ai,
		model: aiModel,
		cat:   cat,
		log:   &l,
		rnd:   rand.New(rand.NewPCG(seed, seed>>1)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *LLMGenerator) Generate(ctx context.Context, topic string, category model.Category, difficulty model.Difficulty, lang string) (*model.GeneratedContent, error) {
	log := g.log.With().Str("topic", topic).Str("category", string(category)).Str("difficulty", string(difficulty)).Logger()
	log.Info().Msg("generating content")

	prompt := renderPrompt(topic, g.cat.DisplayName(category, lang), DifficultyName(difficulty, lang), lang)
	reply, err := g.ai.Chat(ctx, g.model, []adapter.Message{{Role: "user", Content: prompt}})
	if err != nil {
		log.Error().Err(err).Msg("content generation failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	out, err := parseReply(reply)
	if err != nil {
		log.Error().Err(err).Str("reply", truncate(reply, 500)).Msg("generator output could not be parsed")
		return nil, domain.NonRetryable(err)
	}
	out.Category = category
	out.Difficulty = difficulty
	out.Topic = topic
	log.Info().Str("title", out.Title).Msg("content generated")
	return out, nil
}

func (g *LLMGenerator) GenerateRandom(ctx context.Context, used []string, preferred *model.Category, lang string) (*model.GeneratedContent, error) {
	category, topic, difficulty, err := g.pick(used, preferred)
	if err != nil {
		return nil, err
	}
	g.log.Info().Str("topic", topic).Str("category", string(category)).Str("difficulty", string(difficulty)).Msg("selected random topic")
	return g.Generate(ctx, topic, category, difficulty, lang)
}

func (g *LLMGenerator) HealthCheck(ctx context.Context) bool {
	if _, err := g.ai.ListModels(ctx); err != nil {
		g.log.Warn().Err(err).Msg("generator health check failed")
		return false
	}
	return true
}

// pick chooses a category weighted by how many unused topics it still has, unless
// the preferred category has some left. Then it picks a topic and a difficulty.
func (g *LLMGenerator) pick(used []string, preferred *model.Category) (model.Category, string, model.Difficulty, error) {
	usedSet := make(map[string]struct{}, len(used))
	for _, u := range used {
		usedSet[u] = struct{}{}
	}

	unused := make(map[model.Category][]string)
	total := 0
	for _, c := range g.cat.Categories() {
		for _, t := range g.cat.Topics(c) {
			if _, ok := usedSet[t]; !ok {
				unused[c] = append(unused[c], t)
				total++
			}
		}
	}
	if total == 0 {
		return "", "", "", domain.NonRetryable(domain.ErrNoTopicsLeft)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var category model.Category
	if preferred != nil && len(unused[*preferred]) > 0 {
		category = *preferred
	} else {
		n := g.rnd.IntN(total)
		for _, c := range g.cat.Categories() {
			if n < len(unused[c]) {
				category = c
				break
			}
			n -= len(unused[c])
		}
	}

	topics := unused[category]
	topic := topics[g.rnd.IntN(len(topics))]
	return category, topic, g.pickDifficulty(), nil
}

// weights: beginner 0.25, intermediate 0.5, advanced 0.25
func (g *LLMGenerator) pickDifficulty() model.Difficulty {
	switch x := g.rnd.Float64(); {
	case x < 0.25:
		return model.DifficultyBeginner
	case x < 0.75:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyAdvanced
	}
}

var (
	fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	bareJSON   = regexp.MustCompile(`\{[\s\S]*\}`)
)

type replyPayload struct {
	Title   *string  `json:"title"`
	Summary *string  `json:"summary"`
	Tags    []string `json:"tags"`
}

func parseReply(reply string) (*model.GeneratedContent, error) {
	var raw string
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		raw = m[1]
	} else if m := bareJSON.FindString(reply); m != "" {
		raw = m
	} else {
		return nil, fmt.Errorf("%w: no JSON found in response", domain.ErrMalformedGeneration)
	}

	var p replyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeneration, err)
	}
	if p.Title == nil || strings.TrimSpace(*p.Title) == "" || p.Summary == nil {
		return nil, fmt.Errorf("%w: missing required field title or summary", domain.ErrMalformedGeneration)
	}

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &model.GeneratedContent{
		Title:   strings.TrimSpace(*p.Title),
		Summary: strings.TrimSpace(*p.Summary),
		Tags:    tags,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
