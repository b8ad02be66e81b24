package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	aiAdapters "github.com/jeonjuho23/claude-daily/internal/infra/adapters/ai"
	"github.com/jeonjuho23/claude-daily/internal/infra/adapters/generator"
	"github.com/jeonjuho23/claude-daily/internal/infra/adapters/notion"
	tele "github.com/jeonjuho23/claude-daily/internal/infra/adapters/telegram"
	pg "github.com/jeonjuho23/claude-daily/internal/infra/db/postgres"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
	"github.com/jeonjuho23/claude-daily/internal/usecase"
)

// app holds everything the subcommands share: storage, publishers and the two use cases.
type app struct {
	cfg *config.Config
	log *zerolog.Logger

	db    *pg.Connector
	pool  *pgxpool.Pool
	redis red.RedisClient // nil when redis.url is empty

	tr  *i18n.Translator
	cat *catalog.Catalog

	bot       *tgbotapi.BotAPI
	chatPub   *tele.ChatPublisher
	chat      adapter.ChatPublisher
	docs      adapter.DocumentPublisher
	docsReady bool
	generator adapter.ContentGenerator

	schedules repository.ScheduleRepository
	contents  repository.ContentRepository
	logs      repository.ExecutionLogRepository
	requests  repository.TopicRequestRepository

	content usecase.ContentUseCase
	reports usecase.ReportUseCase
}

func newApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger, db: pg.NewConnector(cfg.Database), cat: catalog.Default()}
	loc := cfg.Location()

	// ---- Postgres ----
	pool, err := a.db.Pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.pool = pool

	// ---- Redis (optional) ----
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
	} else {
		logger.Warn().Msg("redis.url not set; distributed fire lock and command limiter disabled")
	}

	// ---- i18n ----
	a.tr, err = i18n.NewTranslator(i18n.LocalesFS, cfg.Content.Language)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("i18n: %w", err)
	}

	// ---- Repositories ----
	var schedules repository.ScheduleRepository = pg.NewScheduleRepo(pool)
	if a.redis != nil {
		schedules = pg.NewScheduleRepoCacheDecorator(schedules, a.redis, 0, logger)
	}
	a.schedules = schedules
	a.contents = pg.NewContentRepo(pool)
	a.logs = pg.NewExecutionLogRepo(pool)
	a.requests = pg.NewTopicRequestRepo(pool)

	// ---- Telegram ----
	a.bot, err = tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("telegram: %w", err)
	}
	a.chatPub = tele.NewChatPublisher(a.bot, cfg.Bot.ChatID, cfg.RateLimit.TelegramPerMinute, a.tr, a.cat, loc, logger)
	if cfg.Bot.ChatID != 0 {
		a.chat = a.chatPub
	} else {
		logger.Warn().Msg("bot.chat_id not set; chat notifications are disabled")
		a.chat = tele.NewDisabledChatPublisher(logger)
	}

	// ---- Notion ----
	if cfg.Notion.APIKey != "" && cfg.Notion.DatabaseID != "" {
		docs, err := notion.NewPublisher(cfg.Notion, cfg.RateLimit.NotionPerSecond, cfg.Content.Author, a.tr, a.cat, loc, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("notion: %w", err)
		}
		a.docs, a.docsReady = docs, true
	} else {
		logger.Warn().Msg("notion credentials not set; document publishing disabled")
		a.docs = notion.DisabledPublisher{}
	}

	// ---- AI + generator ----
	ai, aiModel, err := buildAI(ctx, cfg.AI, cfg.Runtime.Dev, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.generator = generator.NewLLMGenerator(ai, aiModel, a.cat, logger)

	// ---- Use cases ----
	retry := usecase.NewRetryExecutor(cfg.Retry.MaxRetries, cfg.Retry.BaseInterval, logger,
		usecase.WithFailureNotifier(func(ctx context.Context, message string, fields map[string]any) {
			if _, err := a.chat.SendErrorNotification(ctx, message, fields); err != nil {
				logger.Error().Err(err).Msg("failed to deliver failure notification")
			}
		}))
	a.content = usecase.NewContentUseCase(a.contents, a.requests, a.logs, pg.NewTxManager(pool),
		a.generator, a.chat, a.docs, a.cat, retry, contentSettings(cfg.Content), logger)
	a.reports = usecase.NewReportUseCase(a.contents, a.logs, a.chat, a.docs, loc, logger)

	return a, nil
}

func contentSettings(c config.ContentConfig) usecase.ContentSettings {
	s := usecase.ContentSettings{
		Language:        c.Language,
		Author:          c.Author,
		DefaultCategory: model.Category(c.DefaultCategory),
	}
	if c.PreferredCategory != "" {
		p := model.Category(c.PreferredCategory)
		s.PreferredCategory = &p
	}
	return s
}

// buildAI routes by model name across every configured provider and caps concurrent calls.
// Without any key it falls back to the sample adapter in dev mode and fails otherwise.
// The returned model is the one generation should ask for.
func buildAI(ctx context.Context, cfg config.AIConfig, dev bool, logger *zerolog.Logger) (adapter.AIServiceAdapter, string, error) {
	byProvider := map[string]adapter.AIServiceAdapter{}
	defaultModel := strings.ToLower(cfg.DefaultModel)
	defaultProvider := ""

	if cfg.OpenAIKey != "" {
		m := ""
		if !strings.HasPrefix(defaultModel, "gemini") {
			m = cfg.DefaultModel
		}
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, m)
		if err != nil {
			return nil, "", fmt.Errorf("openai adapter: %w", err)
		}
		byProvider["openai"] = oa
		defaultProvider = "openai"
		logger.Info().Str("base", cfg.OpenAIBaseURL).Msg("AI provider: openai")
	}
	if cfg.GeminiKey != "" {
		m := ""
		if strings.HasPrefix(defaultModel, "gemini") {
			m = cfg.DefaultModel
		}
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, m, 4096)
		if err != nil {
			return nil, "", fmt.Errorf("gemini adapter: %w", err)
		}
		byProvider["gemini"] = ga
		if defaultProvider == "" || m != "" {
			defaultProvider = "gemini"
		}
		logger.Info().Str("base", cfg.GeminiURL).Msg("AI provider: gemini")
	}

	if len(byProvider) == 0 {
		if !dev {
			return nil, "", errors.New("no AI provider configured: set ai.openai_key or ai.gemini_key")
		}
		logger.Warn().Msg("[DEV MODE] no AI keys; using the sample AI adapter")
		return aiAdapters.NewNoopAIAdapter(logger), cfg.DefaultModel, nil
	}

	// an empty model lets the provider adapter use its own default
	genModel := cfg.DefaultModel
	if _, ok := byProvider["openai"]; !ok && !strings.HasPrefix(defaultModel, "gemini") {
		logger.Warn().Str("model", cfg.DefaultModel).Msg("default model needs openai; using the gemini default instead")
		genModel = ""
	}

	router := aiAdapters.NewRouter(defaultProvider, byProvider)
	return aiAdapters.NewLimitedAI(router, cfg.ConcurrentLimit, cfg.Timeout), genModel, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	a.db.Close()
}
