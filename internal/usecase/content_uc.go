package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

// Compile-time check
var _ ContentUseCase = (*contentUC)(nil)

type ContentUseCase interface {
	// GenerateAndPublish runs a single workflow pass: generate, save a draft, publish
	// to both sinks, reconcile. Publisher failures never fail the pass.
	GenerateAndPublish(ctx context.Context, req *model.TopicRequest) (*model.ContentRecord, error)

	// Execute wraps GenerateAndPublish in the retry policy and an execution log.
	// scheduleID is nil for manual runs.
	Execute(ctx context.Context, scheduleID *int64, req *model.TopicRequest) (*model.ContentRecord, error)
}

// ContentSettings are the content-related config values the workflow needs.
type ContentSettings struct {
	Language          string
	Author            string
	DefaultCategory   model.Category
	PreferredCategory *model.Category
}

type contentUC struct {
	contents  repository.ContentRepository
	requests  repository.TopicRequestRepository
	logs      repository.ExecutionLogRepository
	tm        repository.TransactionManager
	generator adapter.ContentGenerator
	chat      adapter.ChatPublisher
	docs      adapter.DocumentPublisher
	catalog   *catalog.Catalog
	retry     *RetryExecutor
	settings  ContentSettings
	log       *zerolog.Logger
}

func NewContentUseCase(
	contents repository.ContentRepository,
	requests repository.TopicRequestRepository,
	logs repository.ExecutionLogRepository,
	tm repository.TransactionManager,
	generator adapter.ContentGenerator,
	chat adapter.ChatPublisher,
	docs adapter.DocumentPublisher,
	cat *catalog.Catalog,
	retry *RetryExecutor,
	settings ContentSettings,
	logger *zerolog.Logger,
) *contentUC {
	if cat == nil {
		cat = catalog.Default()
	}
	if settings.DefaultCategory == "" {
		settings.DefaultCategory = model.CategoryArchitecture
	}
	if settings.Language == "" {
		settings.Language = "ko"
	}
	l := logger.With().Str("component", "ContentUseCase").Logger()
	return &contentUC{
		contents:  contents,
		requests:  requests,
		logs:      logs,
		tm:        tm,
		generator: generator,
		chat:      chat,
		docs:      docs,
		catalog:   cat,
		retry:     retry,
		settings:  settings,
		log:       &l,
	}
}

func (uc *contentUC) GenerateAndPublish(ctx context.Context, req *model.TopicRequest) (*model.ContentRecord, error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "ContentUC.GenerateAndPublish")()

	used, err := uc.contents.UsedTopics(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("load used topics: %w", err)
	}

	var generated *model.GeneratedContent
	if req != nil {
		category, ok := uc.catalog.InferCategory(req.Topic)
		if !ok {
			log.Warn().Str("topic", req.Topic).Str("category", string(uc.settings.DefaultCategory)).
				Msg("could not infer category from topic, using default")
			category = uc.settings.DefaultCategory
		}
		generated, err = uc.generator.Generate(ctx, req.Topic, category, model.DifficultyIntermediate, uc.settings.Language)
	} else {
		generated, err = uc.generator.GenerateRandom(ctx, used, uc.settings.PreferredCategory, uc.settings.Language)
	}
	if err != nil {
		return nil, err
	}

	record := model.NewDraft(generated, uc.settings.Author)
	if err := uc.contents.Save(ctx, repository.NoTX, record); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	metrics.IncContent(string(model.ContentStatusDraft))
	log.Info().Int64("content_id", record.ID).Str("title", record.Title).Msg("draft saved")

	documentOK := false
	if pageID, url, err := uc.docs.CreateContentPage(ctx, record); err != nil {
		metrics.IncPublish("document", "content", false)
		log.Warn().Err(err).Int64("content_id", record.ID).Msg("document page creation failed")
	} else {
		metrics.IncPublish("document", "content", true)
		record.AttachDocument(pageID, url)
		documentOK = true
	}

	chatOK := false
	if handle, err := uc.chat.SendContentNotification(ctx, record); err != nil {
		metrics.IncPublish("chat", "content", false)
		log.Warn().Err(err).Int64("content_id", record.ID).Msg("chat notification failed")
	} else {
		metrics.IncPublish("chat", "content", true)
		record.AttachChatMessage(handle)
		chatOK = true
	}

	record.Reconcile(chatOK, documentOK)
	record.UpdatedAt = time.Now()

	err = uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.contents.Update(ctx, tx, record); err != nil {
			return fmt.Errorf("update content: %w", err)
		}
		if req != nil && req.ID != 0 {
			if err := uc.requests.MarkProcessed(ctx, tx, req.ID, record.ID); err != nil {
				return fmt.Errorf("mark topic request processed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req != nil {
		now := time.Now()
		req.IsProcessed = true
		req.ContentID = &record.ID
		req.ProcessedAt = &now
	}

	metrics.IncContent(string(record.Status))
	log.Info().Int64("content_id", record.ID).Str("status", string(record.Status)).
		Bool("chat", chatOK).Bool("document", documentOK).Msg("content workflow finished")
	return record, nil
}

func (uc *contentUC) Execute(ctx context.Context, scheduleID *int64, req *model.TopicRequest) (*model.ContentRecord, error) {
	if logging.RunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, ulid.Make().String())
	}
	log := logging.With(ctx, uc.log)

	execLog := model.NewExecutionLog(scheduleID)
	if err := uc.logs.Save(ctx, repository.NoTX, execLog); err != nil {
		return nil, fmt.Errorf("save execution log: %w", err)
	}

	update := func(ctx context.Context, l *model.ExecutionLog) error {
		return uc.logs.Update(ctx, repository.NoTX, l)
	}

	var record *model.ContentRecord
	work := func(ctx context.Context) error {
		r, err := uc.GenerateAndPublish(ctx, req)
		if err != nil {
			return err
		}
		record = r
		return nil
	}

	start := time.Now()
	err := uc.retry.Execute(ctx, "generate_and_publish", work, execLog, update)
	elapsed := time.Since(start)
	metrics.ObserveExecutionDuration(elapsed.Seconds())

	execLog.SetDuration(elapsed)
	if err == nil && record != nil {
		execLog.SetContent(record.ID)
	}
	if uerr := uc.logs.Update(context.WithoutCancel(ctx), repository.NoTX, execLog); uerr != nil {
		log.Error().Err(uerr).Int64("execution_log_id", execLog.ID).Msg("failed to finalize execution log")
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Int64("execution_log_id", execLog.ID).Dur("elapsed", elapsed).Msg("content generation failed")
		}
		return nil, err
	}
	log.Info().Int64("execution_log_id", execLog.ID).Int64("content_id", record.ID).Dur("elapsed", elapsed).Msg("content generation succeeded")
	return record, nil
}
