package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

// Compile-time check
var _ ReportUseCase = (*reportUC)(nil)

type ReportUseCase interface {
	// GenerateWeekly aggregates the last full Monday-Sunday week and publishes it.
	GenerateWeekly(ctx context.Context) (*model.ReportData, error)
	// GenerateMonthly aggregates the previous calendar month and publishes it.
	GenerateMonthly(ctx context.Context) (*model.ReportData, error)
	// Aggregate computes statistics for [start, end] without publishing.
	Aggregate(ctx context.Context, typ model.ReportType, start, end time.Time) (*model.ReportData, error)
}

type reportUC struct {
	contents repository.ContentRepository
	logs     repository.ExecutionLogRepository
	chat     adapter.ChatPublisher
	docs     adapter.DocumentPublisher
	loc      *time.Location
	now      func() time.Time
	log      *zerolog.Logger
}

func NewReportUseCase(
	contents repository.ContentRepository,
	logs repository.ExecutionLogRepository,
	chat adapter.ChatPublisher,
	docs adapter.DocumentPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *reportUC {
	if loc == nil {
		loc = time.Local
	}
	l := logger.With().Str("component", "ReportUseCase").Logger()
	return &reportUC{contents: contents, logs: logs, chat: chat, docs: docs, loc: loc, now: time.Now, log: &l}
}

func (uc *reportUC) GenerateWeekly(ctx context.Context) (*model.ReportData, error) {
	start, end := model.LastWeekRange(uc.now().In(uc.loc))
	return uc.generate(ctx, model.ReportTypeWeekly, start, end)
}

func (uc *reportUC) GenerateMonthly(ctx context.Context) (*model.ReportData, error) {
	start, end := model.LastMonthRange(uc.now().In(uc.loc))
	return uc.generate(ctx, model.ReportTypeMonthly, start, end)
}

func (uc *reportUC) generate(ctx context.Context, typ model.ReportType, start, end time.Time) (*model.ReportData, error) {
	report, err := uc.Aggregate(ctx, typ, start, end)
	if err != nil {
		metrics.IncReport(string(typ), "error")
		uc.log.Error().Err(err).Str("report_type", string(typ)).Msg("report aggregation failed")
		return nil, err
	}
	uc.publish(ctx, report)
	metrics.IncReport(string(typ), "ok")
	return report, nil
}

func (uc *reportUC) Aggregate(ctx context.Context, typ model.ReportType, start, end time.Time) (*model.ReportData, error) {
	total, err := uc.contents.Count(ctx, repository.NoTX, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("count contents: %w", err)
	}
	stats, err := uc.logs.Stats(ctx, repository.NoTX, start, end)
	if err != nil {
		return nil, fmt.Errorf("execution stats: %w", err)
	}
	dist, err := uc.contents.CategoryDistribution(ctx, repository.NoTX, start, end)
	if err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}
	if dist == nil {
		dist = map[model.Category]int{}
	}

	r := &model.ReportData{
		Type:                 typ,
		PeriodStart:          start,
		PeriodEnd:            end,
		TotalCount:           total,
		SuccessCount:         stats[model.ExecutionStatusSuccess].Count,
		FailedCount:          stats[model.ExecutionStatusFailed].Count,
		RetryCount:           retryCount(stats),
		CategoryDistribution: dist,
		UncoveredCategories:  uncovered(dist),
		GeneratedAt:          uc.now().In(uc.loc),
	}

	// durations come from successful runs only
	if s, ok := stats[model.ExecutionStatusSuccess]; ok {
		r.AvgDurationMs = roundedAvg(s.AvgDurationMs)
		r.MinDurationMs = s.MinDurationMs
		r.MaxDurationMs = s.MaxDurationMs
	}
	return r, nil
}

// publish always attempts the chat notification, with or without a document link.
func (uc *reportUC) publish(ctx context.Context, r *model.ReportData) {
	log := uc.log.With().Str("report_type", string(r.Type)).Logger()

	docURL := ""
	if _, url, err := uc.docs.CreateReportPage(ctx, r); err != nil {
		metrics.IncPublish("document", "report", false)
		log.Warn().Err(err).Msg("report page creation failed")
	} else {
		metrics.IncPublish("document", "report", true)
		docURL = url
	}

	if _, err := uc.chat.SendReportNotification(ctx, r, docURL); err != nil {
		metrics.IncPublish("chat", "report", false)
		log.Error().Err(err).Msg("report notification failed")
		return
	}
	metrics.IncPublish("chat", "report", true)
	log.Info().Time("period_start", r.PeriodStart).Time("period_end", r.PeriodEnd).
		Int("total", r.TotalCount).Msg("report published")
}

// retryCount sums the attempts beyond the first across every status group,
// failed runs included.
func retryCount(stats model.ExecutionStats) int {
	n := 0
	for _, s := range stats {
		n += s.TotalAttempts - s.Count
	}
	if n < 0 {
		return 0
	}
	return n
}

func uncovered(dist map[model.Category]int) []model.Category {
	var out []model.Category
	for _, c := range model.AllCategories() {
		if dist[c] == 0 {
			out = append(out, c)
		}
	}
	return out
}

func roundedAvg(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
