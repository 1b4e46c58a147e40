package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"news_sentiment/internal/config"
	"news_sentiment/internal/domain"
	"news_sentiment/internal/pipeline"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type AnalysisService struct {
	sources   []Source
	store     AnalysisStore
	txManager TransactionManager
	publisher Publisher
	pipeline  *pipeline.Pipeline
	watchlist []domain.Query
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalysisService wires the analysis flow. store, txManager and publisher
// may be nil, in which case history and event publishing are disabled.
func NewAnalysisService(
	sources []Source,
	store AnalysisStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.AnalysisConfig,
) (*AnalysisService, error) {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, fmt.Errorf("pipeline options: %w", err)
	}

	return &AnalysisService{
		sources:   sources,
		store:     store,
		txManager: txManager,
		publisher: publisher,
		pipeline:  pipeline.New(nil, opts),
		watchlist: cfg.Watchlist,
		logger:    logger.With("component", "analysis"),
		now:       time.Now,
	}, nil
}

// outcome records what happened to an analysis after aggregation.
type outcome struct {
	persisted bool
	published bool
	errors    int
}

// Analyze fetches content for q, aggregates it and records the result. An
// empty order uses the configured default.
func (s *AnalysisService) Analyze(ctx context.Context, q domain.Query, order pipeline.SortOrder) (*domain.Analysis, error) {
	a, _, err := s.analyze(ctx, q, order)
	return a, err
}

func (s *AnalysisService) analyze(ctx context.Context, q domain.Query, order pipeline.SortOrder) (*domain.Analysis, outcome, error) {
	var out outcome

	start := s.now()
	q, err := q.Normalize(start)
	if err != nil {
		return nil, out, err
	}

	src, err := s.selectSource(q)
	if err != nil {
		return nil, out, err
	}

	logger := s.logger.With("source", src.ID(), "query", q.String())
	logger.Info("starting analysis", "source_name", src.Name())

	items, err := src.Fetch(ctx, q)
	if err != nil {
		return nil, out, fmt.Errorf("fetch %s: %w", q, err)
	}

	result := s.pipeline.WithSort(order).Aggregate(items)

	a := &domain.Analysis{
		ID:        uuid.New(),
		Query:     q,
		Provider:  src.ID(),
		Fetched:   len(items),
		Result:    result,
		CreatedAt: start.UTC(),
		Duration:  s.now().Sub(start),
	}

	if s.store != nil {
		if err := s.save(ctx, a); err != nil {
			out.errors++
			logger.Error("failed to persist analysis", "analysis_id", a.ID, "error", err)
		} else {
			out.persisted = true
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, a); err != nil {
			out.errors++
			logger.Error("failed to publish analysis", "analysis_id", a.ID, "error", err)
		} else {
			out.published = true
		}
	}

	logger.Info("analysis completed",
		"analysis_id", a.ID,
		"fetched", a.Fetched,
		"items", result.Summary.ItemCount,
		"mean", result.Summary.Mean,
		"persisted", out.persisted,
		"published", out.published,
		"duration", a.Duration,
	)

	return a, out, nil
}

// selectSource returns the explicitly requested provider, or the first
// registered source that supports the query.
func (s *AnalysisService) selectSource(q domain.Query) (Source, error) {
	for _, src := range s.sources {
		if q.Provider != "" && src.ID() != q.Provider {
			continue
		}
		if src.Supports(q) {
			return src, nil
		}
		if q.Provider != "" {
			return nil, fmt.Errorf("%w: %s cannot serve %s", domain.ErrNoSource, q.Provider, q)
		}
	}
	if q.Provider != "" {
		return nil, fmt.Errorf("%w: provider %s is not enabled", domain.ErrNoSource, q.Provider)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNoSource, q)
}

func (s *AnalysisService) save(ctx context.Context, a *domain.Analysis) error {
	persist := func(txCtx context.Context) error {
		if err := s.store.SaveAnalysis(txCtx, a); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		if err := s.store.SaveItems(txCtx, a.ID, a.Result.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	}

	if s.txManager == nil {
		return persist(ctx)
	}
	return s.txManager.WithTransaction(ctx, persist)
}

// Get returns a persisted analysis by id.
func (s *AnalysisService) Get(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	if s.store == nil {
		return nil, domain.ErrHistoryDisabled
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return a, nil
}

// History lists the most recent analyses, newest first.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if s.store == nil {
		return nil, domain.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return records, nil
}

// Sources lists the registered sources in selection order.
func (s *AnalysisService) Sources() []Source {
	return s.sources
}

// Run analyzes every watchlist query in order. A failing query is counted
// and logged; the run fails only when every query failed or ctx ends.
func (s *AnalysisService) Run(ctx context.Context) (*domain.RunStats, error) {
	start := s.now()
	s.logger.Info("starting watchlist run", "queries", len(s.watchlist))

	stats := &domain.RunStats{}
	for _, q := range s.watchlist {
		if err := ctx.Err(); err != nil {
			stats.Duration = s.now().Sub(start)
			return stats, err
		}

		stats.Queries++
		a, out, err := s.analyze(ctx, q, "")
		if err != nil {
			stats.Failed++
			stats.Errors++
			s.logger.Error("watchlist query failed", "query", q.String(), "error", err)
			continue
		}

		stats.Succeeded++
		stats.Items += a.Result.Summary.ItemCount
		stats.Errors += out.errors
		if out.persisted {
			stats.Persisted++
		}
		if out.published {
			stats.Published++
		}
	}

	stats.Duration = s.now().Sub(start)

	s.logger.Info("watchlist run completed",
		"queries", stats.Queries,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"items", stats.Items,
		"persisted", stats.Persisted,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	if stats.Queries > 0 && stats.Failed == stats.Queries {
		return stats, errors.New("every watchlist query failed")
	}
	return stats, nil
}
