package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"news_sentiment/internal/domain"
)

type Source interface {
	ID() domain.Provider
	Name() string
	Supports(q domain.Query) bool
	Fetch(ctx context.Context, q domain.Query) ([]domain.ContentItem, error)
}

type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, analysis *domain.Analysis) error
	SaveItems(ctx context.Context, analysisID uuid.UUID, items []domain.ScoredItem) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, analysis *domain.Analysis) error
	Close() error
}
