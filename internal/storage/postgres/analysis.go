package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"news_sentiment/internal/domain"
)

// itemBatchSize keeps a single insert well under the postgres parameter limit.
const itemBatchSize = 500

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var analysisColumns = []string{
	"id", "kind", "provider", "query", "fetched",
	"item_count", "mean", "positive_pct", "negative_pct", "neutral_pct",
	"time_series", "top_terms", "created_at", "duration_ms",
}

type AnalysisStore struct {
	db *sqlx.DB
}

func NewAnalysisStore(db *sqlx.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

type analysisRow struct {
	ID          uuid.UUID `db:"id"`
	Kind        string    `db:"kind"`
	Provider    string    `db:"provider"`
	Query       []byte    `db:"query"`
	Fetched     int       `db:"fetched"`
	ItemCount   int       `db:"item_count"`
	Mean        float64   `db:"mean"`
	PositivePct float64   `db:"positive_pct"`
	NegativePct float64   `db:"negative_pct"`
	NeutralPct  float64   `db:"neutral_pct"`
	TimeSeries  []byte    `db:"time_series"`
	TopTerms    []byte    `db:"top_terms"`
	CreatedAt   time.Time `db:"created_at"`
	DurationMS  int64     `db:"duration_ms"`
}

type itemRow struct {
	ItemID      string       `db:"item_id"`
	Headline    string       `db:"headline"`
	Summary     string       `db:"summary"`
	SourceName  string       `db:"source_name"`
	URL         string       `db:"url"`
	PublishedAt sql.NullTime `db:"published_at"`
	Provider    string       `db:"provider"`
	Score       float64      `db:"sentiment_score"`
}

func (s *AnalysisStore) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	query, err := json.Marshal(a.Query)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	series, err := json.Marshal(nonNil(a.Result.TimeSeries))
	if err != nil {
		return fmt.Errorf("marshal time series: %w", err)
	}
	terms, err := json.Marshal(nonNil(a.Result.TopTerms))
	if err != nil {
		return fmt.Errorf("marshal top terms: %w", err)
	}

	sum := a.Result.Summary
	stmt, args, err := psql.Insert("analyses").
		Columns(analysisColumns...).
		Values(
			a.ID, string(a.Query.Kind), string(a.Provider), string(query), a.Fetched,
			sum.ItemCount, sum.Mean, sum.PositivePct, sum.NegativePct, sum.NeutralPct,
			string(series), string(terms), a.CreatedAt, a.Duration.Milliseconds(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, stmt, args...)
	return err
}

// SaveItems stores scored items in result order.
func (s *AnalysisStore) SaveItems(ctx context.Context, analysisID uuid.UUID, items []domain.ScoredItem) error {
	exec := GetExecutor(ctx, s.db)

	for start := 0; start < len(items); start += itemBatchSize {
		end := min(start+itemBatchSize, len(items))

		insert := psql.Insert("analysis_items").Columns(
			"analysis_id", "position", "item_id", "headline", "summary",
			"source_name", "url", "published_at", "provider", "sentiment_score",
		)
		for i, it := range items[start:end] {
			var published sql.NullTime
			if it.HasTimestamp() {
				published = sql.NullTime{Time: it.PublishedAt, Valid: true}
			}
			insert = insert.Values(
				analysisID, start+i, it.ID, it.HeadlineOrText, it.BodyOrSummary,
				it.SourceName, it.URL, published, string(it.Provider), it.SentimentScore,
			)
		}

		stmt, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := exec.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}

	return nil
}

// Get loads an analysis with its items. It returns domain.ErrNotFound for an
// unknown id.
func (s *AnalysisStore) Get(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	exec := GetExecutor(ctx, s.db)

	stmt, args, err := psql.Select(analysisColumns...).From("analyses").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row analysisRow
	if err := sqlx.GetContext(ctx, exec, &row, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	a, err := row.toAnalysis()
	if err != nil {
		return nil, err
	}

	var rows []itemRow
	err = sqlx.SelectContext(ctx, exec, &rows, `
		SELECT item_id, headline, summary, source_name, url, published_at, provider, sentiment_score
		FROM analysis_items
		WHERE analysis_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, err
	}

	a.Result.Items = make([]domain.ScoredItem, len(rows))
	for i, r := range rows {
		item := domain.ScoredItem{
			ContentItem: domain.ContentItem{
				ID:             r.ItemID,
				HeadlineOrText: r.Headline,
				BodyOrSummary:  r.Summary,
				SourceName:     r.SourceName,
				URL:            r.URL,
				Provider:       domain.Provider(r.Provider),
			},
			SentimentScore: r.Score,
		}
		if r.PublishedAt.Valid {
			item.PublishedAt = r.PublishedAt.Time.UTC()
		}
		a.Result.Items[i] = item
	}

	return a, nil
}

// ListRecent returns analysis headers, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	stmt, args, err := psql.Select(analysisColumns...).
		From("analyses").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []analysisRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, stmt, args...); err != nil {
		return nil, err
	}

	records := make([]domain.AnalysisRecord, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAnalysis()
		if err != nil {
			return nil, err
		}
		records = append(records, domain.AnalysisRecord{
			ID:        a.ID,
			Query:     a.Query,
			Provider:  a.Provider,
			Fetched:   a.Fetched,
			Summary:   a.Result.Summary,
			CreatedAt: a.CreatedAt,
			Duration:  a.Duration,
		})
	}
	return records, nil
}

func (r analysisRow) toAnalysis() (*domain.Analysis, error) {
	a := &domain.Analysis{
		ID:        r.ID,
		Provider:  domain.Provider(r.Provider),
		Fetched:   r.Fetched,
		CreatedAt: r.CreatedAt.UTC(),
		Duration:  time.Duration(r.DurationMS) * time.Millisecond,
		Result: domain.ResultSet{
			Summary: domain.Summary{
				ItemCount:   r.ItemCount,
				Mean:        r.Mean,
				PositivePct: r.PositivePct,
				NegativePct: r.NegativePct,
				NeutralPct:  r.NeutralPct,
			},
		},
	}

	if err := json.Unmarshal(r.Query, &a.Query); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	if err := json.Unmarshal(r.TimeSeries, &a.Result.TimeSeries); err != nil {
		return nil, fmt.Errorf("decode time series: %w", err)
	}
	if err := json.Unmarshal(r.TopTerms, &a.Result.TopTerms); err != nil {
		return nil, fmt.Errorf("decode top terms: %w", err)
	}
	return a, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
