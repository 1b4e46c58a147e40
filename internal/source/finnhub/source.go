package finnhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/source"
)

const (
	SourceName     = "Finnhub"
	DefaultBaseURL = "https://finnhub.io/api/v1"
)

// Finnhub names the mergers category in the singular.
var categoryParam = map[domain.Category]string{
	domain.CategoryGeneral: "general",
	domain.CategoryForex:   "forex",
	domain.CategoryCrypto:  "crypto",
	domain.CategoryMergers: "merger",
}

// Config holds Finnhub source configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Source implements news-by-category and news-by-entity over the Finnhub API.
type Source struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New creates a new Finnhub source.
func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger.With("source", domain.ProviderFinnhub),
	}
}

func (s *Source) ID() domain.Provider {
	return domain.ProviderFinnhub
}

func (s *Source) Name() string {
	return SourceName
}

// Supports reports whether q is a Finnhub category or an entity query.
func (s *Source) Supports(q domain.Query) bool {
	switch q.Kind {
	case domain.KindCategory:
		_, ok := categoryParam[q.Category]
		return ok
	case domain.KindEntity:
		return true
	default:
		return false
	}
}

// Fetch returns normalized news items for a category or entity query.
func (s *Source) Fetch(ctx context.Context, q domain.Query) ([]domain.ContentItem, error) {
	endpoint, err := s.endpoint(q)
	if err != nil {
		return nil, err
	}

	req, err := source.NewRequest(ctx, domain.ProviderFinnhub, endpoint)
	if err != nil {
		return nil, err
	}

	var records []NewsRecord
	if err := source.DoJSON(s.httpClient, req, domain.ProviderFinnhub, &records); err != nil {
		return nil, err
	}

	items := s.transform(records)
	s.logger.Debug("fetched news", "query", q.String(), "records", len(records), "items", len(items))

	return items, nil
}

func (s *Source) endpoint(q domain.Query) (string, error) {
	params := url.Values{}
	params.Set("token", s.apiKey)

	switch q.Kind {
	case domain.KindCategory:
		cat, ok := categoryParam[q.Category]
		if !ok {
			return "", fmt.Errorf("%w: finnhub has no %q category", domain.ErrNoSource, q.Category)
		}
		params.Set("category", cat)
		return s.baseURL + "/news?" + params.Encode(), nil

	case domain.KindEntity:
		params.Set("symbol", q.Symbol)
		params.Set("from", q.From.Format(time.DateOnly))
		params.Set("to", q.To.Format(time.DateOnly))
		return s.baseURL + "/company-news?" + params.Encode(), nil

	default:
		return "", errors.New("finnhub: unsupported query kind " + string(q.Kind))
	}
}

func (s *Source) transform(records []NewsRecord) []domain.ContentItem {
	rows := make([]source.Record, 0, len(records))
	for _, r := range records {
		var published time.Time
		if r.Datetime > 0 {
			published = time.Unix(r.Datetime, 0)
		} else {
			s.logger.Warn("missing datetime", "external_id", r.ID)
		}

		rows = append(rows, source.Record{
			Headline:    r.Headline,
			Summary:     r.Summary,
			SourceName:  r.Source,
			URL:         r.URL,
			PublishedAt: published,
		})
	}

	items, dropped := source.Normalize(domain.ProviderFinnhub, rows)
	if dropped > 0 {
		s.logger.Warn("dropped records without headline", "count", dropped)
	}
	return items
}
