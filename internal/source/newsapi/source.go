package newsapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/source"
)

const (
	SourceName     = "NewsAPI"
	DefaultBaseURL = "https://newsapi.org/v2"
	maxPageSize    = 100

	// removedTitle marks articles withdrawn by their publisher.
	removedTitle = "[Removed]"
)

// Config holds NewsAPI source configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Source implements full-text news search over NewsAPI.
type Source struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New creates a new NewsAPI source.
func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger.With("source", domain.ProviderNewsAPI),
	}
}

func (s *Source) ID() domain.Provider {
	return domain.ProviderNewsAPI
}

func (s *Source) Name() string {
	return SourceName
}

// Supports reports whether q is a free-text or category query. Categories
// are searched as keywords.
func (s *Source) Supports(q domain.Query) bool {
	return q.Kind == domain.KindFreeText || q.Kind == domain.KindCategory
}

// Fetch searches articles matching the query text or category keyword.
func (s *Source) Fetch(ctx context.Context, q domain.Query) ([]domain.ContentItem, error) {
	params := url.Values{}
	params.Set("sortBy", "publishedAt")

	switch q.Kind {
	case domain.KindFreeText:
		params.Set("q", q.Text)
		params.Set("language", q.Language)
		params.Set("pageSize", strconv.Itoa(min(q.MaxResults, maxPageSize)))
		if !q.From.IsZero() {
			params.Set("from", q.From.UTC().Format(time.RFC3339))
		}
		if !q.To.IsZero() {
			params.Set("to", q.To.UTC().Format(time.RFC3339))
		}
	case domain.KindCategory:
		params.Set("q", strings.ReplaceAll(string(q.Category), "_", " "))
		params.Set("language", domain.DefaultLanguage)
		params.Set("pageSize", strconv.Itoa(domain.DefaultMaxResults))
	default:
		return nil, errors.New("newsapi: unsupported query kind " + string(q.Kind))
	}

	req, err := source.NewRequest(ctx, domain.ProviderNewsAPI, s.baseURL+"/everything?"+params.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	var resp APIResponse
	if err := source.DoJSON(s.httpClient, req, domain.ProviderNewsAPI, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "error" {
		return nil, &domain.FetchError{
			Provider: domain.ProviderNewsAPI,
			Kind:     domain.FetchProvider,
			Err:      errors.New(resp.Code + ": " + resp.Message),
		}
	}

	items := s.transform(resp.Articles)
	s.logger.Debug("fetched articles",
		"query", q.String(),
		"total_results", resp.TotalResults,
		"items", len(items),
	)

	return items, nil
}

func (s *Source) transform(articles []Article) []domain.ContentItem {
	rows := make([]source.Record, 0, len(articles))
	for _, a := range articles {
		title := deref(a.Title)
		if title == removedTitle {
			continue
		}

		published := source.ParseTime(a.PublishedAt)
		if published.IsZero() {
			s.logger.Warn("failed to parse date", "url", a.URL, "date", a.PublishedAt)
		}

		rows = append(rows, source.Record{
			Headline:    title,
			Summary:     deref(a.Description),
			SourceName:  a.Source.Name,
			URL:         a.URL,
			PublishedAt: published,
		})
	}

	items, dropped := source.Normalize(domain.ProviderNewsAPI, rows)
	if dropped > 0 {
		s.logger.Warn("dropped records without title", "count", dropped)
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
