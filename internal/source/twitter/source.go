package twitter

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
	SourceName     = "X recent search"
	DefaultBaseURL = "https://api.twitter.com/2"

	minResults = 10
	maxResults = 100

	// Recent search only covers the last seven days and rejects an end_time
	// closer than ten seconds to the request.
	searchHorizon = 7 * 24 * time.Hour
	endTimeSlack  = 10 * time.Second
)

// Config holds social search source configuration.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// Source implements social-post search over the X API v2.
type Source struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a new social search source.
func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		bearerToken: cfg.BearerToken,
		logger:      logger.With("source", domain.ProviderTwitter),
		now:         time.Now,
	}
}

func (s *Source) ID() domain.Provider {
	return domain.ProviderTwitter
}

func (s *Source) Name() string {
	return SourceName
}

// Supports reports whether q is a free-text query.
func (s *Source) Supports(q domain.Query) bool {
	return q.Kind == domain.KindFreeText
}

// Fetch searches recent posts matching the query text.
func (s *Source) Fetch(ctx context.Context, q domain.Query) ([]domain.ContentItem, error) {
	if q.Kind != domain.KindFreeText {
		return nil, errors.New("twitter: unsupported query kind " + string(q.Kind))
	}

	req, err := source.NewRequest(ctx, domain.ProviderTwitter, s.baseURL+"/tweets/search/recent?"+s.params(q).Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)

	var resp SearchResponse
	if err := source.DoJSON(s.httpClient, req, domain.ProviderTwitter, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 && len(resp.Errors) > 0 {
		e := resp.Errors[0]
		return nil, &domain.FetchError{
			Provider: domain.ProviderTwitter,
			Kind:     domain.FetchProvider,
			Err:      errors.New(e.Title + ": " + e.Detail),
		}
	}

	items := s.transform(resp)
	s.logger.Debug("fetched posts", "query", q.String(), "result_count", resp.Meta.ResultCount, "items", len(items))

	return items, nil
}

func (s *Source) params(q domain.Query) url.Values {
	query := q.Text
	if q.Language != "" {
		query += " lang:" + q.Language
	}

	n := max(minResults, min(q.MaxResults, maxResults))

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(n))
	params.Set("tweet.fields", "created_at,author_id,lang")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")

	now := s.now()
	if !q.From.IsZero() && q.From.After(now.Add(-searchHorizon)) {
		params.Set("start_time", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() && q.To.Before(now.Add(-endTimeSlack)) {
		params.Set("end_time", q.To.UTC().Format(time.RFC3339))
	}
	return params
}

func (s *Source) transform(resp SearchResponse) []domain.ContentItem {
	usernames := make(map[string]string)
	if resp.Includes != nil {
		for _, u := range resp.Includes.Users {
			usernames[u.ID] = u.Username
		}
	}

	rows := make([]source.Record, 0, len(resp.Data))
	for _, t := range resp.Data {
		published := source.ParseTime(t.CreatedAt)
		if published.IsZero() {
			s.logger.Warn("failed to parse date", "external_id", t.ID, "date", t.CreatedAt)
		}

		author := t.AuthorID
		if name, ok := usernames[t.AuthorID]; ok {
			author = "@" + name
		}

		rows = append(rows, source.Record{
			Headline:    t.Text,
			SourceName:  author,
			URL:         "https://x.com/i/web/status/" + t.ID,
			PublishedAt: published,
		})
	}

	items, dropped := source.Normalize(domain.ProviderTwitter, rows)
	if dropped > 0 {
		s.logger.Warn("dropped empty posts", "count", dropped)
	}
	return items
}
