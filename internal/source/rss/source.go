package rss

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/source"
)

const SourceName = "RSS feeds"

// Config maps categories to the feed URLs that serve them.
type Config struct {
	Feeds   map[domain.Category][]string
	Timeout time.Duration
}

// Source implements news-by-category over configured RSS/Atom feeds.
type Source struct {
	feeds  map[domain.Category][]string
	parser *gofeed.Parser
	logger *slog.Logger
}

// New creates a new RSS source.
func New(cfg Config, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.Timeout}

	return &Source{
		feeds:  cfg.Feeds,
		parser: parser,
		logger: logger.With("source", domain.ProviderRSS),
	}
}

func (s *Source) ID() domain.Provider {
	return domain.ProviderRSS
}

func (s *Source) Name() string {
	return SourceName
}

// Supports reports whether a feed is configured for the query's category.
func (s *Source) Supports(q domain.Query) bool {
	return q.Kind == domain.KindCategory && len(s.feeds[q.Category]) > 0
}

// Fetch reads every feed configured for the category, one after another.
// A failing feed is skipped; the call fails only when every feed failed.
func (s *Source) Fetch(ctx context.Context, q domain.Query) ([]domain.ContentItem, error) {
	urls := s.feeds[q.Category]
	if q.Kind != domain.KindCategory || len(urls) == 0 {
		return nil, errors.New("rss: no feed configured for " + q.String())
	}

	var (
		records []source.Record
		lastErr error
		ok      int
	)
	for _, u := range urls {
		feed, err := s.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			lastErr = classify(err)
			s.logger.Warn("feed fetch failed", "url", u, "error", err)
			continue
		}
		ok++
		records = append(records, s.transform(feed)...)
	}

	if ok == 0 {
		return nil, lastErr
	}

	items, dropped := source.Normalize(domain.ProviderRSS, records)
	if dropped > 0 {
		s.logger.Warn("dropped feed items without title", "count", dropped)
	}
	s.logger.Debug("fetched feeds", "query", q.String(), "feeds", ok, "items", len(items))

	return items, nil
}

func (s *Source) transform(feed *gofeed.Feed) []source.Record {
	rows := make([]source.Record, 0, len(feed.Items))
	for _, it := range feed.Items {
		var published time.Time
		switch {
		case it.PublishedParsed != nil:
			published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			published = *it.UpdatedParsed
		}

		rows = append(rows, source.Record{
			Headline:    it.Title,
			Summary:     it.Description,
			SourceName:  feed.Title,
			URL:         it.Link,
			PublishedAt: published,
		})
	}
	return rows
}

func classify(err error) error {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return &domain.FetchError{Provider: domain.ProviderRSS, Kind: domain.FetchStatus, StatusCode: httpErr.StatusCode, Err: err}
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return &domain.FetchError{Provider: domain.ProviderRSS, Kind: domain.FetchDecode, Err: err}
	}
	return &domain.FetchError{Provider: domain.ProviderRSS, Kind: domain.FetchTransport, Err: err}
}
