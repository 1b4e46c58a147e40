// Package app assembles sources and services from configuration for the
// command-line entrypoints.
package app

import (
	"fmt"
	"log/slog"

	"news_sentiment/internal/config"
	"news_sentiment/internal/service"
	"news_sentiment/internal/source/finnhub"
	"news_sentiment/internal/source/newsapi"
	"news_sentiment/internal/source/rss"
	"news_sentiment/internal/source/twitter"
)

// Sources builds every enabled provider adapter. Registration order is the
// selection order: the first source that supports a query serves it.
func Sources(cfg config.ProvidersConfig, logger *slog.Logger) ([]service.Source, error) {
	var sources []service.Source

	if cfg.Finnhub.Enabled {
		sources = append(sources, finnhub.New(finnhub.Config{
			BaseURL: cfg.Finnhub.BaseURL,
			APIKey:  cfg.Finnhub.APIKey,
			Timeout: cfg.Finnhub.Timeout,
		}, logger))
	}

	if cfg.NewsAPI.Enabled {
		sources = append(sources, newsapi.New(newsapi.Config{
			BaseURL: cfg.NewsAPI.BaseURL,
			APIKey:  cfg.NewsAPI.APIKey,
			Timeout: cfg.NewsAPI.Timeout,
		}, logger))
	}

	if cfg.RSS.Enabled {
		feeds, err := cfg.RSS.CategoryFeeds()
		if err != nil {
			return nil, fmt.Errorf("rss feeds: %w", err)
		}
		sources = append(sources, rss.New(rss.Config{
			Feeds:   feeds,
			Timeout: cfg.RSS.Timeout,
		}, logger))
	}

	if cfg.Twitter.Enabled {
		sources = append(sources, twitter.New(twitter.Config{
			BaseURL:     cfg.Twitter.BaseURL,
			BearerToken: cfg.Twitter.APIKey,
			Timeout:     cfg.Twitter.Timeout,
		}, logger))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no provider enabled")
	}
	return sources, nil
}
