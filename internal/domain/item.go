package domain

import "time"

// Provider identifies the source adapter that produced an item.
type Provider string

const (
	ProviderFinnhub Provider = "finnhub"
	ProviderNewsAPI Provider = "newsapi"
	ProviderTwitter Provider = "twitter"
	ProviderRSS     Provider = "rss"
)

// ContentItem is one normalized article or social post.
type ContentItem struct {
	ID             string    `json:"id"`
	HeadlineOrText string    `json:"headline"`
	BodyOrSummary  string    `json:"summary,omitempty"`
	SourceName     string    `json:"source,omitempty"`
	URL            string    `json:"url,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	Provider       Provider  `json:"provider"`
}

// HasTimestamp reports whether the item can take part in time-series aggregation.
func (c ContentItem) HasTimestamp() bool {
	return !c.PublishedAt.IsZero()
}

// ScoredItem is a ContentItem with its sentiment score attached.
type ScoredItem struct {
	ContentItem
	SentimentScore float64 `json:"sentiment_score"`
}
