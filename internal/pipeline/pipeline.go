// Package pipeline turns fetched content items into a scored, deduplicated
// and summarized result set.
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/sentiment"
)

const DefaultTopK = 5

// Scorer maps text to a polarity score in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// SortOrder controls the order of items in the result set.
type SortOrder string

const (
	SortRecency   SortOrder = "recency"
	SortRelevance SortOrder = "relevance"
	SortScore     SortOrder = "score"
)

// ParseSortOrder accepts "", recency, relevance or score.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRecency:
		return SortRecency, nil
	case SortRelevance:
		return SortRelevance, nil
	case SortScore:
		return SortScore, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidQuery, s)
	}
}

// Options tunes aggregation. The zero value reproduces the plain behavior:
// recency order, top 5 terms, no stop-word filtering, UTC date buckets.
type Options struct {
	TopK      int
	SortBy    SortOrder
	StopWords bool
	Location  *time.Location
}

// Pipeline aggregates content items. It holds no mutable state.
type Pipeline struct {
	scorer Scorer
	opts   Options
}

// New creates a pipeline. A nil scorer uses the shared VADER analyzer.
func New(scorer Scorer, opts Options) *Pipeline {
	if scorer == nil {
		scorer = sentiment.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SortBy == "" {
		opts.SortBy = SortRecency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Pipeline{scorer: scorer, opts: opts}
}

// WithSort returns a copy of the pipeline using a different order.
func (p *Pipeline) WithSort(order SortOrder) *Pipeline {
	if order == "" || order == p.opts.SortBy {
		return p
	}
	opts := p.opts
	opts.SortBy = order
	return &Pipeline{scorer: p.scorer, opts: opts}
}

// Aggregate scores, deduplicates, orders and summarizes items.
func (p *Pipeline) Aggregate(items []domain.ContentItem) domain.ResultSet {
	folder := cases.Fold()

	scored := p.score(items)
	unique := dedupe(scored, func(s string) string {
		return folder.String(strings.TrimSpace(s))
	})

	return domain.ResultSet{
		Items:      p.order(unique),
		Summary:    summarize(unique),
		TimeSeries: bucketByDate(unique, p.opts.Location),
		TopTerms:   topTerms(unique, p.opts.TopK, p.opts.StopWords, folder.String),
	}
}

func (p *Pipeline) score(items []domain.ContentItem) []domain.ScoredItem {
	out := make([]domain.ScoredItem, len(items))
	for i, it := range items {
		out[i] = domain.ScoredItem{
			ContentItem:    it,
			SentimentScore: clamp(p.scorer.Score(it.HeadlineOrText)),
		}
	}
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// dedupe keeps the first item for each folded headline, in input order.
func dedupe(items []domain.ScoredItem, key func(string) string) []domain.ScoredItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.ScoredItem, 0, len(items))
	for _, it := range items {
		k := key(it.HeadlineOrText)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func (p *Pipeline) order(items []domain.ScoredItem) []domain.ScoredItem {
	out := make([]domain.ScoredItem, len(items))
	copy(out, items)

	switch p.opts.SortBy {
	case SortRelevance:
	case SortScore:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SentimentScore > out[j].SentimentScore
		})
	default:
		// Newest first, undated items last.
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.HasTimestamp() != b.HasTimestamp() {
				return a.HasTimestamp()
			}
			return a.PublishedAt.After(b.PublishedAt)
		})
	}
	return out
}

func summarize(items []domain.ScoredItem) domain.Summary {
	n := len(items)
	if n == 0 {
		return domain.Summary{}
	}

	var sum float64
	var pos, neg, neu int
	for _, it := range items {
		sum += it.SentimentScore
		switch {
		case it.SentimentScore > 0:
			pos++
		case it.SentimentScore < 0:
			neg++
		default:
			neu++
		}
	}

	total := float64(n)
	return domain.Summary{
		ItemCount:   n,
		Mean:        sum / total,
		PositivePct: float64(pos) * 100 / total,
		NegativePct: float64(neg) * 100 / total,
		NeutralPct:  float64(neu) * 100 / total,
	}
}

func bucketByDate(items []domain.ScoredItem, loc *time.Location) []domain.DateBucket {
	type acc struct {
		count int
		sum   float64
	}
	byDate := make(map[string]*acc)
	for _, it := range items {
		if !it.HasTimestamp() {
			continue
		}
		d := it.PublishedAt.In(loc).Format(time.DateOnly)
		a, ok := byDate[d]
		if !ok {
			a = &acc{}
			byDate[d] = a
		}
		a.count++
		a.sum += it.SentimentScore
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	buckets := make([]domain.DateBucket, 0, len(dates))
	for _, d := range dates {
		a := byDate[d]
		buckets = append(buckets, domain.DateBucket{
			Date:          d,
			Count:         a.count,
			MeanSentiment: a.sum / float64(a.count),
		})
	}
	return buckets
}
