package domain

import (
	"sort"
	"time"
)

// Summary holds aggregate sentiment statistics over a result set.
type Summary struct {
	ItemCount   int     `json:"item_count"`
	Mean        float64 `json:"mean"`
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
}

// DateBucket is one calendar day of the volume and trend charts.
type DateBucket struct {
	Date          string  `json:"date"`
	Count         int     `json:"count"`
	MeanSentiment float64 `json:"mean_sentiment"`
}

// TermCount is one row of the term-frequency table.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ResultSet is the full output of one aggregation.
type ResultSet struct {
	Items      []ScoredItem `json:"items"`
	Summary    Summary      `json:"summary"`
	TimeSeries []DateBucket `json:"time_series"`
	TopTerms   []TermCount  `json:"top_terms"`
}

// Counts returns the per-date item counts keyed by date.
func (r ResultSet) Counts() map[string]int {
	out := make(map[string]int, len(r.TimeSeries))
	for _, b := range r.TimeSeries {
		out[b.Date] = b.Count
	}
	return out
}

// TrendPoint is one point of the sentiment-over-time chart.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// Trend returns timestamped scores in ascending time order.
func (r ResultSet) Trend() []TrendPoint {
	points := make([]TrendPoint, 0, len(r.Items))
	for _, it := range r.Items {
		if !it.HasTimestamp() {
			continue
		}
		points = append(points, TrendPoint{Timestamp: it.PublishedAt, Score: it.SentimentScore})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// Link is one entry of the "read full article" list.
type Link struct {
	Headline string  `json:"headline"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// Links returns the items that carry a URL, in result order.
func (r ResultSet) Links() []Link {
	links := make([]Link, 0, len(r.Items))
	for _, it := range r.Items {
		if it.URL == "" {
			continue
		}
		links = append(links, Link{Headline: it.HeadlineOrText, URL: it.URL, Score: it.SentimentScore})
	}
	return links
}
