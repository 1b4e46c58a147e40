package domain

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one completed fetch-and-aggregate cycle.
type Analysis struct {
	ID        uuid.UUID     `json:"id"`
	Query     Query         `json:"query"`
	Provider  Provider      `json:"provider"`
	Fetched   int           `json:"fetched"`
	Result    ResultSet     `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// AnalysisRecord is the persisted header of an analysis, without its items.
type AnalysisRecord struct {
	ID        uuid.UUID     `json:"id"`
	Query     Query         `json:"query"`
	Provider  Provider      `json:"provider"`
	Fetched   int           `json:"fetched"`
	Summary   Summary       `json:"summary"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// RunStats holds statistics about one watchlist run.
type RunStats struct {
	Queries   int
	Succeeded int
	Failed    int
	Items     int
	Persisted int
	Published int
	Errors    int
	Duration  time.Duration
}
