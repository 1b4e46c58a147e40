package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidQuery = errors.New("invalid query")

// QueryKind selects which shape of query descriptor is populated.
type QueryKind string

const (
	KindCategory QueryKind = "category"
	KindEntity   QueryKind = "entity"
	KindFreeText QueryKind = "free_text"
)

// Category is a fixed topic keyword.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryForex      Category = "forex"
	CategoryCrypto     Category = "crypto"
	CategoryMergers    Category = "mergers"
	CategoryMarket     Category = "market"
	CategoryEconomy    Category = "economy"
	CategoryEarnings   Category = "earnings"
	CategoryTechnology Category = "technology"
	CategoryRealEstate Category = "real_estate"
)

// Categories lists every supported category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryForex,
	CategoryCrypto,
	CategoryMergers,
	CategoryMarket,
	CategoryEconomy,
	CategoryEarnings,
	CategoryTechnology,
	CategoryRealEstate,
}

// ParseCategory accepts a category keyword case-insensitively. "merger" is
// accepted as an alias for mergers.
func ParseCategory(s string) (Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "merger" {
		return CategoryMergers, nil
	}
	for _, c := range Categories {
		if string(c) == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, s)
}

const (
	DefaultWindow     = 7 * 24 * time.Hour
	DefaultMaxResults = 20
	DefaultLanguage   = "en"
)

// Query is the descriptor handed to a source adapter.
type Query struct {
	Kind       QueryKind `json:"kind" yaml:"kind"`
	Provider   Provider  `json:"provider,omitempty" yaml:"provider"`
	Category   Category  `json:"category,omitempty" yaml:"category"`
	Symbol     string    `json:"symbol,omitempty" yaml:"symbol"`
	Text       string    `json:"text,omitempty" yaml:"text"`
	Language   string    `json:"language,omitempty" yaml:"language"`
	MaxResults int       `json:"max_results,omitempty" yaml:"max_results"`
	From       time.Time `json:"from,omitzero" yaml:"-"`
	To         time.Time `json:"to,omitzero" yaml:"-"`
}

// Normalize validates the query and fills defaults relative to now.
func (q Query) Normalize(now time.Time) (Query, error) {
	switch q.Kind {
	case KindCategory:
		c, err := ParseCategory(string(q.Category))
		if err != nil {
			return q, err
		}
		q.Category = c
		return q, nil

	case KindEntity:
		q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
		if q.Symbol == "" {
			return q, fmt.Errorf("%w: entity symbol is required", ErrInvalidQuery)
		}

	case KindFreeText:
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return q, fmt.Errorf("%w: search text is required", ErrInvalidQuery)
		}
		if q.MaxResults <= 0 {
			q.MaxResults = DefaultMaxResults
		}
		if q.Language == "" {
			q.Language = DefaultLanguage
		}

	default:
		return q, fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, q.Kind)
	}

	if q.To.IsZero() {
		q.To = now
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-DefaultWindow)
	}
	if q.From.After(q.To) {
		return q, fmt.Errorf("%w: from %s is after to %s", ErrInvalidQuery,
			q.From.Format(time.DateOnly), q.To.Format(time.DateOnly))
	}

	return q, nil
}

// String renders the query for logs.
func (q Query) String() string {
	switch q.Kind {
	case KindCategory:
		return "category:" + string(q.Category)
	case KindEntity:
		return "entity:" + q.Symbol
	case KindFreeText:
		return "search:" + q.Text
	default:
		return string(q.Kind)
	}
}
