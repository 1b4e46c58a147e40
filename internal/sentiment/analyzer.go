// Package sentiment scores text polarity with the VADER lexicon model.
//
// Scores follow the compound-polarity convention: a normalized value in
// [-1, 1] where negative is unfavorable and positive is favorable.
package sentiment

import (
	"math"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

// Polarity holds the proportions of positive, negative and neutral weight
// plus the normalized compound score.
type Polarity struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer wraps a loaded VADER model. The model is read-only after
// construction, so an Analyzer is safe for concurrent use.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

var (
	defaultOnce     sync.Once
	defaultAnalyzer *Analyzer
)

// Default returns the shared analyzer. The lexicon is loaded on first use.
func Default() *Analyzer {
	defaultOnce.Do(func() {
		defaultAnalyzer = &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
	})
	return defaultAnalyzer
}

// Score returns the compound polarity of text using the shared analyzer.
func Score(text string) float64 {
	return Default().Score(text)
}

// ScoreAny scores v when it is a string and returns 0 for anything else.
func ScoreAny(v any) float64 {
	switch s := v.(type) {
	case string:
		return Score(s)
	case *string:
		if s == nil {
			return 0
		}
		return Score(*s)
	default:
		return 0
	}
}

// Score returns the compound polarity of text in [-1, 1].
func (a *Analyzer) Score(text string) float64 {
	return a.PolarityScores(text).Compound
}

// PolarityScores computes the full polarity breakdown of text. Blank text
// scores zero across the board.
func (a *Analyzer) PolarityScores(text string) Polarity {
	if strings.TrimSpace(text) == "" {
		return Polarity{}
	}

	s := a.vader.PolarityScores(text)
	return Polarity{
		Negative: finite(s.Negative),
		Neutral:  finite(s.Neutral),
		Positive: finite(s.Positive),
		Compound: math.Max(-1, math.Min(1, finite(s.Compound))),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
