package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"news_sentiment/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	maxHeadline = 80
)

func writeAnalysis(out io.Writer, format string, a *domain.Analysis) error {
	if format == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*domain.Analysis
			Trend []domain.TrendPoint `json:"trend"`
			Links []domain.Link       `json:"links"`
		}{a, a.Result.Trend(), a.Result.Links()})
	}

	sum := a.Result.Summary
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "query\t%s\n", a.Query)
	fmt.Fprintf(w, "provider\t%s\n", a.Provider)
	fmt.Fprintf(w, "items\t%d (fetched %d)\n", sum.ItemCount, a.Fetched)
	fmt.Fprintf(w, "mean sentiment\t%+.4f\t%s\n", sum.Mean, label(sum.Mean))
	fmt.Fprintf(w, "positive / negative / neutral\t%.1f%% / %.1f%% / %.1f%%\n",
		sum.PositivePct, sum.NegativePct, sum.NeutralPct)

	if len(a.Result.Items) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PUBLISHED\tSCORE\tSOURCE\tHEADLINE")
		for _, it := range a.Result.Items {
			published := "-"
			if it.HasTimestamp() {
				published = it.PublishedAt.Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%+.4f\t%s\t%s\n", published, it.SentimentScore, orDash(it.SourceName), truncate(it.HeadlineOrText, maxHeadline))
		}
	}

	if len(a.Result.TimeSeries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DATE\tCOUNT\tMEAN")
		for _, b := range a.Result.TimeSeries {
			fmt.Fprintf(w, "%s\t%d\t%+.4f\n", b.Date, b.Count, b.MeanSentiment)
		}
	}

	if len(a.Result.TopTerms) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "TERM\tCOUNT")
		for _, t := range a.Result.TopTerms {
			fmt.Fprintf(w, "%s\t%d\n", t.Term, t.Count)
		}
	}

	return w.Flush()
}

func label(score float64) string {
	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
