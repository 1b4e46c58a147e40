package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/sentiment"
)

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score <text...>",
		Short: "Score a piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			p := sentiment.Default().PolarityScores(text)

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Text string `json:"text"`
					sentiment.Polarity
				}{text, p})
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "compound\t%+.4f\t%s\n", p.Compound, label(p.Compound))
			fmt.Fprintf(w, "positive\t%.3f\n", p.Positive)
			fmt.Fprintf(w, "neutral\t%.3f\n", p.Neutral)
			fmt.Fprintf(w, "negative\t%.3f\n", p.Negative)
			return w.Flush()
		},
	}
}

func newCategoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and the enabled providers serving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			providers := make(map[domain.Category][]string, len(domain.Categories))
			for _, c := range domain.Categories {
				q := domain.Query{Kind: domain.KindCategory, Category: c}
				providers[c] = []string{}
				for _, src := range svc.Sources() {
					if src.Supports(q) {
						providers[c] = append(providers[c], string(src.ID()))
					}
				}
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(providers)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tPROVIDERS")
			for _, c := range domain.Categories {
				names := strings.Join(providers[c], ", ")
				if names == "" {
					names = "-"
				}
				fmt.Fprintf(w, "%s\t%s\n", c, names)
			}
			return w.Flush()
		},
	}
}
