package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"news_sentiment/internal/domain"
	"news_sentiment/internal/pipeline"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch content and aggregate its sentiment",
	}

	cmd.AddCommand(
		newAnalyzeCategoryCmd(opts),
		newAnalyzeEntityCmd(opts),
		newAnalyzeSearchCmd(opts),
		newAnalyzeSocialCmd(opts),
	)
	return cmd
}

func newAnalyzeCategoryCmd(opts *options) *cobra.Command {
	var provider, sortBy string

	cmd := &cobra.Command{
		Use:   "category [name]",
		Short: "Analyze the latest news of a category",
		Long:  "Analyze the latest news of a category. Categories: " + categoryList() + ".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var order pipeline.SortOrder
			if sortBy != "" {
				var err error
				if order, err = pipeline.ParseSortOrder(sortBy); err != nil {
					return err
				}
			}

			category := domain.CategoryGeneral
			if len(args) == 1 {
				category = domain.Category(args[0])
			}

			return runAnalysis(cmd, opts, domain.Query{
				Kind:     domain.KindCategory,
				Category: category,
				Provider: domain.Provider(provider),
			}, order)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider to use (finnhub, newsapi, rss)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "item order (recency, relevance, score)")
	return cmd
}

func newAnalyzeEntityCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "entity <symbol>",
		Short: "Analyze company news for a ticker symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseWindow(from, to)
			if err != nil {
				return err
			}

			return runAnalysis(cmd, opts, domain.Query{
				Kind:   domain.KindEntity,
				Symbol: args[0],
				From:   start,
				To:     end,
			}, "")
		},
	}

	addWindowFlags(cmd, &from, &to)
	return cmd
}

func newAnalyzeSearchCmd(opts *options) *cobra.Command {
	var (
		from, to, language, provider string
		maxResults                   int
	)

	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: "Analyze a full-text news search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseWindow(from, to)
			if err != nil {
				return err
			}

			return runAnalysis(cmd, opts, domain.Query{
				Kind:       domain.KindFreeText,
				Text:       strings.Join(args, " "),
				Language:   language,
				MaxResults: maxResults,
				Provider:   domain.Provider(provider),
				From:       start,
				To:         end,
			}, "")
		},
	}

	addWindowFlags(cmd, &from, &to)
	cmd.Flags().StringVar(&language, "language", domain.DefaultLanguage, "language code")
	cmd.Flags().IntVar(&maxResults, "max", domain.DefaultMaxResults, "maximum number of results")
	cmd.Flags().StringVar(&provider, "provider", "", "provider to use (newsapi, twitter)")
	return cmd
}

func newAnalyzeSocialCmd(opts *options) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "social <text...>",
		Short: "Analyze recent social posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, domain.Query{
				Kind:       domain.KindFreeText,
				Text:       strings.Join(args, " "),
				MaxResults: maxResults,
				Provider:   domain.ProviderTwitter,
			}, "")
		},
	}

	cmd.Flags().IntVar(&maxResults, "max", domain.DefaultMaxResults, "maximum number of posts")
	return cmd
}

func runAnalysis(cmd *cobra.Command, opts *options, q domain.Query, order pipeline.SortOrder) error {
	svc, err := opts.newService(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a, err := svc.Analyze(cmd.Context(), q, order)
	if err != nil {
		return err
	}

	return writeAnalysis(cmd.OutOrStdout(), opts.output, a)
}

func addWindowFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "window start (YYYY-MM-DD), default 7 days before --to")
	cmd.Flags().StringVar(to, "to", "", "window end (YYYY-MM-DD), default now")
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse(time.DateOnly, from); err != nil {
			return start, end, fmt.Errorf("%w: --from: %v", domain.ErrInvalidQuery, err)
		}
	}
	if to != "" {
		if end, err = time.Parse(time.DateOnly, to); err != nil {
			return start, end, fmt.Errorf("%w: --to: %v", domain.ErrInvalidQuery, err)
		}
		end = end.AddDate(0, 0, 1).Add(-time.Second)
	}
	return start, end, nil
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
