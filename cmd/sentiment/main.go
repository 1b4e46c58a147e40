// Command sentiment runs one-off sentiment analyses from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"news_sentiment/internal/app"
	"news_sentiment/internal/config"
	"news_sentiment/internal/logging"
	"news_sentiment/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sentiment",
		Short:         "Sentiment analysis over financial news and social posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputTable, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q", opts.output)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format (table, json)")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newCategoriesCmd(opts))

	return root
}

// newService loads configuration and builds an analysis service without
// history or event publishing. Logs go to stderr so stdout stays parseable.
func (o *options) newService(stderr io.Writer) (*service.AnalysisService, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger := logging.NewWithWriter(stderr, level)

	sources, err := app.Sources(cfg.Providers, logger)
	if err != nil {
		return nil, err
	}

	return service.NewAnalysisService(sources, nil, nil, nil, logger, cfg.Analysis)
}
