package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"news_sentiment/internal/domain"
)

// Runner defines the interface for one watchlist run.
type Runner interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

type Scheduler struct {
	runner  Runner
	spec    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewScheduler(runner Runner, spec string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		spec:    spec,
		timeout: timeout,
		logger:  logger.With("component", "scheduler"),
	}
}

// Start runs once immediately, then on every tick of the cron spec until ctx
// is cancelled. A tick that fires while a run is in flight is skipped.
// Start returns only after every in-flight run has finished.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := cronLogger{s.logger}

	// The initial run and cron ticks share one wrapped job so they never overlap.
	run := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		s.runOnce(ctx)
	}))

	c := cron.New(cron.WithLogger(logger))
	if _, err := c.AddJob(s.spec, run); err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}

	s.logger.Info("scheduler started", "spec", s.spec, "timeout", s.timeout)

	initial := make(chan struct{})
	go func() {
		defer close(initial)
		run.Run()
	}()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	<-initial
	s.logger.Info("scheduler stopped")

	return ctx.Err()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.runner.Run(runCtx); err != nil {
		s.logger.Error("watchlist run failed", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
