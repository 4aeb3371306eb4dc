// Package runner fans per-target work out across a bounded pool of workers
// and collects every target's outcome into a report.
package runner

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

const (
	// MinParallelWorkers is the smallest accepted concurrency.
	MinParallelWorkers = 1

	// MaxParallelWorkers caps MBEXEC_PARALLEL and max_parallelism.
	MaxParallelWorkers = 256

	// ParallelEnv overrides the configured concurrency.
	ParallelEnv = "MBEXEC_PARALLEL"
)

// Work is the unit of work run once per target.
type Work func(ctx context.Context, t target.Target) error

// Dispatcher runs Work across targets with bounded concurrency.
type Dispatcher struct {
	workers int
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher running at most maxConcurrency targets at once.
func NewDispatcher(maxConcurrency int, logger *slog.Logger) (*Dispatcher, error) {
	if maxConcurrency < MinParallelWorkers {
		return nil, errors.Configf("max parallelism must be at least %d, got %d", MinParallelWorkers, maxConcurrency)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{workers: maxConcurrency, logger: logger}, nil
}

// Workers returns the configured concurrency.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Run executes work once per target and waits for all of them.
//
// Targets are handed to min(maxConcurrency, len(targets)) workers in
// submission order. A failing or panicking target never stops the others;
// its error is tagged with the target label and recorded in the report.
// With a single worker, outcomes appear in submission order.
func (d *Dispatcher) Run(ctx context.Context, targets []target.Target, work Work) *Report {
	report := newReport()
	defer report.finish()
	if len(targets) == 0 {
		return report
	}

	workers := min(d.workers, len(targets))
	d.logger.DebugContext(ctx, "Dispatching targets",
		slog.Int("targets", len(targets)),
		slog.Int("workers", workers),
	)

	jobs := make(chan target.Target)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				report.record(d.runOne(ctx, t, work))
			}
		}()
	}

	for _, t := range targets {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return report
}

func (d *Dispatcher) runOne(ctx context.Context, t target.Target, work Work) (o Outcome) {
	o.Target = t
	start := time.Now()
	logger := d.logger.With(slog.String("target", t.Label()))

	defer func() {
		if r := recover(); r != nil {
			o.Err = errors.TargetFailure(t.Label(), errors.Newf("panic: %v", r))
		}
		o.Duration = time.Since(start)
		if o.Err != nil {
			logger.ErrorContext(ctx, "Target failed",
				slog.Duration("duration", o.Duration),
				slog.Any("error", o.Err),
			)
			return
		}
		logger.InfoContext(ctx, "Target finished",
			slog.Duration("duration", o.Duration),
		)
	}()

	if err := work(ctx, t); err != nil {
		o.Err = errors.TargetFailure(t.Label(), err)
	}
	return o
}

// ParallelWorkers returns the concurrency to use: MBEXEC_PARALLEL when it is
// set and valid, otherwise configured. Invalid MBEXEC_PARALLEL values
// (non-numeric, <1, >256) are reported through warn and ignored.
func ParallelWorkers(configured int, warn func(format string, args ...interface{})) int {
	env := os.Getenv(ParallelEnv)
	if env == "" {
		return configured
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		warn("invalid %s value %q (not a number), using %d", ParallelEnv, env, configured)
		return configured
	}

	if n < MinParallelWorkers || n > MaxParallelWorkers {
		warn("%s=%d out of range [%d-%d], using %d", ParallelEnv, n, MinParallelWorkers, MaxParallelWorkers, configured)
		return configured
	}

	return n
}
