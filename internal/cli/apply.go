package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/mbexec/internal/config"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/journal"
	"github.com/AndreyAkinshin/mbexec/internal/runner"
	"github.com/AndreyAkinshin/mbexec/internal/telemetry"
)

// traceFlushTimeout bounds how long exiting waits for spans to export.
const traceFlushTimeout = 5 * time.Second

// ApplyOptions holds the apply command's flags.
type ApplyOptions struct {
	DryRun   bool
	Parallel int      // 0 means MBEXEC_PARALLEL or max_parallelism
	Targets  []string // empty means every target
	Journal  string   // overrides journal.path
}

func parseApplyFlags(args []string) (*ApplyOptions, error) {
	opts := &ApplyOptions{}
	for i := 0; i < len(args); {
		arg := args[i]
		if arg == "--dry-run" {
			opts.DryRun = true
			i++
			continue
		}
		if v, n, ok, err := flagValue(args, i, "--parallel"); ok {
			if err != nil {
				return nil, err
			}
			p, convErr := strconv.Atoi(v)
			if convErr != nil || p < runner.MinParallelWorkers || p > runner.MaxParallelWorkers {
				return nil, fmt.Errorf("invalid --parallel value %q (must be %d-%d)", v, runner.MinParallelWorkers, runner.MaxParallelWorkers)
			}
			opts.Parallel = p
			i += n
			continue
		}
		if v, n, ok, err := flagValue(args, i, "--target"); ok {
			if err != nil {
				return nil, err
			}
			opts.Targets = append(opts.Targets, splitNames(v)...)
			i += n
			continue
		}
		if v, n, ok, err := flagValue(args, i, "--journal"); ok {
			if err != nil {
				return nil, err
			}
			opts.Journal = v
			i += n
			continue
		}
		return nil, fmt.Errorf("apply: unknown argument %q", arg)
	}
	return opts, nil
}

// cmdApply applies the configured batch to the selected targets.
func cmdApply(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printApplyUsage()
		return 0
	}

	applyOpts, err := parseApplyFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	cfg, registry, code := loadRegistry(opts)
	if registry == nil {
		return code
	}
	targets, err := registry.Select(applyOpts.Targets)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	object, err := cfg.ObjectNameValue()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	workers := applyOpts.Parallel
	if workers == 0 {
		workers = runner.ParallelWorkers(cfg.MaxParallelism, out.WarningSimple)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := initLogger(opts)
	shutdown, err := telemetry.Init(ctx, cfg.Tracing, Version, func(err error) {
		logger.Warn("Trace export failed", slog.Any("error", err))
	})
	if err != nil {
		out.ErrorPrefix("tracing: %v", err)
		return errors.ExitEnvironmentError
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("Trace shutdown failed", slog.Any("error", err))
		}
	}()

	dispatcher, err := runner.NewDispatcher(workers, logger)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	pipeline := runner.NewPipeline(newConnector(cfg, logger), runner.Plan{
		Object:     object,
		Attributes: cfg.AttributeRequests(),
		Operations: cfg.OperationRequests(),
		DryRun:     applyOpts.DryRun,
	}, logger)

	if applyOpts.DryRun {
		out.DryRunStart()
	}
	logger.Info("Applying batch",
		slog.String("mbean", object.String()),
		slog.Int("targets", len(targets)),
		slog.Int("workers", dispatcher.Workers()),
		slog.Bool("dry_run", applyOpts.DryRun),
	)

	report := dispatcher.Run(ctx, targets, pipeline.Execute)

	journalPath := applyOpts.Journal
	if journalPath == "" {
		journalPath = cfg.Journal.Path
	}
	if journalPath != "" {
		if err := recordRun(ctx, journalPath, journal.NewRun(object.String(), applyOpts.DryRun, report)); err != nil {
			out.WarningSimple("journal: %v", err)
		}
	}

	printSummary(cfg, report, applyOpts.DryRun)

	for _, failure := range report.Failures() {
		out.Failure(failure)
	}
	if err := report.Err(); err != nil {
		return errors.GetExitCode(err)
	}
	return 0
}

// recordRun journals run. An interrupted run is still recorded, so the write
// ignores cancellation of ctx.
func recordRun(ctx context.Context, path string, run *journal.Run) error {
	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(context.WithoutCancel(ctx), run)
}

func printSummary(cfg *config.Config, report *runner.Report, dryRun bool) {
	if out.Quiet() {
		return
	}

	mode := "apply summary"
	if dryRun {
		mode = "dry run summary"
	}
	out.SummaryHeader(cases.Title(language.English).String(mode))
	out.SummaryItem("MBean", cfg.ObjectName)
	out.SummaryItem("Duration", formatSeconds(report.Duration()))
	out.SummaryPassed("Succeeded", strconv.Itoa(report.Succeeded()))
	if report.Failed() > 0 {
		out.SummaryFailed("Failed", strconv.Itoa(report.Failed()))
	}

	if report.Len() > 0 {
		out.Println("")
		out.SummarySectionLabel("Targets:")
		for _, o := range report.Outcomes() {
			errMsg := ""
			if o.Err != nil {
				errMsg = errors.KindOf(o.Err).String()
			}
			out.SummaryTarget(o.Target.String(), o.OK(), o.Duration, errMsg)
		}
	}

	switch {
	case report.Len() == 0:
		out.FinalSuccess("No targets selected.")
	case report.Failed() == 0:
		out.FinalSuccess("All %d target(s) succeeded.", report.Len())
	default:
		out.FinalFailure("%d of %d target(s) failed.", report.Failed(), report.Len())
	}
	if dryRun && report.Len() > 0 && report.Failed() == 0 {
		out.Hint("Run without --dry-run to apply.")
	}
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// printApplyUsage prints the help text for the apply command.
func printApplyUsage() {
	w := out

	w.HelpTitle("mbexec apply - apply the batch to every target")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec apply [options]")

	w.HelpSection("Description:")
	w.Println("  Connects to every selected target, writes the configured attributes")
	w.Println("  in one batch, then invokes the configured operations in order.")
	w.Println("  A failing target never stops the others; every failure is printed")
	w.Println("  and the exit code comes from the first one.")

	w.HelpSection("Options:")
	w.HelpFlag("--dry-run", "Resolve and coerce without writing or invoking", widthFlagWithValue)
	w.HelpFlag("--parallel <n>", "Targets processed at once (overrides config and env)", widthFlagWithValue)
	w.HelpFlag("--target <names>", "Only these targets (repeatable, comma-separated)", widthFlagWithValue)
	w.HelpFlag("--journal <path>", "Record the run in this sqlite journal", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("mbexec apply", "Apply to every configured target")
	w.HelpExample("mbexec apply --parallel 8", "Eight targets at a time")
	w.HelpExample("mbexec apply --target web-1 --target web-2", "Two targets only")
	w.Println("")
}
