package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/journal"
	"github.com/AndreyAkinshin/mbexec/internal/output"
)

// DefaultHistoryLimit is how many runs history lists without N.
const DefaultHistoryLimit = 10

// cmdHistory lists journaled runs, or one run's outcomes with "show <id>".
func cmdHistory(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printHistoryUsage()
		return 0
	}

	var journalPath string
	var positional []string
	for i := 0; i < len(args); {
		if v, n, ok, err := flagValue(args, i, "--journal"); ok {
			if err != nil {
				out.ErrorPrefix("history: %v", err)
				return errors.ExitConfigError
			}
			journalPath = v
			i += n
			continue
		}
		positional = append(positional, args[i])
		i++
	}

	if journalPath == "" {
		cfg, code := loadConfig(opts)
		if cfg == nil {
			return code
		}
		journalPath = cfg.Journal.Path
	}
	if journalPath == "" {
		out.ErrorPrefix("history: no journal configured (set journal.path or pass --journal)")
		return errors.ExitConfigError
	}

	store, err := journal.Open(journalPath)
	if err != nil {
		out.ErrorPrefix("history: %v", err)
		return errors.ExitEnvironmentError
	}
	defer store.Close()

	ctx := context.Background()
	if len(positional) > 0 && positional[0] == "show" {
		if len(positional) != 2 {
			out.ErrorPrefix("history show: run ID required")
			return errors.ExitConfigError
		}
		return showRun(ctx, store, positional[1])
	}

	limit := DefaultHistoryLimit
	if len(positional) > 0 {
		n, err := strconv.Atoi(positional[0])
		if err != nil || n < 1 {
			out.ErrorPrefix("history: invalid count %q", positional[0])
			return errors.ExitConfigError
		}
		limit = n
	}

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		out.ErrorPrefix("history: %v", err)
		return errors.ExitRuntimeError
	}
	if len(runs) == 0 {
		out.Info("No runs recorded in %s", journalPath)
		return 0
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		mode := "apply"
		if r.DryRun {
			mode = "dry-run"
		}
		rows[i] = []string{
			r.ID,
			r.Started.Local().Format(time.DateTime),
			mode,
			strconv.Itoa(r.Targets),
			strconv.Itoa(r.Failed),
			r.ObjectName,
		}
	}
	out.Table([]string{"ID", "STARTED", "MODE", "TARGETS", "FAILED", "MBEAN"}, rows)
	return 0
}

func showRun(ctx context.Context, store *journal.Store, runID string) int {
	outcomes, err := store.Outcomes(ctx, runID)
	if err != nil {
		out.ErrorPrefix("history: %v", err)
		return errors.ExitRuntimeError
	}
	if len(outcomes) == 0 {
		out.ErrorPrefix("history: no outcomes recorded for run %q", runID)
		return errors.ExitRuntimeError
	}

	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		status := "ok"
		if !o.OK {
			status = "failed"
		}
		rows[i] = []string{strconv.Itoa(o.Seq), o.Target, o.Address, status, output.FormatDuration(o.Duration), o.Error}
	}
	out.Table([]string{"SEQ", "TARGET", "ADDRESS", "STATUS", "DURATION", "ERROR"}, rows)
	return 0
}

// printHistoryUsage prints the help text for the history command.
func printHistoryUsage() {
	w := out

	w.HelpTitle("mbexec history - list journaled runs")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec history [N] [--journal <path>]")
	w.HelpUsage("mbexec history show <id> [--journal <path>]")

	w.HelpSection("Description:")
	w.Println("  Lists the most recent runs recorded by apply, newest first, or the")
	w.Println("  per-target outcomes of one run in completion order.")

	w.HelpSection("Options:")
	w.HelpFlag("--journal <path>", "Journal database (default: journal.path)", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("mbexec history", "Last 10 runs")
	w.HelpExample("mbexec history 3", "Last 3 runs")
	w.Println("")
}
