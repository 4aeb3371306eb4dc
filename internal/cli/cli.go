// Package cli provides the command-line interface for mbexec.
package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/config"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/output"
	"github.com/AndreyAkinshin/mbexec/internal/runner"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return 0
		case "--version", "version":
			out.Println("mbexec %s", Version)
			return 0
		}
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	// apply is the default command
	cmd := "apply"
	var cmdArgs []string
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		cmd = remaining[0]
		cmdArgs = remaining[1:]
	} else {
		cmdArgs = remaining
	}

	switch cmd {
	case "apply":
		return cmdApply(cmdArgs, opts)
	case "inspect":
		return cmdInspect(cmdArgs, opts)
	case "targets":
		return cmdTargets(cmdArgs, opts)
	case "history":
		return cmdHistory(cmdArgs, opts)
	case "config":
		return cmdConfig(cmdArgs, opts)
	case "help":
		printUsage()
		return 0
	case "version":
		out.Println("mbexec %s", Version)
		return 0
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Errorln("run 'mbexec help' for usage")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	ConfigPath string
	Quiet      bool
	Verbose    bool
	LogFormat  string
}

// parseGlobalFlags extracts global flags from anywhere in args and returns
// the rest in order. Arguments after -- are passed through untouched.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{LogFormat: "text"}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
			i++
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
			i++
		case arg == "-c" || arg == "--config":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%s requires a value", arg)
			}
			opts.ConfigPath = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--config="):
			opts.ConfigPath = strings.TrimPrefix(arg, "--config=")
			if opts.ConfigPath == "" {
				return nil, nil, fmt.Errorf("--config requires a value")
			}
			i++
		case arg == "--log-format":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--log-format requires a value")
			}
			opts.LogFormat = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--log-format="):
			opts.LogFormat = strings.TrimPrefix(arg, "--log-format=")
			i++
		case arg == "--":
			remaining = append(remaining, args[i+1:]...)
			i = len(args)
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}
	out.SetQuiet(opts.Quiet)

	return opts, remaining, nil
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	switch opts.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --log-format value %q (valid values: text, json)", opts.LogFormat)
	}
	return nil
}

func printUsage() {
	w := out

	w.HelpTitle("mbexec - apply MBean attribute writes and operations across many hosts")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec [flags] [command] [args]")

	w.HelpSection("Commands:")
	w.HelpCommand("apply", "Apply the configured batch to every target (default)", widthCommand)
	w.HelpCommand("inspect [target]", "Show the MBean's attributes and operations on one target", widthCommand)
	w.HelpCommand("targets", "List configured targets", widthCommand)
	w.HelpCommand("history [N]", "List the N most recent journaled runs", widthCommand)
	w.HelpCommand("history show <id>", "Show one run's per-target outcomes", widthCommand)
	w.HelpCommand("config validate", "Validate the configuration file", widthCommand)
	w.HelpCommand("version", "Show version information", widthCommand)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("mbexec", "Apply mbexec.json from the current directory")
	w.HelpExample("mbexec apply --dry-run", "Resolve and coerce every request without changing anything")
	w.HelpExample("mbexec -c prod.yaml apply --target a,b", "Apply to two targets only")
	w.HelpExample("mbexec inspect web-1", "Show what the MBean on web-1 exposes")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-c, --config <path>", "Configuration file", widthFlagWithValue)
	w.HelpFlag("-q, --quiet", "Errors only", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Debug logging", widthFlagWithValue)
	w.HelpFlag("--log-format <fmt>", "Log format: text or json", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)

	w.HelpSection("Environment:")
	w.HelpEnvVar(config.ConfigEnv, "Configuration file when --config is not given", widthEnvVar)
	w.HelpEnvVar(runner.ParallelEnv, fmt.Sprintf("Override max_parallelism (%d-%d)", runner.MinParallelWorkers, runner.MaxParallelWorkers), widthEnvVar)
}
