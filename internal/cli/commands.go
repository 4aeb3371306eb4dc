package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/config"
	"github.com/AndreyAkinshin/mbexec/internal/connector"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/jolokia"
	"github.com/AndreyAkinshin/mbexec/internal/output"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// Help text alignment widths.
const (
	widthCommand       = 18
	widthFlagWithValue = 20
	widthFlagShort     = 16
	widthEnvVar        = 16
)

// newConnector builds the endpoint connector from configuration.
var newConnector = func(cfg *config.Config, logger *slog.Logger) connector.Connector {
	return jolokia.New(jolokia.Options{
		Scheme:             cfg.Connector.Scheme,
		Path:               cfg.Connector.Path,
		Timeout:            cfg.Connector.Timeout(),
		InsecureSkipVerify: cfg.Connector.InsecureSkipVerify,
		Logger:             logger,
	})
}

// loadConfig finds, loads and validates the configuration and prints its
// warnings. Returns the config and exit code 0, or nil and the exit code for
// the failure.
func loadConfig(opts *GlobalOptions) (*config.Config, int) {
	dir, err := os.Getwd()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.ExitEnvironmentError
	}
	path, err := config.Find(opts.ConfigPath, dir)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.GetExitCode(err)
	}

	cfg, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.WarningSimple("%s: %s", path, w)
	}
	if err != nil {
		out.ErrorPrefix("%s: %v", path, err)
		return nil, errors.GetExitCode(err)
	}
	return cfg, 0
}

// loadRegistry loads the configuration and builds its target registry.
func loadRegistry(opts *GlobalOptions) (*config.Config, *target.Registry, int) {
	cfg, code := loadConfig(opts)
	if cfg == nil {
		return nil, nil, code
	}
	registry, err := target.NewRegistry(cfg)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, nil, errors.GetExitCode(err)
	}
	return cfg, registry, 0
}

// splitNames splits comma-separated names and drops empty entries.
func splitNames(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// flagValue returns the value of a "--name value" or "--name=value" flag at
// args[i] and how many arguments it consumed. ok is false when args[i] is not
// the flag.
func flagValue(args []string, i int, name string) (value string, consumed int, ok bool, err error) {
	arg := args[i]
	if arg == name {
		if i+1 >= len(args) {
			return "", 0, true, fmt.Errorf("%s requires a value", name)
		}
		return args[i+1], 2, true, nil
	}
	if v, found := strings.CutPrefix(arg, name+"="); found {
		return v, 1, true, nil
	}
	return "", 0, false, nil
}

// cmdTargets lists all configured targets.
func cmdTargets(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printTargetsUsage()
		return 0
	}
	if len(args) > 0 {
		out.ErrorPrefix("targets: unexpected argument %q", args[0])
		return errors.ExitConfigError
	}

	_, registry, code := loadRegistry(opts)
	if registry == nil {
		return code
	}

	for _, t := range registry.All() {
		out.TargetInfo(t.Name, t.Address())
		if t.HasCredentials() {
			out.TargetDetail("user", t.Credentials.User)
		}
	}
	return 0
}

// cmdConfig handles configuration utilities.
func cmdConfig(args []string, opts *GlobalOptions) int {
	if len(args) == 0 {
		out.ErrorPrefix("config: subcommand required (validate)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "validate":
		if wantsHelp(args[1:]) {
			printConfigUsage()
			return 0
		}
		return cmdConfigValidate(opts)
	case "-h", "--help":
		printConfigUsage()
		return 0
	default:
		out.ErrorPrefix("config: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

func cmdConfigValidate(opts *GlobalOptions) int {
	cfg, registry, code := loadRegistry(opts)
	if registry == nil {
		return code
	}

	out.ValidationSuccess("Configuration is valid.")
	out.SummaryItem("MBean", cfg.ObjectName)
	out.SummaryItem("Servers", strconv.Itoa(registry.Len()))
	out.SummaryItem("Attributes", strconv.Itoa(len(cfg.Attributes)))
	out.SummaryItem("Operations", strconv.Itoa(len(cfg.Operations)))
	out.SummaryItem("Max parallelism", strconv.Itoa(cfg.MaxParallelism))
	if cfg.Journal.Path != "" {
		out.SummaryItem("Journal", cfg.Journal.Path)
	}
	return 0
}

// printTargetsUsage prints the help text for the targets command.
func printTargetsUsage() {
	w := out

	w.HelpTitle("mbexec targets - list configured targets")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec targets")

	w.HelpSection("Description:")
	w.Println("  Lists the configured servers in configuration order with their")
	w.Println("  address and user name.")

	w.HelpSection("Options:")
	w.HelpFlag("-h, --help", "Show this help", widthFlagShort)
	w.Println("")
}

// printConfigUsage prints the help text for the config command.
func printConfigUsage() {
	w := out

	w.HelpTitle("mbexec config - configuration utilities")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec config <subcommand>")

	w.HelpSection("Subcommands:")
	w.HelpCommand("validate", "Check the file against the schema and validate its values", widthFlagShort)

	w.HelpSection("Options:")
	w.HelpFlag("-h, --help", "Show this help", widthFlagShort)

	w.HelpSection("Examples:")
	w.HelpExample("mbexec config validate", "Validate ./mbexec.json")
	w.HelpExample("mbexec -c prod.yaml config validate", "Validate another file")
	w.Println("")
}
