package cli

import (
	"context"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/coerce"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// cmdInspect connects to one target and prints what the MBean exposes.
func cmdInspect(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printInspectUsage()
		return 0
	}
	if len(args) > 1 {
		out.ErrorPrefix("inspect: expected at most one target, got %d", len(args))
		return errors.ExitConfigError
	}

	cfg, registry, code := loadRegistry(opts)
	if registry == nil {
		return code
	}

	var t target.Target
	if len(args) == 1 {
		selected, err := registry.Select(args)
		if err != nil {
			out.ErrorPrefix("%v", err)
			return errors.GetExitCode(err)
		}
		t = selected[0]
	} else {
		t = registry.All()[0]
	}

	object, err := cfg.ObjectNameValue()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	ctx := context.Background()
	conn, err := newConnector(cfg, initLogger(opts)).Connect(ctx, t)
	if err != nil {
		out.Failure(errors.TargetFailure(t.Label(), err))
		return errors.GetExitCode(err)
	}
	defer conn.Close()

	schema, err := conn.Introspect(ctx, object)
	if err != nil {
		out.Failure(errors.TargetFailure(t.Label(), err))
		return errors.GetExitCode(err)
	}

	printSchema(t, object, schema)
	return 0
}

func printSchema(t target.Target, object mbean.ObjectName, schema *mbean.Schema) {
	index := mbean.BuildIndex(schema)

	out.TargetInfo(t.Name, t.Address())
	out.TargetDetail("mbean", object.String())
	if schema.ClassName != "" {
		out.TargetDetail("class", schema.ClassName)
	}

	out.Section("Attributes")
	rows := make([][]string, 0, len(schema.Attributes))
	for _, name := range index.AttributeNames() {
		a, _ := index.Attribute(name)
		rows = append(rows, []string{a.Name, a.Type, access(a), yesNo(coerce.Supported(a.Type))})
	}
	out.Table([]string{"NAME", "TYPE", "ACCESS", "SETTABLE"}, rows)

	out.Section("Operations")
	rows = rows[:0]
	for _, name := range index.OperationNames() {
		for _, op := range index.Overloads(name) {
			rows = append(rows, []string{op.Signature(), op.ReturnType, yesNo(allSupported(op.ParameterTypes()))})
		}
	}
	out.Table([]string{"SIGNATURE", "RETURNS", "INVOKABLE"}, rows)
}

func access(a mbean.AttributeDescriptor) string {
	var b strings.Builder
	if a.Readable {
		b.WriteByte('r')
	}
	if a.Writable {
		b.WriteByte('w')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func allSupported(types []string) bool {
	for _, t := range types {
		if !coerce.Supported(t) {
			return false
		}
	}
	return true
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printInspectUsage prints the help text for the inspect command.
func printInspectUsage() {
	w := out

	w.HelpTitle("mbexec inspect - show the MBean's attributes and operations")

	w.HelpSection("Usage:")
	w.HelpUsage("mbexec inspect [target]")

	w.HelpSection("Description:")
	w.Println("  Connects to one target (the first configured one by default) and")
	w.Println("  lists the configured MBean's attributes and operation overloads.")
	w.Println("  SETTABLE and INVOKABLE tell whether mbexec can convert values for them.")

	w.HelpSection("Arguments:")
	w.HelpFlag("[target]", "Target name (optional)", widthFlagShort)

	w.HelpSection("Examples:")
	w.HelpExample("mbexec inspect", "Inspect the first target")
	w.HelpExample("mbexec inspect web-1", "Inspect web-1")
	w.Println("")
}
