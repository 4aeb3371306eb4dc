package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestWriter creates a Writer with captured output for testing.
func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return NewWithWriters(stdout, stderr, false), stdout, stderr
}

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.out == nil || w.err == nil {
		t.Error("New() left a nil writer")
	}
}

func TestWriter_SetQuiet(t *testing.T) {
	w, _, _ := newTestWriter()

	w.SetQuiet(true)
	if !w.Quiet() {
		t.Error("SetQuiet(true) did not set quiet")
	}
	w.SetQuiet(false)
	if w.Quiet() {
		t.Error("SetQuiet(false) did not unset quiet")
	}
}

func TestWriter_Println(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Println("hello %s", "world")

	if got := stdout.String(); got != "hello world\n" {
		t.Errorf("Println() = %q, want %q", got, "hello world\n")
	}
}

func TestWriter_Info(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		expect string
	}{
		{"normal mode", false, "info message\n"},
		{"quiet mode", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.SetQuiet(tt.quiet)

			w.Info("info %s", "message")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Info() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_ErrorPrefix(t *testing.T) {
	tests := []struct {
		name   string
		color  bool
		expect string
	}{
		{"without color", false, "mbexec: bad config\n"},
		{"with color", true, "\033[31mmbexec:\033[0m bad config\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, stderr := newTestWriter()
			w.color = tt.color

			w.ErrorPrefix("bad %s", "config")

			if got := stderr.String(); got != tt.expect {
				t.Errorf("ErrorPrefix() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_WarningSimple(t *testing.T) {
	w, stdout, stderr := newTestWriter()

	w.WarningSimple("unknown field %q", "x")

	if got := stderr.String(); got != "warning: unknown field \"x\"\n" {
		t.Errorf("WarningSimple() = %q", got)
	}
	if stdout.Len() != 0 {
		t.Error("WarningSimple() should not write to stdout")
	}
}

func TestWriter_Failure(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Failure(errors.New("[h1] execution failed: refused"))

	if got := stderr.String(); got != "[h1] execution failed: refused\n" {
		t.Errorf("Failure() = %q", got)
	}
}

func TestWriter_Section(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		color  bool
		expect string
	}{
		{"normal without color", false, false, "\n=== Attributes ===\n"},
		{"normal with color", false, true, "\n\033[1m=== Attributes ===\033[0m\n"},
		{"quiet mode", true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.SetQuiet(tt.quiet)
			w.color = tt.color

			w.Section("Attributes")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Section() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_Table(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"NAME", "TYPE"}, [][]string{
		{"MaxSize", "int"},
		{"Enabled", "boolean"},
	})

	want := "NAME     TYPE\n" +
		"-------  -------\n" +
		"MaxSize  int\n" +
		"Enabled  boolean\n"
	if got := stdout.String(); got != want {
		t.Errorf("Table() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriter_Table_RowShorterThanHeaders(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"A", "B", "C"}, [][]string{{"1", "2"}})

	if !strings.Contains(stdout.String(), "1  2") {
		t.Errorf("Table() = %q, should handle short rows", stdout.String())
	}
}

func TestWriter_HelpCommand(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.HelpCommand("apply", "Apply the batch", 8)

	if got := stdout.String(); got != "  apply     Apply the batch\n" {
		t.Errorf("HelpCommand() = %q", got)
	}
}

func TestWriter_SummaryTarget(t *testing.T) {
	tests := []struct {
		name     string
		success  bool
		errMsg   string
		contains []string
	}{
		{"success", true, "", []string{"+ h1", "250ms"}},
		{"failure", false, "refused", []string{"x h1", "(refused)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()

			w.SummaryTarget("h1", tt.success, 250*time.Millisecond, tt.errMsg)

			got := stdout.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("SummaryTarget() = %q, want it to contain %q", got, want)
				}
			}
			if !strings.HasSuffix(got, "\n") {
				t.Errorf("SummaryTarget() = %q, want trailing newline", got)
			}
		})
	}
}

func TestWriter_DryRunStart_Quiet(t *testing.T) {
	w, stdout, _ := newTestWriter()
	w.SetQuiet(true)

	w.DryRunStart()

	if stdout.Len() != 0 {
		t.Errorf("DryRunStart() in quiet mode = %q", stdout.String())
	}
}

func TestWriter_Hint(t *testing.T) {
	w, stdout, stderr := newTestWriter()
	w.Hint("Run without %s to apply.", "--dry-run")
	if got := stdout.String(); got != "Run without --dry-run to apply.\n" {
		t.Errorf("Hint() stdout = %q", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("Hint() wrote to stderr: %q", stderr.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{1234567 * time.Microsecond, "1.2s"},
		{125 * time.Second, "2m5s"},
		{0, "0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColorPlaceholders(t *testing.T) {
	w, _, _ := newTestWriter()

	got := w.colorPlaceholders("inspect [target]")
	want := "inspect " + reset + colorPlaceholder + "[target]" + reset
	if got != want {
		t.Errorf("colorPlaceholders() = %q, want %q", got, want)
	}

	if got := w.colorPlaceholders("no <close"); got != "no <close" {
		t.Errorf("colorPlaceholders() = %q, want unchanged", got)
	}
}
