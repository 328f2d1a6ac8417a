// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Writer handles CLI output formatting. It is safe for concurrent use so
// that parallel test workers can report progress through one Writer.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	err     io.Writer
	color   bool
	quiet   bool
	verbose bool
	pal     palette
}

type palette struct {
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		green:  mk(color.FgGreen),
		red:    mk(color.FgRed),
		yellow: mk(color.FgYellow),
		cyan:   mk(color.FgCyan, color.Bold),
		bold:   mk(color.Bold),
		dim:    mk(color.Faint),
	}
}

// New creates a new Writer with default settings.
func New() *Writer {
	return NewWithWriters(os.Stdout, os.Stderr, ColorEnabled(os.Stdout))
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, useColor bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: useColor,
		pal:   newPalette(useColor),
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetVerbose enables or disables debug output.
func (w *Writer) SetVerbose(verbose bool) {
	w.verbose = verbose
}

// Verbose reports whether debug output is enabled.
func (w *Writer) Verbose() bool {
	return w.verbose
}

// Out returns the underlying stdout writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Err returns the underlying stderr writer.
func (w *Writer) Err() io.Writer {
	return w.err
}

// Print writes to stdout.
func (w *Writer) Print(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	w.Print(format+"\n", args...)
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.err, format, args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	w.Error(format+"\n", args...)
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Debug prints a diagnostic line to stderr in verbose mode only.
func (w *Writer) Debug(format string, args ...interface{}) {
	if !w.verbose {
		return
	}
	w.Errorln("%s", w.pal.dim.Sprintf("debug: "+format, args...))
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s", w.pal.green.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Errorln("%s", w.pal.yellow.Sprintf("warning: "+format, args...))
}

// ErrorPrefix prints an error message with cvutie prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.pal.red.Sprint("cvutie:"), fmt.Sprintf(format, args...))
}

// Diagnostics prints captured tool output to stderr, indented, verbatim.
func (w *Writer) Diagnostics(text string) {
	if text == "" {
		return
	}
	text = strings.TrimRight(text, "\n")
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("  │ ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	w.Error("%s", b.String())
}

// TargetStart prints the start of a target command with enhanced visibility.
func (w *Writer) TargetStart(target, command string) {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println("%s", w.pal.cyan.Sprintf("─── [%s] %s ───", target, command))
}

// TargetSuccess prints target command success.
func (w *Writer) TargetSuccess(target, command string) {
	if w.quiet {
		return
	}
	if w.color {
		w.Println("%s %s %s", w.pal.green.Sprintf("[%s]", target), command, w.pal.green.Sprint("✓"))
	} else {
		w.Println("[%s] %s done", target, command)
	}
}

// TargetFailed prints target command failure.
func (w *Writer) TargetFailed(target, command string, err error) {
	w.Errorln("%s %v", w.pal.red.Sprintf("[%s] %s failed:", target, command), err)
}

// Section prints a section header.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println("%s", w.pal.bold.Sprintf("=== %s ===", title))
}

// Table prints a simple table.
func (w *Writer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, 0, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts = append(parts, fmt.Sprintf("%-*s", widths[i], cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	w.Println("%s", format(headers))
	seps := make([]string, len(widths))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	w.Println("%s", format(seps))
	for _, row := range rows {
		w.Println("%s", format(row))
	}
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.pal.cyan.Sprintf("=== %s ===", title))
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	w.Println("  %s %s", w.pal.dim.Sprint(label+":"), value)
}

// SummaryPassed prints a passed/success items summary.
func (w *Writer) SummaryPassed(label, value string) {
	w.Println("  %s %s", w.pal.dim.Sprint(label+":"), w.pal.green.Sprint(value))
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	w.Println("  %s %s", w.pal.dim.Sprint(label+":"), w.pal.red.Sprint(value))
}

// SummarySectionLabel prints a label for a summary section.
func (w *Writer) SummarySectionLabel(label string) {
	w.Println("  %s", w.pal.dim.Sprint(label))
}

// SummaryAction prints an item with status indicator, name, duration, and optional error.
// Used for per-fixture lines in test reports.
func (w *Writer) SummaryAction(name string, success bool, duration string, errMsg string) {
	var line string
	switch {
	case success && w.color:
		line = fmt.Sprintf("    %s %-16s %s", w.pal.green.Sprint("✓"), name, w.pal.dim.Sprint(duration))
	case success:
		line = fmt.Sprintf("    + %-16s %s", name, duration)
	case w.color:
		line = fmt.Sprintf("    %s %-16s %s", w.pal.red.Sprint("✗"), name, w.pal.dim.Sprint(duration))
	default:
		line = fmt.Sprintf("    x %-16s %s", name, duration)
	}
	if !success && errMsg != "" {
		line += "  " + w.pal.dim.Sprintf("(%s)", errMsg)
	}
	w.Println("%s", line)
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.pal.green.Sprintf(format, args...))
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.pal.red.Sprintf(format, args...))
}

// Hint prints a hint message for the user.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.pal.dim.Sprintf(format, args...))
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
