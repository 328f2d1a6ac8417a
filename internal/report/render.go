package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cvutie/cvutie/internal/output"
)

// Render prints the report as text: one section per directory with a line
// per case, diffs of failed cases, then the summary.
func Render(w *output.Writer, r *Report) {
	for i := range r.Directories {
		renderDirectory(w, &r.Directories[i])
	}
	RenderSummary(w, r)
}

func renderDirectory(w *output.Writer, d *DirectoryReport) {
	w.Section(d.Dir)
	if !d.Compile.OK {
		w.Println("  compile failed: %s", d.Compile.Error)
		if d.Compile.Diagnostics != "" {
			w.Println("%s", indent(d.Compile.Diagnostics, "    "))
		}
	}
	if d.Error != "" {
		w.Println("  error: %s", d.Error)
	}

	folder := ""
	for _, c := range d.Cases {
		if c.Folder != folder {
			folder = c.Folder
			w.SummarySectionLabel(folder)
		}
		reason := c.Reason
		if c.Verdict == Fail && reason == "" {
			reason = "wrong output"
		}
		w.SummaryAction(c.ID, c.Passed(), formatDuration(c.Duration), reason)
		if c.Verdict == Fail && c.Diff != "" {
			w.Println("%s", indent(c.Diff, "        "))
		}
		if c.Detail != "" {
			w.Println("%s", indent(c.Detail, "        "))
		}
	}
}

// RenderSummary prints the per-folder table and totals.
func RenderSummary(w *output.Writer, r *Report) {
	w.SummaryHeader("Test Summary")

	if folders := r.ByFolder(); len(folders) > 0 {
		rows := make([][]string, 0, len(folders))
		for _, f := range folders {
			rows = append(rows, []string{f.Folder, itoa(f.Pass), itoa(f.Fail), itoa(f.Error), itoa(f.Total)})
		}
		w.Table([]string{"FOLDER", upper(Pass), upper(Fail), upper(RunError), "TOTAL"}, rows)
		w.Println("")
	}

	t := r.Totals()
	w.SummaryPassed(Pass.Label()+"ed", itoa(t.Pass))
	if t.Fail > 0 {
		w.SummaryFailed(Fail.Label()+"ed", itoa(t.Fail))
	}
	if t.Error > 0 {
		w.SummaryFailed(RunError.Label()+"s", itoa(t.Error))
	}
	w.SummaryItem("Total", itoa(t.Total))
	if !r.Finished.IsZero() {
		w.SummaryItem("Duration", formatDuration(r.Finished.Sub(r.Started)))
	}

	if r.OK() {
		w.FinalSuccess("All %d tests passed.", t.Total)
	} else {
		w.FinalFailure("%d of %d tests did not pass.", t.NonPass(), t.Total)
	}
}

func upper(v Verdict) string {
	return strings.ToUpper(v.String())
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
