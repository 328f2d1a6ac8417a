// Package report aggregates test-case results into a per-directory and
// per-folder test report.
package report

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Verdict is the outcome of one test case.
type Verdict int

const (
	Pass Verdict = iota
	Fail
	RunError
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "error"
	}
}

var titleCase = cases.Title(language.English)

// Label is the capitalised verdict for tables and summaries.
func (v Verdict) Label() string {
	return titleCase.String(v.String())
}

// MarshalText renders the verdict by name in JSON and YAML exports.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Reasons recorded on RunError verdicts.
const (
	ReasonCompileFailed = "compile failed"
	ReasonMalformed     = "malformed fixture"
	ReasonTimedOut      = "timed out"
	ReasonLaunchFailed  = "launch failed"
	ReasonCrashed       = "crashed"
	ReasonCanceled      = "canceled"
)

// CaseResult is the outcome of running one fixture.
type CaseResult struct {
	ID       string        `json:"id" yaml:"id"`
	Folder   string        `json:"folder" yaml:"folder"`
	Verdict  Verdict       `json:"verdict" yaml:"verdict"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Diff     string        `json:"diff,omitempty" yaml:"diff,omitempty"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Actual   []byte        `json:"-" yaml:"-"`
	Expected []byte        `json:"-" yaml:"-"`
}

// Name returns "<folder>/<id>".
func (c CaseResult) Name() string {
	return c.Folder + "/" + c.ID
}

// Passed reports whether the case passed.
func (c CaseResult) Passed() bool {
	return c.Verdict == Pass
}

// CompileSummary records the compile step of one directory.
type CompileSummary struct {
	OK          bool          `json:"ok" yaml:"ok"`
	Artifact    string        `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Diagnostics string        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// DirectoryReport holds the results for one target directory.
type DirectoryReport struct {
	Dir     string         `json:"dir" yaml:"dir"`
	Compile CompileSummary `json:"compile" yaml:"compile"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"` // directory-level failure, e.g. unreadable test folder
	Cases   []CaseResult   `json:"cases" yaml:"cases"`
}

// Add appends a case result.
func (d *DirectoryReport) Add(c CaseResult) {
	d.Cases = append(d.Cases, c)
}

// Counts tallies the directory's verdicts.
func (d *DirectoryReport) Counts() Counts {
	var c Counts
	for _, cr := range d.Cases {
		c.add(cr.Verdict)
	}
	return c
}

// OK reports whether the directory compiled, had no directory-level error
// and every case passed.
func (d *DirectoryReport) OK() bool {
	return d.Compile.OK && d.Error == "" && d.Counts().NonPass() == 0
}

// Counts tallies verdicts.
type Counts struct {
	Pass  int `json:"pass" yaml:"pass"`
	Fail  int `json:"fail" yaml:"fail"`
	Error int `json:"error" yaml:"error"`
	Total int `json:"total" yaml:"total"`
}

func (c *Counts) add(v Verdict) {
	switch v {
	case Pass:
		c.Pass++
	case Fail:
		c.Fail++
	default:
		c.Error++
	}
	c.Total++
}

// Plus returns the element-wise sum.
func (c Counts) Plus(o Counts) Counts {
	return Counts{Pass: c.Pass + o.Pass, Fail: c.Fail + o.Fail, Error: c.Error + o.Error, Total: c.Total + o.Total}
}

// NonPass returns the number of failed and errored cases.
func (c Counts) NonPass() int {
	return c.Fail + c.Error
}

// FolderCounts are the counts of one test folder across all directories.
type FolderCounts struct {
	Folder string `json:"folder" yaml:"folder"`
	Counts `yaml:",inline"`
}

// Report is the result of one test-all run.
type Report struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	Started     time.Time         `json:"started" yaml:"started"`
	Finished    time.Time         `json:"finished" yaml:"finished"`
	Directories []DirectoryReport `json:"directories" yaml:"directories"`
}

// New starts a report with a fresh run id.
func New() *Report {
	return &Report{RunID: uuid.NewString(), Started: time.Now()}
}

// Merge stores per-directory partial reports in the given order and marks
// the run finished.
func (r *Report) Merge(parts []DirectoryReport) {
	r.Directories = append(r.Directories, parts...)
	r.Finished = time.Now()
}

// Totals tallies every case of the run.
func (r *Report) Totals() Counts {
	var c Counts
	for i := range r.Directories {
		c = c.Plus(r.Directories[i].Counts())
	}
	return c
}

// ByFolder tallies cases per test folder, in order of first appearance.
func (r *Report) ByFolder() []FolderCounts {
	var out []FolderCounts
	index := make(map[string]int)
	for _, d := range r.Directories {
		for _, c := range d.Cases {
			i, ok := index[c.Folder]
			if !ok {
				i = len(out)
				index[c.Folder] = i
				out = append(out, FolderCounts{Folder: c.Folder})
			}
			out[i].add(c.Verdict)
		}
	}
	return out
}

// FailedCase is a non-passing case with its directory.
type FailedCase struct {
	Dir string
	CaseResult
}

// Failed returns every non-passing case in report order.
func (r *Report) Failed() []FailedCase {
	var out []FailedCase
	for _, d := range r.Directories {
		for _, c := range d.Cases {
			if !c.Passed() {
				out = append(out, FailedCase{Dir: d.Dir, CaseResult: c})
			}
		}
	}
	return out
}

// OK reports whether every directory compiled and every case passed.
func (r *Report) OK() bool {
	for i := range r.Directories {
		if !r.Directories[i].OK() {
			return false
		}
	}
	return true
}

// Problems counts failing cases plus directories that failed without any
// case to show for it, such as a compile failure with no fixtures.
func (r *Report) Problems() int {
	n := 0
	for i := range r.Directories {
		d := &r.Directories[i]
		nonPass := d.Counts().NonPass()
		n += nonPass
		if nonPass == 0 && !d.OK() {
			n++
		}
	}
	return n
}
