// Package fixtures discovers input/expected-output pairs under a target
// directory and compares actual program output against them.
package fixtures

import "github.com/cvutie/cvutie/internal/config"

// Naming is the file naming convention pairing inputs with expected outputs:
// "<stem><InputSuffix>" and "<stem><OutputSuffix>".
type Naming struct {
	InputSuffix  string
	OutputSuffix string
}

// DefaultNaming matches the sample data shipped with PA1 assignments
// (0000_in.txt, 0000_out.txt).
var DefaultNaming = Naming{
	InputSuffix:  config.DefaultInputSuffix,
	OutputSuffix: config.DefaultOutputSuffix,
}

// NamingFrom extracts the naming convention from cfg.
func NamingFrom(cfg *config.Config) Naming {
	return Naming{InputSuffix: cfg.InputSuffix, OutputSuffix: cfg.OutputSuffix}
}

// Fixture is one test case.
type Fixture struct {
	ID           string // file stem, e.g. "0003"
	Folder       string // test folder name, e.g. "CZE"
	Dir          string // target directory the folder lives in
	InputPath    string // empty when the fixture has no input file
	ExpectedPath string
	Input        []byte
	Expected     []byte
}

// Name returns "<folder>/<id>" for listings.
func (f Fixture) Name() string {
	return f.Folder + "/" + f.ID
}
