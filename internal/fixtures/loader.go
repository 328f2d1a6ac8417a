package fixtures

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cverrors "github.com/cvutie/cvutie/internal/errors"
)

// Discover enumerates the fixtures of targetDir, folder by folder in the
// given order and by stem within a folder.
//
// The sequence is lazy: folders are listed and files read only as the
// consumer pulls. Ranging over it again re-reads the disk. Missing folders
// are skipped. An input without its expected output yields a
// MalformedFixture error for that stem; an expected output without an input
// is a fixture with empty input. Unrelated files are ignored and
// subdirectories are not descended into.
func Discover(targetDir string, folders []string, naming Naming) iter.Seq2[Fixture, error] {
	return func(yield func(Fixture, error) bool) {
		for _, folder := range folders {
			if !discoverFolder(targetDir, folder, naming, yield) {
				return
			}
		}
	}
}

type pair struct {
	input, expected string
}

func discoverFolder(targetDir, folder string, naming Naming, yield func(Fixture, error) bool) bool {
	dir := filepath.Join(targetDir, folder)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return true
	}
	if err != nil {
		return yield(Fixture{Folder: folder, Dir: targetDir}, cverrors.Wrap(err, "cannot read test folder "+dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(Fixture{Folder: folder, Dir: targetDir}, cverrors.Wrap(err, "cannot read test folder "+dir))
	}

	pairs := make(map[string]*pair)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		stem, isInput, ok := naming.classify(e.Name())
		if !ok {
			continue
		}
		p := pairs[stem]
		if p == nil {
			p = &pair{}
			pairs[stem] = p
		}
		path := filepath.Join(dir, e.Name())
		if isInput {
			p.input = path
		} else {
			p.expected = path
		}
	}

	stems := make([]string, 0, len(pairs))
	for stem := range pairs {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		if !yield(load(targetDir, folder, stem, pairs[stem])) {
			return false
		}
	}
	return true
}

// classify reports whether name is an input or an expected-output file and
// returns its stem. The longer suffix is tried first so that one suffix
// ending the other cannot steal its files.
func (n Naming) classify(name string) (stem string, isInput, ok bool) {
	type candidate struct {
		suffix string
		input  bool
	}
	cands := []candidate{{n.InputSuffix, true}, {n.OutputSuffix, false}}
	if len(n.OutputSuffix) > len(n.InputSuffix) {
		cands[0], cands[1] = cands[1], cands[0]
	}
	for _, c := range cands {
		if c.suffix == "" || !strings.HasSuffix(name, c.suffix) {
			continue
		}
		stem = strings.TrimSuffix(name, c.suffix)
		if stem == "" {
			return "", false, false
		}
		return stem, c.input, true
	}
	return "", false, false
}

func load(targetDir, folder, stem string, p *pair) (Fixture, error) {
	f := Fixture{
		ID:           stem,
		Folder:       folder,
		Dir:          targetDir,
		InputPath:    p.input,
		ExpectedPath: p.expected,
	}
	if p.expected == "" {
		return f, cverrors.MalformedFixture(p.input, "input has no matching expected-output file")
	}
	if p.input != "" {
		data, err := os.ReadFile(p.input)
		if err != nil {
			return f, cverrors.MalformedFixture(p.input, "cannot read input: "+err.Error())
		}
		f.Input = data
	}
	data, err := os.ReadFile(p.expected)
	if err != nil {
		return f, cverrors.MalformedFixture(p.expected, "cannot read expected output: "+err.Error())
	}
	f.Expected = data
	return f, nil
}

// Collect drains seq into fixtures and the errors met along the way.
func Collect(seq iter.Seq2[Fixture, error]) ([]Fixture, []error) {
	var fixtures []Fixture
	var errs []error
	for f, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, errs
}
