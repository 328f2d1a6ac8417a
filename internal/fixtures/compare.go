package fixtures

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	cverrors "github.com/cvutie/cvutie/internal/errors"
)

// Comparator decides whether actual output matches the expected output.
// On mismatch it returns a human-readable diff.
type Comparator interface {
	Compare(expected, actual []byte) (bool, string)
}

// Exact requires byte equality after trailing newlines (\n or \r\n) are
// stripped from both sides. Whitespace inside the output is significant.
type Exact struct{}

// Compare implements Comparator.
func (Exact) Compare(expected, actual []byte) (bool, string) {
	e, a := trimTrailingNewlines(expected), trimTrailingNewlines(actual)
	if bytes.Equal(e, a) {
		return true, ""
	}
	return false, Diff(e, a)
}

// WhitespaceInsensitive compares the whitespace-separated tokens of both
// sides, so spacing, blank lines and line endings do not matter.
type WhitespaceInsensitive struct{}

// Compare implements Comparator.
func (WhitespaceInsensitive) Compare(expected, actual []byte) (bool, string) {
	e, a := bytes.Fields(expected), bytes.Fields(actual)
	if len(e) == len(a) {
		equal := true
		for i := range e {
			if !bytes.Equal(e[i], a[i]) {
				equal = false
				break
			}
		}
		if equal {
			return true, ""
		}
	}
	return false, Diff(trimTrailingNewlines(expected), trimTrailingNewlines(actual))
}

var comparators = map[string]Comparator{
	"exact":      Exact{},
	"whitespace": WhitespaceInsensitive{},
}

// ComparatorNames returns the names accepted by ComparatorByName.
func ComparatorNames() []string {
	names := make([]string, 0, len(comparators))
	for name := range comparators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComparatorByName returns the named comparator. Empty means "exact".
func ComparatorByName(name string) (Comparator, error) {
	if name == "" {
		return Exact{}, nil
	}
	c, ok := comparators[name]
	if !ok {
		return nil, cverrors.Validationf("unknown comparator %q (valid: %s)", name, strings.Join(ComparatorNames(), ", "))
	}
	return c, nil
}

// Diff renders a unified diff from expected to actual.
func Diff(expected, actual []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(string(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil || diff == "" {
		return fmt.Sprintf("expected %q, got %q", expected, actual)
	}
	return diff
}

func trimTrailingNewlines(b []byte) []byte {
	for {
		switch {
		case bytes.HasSuffix(b, []byte("\r\n")):
			b = b[:len(b)-2]
		case bytes.HasSuffix(b, []byte("\n")):
			b = b[:len(b)-1]
		default:
			return b
		}
	}
}
