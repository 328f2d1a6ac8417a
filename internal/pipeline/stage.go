// Package pipeline chains internal subcommands and external programs,
// feeding each stage's stdout to the next stage's stdin.
package pipeline

import (
	"strings"

	"github.com/kballard/go-shellquote"

	cverrors "github.com/cvutie/cvutie/internal/errors"
)

// Kind tells internal subcommands from external programs.
type Kind int

const (
	Internal Kind = iota
	External
)

func (k Kind) String() string {
	if k == Internal {
		return "internal"
	}
	return "external"
}

// Internal subcommand names usable as stages.
const (
	CmdCompile = "compile"
	CmdExecute = "execute"
	CmdTestAll = "test-all"
)

// IsInternal reports whether name is an internal subcommand.
func IsInternal(name string) bool {
	switch name {
	case CmdCompile, CmdExecute, CmdTestAll:
		return true
	}
	return false
}

// Stage is one step of a pipeline.
type Stage struct {
	Kind Kind
	Name string // subcommand or executable
	Args []string
}

// String renders the stage as a command line.
func (s Stage) String() string {
	return shellquote.Join(append([]string{s.Name}, s.Args...)...)
}

// Parse turns command strings into stages.
//
// A command that is exactly the name of a preset expands to the preset's
// commands; presets may not refer to other presets. The first word of each
// command picks an internal subcommand, anything else runs as a program.
func Parse(commands []string, presets map[string][]string) ([]Stage, error) {
	if len(commands) == 0 {
		return nil, cverrors.Validationf("pipeline needs at least one command")
	}
	var stages []Stage
	for _, cmd := range commands {
		name := strings.TrimSpace(cmd)
		if preset, ok := presets[name]; ok && !IsInternal(name) {
			if len(preset) == 0 {
				return nil, cverrors.Validationf("pipe preset %q is empty", name)
			}
			for _, inner := range preset {
				if _, nested := presets[strings.TrimSpace(inner)]; nested {
					return nil, cverrors.Validationf("pipe preset %q refers to preset %q; presets cannot be nested", name, strings.TrimSpace(inner))
				}
				st, err := parseOne(inner)
				if err != nil {
					return nil, err
				}
				stages = append(stages, st)
			}
			continue
		}
		st, err := parseOne(cmd)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func parseOne(cmd string) (Stage, error) {
	// Quoting and escapes follow sh; no expansion is performed.
	words, err := shellquote.Split(cmd)
	if err != nil {
		return Stage{}, cverrors.Validationf("command %q: %v", cmd, err)
	}
	if len(words) == 0 {
		return Stage{}, cverrors.Validationf("empty command in pipeline")
	}
	kind := External
	if IsInternal(words[0]) {
		kind = Internal
	}
	return Stage{Kind: kind, Name: words[0], Args: words[1:]}, nil
}
