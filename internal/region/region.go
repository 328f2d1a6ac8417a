// Package region maps a region name or a literal path to the ordered list
// of directories a command operates on, and manages region definitions
// inside a Config.
package region

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
)

// Resolve returns the directories identifier refers to.
//
// A configured region name wins over a path of the same name. The region's
// directories are returned in insertion order as a fresh slice. Otherwise an
// existing, readable path is returned as a single absolute element.
func Resolve(identifier string, regions map[string][]string) ([]string, error) {
	if identifier == "" {
		return nil, cverrors.Validationf("target is required")
	}
	if dirs, ok := regions[identifier]; ok {
		out := make([]string, len(dirs))
		copy(out, dirs)
		return out, nil
	}

	abs, err := filepath.Abs(identifier)
	if err != nil {
		return nil, cverrors.UnknownTarget(identifier)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, cverrors.UnknownTarget(identifier)
	}
	f.Close()
	return []string{abs}, nil
}

// Define sets region name to dirs. An existing region is only replaced when
// force is set.
func Define(cfg *config.Config, name string, dirs []string, force bool) error {
	if err := checkName(name, dirs); err != nil {
		return err
	}
	if _, exists := cfg.Regions[name]; exists && !force {
		return cverrors.RegionExists(name)
	}
	clean, err := normalize(dirs)
	if err != nil {
		return err
	}
	if cfg.Regions == nil {
		cfg.Regions = make(map[string][]string)
	}
	cfg.Regions[name] = dedupe(nil, clean)
	return nil
}

// Extend appends dirs to region name, creating it when missing.
// Directories already in the region are skipped.
func Extend(cfg *config.Config, name string, dirs []string) error {
	if err := checkName(name, dirs); err != nil {
		return err
	}
	clean, err := normalize(dirs)
	if err != nil {
		return err
	}
	if cfg.Regions == nil {
		cfg.Regions = make(map[string][]string)
	}
	cfg.Regions[name] = dedupe(cfg.Regions[name], clean)
	return nil
}

// Names returns the region names sorted.
func Names(regions map[string][]string) []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkName(name string, dirs []string) error {
	if name == "" {
		return cverrors.Validationf("region name is required (use --region)")
	}
	if len(dirs) == 0 {
		return cverrors.Validationf("region %q: at least one directory is required", name)
	}
	return nil
}

// normalize makes every directory absolute and checks that it exists.
func normalize(dirs []string) ([]string, error) {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, cverrors.Validationf("directory %q: %v", d, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, cverrors.Validationf("directory %q does not exist", d)
		}
		if !info.IsDir() {
			return nil, cverrors.Validationf("%q is not a directory", d)
		}
		out = append(out, abs)
	}
	return out, nil
}

func dedupe(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, d := range existing {
		seen[d] = true
		out = append(out, d)
	}
	for _, d := range add {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Describe renders a region for listings.
func Describe(name string, dirs []string) string {
	return fmt.Sprintf("%s (%d)", name, len(dirs))
}
