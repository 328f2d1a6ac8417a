package report

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/filelock"
)

// Format is a machine-readable export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the export format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", cverrors.Validationf("report file %q: extension must be .json, .yaml or .yml", path)
	}
}

// Marshal encodes the report in the given format.
func Marshal(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(r)
	default:
		return nil, cverrors.Validationf("unknown report format %q", format)
	}
}

// Export writes the report to path atomically, in the format its extension names.
func Export(r *Report, path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Marshal(r, format)
	if err != nil {
		return cverrors.Wrap(err, "encoding report")
	}
	if err := filelock.AtomicWrite(path, data, 0644); err != nil {
		return cverrors.Wrap(err, "writing report "+path)
	}
	return nil
}
