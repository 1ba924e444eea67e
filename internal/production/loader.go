package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown document format %q", filepath.Ext(path))
}

// DecodeDefinition reads a machine document. Unknown fields are rejected.
// The result is validated when compiled, not here.
func DecodeDefinition(r io.Reader, format Format) (primitives.MachineConfig, error) {
	var cfg primitives.MachineConfig
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("yaml decode: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("json decode: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unknown document format %q", format)
	}
	return cfg, nil
}

// LoadFile decodes the machine document at path.
func LoadFile(path string) (primitives.MachineConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return primitives.MachineConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return primitives.MachineConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := DecodeDefinition(bytes.NewReader(data), format)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefinition decodes and compiles the document at path, binding string
// references through binder.
func LoadDefinition(path string, binder core.Binder) (*core.Definition, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := core.Compile(cfg, binder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
