package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/organigram/pkg/errors"
)

// Format is a chart serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported chart format %q (json, yaml)", s)
}

// Parse decodes a chart collection. The input is tried as JSON first and as
// YAML second. Both a bare array and {"organigrams": [...]} are accepted.
func Parse(data []byte) ([]Chart, error) {
	raw, err := normalize(data)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var charts []Chart
		if err := json.Unmarshal(raw, &charts); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode charts")
		}
		return fill(charts), nil
	}
	var col struct {
		Organigrams *[]Chart `json:"organigrams"`
	}
	if err := json.Unmarshal(raw, &col); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode charts")
	}
	if col.Organigrams == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected an array of organigrams")
	}
	return fill(*col.Organigrams), nil
}

// ParseChart decodes a single chart from JSON or YAML.
func ParseChart(data []byte) (Chart, error) {
	raw, err := normalize(data)
	if err != nil {
		return Chart{}, err
	}
	var c Chart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Chart{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode chart")
	}
	return fill([]Chart{c})[0], nil
}

// normalize returns JSON for JSON or YAML input. YAML goes through a generic
// value so both formats share the JSON field handling.
func normalize(data []byte) ([]byte, error) {
	if json.Valid(data) {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "input is neither JSON nor YAML")
	}
	if v == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty input")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "convert YAML")
	}
	return out, nil
}

func fill(charts []Chart) []Chart {
	if charts == nil {
		return []Chart{}
	}
	for i := range charts {
		if charts[i].Blocks == nil {
			charts[i].Blocks = []Node{}
		}
		if charts[i].Connections == nil {
			charts[i].Connections = []Edge{}
		}
	}
	return charts
}

// Read decodes a chart collection from r.
func Read(r io.Reader) ([]Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read charts: %w", err)
	}
	return Parse(data)
}

// ReadFile decodes a chart collection from a file.
func ReadFile(path string) ([]Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "chart file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Write encodes charts as a bare array in the given format.
func Write(w io.Writer, charts []Chart, format Format) error {
	data, err := Marshal(fill(charts), format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile encodes charts to path, choosing the format from its extension.
func WriteFile(path string, charts []Chart) error {
	data, err := Marshal(fill(charts), FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Marshal encodes v (a Chart or a slice of charts) in the given format.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported chart format %q", format)
}
