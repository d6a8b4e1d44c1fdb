// Package evaluator provides the concrete compliance-level evaluators:
// recorded fixture documents, external validator commands and a wrapper that
// post-processes another evaluator's diagnostics.
package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v4"

	"github.com/wharflab/forgecheck/internal/diag"
)

// Format is the encoding of an evaluator document.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for documents whose format cannot be inferred.
var ErrUnknownFormat = errors.New("unknown document format")

// FormatFromPath infers the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s (want .json, .yaml, .yml or .toml)", ErrUnknownFormat, path)
	}
}

// Entry is one diagnostic as written in a fixture or printed by a validator
// command. An entry with children becomes a composite diagnostic whose
// severity is derived from them; its own severity is then ignored.
type Entry struct {
	Severity string  `json:"severity"`
	Category string  `json:"category,omitempty"`
	Message  string  `json:"message"`
	File     string  `json:"file,omitempty"`
	Line     int     `json:"line,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

// Diagnostic converts the entry into a diagnostic node.
func (e Entry) Diagnostic() (*diag.Diagnostic, error) {
	loc := diag.NewLineLocation(e.File, e.Line)
	if len(e.Children) > 0 {
		children, err := Diagnostics(e.Children)
		if err != nil {
			return nil, err
		}
		return diag.NewComposite(diag.Category(e.Category), e.Message, children...).WithLocation(loc), nil
	}

	sev, err := diag.ParseSeverity(e.Severity)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Message, err)
	}
	return diag.NewAt(sev, diag.Category(e.Category), e.Message, loc), nil
}

// Diagnostics converts entries in order.
func Diagnostics(entries []Entry) ([]*diag.Diagnostic, error) {
	out := make([]*diag.Diagnostic, 0, len(entries))
	for _, e := range entries {
		d, err := e.Diagnostic()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// decodeGeneric parses data into JSON-compatible values (maps with string
// keys, slices, strings, numbers, booleans).
func decodeGeneric(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return raw, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
		raw = doc
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return normalize(raw), nil
}

// normalize converts YAML-style maps to string-keyed maps. Unquoted YAML
// level keys such as 3.0 decode as numbers; they are rendered back with at
// least one decimal so they still name a level.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[keyString(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case int:
		return strconv.Itoa(t) + ".0"
	default:
		return fmt.Sprint(k)
	}
}

// remarshal converts a validated generic value into out.
func remarshal(raw, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
