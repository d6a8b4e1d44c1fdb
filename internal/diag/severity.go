// Package diag provides the diagnostic tree shared by evaluators, the level
// selector and the reporters.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity of a diagnostic.
// Values are ordered: a higher value is more severe.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver per json.Unmarshaler interface
type Severity int

const (
	// SeverityOK means nothing to report.
	SeverityOK Severity = iota
	// SeverityInfo is informational output such as the release slug.
	SeverityInfo
	// SeverityWarning indicates a problem that does not break the module.
	SeverityWarning
	// SeverityError indicates a problem that makes the module invalid at a level.
	SeverityError
	// SeverityFatal indicates the validator could not complete.
	SeverityFatal
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name (case-insensitive).
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return SeverityOK, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityOK, fmt.Errorf("unknown severity: %q", s)
	}
}

// IsProblem reports whether the severity counts as an error for level selection.
func (s Severity) IsProblem() bool {
	return s >= SeverityError
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}
