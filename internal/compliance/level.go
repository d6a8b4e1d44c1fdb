// Package compliance defines the Puppet language compliance levels a module
// can be validated against.
package compliance

import (
	"fmt"
	"strings"
)

// Level is a Puppet language dialect. Levels are ordinal: a higher value is a
// newer dialect.
//
//nolint:recvcheck // UnmarshalText requires pointer receiver
type Level int

const (
	Puppet26 Level = iota
	Puppet27
	Puppet30
	Puppet34
	Puppet35
	Puppet40
)

// Default is the level used when no range is configured.
const Default = Puppet40

var levelNames = [...]struct {
	name    string
	version string
}{
	Puppet26: {"PUPPET_2_6", "2.6"},
	Puppet27: {"PUPPET_2_7", "2.7"},
	Puppet30: {"PUPPET_3_0", "3.0"},
	Puppet34: {"PUPPET_3_4", "3.4"},
	Puppet35: {"PUPPET_3_5", "3.5"},
	Puppet40: {"PUPPET_4_0", "4.0"},
}

// All returns every level in ascending order.
func All() []Level {
	levels := make([]Level, len(levelNames))
	for i := range levelNames {
		levels[i] = Level(i)
	}
	return levels
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l >= 0 && int(l) < len(levelNames)
}

// String returns the dotted version, e.g. "3.4".
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l].version
}

// Name returns the enumeration name, e.g. "PUPPET_3_4".
func (l Level) Name() string {
	if !l.Valid() {
		return fmt.Sprintf("LEVEL_%d", int(l))
	}
	return levelNames[l].name
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid compliance level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Parse accepts a dotted version ("3.4"), an enumeration name ("PUPPET_3_4",
// case-insensitive) or a short form ("puppet-3.4").
func Parse(s string) (Level, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.TrimPrefix(norm, "PUPPET")
	norm = strings.TrimLeft(norm, "_- ")
	norm = strings.ReplaceAll(norm, "_", ".")
	for i, n := range levelNames {
		if norm == n.version {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown compliance level: %q (valid: %s)", s, strings.Join(versions(), ", "))
}

func versions() []string {
	out := make([]string, len(levelNames))
	for i, n := range levelNames {
		out[i] = n.version
	}
	return out
}

// Range returns the ascending, gap-free levels between min and max inclusive.
// The bounds are swapped when min > max.
func Range(minLevel, maxLevel Level) []Level {
	if minLevel > maxLevel {
		minLevel, maxLevel = maxLevel, minLevel
	}
	var levels []Level
	for l := minLevel; l <= maxLevel; l++ {
		if l.Valid() {
			levels = append(levels, l)
		}
	}
	return levels
}
