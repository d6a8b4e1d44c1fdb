package discovery

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wharflab/forgecheck/internal/fileval"
)

// ErrIncompleteMetadata is returned when a module lacks the fields needed to
// form a release slug.
var ErrIncompleteMetadata = errors.New("incomplete module metadata")

// Dependency is a module dependency declared in the metadata.
type Dependency struct {
	Name               string `json:"name"`
	VersionRequirement string `json:"version_requirement,omitempty"`
}

// Metadata is the subset of module metadata forgecheck reports on.
type Metadata struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Author       string       `json:"author,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	License      string       `json:"license,omitempty"`
	Source       string       `json:"source,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// ReadMetadata loads the manifest of m.
func ReadMetadata(m Module) (*Metadata, error) {
	data, err := fileval.ReadText(m.Manifest, 0)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.Kind, err)
	}
	switch m.Kind {
	case ManifestModulefile:
		return ParseModulefile(data)
	case ManifestMetadata:
		var md Metadata
		if err := json.Unmarshal(data, &md); err != nil {
			return nil, fmt.Errorf("parse %s: %w", m.Manifest, err)
		}
		return &md, nil
	default:
		return nil, fmt.Errorf("unknown manifest kind %q", m.Kind)
	}
}

// modulefileLine matches `keyword 'value'` and `dependency 'name', 'req'`.
var modulefileLine = regexp.MustCompile(`^\s*(\w+)\s+['"]([^'"]*)['"](?:\s*,\s*['"]([^'"]*)['"])?`)

// ParseModulefile reads the legacy Ruby-DSL Modulefile.
// Unknown keywords are ignored.
func ParseModulefile(data []byte) (*Metadata, error) {
	var md Metadata
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		m := modulefileLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch m[1] {
		case "name":
			md.Name = m[2]
		case "version":
			md.Version = m[2]
		case "author":
			md.Author = m[2]
		case "summary":
			md.Summary = m[2]
		case "license":
			md.License = m[2]
		case "source":
			md.Source = m[2]
		case "dependency":
			md.Dependencies = append(md.Dependencies, Dependency{Name: m[2], VersionRequirement: m[3]})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse Modulefile: %w", err)
	}
	return &md, nil
}

// Owner returns the module owner from the qualified name, falling back to the
// author.
func (md *Metadata) Owner() string {
	if owner, _, ok := splitName(md.Name); ok {
		return owner
	}
	return md.Author
}

// ModuleName returns the unqualified module name.
func (md *Metadata) ModuleName() string {
	if _, name, ok := splitName(md.Name); ok {
		return name
	}
	return md.Name
}

// Slug returns the release slug "owner-name-version".
func (md *Metadata) Slug() (string, error) {
	owner, name := md.Owner(), md.ModuleName()
	var missing []string
	if owner == "" {
		missing = append(missing, "owner")
	}
	if name == "" {
		missing = append(missing, "name")
	}
	if md.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", ErrIncompleteMetadata, strings.Join(missing, ", "))
	}
	return owner + "-" + name + "-" + md.Version, nil
}

// splitName splits "owner-name" or "owner/name".
func splitName(qualified string) (owner, name string, ok bool) {
	if i := strings.IndexAny(qualified, "-/"); i > 0 && i < len(qualified)-1 {
		return qualified[:i], qualified[i+1:], true
	}
	return "", "", false
}
