// Package discovery finds Puppet module roots with glob pattern support.
package discovery

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ManifestKind identifies the file that marks a module root.
type ManifestKind string

// Module manifest file names.
const (
	ManifestMetadata   ManifestKind = "metadata.json"
	ManifestModulefile ManifestKind = "Modulefile"
)

// Module is a Puppet module found during discovery.
type Module struct {
	// Root is the absolute module directory.
	Root string

	// Manifest is the absolute path of the file that marks the module root.
	Manifest string

	// Kind is the manifest type. metadata.json wins over a legacy Modulefile
	// in the same directory.
	Kind ManifestKind
}

// Options configures module discovery.
type Options struct {
	// ExcludePatterns are glob patterns matched against manifest paths
	// relative to the searched directory. Nil means DefaultExcludes().
	ExcludePatterns []string
}

// DefaultExcludes skips test fixtures, built packages and forgecheck's own
// working directory.
func DefaultExcludes() []string {
	return []string{
		"**/spec/fixtures/**",
		"**/pkg/**",
		"**/.forgecheck/**",
	}
}

func manifestKinds() []ManifestKind {
	return []ManifestKind{ManifestMetadata, ManifestModulefile}
}

// Discover finds Puppet modules matching the given inputs.
// Each input can be:
// - A manifest file path (metadata.json or Modulefile)
// - A directory (searched recursively)
// - A glob pattern matching manifest files (expanded with doublestar)
//
// Results are deduplicated by module root and sorted.
func Discover(inputs []string, opts Options) ([]Module, error) {
	if opts.ExcludePatterns == nil {
		opts.ExcludePatterns = DefaultExcludes()
	}

	byRoot := make(map[string]Module)
	for _, input := range inputs {
		found, err := discoverInput(input, opts)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			if prev, ok := byRoot[m.Root]; ok && prev.Kind == ManifestMetadata {
				continue
			}
			byRoot[m.Root] = m
		}
	}

	results := make([]Module, 0, len(byRoot))
	for _, m := range byRoot {
		results = append(results, m)
	}
	slices.SortFunc(results, func(a, b Module) int {
		return cmp.Compare(a.Root, b.Root)
	})
	return results, nil
}

// discoverInput processes a single input (file, directory, or glob pattern).
func discoverInput(input string, opts Options) ([]Module, error) {
	// Glob characters make os.Stat fail on Windows, so check them first.
	if containsGlobChars(input) {
		return globMatches(input, "", opts)
	}

	info, err := os.Stat(input)
	if err == nil {
		if info.IsDir() {
			return discoverDirectory(input, opts)
		}
		return discoverFile(input)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return globMatches(input, "", opts)
}

// containsGlobChars returns true if the path contains glob special characters.
func containsGlobChars(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}

// discoverFile accepts an explicit manifest path. Explicit inputs are never
// excluded.
func discoverFile(path string) ([]Module, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	kind, ok := kindOf(absPath)
	if !ok {
		return nil, nil
	}
	return []Module{{Root: filepath.Dir(absPath), Manifest: absPath, Kind: kind}}, nil
}

// discoverDirectory recursively searches a directory for module manifests.
func discoverDirectory(dir string, opts Options) ([]Module, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var results []Module
	for _, kind := range manifestKinds() {
		for _, pattern := range []string{
			filepath.Join(absDir, string(kind)),       // Direct
			filepath.Join(absDir, "**", string(kind)), // Recursive
		} {
			found, err := globMatches(pattern, absDir, opts)
			if err != nil {
				return nil, err
			}
			results = append(results, found...)
		}
	}
	return results, nil
}

// globMatches expands a glob pattern and returns the modules whose manifests
// match. Exclusions are matched relative to base when it is set.
func globMatches(pattern, base string, opts Options) ([]Module, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var results []Module
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return nil, err
		}
		kind, ok := kindOf(absPath)
		if !ok {
			continue
		}
		if isExcluded(relativeTo(base, absPath), opts.ExcludePatterns) {
			continue
		}
		results = append(results, Module{Root: filepath.Dir(absPath), Manifest: absPath, Kind: kind})
	}
	return results, nil
}

func kindOf(path string) (ManifestKind, bool) {
	base := filepath.Base(path)
	for _, kind := range manifestKinds() {
		if base == string(kind) {
			return kind, true
		}
	}
	return "", false
}

func relativeTo(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

// isExcluded checks if a path matches any exclusion pattern using a three-step
// matching strategy:
//
//  1. Match against the whole path
//  2. Match against just the filename
//  3. Match against each suffix subpath produced by splitPath (for relative
//     patterns like "vendor/*" or "pkg/**")
//
// Note: doublestar.Match expects forward slashes as path separators even on Windows.
func isExcluded(path string, excludePatterns []string) bool {
	pathSlash := filepath.ToSlash(path)
	base := filepath.ToSlash(filepath.Base(path))
	parts := splitPath(path)

	for _, pattern := range excludePatterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.Match(pattern, pathSlash); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
		for i := range parts {
			subpath := filepath.ToSlash(filepath.Join(parts[i:]...))
			if matched, err := doublestar.Match(pattern, subpath); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// splitPath splits a path into its individual directory and filename components.
// For example, "/home/user/pkg/metadata.json" returns ["home", "user", "pkg", "metadata.json"].
// On Windows, "C:\foo\bar" returns ["foo", "bar"] (drive letter is stripped).
func splitPath(path string) []string {
	var parts []string
	for path != "" {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		path = filepath.Clean(dir)

		if path == "/" || path == "." {
			break
		}

		vol := filepath.VolumeName(path)
		if vol != "" && (path == vol || path == vol+string(filepath.Separator)) {
			break
		}
	}
	return parts
}
