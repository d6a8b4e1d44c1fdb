package diag

import (
	"path/filepath"
	"strconv"
)

// Location points at the source of a diagnostic.
//
// An empty File means the diagnostic has no source location. Line is 1-based;
// 0 marks a file-level diagnostic.
type Location struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// NewFileLocation creates a location for a file-level issue.
func NewFileLocation(file string) Location {
	return Location{File: file}
}

// NewLineLocation creates a location for a specific 1-based line.
func NewLineLocation(file string, line int) Location {
	return Location{File: file, Line: line}
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.File == ""
}

// Slash returns a copy with the file path normalized to forward slashes.
func (l Location) Slash() Location {
	l.File = filepath.ToSlash(l.File)
	return l
}

// String renders "file:line", "file" or "" for an unset location.
func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	if l.Line <= 0 {
		return l.File
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}
