// Package sourcemap provides line access and comment extraction for Puppet
// manifests.
//
// Line numbers are 1-based, matching diagnostic locations.
package sourcemap

import (
	"bytes"
	"strings"
)

// SourceMap provides access to source code by line.
type SourceMap struct {
	// lines are the individual lines (without line endings).
	lines []string
}

// New creates a SourceMap from source content.
// Lines are split on \n (handles both \n and \r\n).
func New(source []byte) *SourceMap {
	rawLines := bytes.Split(source, []byte{'\n'})
	lines := make([]string, len(rawLines))
	for i, line := range rawLines {
		lines[i] = strings.TrimSuffix(string(line), "\r")
	}
	return &SourceMap{lines: lines}
}

// LineCount returns the total number of lines.
func (sm *SourceMap) LineCount() int {
	return len(sm.lines)
}

// Line returns the text of a specific line (1-based).
// Returns empty string if line is out of range.
func (sm *SourceMap) Line(line int) string {
	if line < 1 || line > len(sm.lines) {
		return ""
	}
	return sm.lines[line-1]
}

// NextCodeLine returns the first line after line that is neither blank nor a
// whole-line comment, or 0 when there is none.
func (sm *SourceMap) NextCodeLine(line int) int {
	for i := line + 1; i <= len(sm.lines); i++ {
		trimmed := strings.TrimSpace(sm.Line(i))
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return i
	}
	return 0
}

// Comment is a # comment extracted from a manifest.
type Comment struct {
	// Line is the 1-based line number where the comment appears.
	Line int

	// Text is the comment text including the # prefix, without trailing
	// whitespace.
	Text string

	// Trailing is true when code precedes the comment on its line.
	Trailing bool
}

// Comments extracts all # comments in line order.
//
// A # inside a quoted string or a /* */ block comment does not start a
// comment. Strings may span lines. Heredocs are not recognized.
func (sm *SourceMap) Comments() []Comment {
	var (
		comments []Comment
		quote    byte
		inBlock  bool
	)

	for i, line := range sm.lines {
		code := false
		for j := 0; j < len(line); j++ {
			ch := line[j]
			switch {
			case inBlock:
				if ch == '*' && j+1 < len(line) && line[j+1] == '/' {
					inBlock = false
					j++
				}
			case quote != 0:
				// String content is code, even on a line that only
				// closes a string opened earlier.
				code = true
				if ch == '\\' {
					j++
					continue
				}
				if ch == quote {
					quote = 0
				}
			case ch == '#':
				comments = append(comments, Comment{
					Line:     i + 1,
					Text:     strings.TrimRight(line[j:], " \t"),
					Trailing: code,
				})
				j = len(line)
			case ch == '/' && j+1 < len(line) && line[j+1] == '*':
				inBlock = true
				j++
			case ch == '\'' || ch == '"':
				quote = ch
				code = true
			case ch != ' ' && ch != '\t':
				code = true
			}
		}
	}

	return comments
}
