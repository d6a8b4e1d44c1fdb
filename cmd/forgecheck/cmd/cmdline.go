package cmd

import (
	"errors"
	"strings"
)

// parseCommand splits an evaluator command line into argv. Placeholders such
// as {level} are kept verbatim for the evaluator to expand.
func parseCommand(commandLine string) ([]string, error) {
	fields, err := splitCommandLine(commandLine)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || fields[0] == "" {
		return nil, errors.New("command is empty")
	}
	return fields, nil
}

// splitCommandLine splits on unquoted whitespace. Single quotes are literal,
// double quotes allow backslash escapes of quotes, backslashes and whitespace.
func splitCommandLine(commandLine string) ([]string, error) {
	var s commandLineSplitter
	for i := range len(commandLine) {
		var next byte
		hasNext := false
		if i+1 < len(commandLine) {
			next = commandLine[i+1]
			hasNext = true
		}
		s.consume(commandLine[i], next, hasNext)
	}
	return s.finish()
}

type commandLineSplitter struct {
	out []string
	cur strings.Builder

	inArg    bool
	inSingle bool
	inDouble bool
	escaped  bool
}

func (s *commandLineSplitter) flush() {
	if !s.inArg {
		return
	}
	s.out = append(s.out, s.cur.String())
	s.cur.Reset()
	s.inArg = false
}

func (s *commandLineSplitter) consume(ch, next byte, hasNext bool) {
	switch {
	case s.escaped:
		s.cur.WriteByte(ch)
		s.escaped = false
	case s.inSingle:
		if ch == '\'' {
			s.inSingle = false
		} else {
			s.cur.WriteByte(ch)
		}
	case s.inDouble:
		s.consumeQuoted(ch, next, hasNext)
	case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
		s.flush()
		return
	default:
		s.consumePlain(ch, next, hasNext)
	}
	s.inArg = true
}

func (s *commandLineSplitter) consumeQuoted(ch, next byte, hasNext bool) {
	switch ch {
	case '"':
		s.inDouble = false
	case '\\':
		s.backslash(next, hasNext)
	default:
		s.cur.WriteByte(ch)
	}
}

func (s *commandLineSplitter) consumePlain(ch, next byte, hasNext bool) {
	switch ch {
	case '\'':
		s.inSingle = true
	case '"':
		s.inDouble = true
	case '\\':
		s.backslash(next, hasNext)
	default:
		s.cur.WriteByte(ch)
	}
}

// backslash escapes the next byte when it is special, otherwise it is literal.
func (s *commandLineSplitter) backslash(next byte, hasNext bool) {
	if !hasNext {
		s.escaped = true
		return
	}
	switch next {
	case '"', '\'', '\\', ' ', '\t', '\n', '\r':
		s.escaped = true
	default:
		s.cur.WriteByte('\\')
	}
}

func (s *commandLineSplitter) finish() ([]string, error) {
	switch {
	case s.escaped:
		return nil, errors.New("command has a trailing backslash escape")
	case s.inSingle:
		return nil, errors.New("command has an unterminated single quote")
	case s.inDouble:
		return nil, errors.New("command has an unterminated double quote")
	}

	s.flush()
	return s.out, nil
}
