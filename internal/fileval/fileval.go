// Package fileval reads module text files (manifests, metadata) with size and
// encoding checks, so binary or oversized files fail with a clear error.
package fileval

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// DefaultMaxSize bounds the files read when no limit is given.
const DefaultMaxSize int64 = 4 << 20

// FileTooLargeError is returned when a file exceeds the maximum size.
type FileTooLargeError struct {
	Path    string
	Size    int64
	MaxSize int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file too large (%d > %d bytes)", e.Path, e.Size, e.MaxSize)
}

// NotUTF8Error is returned when a file is not valid UTF-8 text.
type NotUTF8Error struct {
	Path string
}

func (e *NotUTF8Error) Error() string {
	return e.Path + ": file does not appear to be valid UTF-8 text"
}

// ReadText reads path after checking its size against maxSize
// (DefaultMaxSize when maxSize <= 0) and returns its content if it is UTF-8.
// A leading byte order mark is dropped.
func ReadText(path string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if info.Size() > maxSize {
		return nil, &FileTooLargeError{Path: path, Size: info.Size(), MaxSize: maxSize}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, &NotUTF8Error{Path: path}
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	return data, nil
}
