package fileval

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadText(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "init.pp", []byte("class apache {}\n"))
	data, err := ReadText(path, 0)
	if err != nil {
		t.Fatalf("ReadText() error: %v", err)
	}
	if string(data) != "class apache {}\n" {
		t.Errorf("ReadText() = %q", data)
	}
}

func TestReadTextStripsBOM(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "metadata.json", []byte("\xEF\xBB\xBF{}"))
	data, err := ReadText(path, 0)
	if err != nil {
		t.Fatalf("ReadText() error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("ReadText() = %q, want %q", data, "{}")
	}
}

func TestReadTextTooLarge(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "big.pp", make([]byte, 200))
	_, err := ReadText(path, 100)

	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected FileTooLargeError, got %v", err)
	}
	if tooLarge.Size != 200 || tooLarge.MaxSize != 100 {
		t.Errorf("FileTooLargeError = %+v", tooLarge)
	}

	if _, err := ReadText(path, 200); err != nil {
		t.Errorf("file at the limit: unexpected error %v", err)
	}
}

func TestReadTextNotUTF8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
	}{
		{"invalid byte", []byte{'c', 'l', 0xFF, 's'}},
		{"truncated code point", []byte{'a', 0xE2, 0x82}},
		{"latin1", []byte("caf\xe9")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadText(writeFile(t, "bad.pp", tt.content), 0)
			var notUTF8 *NotUTF8Error
			if !errors.As(err, &notUTF8) {
				t.Errorf("expected NotUTF8Error, got %v", err)
			}
		})
	}
}

func TestReadTextMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadText(filepath.Join(t.TempDir(), "missing.pp"), 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestReadTextDirectory(t *testing.T) {
	t.Parallel()

	if _, err := ReadText(t.TempDir(), 0); err == nil {
		t.Error("expected error for a directory")
	}
}
