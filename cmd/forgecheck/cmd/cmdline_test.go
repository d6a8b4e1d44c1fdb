package cmd

import (
	"slices"
	"testing"
)

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "puppet-validate --level {level} {dir}", []string{"puppet-validate", "--level", "{level}", "{dir}"}},
		{"extra whitespace", "  lint \t {level}  ", []string{"lint", "{level}"}},
		{"single quotes", "sh -c 'echo $HOME {level}'", []string{"sh", "-c", "echo $HOME {level}"}},
		{"double quotes", `run "a b" c`, []string{"run", "a b", "c"}},
		{"escaped quote in double", `run "say \"hi\""`, []string{"run", `say "hi"`}},
		{"escaped space", `run a\ b`, []string{"run", "a b"}},
		{"literal backslash", `run C:\tools`, []string{"run", `C:\tools`}},
		{"empty quoted arg", `run ''`, []string{"run", ""}},
		{"adjacent quotes", `run a"b"'c'`, []string{"run", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitCommandLine(tt.in)
			if err != nil {
				t.Fatalf("splitCommandLine(%q) error: %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("splitCommandLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitCommandLineErrors(t *testing.T) {
	for _, in := range []string{`run 'a`, `run "a`, `run a\`} {
		if _, err := splitCommandLine(in); err == nil {
			t.Errorf("splitCommandLine(%q) expected error", in)
		}
	}
}

func TestParseCommandEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", `""`} {
		if _, err := parseCommand(in); err == nil {
			t.Errorf("parseCommand(%q) expected error", in)
		}
	}
}
