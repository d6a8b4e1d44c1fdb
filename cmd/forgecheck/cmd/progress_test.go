package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestProgressMessage(t *testing.T) {
	tests := []struct {
		levels  int
		timeout time.Duration
		want    string
	}{
		{1, 0, "Evaluating 1 compliance level"},
		{6, 0, "Evaluating 6 compliance levels"},
		{2, 90 * time.Second, "Evaluating 2 compliance levels (timeout per level: 1m30s)"},
		{2, 2 * time.Minute, "Evaluating 2 compliance levels (timeout per level: 2 minutes)"},
		{3, time.Second, "Evaluating 3 compliance levels (timeout per level: 1 second)"},
	}
	for _, tt := range tests {
		if got := progressMessage(tt.levels, tt.timeout); got != tt.want {
			t.Errorf("progressMessage(%d, %s) = %q, want %q", tt.levels, tt.timeout, got, tt.want)
		}
	}
}

func TestHumanizeTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
		{45 * time.Second, "45 seconds"},
		{time.Minute, "1 minute"},
		{61 * time.Second, "1m1s"},
	}
	for _, tt := range tests {
		if got := humanizeTimeout(tt.in); got != tt.want {
			t.Errorf("humanizeTimeout(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartProgressNonTerminal(t *testing.T) {
	var out, logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)
	log.SetLevel(logrus.InfoLevel)

	stop := startProgress(&out, log, "Evaluating 2 compliance levels")
	stop()

	if out.Len() != 0 {
		t.Errorf("spinner wrote to a non-terminal: %q", out.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte("Evaluating 2 compliance levels")) {
		t.Errorf("progress message not logged: %q", logs.String())
	}
}
