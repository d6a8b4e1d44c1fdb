package cmd

import (
	"fmt"
	"io"
	"time"

	"charm.land/bubbles/v2/spinner"
	"github.com/sirupsen/logrus"
)

// startProgress shows a spinner on w while levels are evaluated. On a
// non-terminal the message is logged once instead. The returned func stops
// the spinner and clears its line.
func startProgress(w io.Writer, log logrus.FieldLogger, msg string) func() {
	if !isTerminal(w) {
		log.Info(msg)
		return func() {}
	}

	sp := spinner.Line
	frames := sp.Frames
	interval := sp.FPS
	if len(frames) == 0 {
		frames = []string{"-"}
	}
	if interval <= 0 {
		interval = 120 * time.Millisecond
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-stop:
				_, _ = fmt.Fprint(w, "\r\033[2K")
				close(done)
				return
			case <-ticker.C:
				_, _ = fmt.Fprintf(w, "\r%s %s", frames[frame%len(frames)], msg)
				frame++
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

func progressMessage(levels int, timeout time.Duration) string {
	word := "level"
	if levels != 1 {
		word = "levels"
	}
	msg := fmt.Sprintf("Evaluating %d compliance %s", levels, word)
	if timeout > 0 {
		msg += fmt.Sprintf(" (timeout per level: %s)", humanizeTimeout(timeout))
	}
	return msg
}

func humanizeTimeout(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0 seconds"
	}
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	if d%time.Minute == 0 {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	return d.String()
}
