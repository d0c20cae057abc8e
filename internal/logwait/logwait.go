// Package logwait watches a log file written by the tool under test
// and waits for a readiness line, so generation steps that finish
// asynchronously can be sequenced before the command matrix runs.
package logwait

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/hpcloud/tail"

	"conform/internal/errors"
)

// ForLine tails logPath from the start and returns once a line
// containing message (case-insensitive) appears, or fails with a
// timeout. ForLine is a package variable so tests can substitute it.
var ForLine = func(logPath, message string, timeout time.Duration) error {
	const op = "logwait.forline"

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Waiting for %q in %s...", message, logPath)
	s.Start()
	defer s.Stop()

	t, err := tail.TailFile(logPath, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		s.FinalMSG = color.RedString("✖ Error tailing log file.\n")
		return errors.E(op, errors.KindOther, fmt.Errorf("tailing %s: %w", logPath, err))
	}
	defer t.Stop()

	timeoutChan := time.After(timeout)
	needle := strings.ToLower(message)

	for {
		select {
		case line := <-t.Lines:
			if line.Err != nil {
				s.FinalMSG = color.RedString("✖ Error reading log file.\n")
				return errors.E(op, errors.KindOther, fmt.Errorf("reading %s: %w", logPath, line.Err))
			}
			if strings.Contains(strings.ToLower(line.Text), needle) {
				s.FinalMSG = color.GreenString("✔ Found %q in log file.\n", message)
				return nil
			}
		case <-timeoutChan:
			s.FinalMSG = color.RedString("✖ Timed out waiting for %q.\n", message)
			return errors.E(op, errors.KindTimeout,
				fmt.Errorf("no %q in %s within %s", message, logPath, timeout))
		}
	}
}
