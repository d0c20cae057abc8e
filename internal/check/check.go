// Package check is the assertion layer: pure functions over captured
// process results and expected values. Every failure carries enough of
// the actual output to diagnose without rerunning the tool.
package check

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"conform/internal/errors"
	"conform/internal/proc"
)

// excerptLimit bounds how much captured output a failure message quotes.
const excerptLimit = 256

// ExitCode fails unless the result carries the expected exit code.
func ExitCode(res proc.Result, want int) error {
	if res.ExitCode == want {
		return nil
	}
	return errors.E("check.exitcode", errors.KindUnexpectedExitCode,
		fmt.Errorf("expected exit code %d, got %d\nstderr: %s", want, res.ExitCode, Excerpt(res.Stderr)))
}

// Match fails unless pattern matches somewhere in text.
func Match(text, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errors.E("check.match", errors.KindOther, fmt.Errorf("bad pattern %q: %w", pattern, err))
	}
	if re.MatchString(text) {
		return nil
	}
	return errors.E("check.match", errors.KindPatternMismatch,
		fmt.Errorf("expected output to match %q\noutput: %s", pattern, Excerpt(text)))
}

// NoMatch fails if pattern matches anywhere in text.
func NoMatch(text, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errors.E("check.nomatch", errors.KindOther, fmt.Errorf("bad pattern %q: %w", pattern, err))
	}
	if !re.MatchString(text) {
		return nil
	}
	return errors.E("check.nomatch", errors.KindPatternMismatch,
		fmt.Errorf("expected output NOT to match %q\noutput: %s", pattern, Excerpt(text)))
}

// Count extracts the integer captured by pattern's first group. The
// built-in scenarios use it to compare compiled-file and passed-test
// counts across tool modes.
func Count(text, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, errors.E("check.count", errors.KindOther, fmt.Errorf("bad pattern %q: %w", pattern, err))
	}
	if re.NumSubexp() < 1 {
		return 0, errors.E("check.count", errors.KindOther,
			fmt.Errorf("pattern %q has no capture group for the count", pattern))
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, errors.E("check.count", errors.KindPatternMismatch,
			fmt.Errorf("expected output to match %q\noutput: %s", pattern, Excerpt(text)))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.E("check.count", errors.KindPatternMismatch,
			fmt.Errorf("pattern %q captured %q, not a count", pattern, m[1]))
	}
	return n, nil
}

// FileExists fails unless path exists on disk. The failure is a plain
// assertion error, not a pattern mismatch: nothing was matched against
// captured output.
func FileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.E("check.fileexists", errors.KindOther,
			fmt.Errorf("expected %s to exist: %v", path, err))
	}
	return nil
}

// Excerpt truncates captured output for failure messages.
func Excerpt(s string) string {
	if s == "" {
		return "(empty)"
	}
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit] + "... (truncated)"
}
