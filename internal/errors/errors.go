package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a harness failure so callers can decide how far it
// propagates: assertion failures stay inside their scenario, setup
// failures abort the rest of the owning group.
type Kind int

const (
	KindOther Kind = iota
	// KindLaunchFailed means the binary could not be found or executed.
	KindLaunchFailed
	// KindAbnormalTermination means the process was killed by a signal.
	KindAbnormalTermination
	// KindCommandFailed means a strict-mode invocation exited non-zero.
	KindCommandFailed
	// KindUnexpectedExitCode means an exit-code assertion failed.
	KindUnexpectedExitCode
	// KindPatternMismatch means an output-pattern assertion failed.
	KindPatternMismatch
	// KindFixtureNotFound means a fixture template does not exist.
	KindFixtureNotFound
	// KindTimeout means a process invocation exceeded its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindLaunchFailed:
		return "launch failed"
	case KindAbnormalTermination:
		return "abnormal termination"
	case KindCommandFailed:
		return "command failed"
	case KindUnexpectedExitCode:
		return "unexpected exit code"
	case KindPatternMismatch:
		return "pattern mismatch"
	case KindFixtureNotFound:
		return "fixture not found"
	case KindTimeout:
		return "timeout"
	default:
		return "error"
	}
}

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindOther {
		return fmt.Sprintf("operation %q failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %q failed: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func E(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindOther when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsSetup reports whether err is a setup failure that should skip the
// remaining scenarios of the affected group rather than just fail one.
func IsSetup(err error) bool {
	switch KindOf(err) {
	case KindFixtureNotFound, KindLaunchFailed:
		return true
	}
	return false
}
