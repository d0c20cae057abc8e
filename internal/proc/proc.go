package proc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"conform/internal/errors"
)

// DefaultTimeout bounds a single invocation when the caller does not
// choose one. CI environments hang otherwise when the tool under test
// misbehaves.
const DefaultTimeout = 60 * time.Second

// waitDelay bounds how long Run waits on the inherited stdout/stderr
// pipes once the shell has exited or the deadline killed it. A child
// the tool leaves behind inherits those pipes and would otherwise hold
// the invocation open indefinitely.
const waitDelay = 2 * time.Second

// Result captures everything the harness observes from one subprocess.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Options controls a single invocation.
type Options struct {
	// Dir is the working directory. Must exist when set.
	Dir string
	// Env entries override (or add to) the inherited environment.
	Env map[string]string
	// TolerateNonZeroExit returns a non-zero Result instead of failing,
	// so the caller can assert on the code itself.
	TolerateNonZeroExit bool
	// Timeout bounds the invocation; zero means DefaultTimeout.
	Timeout time.Duration
}

// Run executes command through the shell and blocks until it exits.
// It is a package variable so tests can substitute a fake.
var Run = func(command string, opts Options) (Result, error) {
	const op = "proc.run"

	if strings.TrimSpace(command) == "" {
		return Result{}, errors.E(op, errors.KindLaunchFailed, fmt.Errorf("empty command"))
	}
	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil || !info.IsDir() {
			return Result{}, errors.E(op, errors.KindLaunchFailed, fmt.Errorf("working directory %q does not exist", opts.Dir))
		}
	}
	if err := lookupBinary(opts.Dir, command); err != nil {
		return Result{}, errors.E(op, errors.KindLaunchFailed, fmt.Errorf("cannot launch %q: %w", command, err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = opts.Dir
	cmd.Env = mergeEnv(opts.Env)
	// The shell runs in its own process group so the deadline reaches
	// the tool's children, not just the shell itself.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		return res, errors.E(op, errors.KindTimeout,
			fmt.Errorf("command %q did not finish within %s", command, timeout))
	}

	if stderrors.Is(err, exec.ErrWaitDelay) {
		// The shell exited cleanly but a leaked child held the pipes
		// past the grace period; the captured output stands.
		return res, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.ExitCode = -1
			return res, errors.E(op, errors.KindAbnormalTermination,
				fmt.Errorf("command %q killed by signal %s", command, ws.Signal()))
		}
		res.ExitCode = exitErr.ExitCode()
		if opts.TolerateNonZeroExit {
			return res, nil
		}
		return res, errors.E(op, errors.KindCommandFailed,
			fmt.Errorf("command %q exited with code %d\nstdout: %s\nstderr: %s",
				command, res.ExitCode, strings.TrimSpace(res.Stdout), strings.TrimSpace(res.Stderr)))
	}
	if err != nil {
		res.ExitCode = -1
		return res, errors.E(op, errors.KindLaunchFailed, fmt.Errorf("command %q: %w", command, err))
	}

	return res, nil
}

// lookupBinary pre-resolves the command's first word so a missing
// binary is reported as a launch failure instead of the shell's own
// 127 exit. Commands with shell syntax are left to the shell.
func lookupBinary(dir, command string) error {
	if strings.ContainsAny(command, "&|;><$`") {
		return nil
	}
	fields := strings.Fields(command)
	name := fields[0]
	if strings.Contains(name, "/") {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return err
		}
		return nil
	}
	_, err := exec.LookPath(name)
	return err
}

// mergeEnv layers overrides on top of the inherited environment,
// filtering out inherited values for any overridden key.
func mergeEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // nil means inherit as-is
	}
	env := make([]string, 0, len(os.Environ())+len(overrides))
	for _, kv := range os.Environ() {
		key := strings.SplitN(kv, "=", 2)[0]
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}
