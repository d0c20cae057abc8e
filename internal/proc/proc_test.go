package proc

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"conform/internal/errors"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRun_CapturesOutput(t *testing.T) {
	skipOnWindows(t)

	res, err := Run("echo out; echo err 1>&2", Options{})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out")
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err")
	}
}

func TestRun_StrictVsTolerant(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name     string
		tolerate bool
		wantErr  bool
		wantKind errors.Kind
	}{
		{name: "strict fails on non-zero exit", tolerate: false, wantErr: true, wantKind: errors.KindCommandFailed},
		{name: "tolerant returns the code", tolerate: true, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run("exit 3", Options{TolerateNonZeroExit: tt.tolerate})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if got := errors.KindOf(err); got != tt.wantKind {
					t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run() returned error: %v", err)
			}
			if res.ExitCode != 3 {
				t.Errorf("ExitCode = %d, want 3", res.ExitCode)
			}
		})
	}
}

func TestRun_CommandFailedCarriesOutput(t *testing.T) {
	skipOnWindows(t)

	_, err := Run("echo diagnostic 1>&2; exit 1", Options{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "diagnostic") {
		t.Errorf("error should carry captured stderr, got: %v", err)
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	res, err := Run("pwd", Options{Dir: dir})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if !strings.Contains(res.Stdout, dir) {
		t.Errorf("pwd = %q, want it to contain %q", res.Stdout, dir)
	}
}

func TestRun_MissingWorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	_, err := Run("true", Options{Dir: "/nonexistent/conform-test"})
	if errors.KindOf(err) != errors.KindLaunchFailed {
		t.Errorf("KindOf() = %v, want KindLaunchFailed", errors.KindOf(err))
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	skipOnWindows(t)

	_, err := Run("definitely-not-a-real-binary-6f3a", Options{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := errors.KindOf(err); got != errors.KindLaunchFailed {
		t.Errorf("KindOf() = %v, want KindLaunchFailed", got)
	}
}

func TestRun_EnvOverride(t *testing.T) {
	skipOnWindows(t)

	res, err := Run("echo $CONFORM_TEST_VALUE", Options{
		Env: map[string]string{"CONFORM_TEST_VALUE": "from-harness"},
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "from-harness" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "from-harness")
	}
}

func TestRun_EnvIsScopedToOneCall(t *testing.T) {
	skipOnWindows(t)

	if _, err := Run("true", Options{Env: map[string]string{"CONFORM_SCOPED": "yes"}}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	res, err := Run("echo [$CONFORM_SCOPED]", Options{})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "[]" {
		t.Errorf("override leaked into later invocation: %q", res.Stdout)
	}
}

func TestRun_Timeout(t *testing.T) {
	skipOnWindows(t)

	start := time.Now()
	_, err := Run("sleep 5", Options{Timeout: 100 * time.Millisecond})
	if got := errors.KindOf(err); got != errors.KindTimeout {
		t.Fatalf("KindOf() = %v, want KindTimeout", got)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timed-out process was not terminated promptly (%s)", elapsed)
	}
}

func TestRun_TimeoutReachesSpawnedChildren(t *testing.T) {
	skipOnWindows(t)

	start := time.Now()
	_, err := Run("sleep 3 & wait", Options{Timeout: 200 * time.Millisecond})
	if got := errors.KindOf(err); got != errors.KindTimeout {
		t.Fatalf("KindOf() = %v, want KindTimeout", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("deadline did not reach the backgrounded child (%s)", elapsed)
	}
}

func TestRun_LeakedChildDoesNotHoldTheCall(t *testing.T) {
	skipOnWindows(t)

	start := time.Now()
	res, err := Run("sleep 5 & echo started", Options{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "started" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "started")
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("call blocked on the leaked child's pipes (%s)", elapsed)
	}
}

func TestRun_SignalKilled(t *testing.T) {
	skipOnWindows(t)

	_, err := Run("kill -TERM $$", Options{})
	if got := errors.KindOf(err); got != errors.KindAbnormalTermination {
		t.Errorf("KindOf() = %v, want KindAbnormalTermination", got)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	_, err := Run("   ", Options{})
	if got := errors.KindOf(err); got != errors.KindLaunchFailed {
		t.Errorf("KindOf() = %v, want KindLaunchFailed", got)
	}
}
