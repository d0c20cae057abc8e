package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"conform/internal/config"
	"conform/internal/proc"
)

// executeCommand is a helper function to execute a cobra command and capture its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	_, output, err := executeCommandC(root, args...)
	return output, err
}

func executeCommandC(root *cobra.Command, args ...string) (*cobra.Command, string, error) {
	// Capture Cobra's output
	cobraBuf := new(bytes.Buffer)
	root.SetOut(cobraBuf)
	root.SetErr(cobraBuf)
	root.SetArgs(args)

	// Redirect color library output to the same buffer
	originalColorOutput := color.Output
	color.Output = cobraBuf
	defer func() { color.Output = originalColorOutput }()

	// Capture direct stdout/stderr writes
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	c, err := root.ExecuteC()

	// Restore stdout/stderr and read from the pipe
	w.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	capturedBuf := new(bytes.Buffer)
	io.Copy(capturedBuf, r)

	// Combine outputs
	combinedOutput := cobraBuf.String() + capturedBuf.String()

	return c, combinedOutput, err
}

func TestMain(m *testing.M) {
	// Save original functions
	originalConfigLoad := config.Load
	originalProcRun := proc.Run

	// Defer restoration of original functions
	defer func() {
		config.Load = originalConfigLoad
		proc.Run = originalProcRun
	}()

	// Run tests
	os.Exit(m.Run())
}

type procCall struct {
	command string
	opts    proc.Options
}

// setupMocks resets the run flags and installs a fake suite loader and
// a fake tool. The default suite has only the diagnostics scenario, and
// the default tool answers every command with the documented
// out-of-project error, so a plain "run" passes.
func setupMocks(t *testing.T) *[]procCall {
	t.Helper()

	runMatrixFile = ""
	runTimeout = 0
	runNoColor = false

	workDir := t.TempDir()
	config.Load = func(path string) (*config.Config, error) {
		cfg := &config.Config{}
		cfg.Tool = config.Tool{Binary: "mill", TimeoutSeconds: 5}
		cfg.Patterns = config.Patterns{
			Compiled:       `compiled (\d+) files? successfully`,
			TestsPassed:    `(\d+) passed`,
			NoProject:      `not inside a .* project`,
			DiagnosticCode: `E\d{3}`,
		}
		cfg.Scenarios = config.Scenarios{CompileSubcommand: "compile"}
		cfg.WorkRoot = workDir
		return cfg, nil
	}

	calls := &[]procCall{}
	proc.Run = func(command string, opts proc.Options) (proc.Result, error) {
		*calls = append(*calls, procCall{command: command, opts: opts})
		if strings.Contains(command, "--") {
			return proc.Result{ExitCode: 0, Stdout: "ok\n"}, nil
		}
		return proc.Result{ExitCode: 1, Stderr: "error[E042]: not inside a mill project\n"}, nil
	}
	return calls
}
