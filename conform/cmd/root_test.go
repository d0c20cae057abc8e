package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	setupMocks(t)

	output, err := executeCommand(rootCmd, "--help")

	require.NoError(t, err)
	assert.Contains(t, output, "conform")
	assert.Contains(t, output, "run")
	assert.Contains(t, output, "list")
}

func TestRootCmd_RunE(t *testing.T) {
	setupMocks(t)

	if err := rootCmd.RunE(rootCmd, []string{}); err != nil {
		t.Errorf("rootCmd.RunE() returned error: %v", err)
	}
}

func TestExitCode(t *testing.T) {
	plain := fmt.Errorf("2 of 6 scenarios failed")
	setup := &setupError{fmt.Errorf("bad suite file")}
	wrapped := fmt.Errorf("loading: %w", setup)

	assert.Equal(t, 1, exitCode(plain))
	assert.Equal(t, 2, exitCode(setup))
	assert.Equal(t, 2, exitCode(wrapped))
}
