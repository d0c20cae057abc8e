package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conform/internal/config"
	"conform/internal/matrix"
	"conform/internal/scenario"
)

func TestListCmd_PrintsScenarioTree(t *testing.T) {
	skipOnWindows(t)
	calls := setupMocks(t)
	config.Load = func(path string) (*config.Config, error) {
		cfg := &config.Config{}
		cfg.Tool = config.Tool{Binary: "mill", TimeoutSeconds: 5}
		cfg.Fixtures = config.Fixtures{Root: t.TempDir()}
		cfg.Scenarios = config.Scenarios{
			CompileFixture:    "hello_project",
			CompileSources:    3,
			TestsFixture:      "tested_project",
			CompileSubcommand: "compile",
			TestSubcommand:    "test",
		}
		cfg.Generate = config.Generate{Command: "mill init sample"}
		cfg.Matrix = []matrix.Entry{{Label: "compile", Command: "mill compile"}}
		return cfg, nil
	}

	output, err := executeCommand(rootCmd, "list", "suite.yaml")

	require.NoError(t, err)
	for _, want := range []string{
		"conform",
		"compile",
		"clean build compiles every source file",
		"tests",
		"parallel mode reports the same pass count as serial mode",
		"diagnostics",
		"invocation outside a project is a documented user error",
		"onboarding",
		"project generation succeeds with non-interactive defaults",
		`documented command "compile" succeeds`,
		"5 scenarios",
	} {
		assert.Contains(t, output, want)
	}
	assert.Empty(t, *calls, "list must not invoke the tool")
}

func TestRenderTree_AnnotatesSkippedGroups(t *testing.T) {
	var buf bytes.Buffer
	originalColorOutput := color.Output
	color.Output = &buf
	defer func() { color.Output = originalColorOutput }()

	root := scenario.NewGroup("conform")
	root.SkipIf = func() bool { return true }
	sub := scenario.NewGroup("compile")
	sub.AddScenario(&scenario.Scenario{Description: "clean build"})
	root.AddGroup(sub)

	renderTree(root)

	assert.Contains(t, buf.String(), "! conform (skipped on this platform)")
	assert.Contains(t, buf.String(), "compile", "subgroups are still listed")
}

func TestListCmd_BadSuiteFile(t *testing.T) {
	setupMocks(t)
	config.Load = func(path string) (*config.Config, error) {
		return nil, fmt.Errorf("open %s: no such file or directory", path)
	}

	_, err := executeCommand(rootCmd, "list", "missing.yaml")

	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}
