// Package suite assembles the built-in conformance scenarios for the
// tool under test: compile behavior, serial/parallel test parity,
// out-of-project diagnostics, and the documented onboarding commands.
package suite

import (
	"fmt"
	"runtime"

	"conform/internal/config"
	"conform/internal/matrix"
	"conform/internal/scenario"
)

// Build constructs the root group from a suite definition. Groups
// whose fixtures are not configured are omitted rather than failed.
func Build(cfg *config.Config) *scenario.Group {
	root := scenario.NewGroup("conform")
	// Every built-in scenario drives the tool through a POSIX shell.
	root.SkipIf = func() bool { return runtime.GOOS == "windows" }

	if cfg.Scenarios.CompileFixture != "" {
		root.AddGroup(compileGroup(cfg))
	}
	if cfg.Scenarios.TestsFixture != "" {
		root.AddGroup(parityGroup(cfg))
	}
	root.AddGroup(diagnosticsGroup(cfg))
	if g := onboardingGroup(cfg); g != nil {
		root.AddGroup(g)
	}
	return root
}

func toolCmd(cfg *config.Config, rest string) string {
	return cfg.Tool.Binary + " " + rest
}

// compileGroup checks that a clean build compiles every source file,
// reports the count, and leaves the artifacts directory behind.
func compileGroup(cfg *config.Config) *scenario.Group {
	g := scenario.NewGroup("compile")
	g.AddScenario(&scenario.Scenario{
		Description: "clean build compiles every source file",
		Fixture:     cfg.Scenarios.CompileFixture,
		Body: func(ctx *scenario.Context) error {
			if _, err := ctx.Run(toolCmd(cfg, cfg.Scenarios.CleanSubcommand)); err != nil {
				return err
			}
			res, err := ctx.Run(toolCmd(cfg, cfg.Scenarios.CompileSubcommand))
			if err != nil {
				return err
			}
			if err := ctx.ExpectExitCode(res, 0); err != nil {
				return err
			}
			n, err := ctx.ExpectCount(res.Stdout, cfg.Patterns.Compiled)
			if err != nil {
				return err
			}
			if n != cfg.Scenarios.CompileSources {
				return fmt.Errorf("fixture has %d source files, tool reported %d compiled", cfg.Scenarios.CompileSources, n)
			}
			return ctx.ExpectFileExists(cfg.Scenarios.ArtifactsDir)
		},
	})
	return g
}

// parityGroup guards against the stale-cache bug where a parallel
// worker reports zero tests: both modes run in the same instance, in
// sequence, and must agree on a non-zero pass count.
func parityGroup(cfg *config.Config) *scenario.Group {
	g := scenario.NewGroup("tests")
	g.AddScenario(&scenario.Scenario{
		Description: "parallel mode reports the same pass count as serial mode",
		Fixture:     cfg.Scenarios.TestsFixture,
		Body: func(ctx *scenario.Context) error {
			serialRes, err := ctx.Run(toolCmd(cfg, cfg.Scenarios.TestSubcommand))
			if err != nil {
				return err
			}
			serial, err := ctx.ExpectCount(serialRes.Stdout, cfg.Patterns.TestsPassed)
			if err != nil {
				return err
			}
			if serial == 0 {
				return fmt.Errorf("serial mode reported zero passing tests")
			}

			parallelCmd := toolCmd(cfg, cfg.Scenarios.TestSubcommand+" "+cfg.Scenarios.ParallelFlag)
			parallelRes, err := ctx.Run(parallelCmd)
			if err != nil {
				return err
			}
			parallel, err := ctx.ExpectCount(parallelRes.Stdout, cfg.Patterns.TestsPassed)
			if err != nil {
				return err
			}
			if parallel != serial {
				return fmt.Errorf("serial mode passed %d tests, parallel mode passed %d", serial, parallel)
			}
			return nil
		},
	})
	return g
}

// diagnosticsGroup checks the documented user error when the tool is
// invoked outside any project: exit code 1 and the diagnostic on stderr.
func diagnosticsGroup(cfg *config.Config) *scenario.Group {
	g := scenario.NewGroup("diagnostics")
	g.AddScenario(&scenario.Scenario{
		Description: "invocation outside a project is a documented user error",
		Scratch:     true,
		Body: func(ctx *scenario.Context) error {
			res, err := ctx.RunTolerant(toolCmd(cfg, cfg.NoProjectSubcommand()))
			if err != nil {
				return err
			}
			if err := ctx.ExpectExitCode(res, 1); err != nil {
				return err
			}
			if err := ctx.ExpectMatch(res.Stderr, cfg.Patterns.NoProject); err != nil {
				return err
			}
			return ctx.ExpectMatch(res.Stderr, cfg.Patterns.DiagnosticCode)
		},
	})
	return g
}

// onboardingGroup generates a project in a scratch instance, then runs
// every documented "next step" command in declared order inside it.
func onboardingGroup(cfg *config.Config) *scenario.Group {
	if cfg.Generate.Command == "" && len(cfg.Matrix) == 0 {
		return nil
	}

	g := scenario.NewGroup("onboarding")
	g.Scratch = true

	if cfg.Generate.Command != "" {
		gen := cfg.Generate
		timeout := cfg.Timeout()
		g.AddScenario(&scenario.Scenario{
			Description: "project generation succeeds with non-interactive defaults",
			Body: func(ctx *scenario.Context) error {
				res, err := ctx.RunWithEnv(gen.Command, gen.Env)
				if err != nil {
					return err
				}
				if err := ctx.ExpectExitCode(res, 0); err != nil {
					return err
				}
				if gen.ReadyLog != "" {
					return ctx.WaitForLogLine(gen.ReadyLog, gen.ReadyMessage, timeout)
				}
				return nil
			},
		})
	}

	for _, e := range cfg.Matrix {
		g.AddScenario(matrix.Scenario(e))
	}
	return g
}
