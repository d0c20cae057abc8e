package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"conform/internal/config"
	"conform/internal/fixture"
	"conform/internal/matrix"
	"conform/internal/report"
	"conform/internal/scenario"
	"conform/internal/suite"
)

var (
	runMatrixFile string
	runTimeout    int
	runNoColor    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [suite.yaml]",
	Short: "Runs the conformance suite against the tool under test",
	Long: `Runs the conformance suite against the tool under test.

Loads the suite definition (default: conform.yaml), materializes an
isolated fixture instance per scenario, drives the tool through its
documented commands and checks exit codes and output patterns.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "conform.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.Load(path)
		if err != nil {
			return &setupError{err}
		}
		if runTimeout > 0 {
			cfg.Tool.TimeoutSeconds = runTimeout
		}
		if runMatrixFile != "" {
			entries, err := matrix.Load(runMatrixFile)
			if err != nil {
				return &setupError{err}
			}
			cfg.Matrix = append(cfg.Matrix, entries...)
		}

		root := suite.Build(cfg)

		reporter := report.NewConsole()
		if runNoColor {
			reporter = report.NewPlain(os.Stdout)
		}
		runner := &scenario.Runner{
			Fixtures: fixture.NewManager(cfg.Fixtures.Root, cfg.WorkRoot),
			Reporter: reporter,
			Timeout:  cfg.Timeout(),
		}

		color.Cyan("i Running %d scenarios against %q", root.Scenarios(), cfg.Tool.Binary)
		sum := runner.Run(root)
		reporter.Summary(sum)

		if !sum.OK() {
			return fmt.Errorf("%d of %d scenarios failed", sum.Failed, len(sum.Outcomes))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runMatrixFile, "matrix", "", "extra command-matrix file appended to the onboarding group")
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0, "per-invocation timeout in seconds (overrides the suite file)")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "disable colored output and the spinner")
	rootCmd.AddCommand(runCmd)
}
