package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"conform/internal/config"
	"conform/internal/scenario"
	"conform/internal/suite"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [suite.yaml]",
	Short: "Lists the scenarios the suite would run, without running them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "conform.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.Load(path)
		if err != nil {
			return &setupError{err}
		}

		root := suite.Build(cfg)
		renderTree(root)
		fmt.Printf("\n%d scenarios\n", root.Scenarios())
		return nil
	},
}

func renderTree(root *scenario.Group) {
	root.Walk(func(depth int, g *scenario.Group, s *scenario.Scenario) {
		pad := strings.Repeat("  ", depth)
		switch {
		case g != nil && g.SkipIf != nil && g.SkipIf():
			color.Yellow("%s! %s (skipped on this platform)", pad, g.Name)
		case g != nil:
			color.Cyan("%s%s", pad, g.Name)
		case s != nil && s.SkipIf != nil && s.SkipIf():
			color.Yellow("%s- %s (skipped on this platform)", pad, s.Description)
		case s != nil:
			fmt.Printf("%s%s\n", pad, s.Description)
		}
	})
}

func init() {
	rootCmd.AddCommand(listCmd)
}
