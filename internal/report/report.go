// Package report renders harness progress and the final run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"conform/internal/scenario"
)

// Console reports scenario progress as it happens. On a terminal it
// shows a spinner while the tool under test runs; piped output stays
// line-oriented.
type Console struct {
	out        io.Writer
	useColor   bool
	useSpinner bool
	spin       *spinner.Spinner
}

// NewConsole reports to stdout, with spinner and color only on a tty.
func NewConsole() *Console {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	return &Console{out: os.Stdout, useColor: tty, useSpinner: tty}
}

// NewPlain reports to w without color or spinner. Used by tests and
// when --no-color is requested.
func NewPlain(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) GroupStarted(name string, depth int) {
	fmt.Fprintf(c.out, "%s%s\n", indent(depth), c.paint(color.CyanString, "i %s", name))
}

func (c *Console) ScenarioStarted(description string, depth int) {
	if !c.useSpinner {
		return
	}
	c.spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	c.spin.Suffix = fmt.Sprintf(" %s%s", indent(depth), description)
	c.spin.Start()
}

func (c *Console) ScenarioFinished(o scenario.Outcome, depth int) {
	if c.spin != nil {
		c.spin.Stop()
		c.spin = nil
	}

	name := lastSegment(o.Path)
	pad := indent(depth)
	switch o.State {
	case scenario.Passed:
		fmt.Fprintf(c.out, "%s%s\n", pad, c.paint(color.GreenString, "✔ %s", name))
	case scenario.Failed:
		fmt.Fprintf(c.out, "%s%s\n", pad, c.paint(color.RedString, "✖ %s", name))
		for _, line := range strings.Split(o.Err.Error(), "\n") {
			fmt.Fprintf(c.out, "%s  %s\n", pad, line)
		}
	case scenario.Skipped:
		if o.Err != nil {
			fmt.Fprintf(c.out, "%s%s\n", pad, c.paint(color.YellowString, "! %s (skipped: %s)", name, firstLine(o.Err.Error())))
		} else {
			fmt.Fprintf(c.out, "%s%s\n", pad, c.paint(color.YellowString, "- %s (skipped)", name))
		}
	}
}

// Summary renders the final table and verdict.
func (c *Console) Summary(sum *scenario.Summary) {
	fmt.Fprintln(c.out)
	WriteSummary(c.out, sum)
	if sum.OK() {
		fmt.Fprintf(c.out, "%s\n", c.paint(color.GreenString, "✔ %d passed, %d skipped", sum.Passed, sum.Skipped))
	} else {
		fmt.Fprintf(c.out, "%s\n", c.paint(color.RedString, "✖ %d failed, %d passed, %d skipped", sum.Failed, sum.Passed, sum.Skipped))
	}
}

// WriteSummary renders the per-scenario table without color, one row
// per outcome in execution order.
func WriteSummary(w io.Writer, sum *scenario.Summary) {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"SCENARIO", "STATE", "DETAIL"})
	for _, o := range sum.Outcomes {
		detail := ""
		if o.Err != nil {
			detail = firstLine(o.Err.Error())
		}
		table.Append([]string{o.Path, strings.ToUpper(o.State.String()), detail})
	}
	table.Render()
}

func (c *Console) paint(fn func(string, ...interface{}) string, format string, a ...interface{}) string {
	if c.useColor {
		return fn(format, a...)
	}
	return fmt.Sprintf(format, a...)
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, " / "); i >= 0 {
		return path[i+3:]
	}
	return path
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
