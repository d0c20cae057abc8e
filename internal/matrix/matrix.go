// Package matrix turns a declarative list of documented commands into
// scenarios, so drift between onboarding text and actual tool behavior
// shows up as a failing run.
package matrix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"conform/internal/errors"
	"conform/internal/scenario"
)

// Entry is one documented command expected to succeed.
type Entry struct {
	Label   string `yaml:"label"`
	Command string `yaml:"command"`
}

// Load reads a standalone matrix file: a YAML list of entries.
// Unknown fields are rejected so typos fail loudly.
func Load(path string) ([]Entry, error) {
	const op = "matrix.load"

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(op, errors.KindOther, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		return nil, errors.E(op, errors.KindOther, fmt.Errorf("parsing %s: %w", path, err))
	}
	if err := Validate(entries); err != nil {
		return nil, errors.E(op, errors.KindOther, fmt.Errorf("%s: %w", path, err))
	}
	return entries, nil
}

// Validate rejects entries a run could not report on.
func Validate(entries []Entry) error {
	for i, e := range entries {
		if e.Label == "" {
			return fmt.Errorf("entry %d has no label", i)
		}
		if e.Command == "" {
			return fmt.Errorf("entry %q has no command", e.Label)
		}
	}
	return nil
}

// Scenario builds the check for one entry: the command runs inside the
// active fixture and must exit 0.
func Scenario(e Entry) *scenario.Scenario {
	return &scenario.Scenario{
		Description: fmt.Sprintf("documented command %q succeeds", e.Label),
		Body: func(ctx *scenario.Context) error {
			res, err := ctx.RunTolerant(e.Command)
			if err != nil {
				return err
			}
			return ctx.ExpectExitCode(res, 0)
		},
	}
}

// Group builds a group running every entry, in declaration order,
// inside one shared instance of the named fixture. Later entries may
// depend on side effects of earlier ones, so the group never reorders.
func Group(name, fixtureName string, entries []Entry) *scenario.Group {
	g := scenario.NewGroup(name)
	g.Fixture = fixtureName
	for _, e := range entries {
		g.AddScenario(Scenario(e))
	}
	return g
}
