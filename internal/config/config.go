package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"conform/internal/errors"
	"conform/internal/matrix"
)

const (
	// AppName is the name of the application
	AppName = "conform"
	// DefaultTimeoutSeconds bounds one tool invocation unless overridden.
	DefaultTimeoutSeconds = 60
)

// Tool identifies the binary under test and its invocation budget.
type Tool struct {
	Binary         string `yaml:"binary"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Fixtures locates the template trees.
type Fixtures struct {
	Root string `yaml:"root"`
}

// Patterns are the documented output messages the harness matches.
// They are configuration so the harness is not bound to one tool's
// phrasing.
type Patterns struct {
	Compiled       string `yaml:"compiled"`
	TestsPassed    string `yaml:"tests_passed"`
	NoProject      string `yaml:"no_project"`
	DiagnosticCode string `yaml:"diagnostic_code"`
}

// Scenarios parameterizes the built-in conformance scenarios.
type Scenarios struct {
	CompileFixture      string `yaml:"compile_fixture"`
	CompileSources      int    `yaml:"compile_sources"`
	TestsFixture        string `yaml:"tests_fixture"`
	ArtifactsDir        string `yaml:"artifacts_dir"`
	CleanSubcommand     string `yaml:"clean_subcommand"`
	CompileSubcommand   string `yaml:"compile_subcommand"`
	TestSubcommand      string `yaml:"test_subcommand"`
	ParallelFlag        string `yaml:"parallel_flag"`
	NoProjectSubcommand string `yaml:"no_project_subcommand"`
}

// Generate describes the project-generation step that precedes the
// onboarding command matrix. Env entries are passed only to that one
// invocation, so non-interactive defaults never leak into later steps.
type Generate struct {
	Command      string            `yaml:"command"`
	Env          map[string]string `yaml:"env"`
	ReadyLog     string            `yaml:"ready_log"`
	ReadyMessage string            `yaml:"ready_message"`
}

// Config is one suite definition.
type Config struct {
	Tool      Tool           `yaml:"tool"`
	Fixtures  Fixtures       `yaml:"fixtures"`
	Patterns  Patterns       `yaml:"patterns"`
	Scenarios Scenarios      `yaml:"scenarios"`
	Generate  Generate       `yaml:"generate"`
	Matrix    []matrix.Entry `yaml:"matrix"`

	// WorkRoot hosts fixture instances. Not part of the suite file;
	// defaults to the system temp dir, overridable via CONFORM_WORK_DIR.
	WorkRoot string `yaml:"-"`
}

// Load reads and validates a suite file. Relative fixture roots are
// resolved against the suite file's directory so a suite can travel
// with its fixtures.
var Load = func(path string) (*Config, error) {
	const op = "config.load"

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(op, errors.KindOther, err)
	}
	defer f.Close()

	cfg := defaults()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.E(op, errors.KindOther, fmt.Errorf("parsing %s: %w", path, err))
	}

	if cfg.Fixtures.Root != "" && !filepath.IsAbs(cfg.Fixtures.Root) {
		base, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, errors.E(op, errors.KindOther, err)
		}
		cfg.Fixtures.Root = filepath.Join(base, cfg.Fixtures.Root)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, errors.E(op, errors.KindOther, fmt.Errorf("%s: %w", path, err))
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Tool: Tool{TimeoutSeconds: DefaultTimeoutSeconds},
		Patterns: Patterns{
			Compiled:       `compiled (\d+) files? successfully`,
			TestsPassed:    `(\d+) passed`,
			NoProject:      `not inside a .* project`,
			DiagnosticCode: `E\d{3}`,
		},
		Scenarios: Scenarios{
			ArtifactsDir:      "build",
			CleanSubcommand:   "clean",
			CompileSubcommand: "compile",
			TestSubcommand:    "test",
			ParallelFlag:      "--parallel",
		},
		WorkRoot: os.TempDir(),
	}
}

// applyEnvOverrides honors the harness's own environment knobs.
// CONFORM_TIMEOUT is useful on slow CI machines, CONFORM_WORK_DIR for
// keeping instances on a scratch volume.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONFORM_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Tool.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("CONFORM_WORK_DIR"); v != "" {
		cfg.WorkRoot = v
	}
}

func (c *Config) validate() error {
	if c.Tool.Binary == "" {
		return fmt.Errorf("tool.binary is required")
	}
	if c.Scenarios.CompileFixture != "" && c.Scenarios.CompileSources <= 0 {
		return fmt.Errorf("scenarios.compile_sources must be positive when a compile fixture is set")
	}
	if (c.Scenarios.CompileFixture != "" || c.Scenarios.TestsFixture != "") && c.Fixtures.Root == "" {
		return fmt.Errorf("fixtures.root is required when fixture scenarios are configured")
	}
	if c.Generate.ReadyLog != "" && c.Generate.ReadyMessage == "" {
		return fmt.Errorf("generate.ready_message is required when generate.ready_log is set")
	}
	return matrix.Validate(c.Matrix)
}

// Timeout returns the per-invocation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Tool.TimeoutSeconds) * time.Second
}

// NoProjectSubcommand defaults to the compile subcommand: requesting a
// compile outside a project is the documented diagnostic path.
func (c *Config) NoProjectSubcommand() string {
	if c.Scenarios.NoProjectSubcommand != "" {
		return c.Scenarios.NoProjectSubcommand
	}
	return c.Scenarios.CompileSubcommand
}
