package scenario

import (
	"path/filepath"
	"time"

	"conform/internal/check"
	"conform/internal/fixture"
	"conform/internal/logwait"
	"conform/internal/proc"
)

// Context is the ephemeral state passed to hooks and scenario bodies.
// It replaces ambient globals: the active fixture, the last process
// result, and the assertion count all live here.
type Context struct {
	fixture    *fixture.Fixture
	timeout    time.Duration
	last       *proc.Result
	assertions int
}

// Dir returns the active fixture's instance path, or "" when the
// scenario runs without a fixture.
func (c *Context) Dir() string {
	if c.fixture != nil {
		return c.fixture.InstancePath
	}
	return ""
}

// LastResult returns the result of the most recent invocation, or nil.
func (c *Context) LastResult() *proc.Result { return c.last }

// Run invokes command inside the fixture in strict mode: a non-zero
// exit fails the call.
func (c *Context) Run(command string) (proc.Result, error) {
	return c.run(command, nil, false)
}

// RunTolerant invokes command and returns non-zero exits as a normal
// result for the caller to assert on.
func (c *Context) RunTolerant(command string) (proc.Result, error) {
	return c.run(command, nil, true)
}

// RunWithEnv invokes command with environment overrides scoped to this
// single invocation.
func (c *Context) RunWithEnv(command string, env map[string]string) (proc.Result, error) {
	return c.run(command, env, false)
}

func (c *Context) run(command string, env map[string]string, tolerate bool) (proc.Result, error) {
	res, err := proc.Run(command, proc.Options{
		Dir:                 c.Dir(),
		Env:                 env,
		TolerateNonZeroExit: tolerate,
		Timeout:             c.timeout,
	})
	c.last = &res
	return res, err
}

// ExpectExitCode asserts on the result's exit code.
func (c *Context) ExpectExitCode(res proc.Result, want int) error {
	c.assertions++
	return check.ExitCode(res, want)
}

// ExpectMatch asserts pattern matches text.
func (c *Context) ExpectMatch(text, pattern string) error {
	c.assertions++
	return check.Match(text, pattern)
}

// ExpectNoMatch asserts pattern does not match text.
func (c *Context) ExpectNoMatch(text, pattern string) error {
	c.assertions++
	return check.NoMatch(text, pattern)
}

// ExpectCount asserts pattern matches text and returns the integer its
// first capture group caught.
func (c *Context) ExpectCount(text, pattern string) (int, error) {
	c.assertions++
	return check.Count(text, pattern)
}

// ExpectFileExists asserts rel exists inside the fixture instance.
func (c *Context) ExpectFileExists(rel string) error {
	c.assertions++
	return check.FileExists(filepath.Join(c.Dir(), rel))
}

// WaitForLogLine blocks until a log file inside the fixture contains
// message, for tools whose generation steps report readiness in a log.
func (c *Context) WaitForLogLine(rel, message string, timeout time.Duration) error {
	return logwait.ForLine(filepath.Join(c.Dir(), rel), message, timeout)
}
