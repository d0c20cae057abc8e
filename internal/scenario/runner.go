package scenario

import (
	"fmt"
	"time"

	"conform/internal/errors"
	"conform/internal/fixture"
)

// Runner interprets a scenario tree sequentially. Fixture instances
// are acquired immediately before the owning node runs and released on
// every exit path.
type Runner struct {
	Fixtures *fixture.Manager
	Reporter Reporter
	// Timeout is the per-invocation timeout handed to each Context.
	Timeout time.Duration
}

// frame is one ancestor group on the current path, carrying its shared
// fixture instance and its abort flag. A hook or setup failure flips
// aborted, which skips the rest of that group's subtree while sibling
// groups keep running.
type frame struct {
	group    *Group
	fixture  *fixture.Fixture
	aborted  bool
	abortErr error
}

func (r *Runner) reporter() Reporter {
	if r.Reporter == nil {
		return NopReporter
	}
	return r.Reporter
}

// Run executes the tree and returns the aggregated summary.
func (r *Runner) Run(root *Group) *Summary {
	sum := &Summary{}
	r.runGroup(root, "", 0, nil, sum)
	return sum
}

func (r *Runner) runGroup(g *Group, path string, depth int, ancestors []*frame, sum *Summary) {
	gPath := joinPath(path, g.Name)

	if g.SkipIf != nil && g.SkipIf() {
		r.skipSubtree(g, gPath, depth, sum, nil)
		return
	}
	r.reporter().GroupStarted(g.Name, depth)

	fr := &frame{group: g}
	if g.Fixture != "" || g.Scratch {
		shared, err := r.acquire(g.Fixture, g.Scratch)
		if err != nil {
			r.skipSubtree(g, gPath, depth, sum, err)
			return
		}
		defer shared.Release()
		fr.fixture = shared
	}

	frames := append(append([]*frame{}, ancestors...), fr)

	for _, n := range g.nodes {
		if reason := abortedAncestor(frames); reason != nil {
			r.skipNode(n, gPath, depth+1, sum, reason)
			continue
		}
		switch c := n.(type) {
		case *Scenario:
			o := r.runScenario(c, gPath, depth+1, frames, sum)
			if o.Err != nil && errors.IsSetup(o.Err) {
				fr.aborted = true
				fr.abortErr = o.Err
			}
		case *Group:
			r.runGroup(c, gPath, depth+1, frames, sum)
		}
	}
}

func (r *Runner) runScenario(s *Scenario, path string, depth int, frames []*frame, sum *Summary) Outcome {
	sPath := joinPath(path, s.Description)

	if s.SkipIf != nil && s.SkipIf() {
		s.state = Skipped
		o := Outcome{Path: sPath, State: Skipped}
		sum.record(o)
		r.reporter().ScenarioFinished(o, depth)
		return o
	}

	s.state = Running
	r.reporter().ScenarioStarted(s.Description, depth)

	o := Outcome{Path: sPath, State: Passed}
	if err := r.executeScenario(s, frames); err != nil {
		o.State = Failed
		o.Err = err
	}
	s.state = o.State
	sum.record(o)
	r.reporter().ScenarioFinished(o, depth)
	return o
}

func (r *Runner) executeScenario(s *Scenario, frames []*frame) error {
	fix := nearestFixture(frames)
	if s.Fixture != "" || s.Scratch {
		own, err := r.acquire(s.Fixture, s.Scratch)
		if err != nil {
			return err
		}
		defer own.Release()
		fix = own
	}

	ctx := &Context{fixture: fix, timeout: r.Timeout}

	// Before hooks, outermost group first. A failure aborts the owning
	// group's subtree but still tears down the groups already entered.
	var entered []*frame
	for _, fr := range frames {
		for _, h := range fr.group.Before {
			if hookErr := safeHook(h, ctx); hookErr != nil {
				wrapped := fmt.Errorf("before hook of group %q: %w", fr.group.Name, hookErr)
				fr.aborted = true
				fr.abortErr = wrapped
				runAfterHooks(ctx, entered)
				return wrapped
			}
		}
		entered = append(entered, fr)
	}

	err := r.runBody(s, ctx)
	if err == nil && ctx.assertions == 0 {
		err = fmt.Errorf("scenario %q recorded no assertions", s.Description)
	}

	// After hooks run innermost first, regardless of the body outcome.
	if afterErr := runAfterHooks(ctx, entered); afterErr != nil && err == nil {
		err = afterErr
	}
	return err
}

func (r *Runner) runBody(s *Scenario, ctx *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scenario panicked: %v", rec)
		}
	}()
	if s.Body == nil {
		return fmt.Errorf("scenario %q has no body", s.Description)
	}
	return s.Body(ctx)
}

func (r *Runner) acquire(name string, scratch bool) (*fixture.Fixture, error) {
	if scratch {
		return r.Fixtures.Scratch()
	}
	return r.Fixtures.Acquire(name)
}

// skipSubtree records every scenario under g as skipped. reason is nil
// for platform skips and carries the setup error otherwise.
func (r *Runner) skipSubtree(g *Group, path string, depth int, sum *Summary, reason error) {
	for _, n := range g.nodes {
		r.skipNode(n, path, depth+1, sum, reason)
	}
}

func (r *Runner) skipNode(n node, path string, depth int, sum *Summary, reason error) {
	switch c := n.(type) {
	case *Scenario:
		c.state = Skipped
		o := Outcome{Path: joinPath(path, c.Description), State: Skipped, Err: reason}
		sum.record(o)
		r.reporter().ScenarioFinished(o, depth)
	case *Group:
		r.skipSubtree(c, joinPath(path, c.Name), depth, sum, reason)
	}
}

func runAfterHooks(ctx *Context, entered []*frame) error {
	var firstErr error
	for i := len(entered) - 1; i >= 0; i-- {
		for _, h := range entered[i].group.After {
			if err := safeHook(h, ctx); err != nil {
				wrapped := fmt.Errorf("after hook of group %q: %w", entered[i].group.Name, err)
				entered[i].aborted = true
				entered[i].abortErr = wrapped
				if firstErr == nil {
					firstErr = wrapped
				}
			}
		}
	}
	return firstErr
}

func safeHook(h Hook, ctx *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook panicked: %v", rec)
		}
	}()
	return h(ctx)
}

func abortedAncestor(frames []*frame) error {
	for _, fr := range frames {
		if fr.aborted {
			if fr.abortErr != nil {
				return fr.abortErr
			}
			return fmt.Errorf("group %q aborted", fr.group.Name)
		}
	}
	return nil
}

func nearestFixture(frames []*frame) *fixture.Fixture {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].fixture != nil {
			return frames[i].fixture
		}
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + " / " + name
}
