// Package scenario is the harness's execution tree: groups with
// setup/teardown hooks around leaf scenarios, traversed depth-first in
// declaration order by an explicit interpreter. One scenario runs to
// completion (hook chain included) before the next begins.
package scenario

// State is the lifecycle of a node. Terminal states are final; the
// tree never retries.
type State int

const (
	Pending State = iota
	Running
	Passed
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Hook runs before or after every scenario of its owning group.
type Hook func(*Context) error

// Scenario is a single behavioral check against the tool under test.
type Scenario struct {
	Description string
	// Fixture names a template to materialize for this scenario only.
	Fixture string
	// Scratch requests an empty instance directory instead.
	Scratch bool
	// SkipIf short-circuits the scenario: no fixture, hooks or body run.
	SkipIf func() bool
	Body   func(*Context) error

	state State
}

// State returns the node's current lifecycle state.
func (s *Scenario) State() State { return s.state }

// Group is a named collection of scenarios and subgroups sharing
// hooks, and optionally one fixture instance across its children.
type Group struct {
	Name    string
	Fixture string
	Scratch bool
	SkipIf  func() bool
	Before  []Hook
	After   []Hook

	nodes []node
}

// node is either a leaf Scenario or a Group.
type node interface{ isNode() }

func (*Scenario) isNode() {}
func (*Group) isNode()    {}

func NewGroup(name string) *Group {
	return &Group{Name: name}
}

func (g *Group) AddScenario(s *Scenario) *Group {
	g.nodes = append(g.nodes, s)
	return g
}

func (g *Group) AddGroup(child *Group) *Group {
	g.nodes = append(g.nodes, child)
	return g
}

// Scenarios returns the leaf count of the subtree.
func (g *Group) Scenarios() int {
	n := 0
	for _, c := range g.nodes {
		switch c := c.(type) {
		case *Scenario:
			n++
		case *Group:
			n += c.Scenarios()
		}
	}
	return n
}

// Walk visits every node depth-first in declaration order. Scenarios
// are passed with a nil group, groups with a nil scenario.
func (g *Group) Walk(visit func(depth int, group *Group, s *Scenario)) {
	g.walk(0, visit)
}

func (g *Group) walk(depth int, visit func(int, *Group, *Scenario)) {
	visit(depth, g, nil)
	for _, c := range g.nodes {
		switch c := c.(type) {
		case *Scenario:
			visit(depth+1, nil, c)
		case *Group:
			c.walk(depth+1, visit)
		}
	}
}

// Outcome records one scenario's terminal state.
type Outcome struct {
	Path  string
	State State
	Err   error
}

// Summary aggregates the run.
type Summary struct {
	Outcomes []Outcome
	Passed   int
	Failed   int
	Skipped  int
}

func (s *Summary) OK() bool { return s.Failed == 0 }

func (s *Summary) record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.State {
	case Passed:
		s.Passed++
	case Failed:
		s.Failed++
	case Skipped:
		s.Skipped++
	}
}

// Reporter receives progress events from the interpreter.
type Reporter interface {
	GroupStarted(name string, depth int)
	ScenarioStarted(description string, depth int)
	ScenarioFinished(o Outcome, depth int)
}

type nopReporter struct{}

func (nopReporter) GroupStarted(string, int)      {}
func (nopReporter) ScenarioStarted(string, int)   {}
func (nopReporter) ScenarioFinished(Outcome, int) {}

// NopReporter discards all events.
var NopReporter Reporter = nopReporter{}
