package checks

import (
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
)

// Check inspects a patch graph and reports issues. Implementations must
// treat the graph as read-only and must not retain references to it
// beyond the call.
type Check interface {
	// Check returns the issues found (empty if clean).
	Check(g *patch.Graph) []Issue

	// Name returns a short identifier for the check.
	Name() string
}

// Auditor runs an ordered set of checks over a patch graph.
type Auditor struct {
	checks []Check
}

// NewAuditor creates an auditor with the default check set: unconnected
// ports first, then multiple drivers.
func NewAuditor() *Auditor {
	return &Auditor{checks: []Check{
		&UnconnectedPortCheck{},
		&MultipleDriverCheck{},
	}}
}

// NewEmptyAuditor creates an auditor with no checks registered.
func NewEmptyAuditor() *Auditor {
	return &Auditor{}
}

// AddCheck appends a check; checks run in registration order.
func (a *Auditor) AddCheck(c Check) {
	a.checks = append(a.checks, c)
}

// Checks returns the registered checks.
func (a *Auditor) Checks() []Check {
	return a.checks
}

// Audit runs every check and concatenates the results. Output order is
// deterministic for a given input ordering, so calling twice on an
// unchanged graph yields the identical list.
func (a *Auditor) Audit(g *patch.Graph) []Issue {
	issues := make([]Issue, 0)
	for _, c := range a.checks {
		issues = append(issues, c.Check(g)...)
	}
	return issues
}
