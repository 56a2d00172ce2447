// Package role defines the work roles the orchestrator cycles through
// and the fixed handoff order between them.
package role

import "strings"

// Role represents a named phase of work bound to one agent invocation per cycle
type Role string

const (
	Planner    Role = "PLANNER"
	Architect  Role = "ARCHITECT"
	Developer  Role = "DEVELOPER"
	Reviewer   Role = "REVIEWER"
	Tester     Role = "TESTER"
	Compliance Role = "COMPLIANCE"
)

// Sequence is the fixed handoff order. Planner and architect run on demand
// only (bootstrap or replan); the steady-state cycle starts at Developer.
var Sequence = []Role{Planner, Architect, Developer, Reviewer, Tester, Compliance}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case Planner, Architect, Developer, Reviewer, Tester, Compliance:
		return true
	default:
		return false
	}
}

// Next returns the role that follows r in the fixed sequence.
// The last role wraps to Developer, which starts the next cycle.
func (r Role) Next() Role {
	for i, s := range Sequence {
		if s == r {
			if i+1 < len(Sequence) {
				return Sequence[i+1]
			}
			return Developer
		}
	}
	return Developer
}

// RequiresActiveStep returns true for roles that operate on a bound plan step
func (r Role) RequiresActiveStep() bool {
	switch r {
	case Developer, Reviewer, Tester:
		return true
	default:
		return false
	}
}

// Activity returns a short present-tense label for progress reporting
func (r Role) Activity() string {
	switch r {
	case Planner:
		return "planning"
	case Architect:
		return "designing"
	case Developer:
		return "implementing"
	case Reviewer:
		return "reviewing"
	case Tester:
		return "running checks"
	case Compliance:
		return "checking policy"
	default:
		return "processing"
	}
}

// Parse parses a string into a Role. Unknown values return false.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r.IsValid() {
		return r, true
	}
	return "", false
}
