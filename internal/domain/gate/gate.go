// Package gate evaluates parsed role markers against the workflow rules
// and produces the transition decision for the scheduler.
package gate

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/roleflow/roleflow/internal/domain/marker"
	"github.com/roleflow/roleflow/internal/domain/role"
)

// Decision is the transition verdict of a gate
type Decision string

const (
	Advance    Decision = "ADVANCE"     // move to the target role
	RepeatRole Decision = "REPEAT_ROLE" // re-enter the target role on the same work
	Replan     Decision = "REPLAN"      // route back to planner/architect
	Complete   Decision = "COMPLETE"    // workflow finished successfully
	Fail       Decision = "FAIL"        // unrecoverable gate failure
)

// Result carries the gate outcome for one role invocation
type Result struct {
	Role     role.Role
	StepID   string
	Markers  marker.Values
	Decision Decision
	Target   role.Role // next role for Advance / RepeatRole
	Reason   string
	// Signature fingerprints (role, step, marker payload) for repetition
	// detection. Identical signatures mean the gate saw no observable change.
	Signature string
}

func signature(r role.Role, stepID string, values marker.Values) string {
	h := fnv.New64a()
	h.Write([]byte(r.String()))
	h.Write([]byte{0})
	h.Write([]byte(stepID))
	for _, pair := range values.Sorted() {
		h.Write([]byte{0})
		h.Write([]byte(pair))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func failed(r role.Role, stepID string, values marker.Values, err error) Result {
	return Result{
		Role:      r,
		StepID:    stepID,
		Markers:   values,
		Decision:  Fail,
		Reason:    err.Error(),
		Signature: signature(r, stepID, values),
	}
}

// Evaluate is a pure function of (role, parsed markers, open step count)
// to a gate result. Missing or malformed required markers produce a FAIL
// decision with the distinguishing cause; the workflow never advances
// silently on unparseable output.
//
// remaining is the number of open plan steps besides the one bound to this
// cycle. An explicit REPLAN_REQUIRED: YES dominates every other marker:
// replanning is the escape hatch when a role detects infeasibility.
func Evaluate(r role.Role, stepID string, values marker.Values, remaining int) Result {
	res := Result{
		Role:      r,
		StepID:    stepID,
		Markers:   values,
		Signature: signature(r, stepID, values),
	}

	replan, present, err := marker.ReplanRequired.ExtractOptional(values)
	if err != nil {
		return failed(r, stepID, values, err)
	}
	if present && replan == "YES" {
		res.Decision = Replan
		res.Reason = "role requested replanning"
		return res
	}

	switch r {
	case role.Planner:
		if _, err := marker.PlanStatus.Extract(values); err != nil {
			return failed(r, stepID, values, err)
		}
		res.Decision = Advance
		res.Target = role.Architect

	case role.Architect:
		if _, err := marker.ArchStatus.Extract(values); err != nil {
			return failed(r, stepID, values, err)
		}
		res.Decision = Advance
		res.Target = role.Developer

	case role.Developer:
		status, err := marker.DevStatus.Extract(values)
		if err != nil {
			return failed(r, stepID, values, err)
		}
		switch status {
		case "DONE":
			res.Decision = Advance
			res.Target = role.Reviewer
		case "IN_PROGRESS":
			res.Decision = RepeatRole
			res.Target = role.Developer
		case "BLOCKED":
			res.Decision = Replan
			res.Reason = "developer blocked on active step"
		}

	case role.Reviewer:
		status, err := marker.ReviewStatus.Extract(values)
		if err != nil {
			return failed(r, stepID, values, err)
		}
		switch status {
		case "PASS":
			res.Decision = Advance
			res.Target = role.Tester
		case "NEEDS_CHANGES":
			res.Decision = RepeatRole
			res.Target = role.Developer
			res.Reason = "review requested changes"
		case "FAIL":
			res.Decision = Replan
			res.Reason = "review failed"
		}

	case role.Tester:
		status, err := marker.TestStatus.Extract(values)
		if err != nil {
			return failed(r, stepID, values, err)
		}
		switch {
		case status == "PASS" && remaining == 0:
			// Final safeguard gate before completion
			res.Decision = Advance
			res.Target = role.Compliance
		case status == "PASS":
			res.Decision = Advance
			res.Target = role.Developer
			res.Reason = "step verified, next plan step"
		default:
			res.Decision = RepeatRole
			res.Target = role.Developer
			res.Reason = "tests failed"
		}

	case role.Compliance:
		status, err := marker.ComplianceStatus.Extract(values)
		if err != nil {
			return failed(r, stepID, values, err)
		}
		safeguard, err := marker.SafeguardStatus.Extract(values)
		if err != nil {
			return failed(r, stepID, values, err)
		}
		if status == "APPROVED" && safeguard == "PASS" {
			res.Decision = Complete
		} else {
			res.Decision = RepeatRole
			res.Target = role.Developer
			res.Reason = fmt.Sprintf("policy gate not satisfied: compliance=%s safeguards=%s",
				strings.ToLower(status), strings.ToLower(safeguard))
		}

	default:
		return failed(r, stepID, values, fmt.Errorf("unknown role %q", r))
	}

	return res
}
