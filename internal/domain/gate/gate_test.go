package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roleflow/roleflow/internal/domain/marker"
	"github.com/roleflow/roleflow/internal/domain/role"
)

func TestEvaluateDecisionTable(t *testing.T) {
	tests := []struct {
		name      string
		role      role.Role
		values    marker.Values
		remaining int
		decision  Decision
		target    role.Role
	}{
		{"planner ready", role.Planner,
			marker.Values{"PLAN_STATUS": "READY"}, 1, Advance, role.Architect},
		{"architect ready", role.Architect,
			marker.Values{"ARCH_STATUS": "READY"}, 1, Advance, role.Developer},
		{"developer done", role.Developer,
			marker.Values{"DEV_STATUS": "DONE"}, 1, Advance, role.Reviewer},
		{"developer in progress", role.Developer,
			marker.Values{"DEV_STATUS": "IN_PROGRESS"}, 1, RepeatRole, role.Developer},
		{"developer blocked", role.Developer,
			marker.Values{"DEV_STATUS": "BLOCKED"}, 1, Replan, ""},
		{"reviewer pass", role.Reviewer,
			marker.Values{"REVIEW_STATUS": "PASS"}, 1, Advance, role.Tester},
		{"reviewer needs changes", role.Reviewer,
			marker.Values{"REVIEW_STATUS": "NEEDS_CHANGES"}, 1, RepeatRole, role.Developer},
		{"reviewer fail", role.Reviewer,
			marker.Values{"REVIEW_STATUS": "FAIL"}, 1, Replan, ""},
		{"tester pass with work left", role.Tester,
			marker.Values{"TEST_STATUS": "PASS"}, 2, Advance, role.Developer},
		{"tester pass nothing left", role.Tester,
			marker.Values{"TEST_STATUS": "PASS"}, 0, Advance, role.Compliance},
		{"tester fail", role.Tester,
			marker.Values{"TEST_STATUS": "FAIL"}, 0, RepeatRole, role.Developer},
		{"compliance approved", role.Compliance,
			marker.Values{"COMPLIANCE_STATUS": "APPROVED", "SAFEGUARD_STATUS": "PASS"}, 0, Complete, ""},
		{"compliance violations", role.Compliance,
			marker.Values{"COMPLIANCE_STATUS": "VIOLATIONS", "SAFEGUARD_STATUS": "PASS"}, 0, RepeatRole, role.Developer},
		{"compliance safeguard fail", role.Compliance,
			marker.Values{"COMPLIANCE_STATUS": "APPROVED", "SAFEGUARD_STATUS": "FAIL"}, 0, RepeatRole, role.Developer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.role, "s-00000001", tt.values, tt.remaining)
			assert.Equal(t, tt.decision, res.Decision)
			assert.Equal(t, tt.target, res.Target)
		})
	}
}

func TestEvaluateReplanDominates(t *testing.T) {
	// An explicit replan request overrides an otherwise-advancing status
	res := Evaluate(role.Developer, "s-1",
		marker.Values{"DEV_STATUS": "DONE", "REPLAN_REQUIRED": "YES"}, 1)
	assert.Equal(t, Replan, res.Decision)

	res = Evaluate(role.Tester, "s-1",
		marker.Values{"TEST_STATUS": "PASS", "REPLAN_REQUIRED": "YES"}, 0)
	assert.Equal(t, Replan, res.Decision)
}

func TestEvaluateMissingMarkerFails(t *testing.T) {
	res := Evaluate(role.Developer, "s-1", marker.Values{}, 1)
	require.Equal(t, Fail, res.Decision)
	assert.Contains(t, res.Reason, "missing")
}

func TestEvaluateInvalidMarkerFails(t *testing.T) {
	res := Evaluate(role.Developer, "s-1", marker.Values{"DEV_STATUS": "ALMOST"}, 1)
	require.Equal(t, Fail, res.Decision)
	assert.Contains(t, res.Reason, "not in enumeration")
}

func TestEvaluateInvalidReplanFails(t *testing.T) {
	res := Evaluate(role.Developer, "s-1",
		marker.Values{"DEV_STATUS": "DONE", "REPLAN_REQUIRED": "MAYBE"}, 1)
	assert.Equal(t, Fail, res.Decision)
}

func TestSignatureReflectsPayload(t *testing.T) {
	a := Evaluate(role.Developer, "s-1", marker.Values{"DEV_STATUS": "IN_PROGRESS"}, 1)
	b := Evaluate(role.Developer, "s-1", marker.Values{"DEV_STATUS": "IN_PROGRESS"}, 1)
	c := Evaluate(role.Developer, "s-1", marker.Values{"DEV_STATUS": "DONE"}, 1)
	d := Evaluate(role.Developer, "s-2", marker.Values{"DEV_STATUS": "IN_PROGRESS"}, 1)

	assert.Equal(t, a.Signature, b.Signature)
	assert.NotEqual(t, a.Signature, c.Signature)
	assert.NotEqual(t, a.Signature, d.Signature)
	assert.Len(t, a.Signature, 16)
	assert.Equal(t, strings.ToLower(a.Signature), a.Signature)
}
