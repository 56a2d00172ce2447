package orchestrator

import (
	"fmt"
	"strings"

	"github.com/roleflow/roleflow/internal/domain/plan"
	"github.com/roleflow/roleflow/internal/domain/role"
	"github.com/roleflow/roleflow/internal/infra/artifact"
)

// Role system prompts. Each role must end its response with its status
// marker line; that line is the sole machine-readable contract between the
// free-text output and the orchestration core.

const plannerSystem = `You are the PLANNER role. Own execution sequencing and scope control.

Responsibilities:
1) Convert the idea, constraints, and change requests into a milestone-based plan with checkboxes.
2) Keep increments small, dependency-ordered, and reviewable in one implementation cycle.
3) Make plan.md the source of truth for what should happen next.

Rules:
- Each step names a deliverable and its validation intent, as one "- [ ]" checkbox line.
- Avoid speculative future work; plan only what is needed to ship current scope safely.
- Treat collaboration docs as current state, not chronological logs.
- Return plain text only.
- End your response with exactly one line:
  PLAN_STATUS: READY`

const architectSystem = `You are the ARCHITECT role. Own technical direction and constraints.

Responsibilities:
1) Translate plan items into concrete architecture decisions and interfaces in architecture.md.
2) Enforce secure defaults, reliability, and cost discipline.
3) Update plan ordering when architecture changes it.

Rules:
- State decision rationale where real choices exist.
- Keep architecture.md a current-state snapshot.
- Return plain text only.
- End your response with exactly one line:
  ARCH_STATUS: READY`

const developerSystem = `You are the DEVELOPER role. Own implementation and change safety.

Responsibilities:
1) Implement only the active plan checklist step in this cycle.
2) Follow plan.md and architecture.md; resolve reviewer/tester feedback precisely.
3) Keep development.md updated with what changed and why.

Rules:
- Prefer minimal, targeted edits over broad refactors.
- Do not start subsequent checklist steps in this cycle.
- If high-level plan/architecture changes are needed, set REPLAN_REQUIRED: YES.
- Return plain text only.
- End your response with exactly one line:
  DEV_STATUS: IN_PROGRESS|DONE|BLOCKED; REPLAN_REQUIRED: YES|NO`

const reviewerSystem = `You are the REVIEWER role. Own the quality gate before testing.

Responsibilities:
1) Assess the active implementation step for correctness, regression risk, and test adequacy.
2) Write findings in review.md with blocking and non-blocking sections.

Rules:
- Prioritize concrete defects over stylistic preferences.
- If plan/architecture changes are required to proceed safely, set REPLAN_REQUIRED: YES.
- Return plain text only.
- End your response with exactly one line:
  REVIEW_STATUS: PASS|NEEDS_CHANGES|FAIL; REPLAN_REQUIRED: YES|NO`

const testerSystem = `You are the TESTER role. Own verification evidence.

Responsibilities:
1) Execute the smallest command set that gives strong confidence for the active step.
2) Record exact commands and outcomes in test_results.md.

Rules:
- Fail if critical verification cannot run.
- Distinguish environment failures from product defects.
- Return plain text only.
- End your response with exactly one line:
  TEST_STATUS: PASS|FAIL; REPLAN_REQUIRED: YES|NO`

const complianceSystem = `You are the COMPLIANCE role. Own policy conformance and the final safeguard gate.

Responsibilities:
1) Validate coding style, compliance, and safeguard adherence against the policy pack.
2) Confirm reviewer/tester evidence quality.
3) Write compliance.md as the current compliance snapshot with actionable remediation.

Rules:
- Prioritize concrete policy violations and security risk over style opinions.
- If high-level plan/architecture changes are needed, set REPLAN_REQUIRED: YES.
- Return plain text only.
- End your response with exactly one line:
  COMPLIANCE_STATUS: APPROVED|VIOLATIONS; SAFEGUARD_STATUS: PASS|FAIL; REPLAN_REQUIRED: YES|NO`

func systemPrompt(r role.Role) string {
	switch r {
	case role.Planner:
		return plannerSystem
	case role.Architect:
		return architectSystem
	case role.Developer:
		return developerSystem
	case role.Reviewer:
		return reviewerSystem
	case role.Tester:
		return testerSystem
	case role.Compliance:
		return complianceSystem
	default:
		return ""
	}
}

// buildPrompt assembles the full invocation prompt for a role: system
// instructions, run inputs, the bound plan step, and governance context.
func buildPrompt(r role.Role, in Inputs, activeStep *plan.Step, cycle int, workDir string) string {
	var b strings.Builder

	b.WriteString("SYSTEM ROLE INSTRUCTIONS:\n")
	b.WriteString(systemPrompt(r))
	if in.RolePreferences != "" {
		b.WriteString("\n\nGlobal role preferences (from brief file):\n")
		b.WriteString(in.RolePreferences)
		b.WriteString("\nTreat these preferences as high-priority constraints for this role.")
	}
	if in.Governance != "" {
		b.WriteString("\n\nProduction governance contract:\n")
		b.WriteString(in.Governance)
	}
	if r == role.Compliance && in.Policy != "" {
		b.WriteString("\n\nCompliance policy pack:\n")
		b.WriteString(in.Policy)
	}

	b.WriteString("\n\nTASK:\n")
	fmt.Fprintf(&b, "Cycle %d.\n\n", cycle)
	if in.Idea != "" {
		fmt.Fprintf(&b, "Project idea:\n%s\n\n", in.Idea)
	}
	if in.Guidelines != "" {
		fmt.Fprintf(&b, "Guidelines:\n%s\n\n", in.Guidelines)
	}
	change := in.ChangeRequest
	if change == "" {
		change = "(none)"
	}
	fmt.Fprintf(&b, "Active change request:\n%s\n\n", change)

	if activeStep != nil {
		fmt.Fprintf(&b, "Current implementation step (from plan checklist):\n%s\n\n", activeStep.Description)
	}

	collab := strings.Join([]string{
		artifact.PlanFile, artifact.ArchitectureFile, artifact.DevelopmentFile,
		artifact.ReviewFile, artifact.TestResultsFile, artifact.ComplianceFile,
	}, "\n- ")
	fmt.Fprintf(&b, "Collaboration files (current-state snapshots, in the working directory):\n- %s\n\n", collab)
	fmt.Fprintf(&b, "Working directory:\n%s\n", workDir)

	switch r {
	case role.Planner:
		b.WriteString("\nProduce a practical implementation plan with markdown checkboxes (- [ ]) in plan.md.\n")
	case role.Architect:
		b.WriteString("\nUse plan.md as input and produce/refine architecture.md. Update plan ordering if needed.\n")
	case role.Developer:
		b.WriteString("\nImplement the current step directly in the working directory and update development.md.\n")
	case role.Reviewer:
		b.WriteString("\nReview only the current implementation step and write findings to review.md.\n")
	case role.Tester:
		b.WriteString("\nValidate only the current implementation step and record evidence in test_results.md.\n")
	case role.Compliance:
		b.WriteString("\nAssess policy conformance and write compliance.md with blocking and non-blocking findings.\n")
	}

	return b.String()
}
