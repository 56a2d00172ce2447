// Package state owns the durable workflow state: the single record that
// lets a new process launch resume the run mid-workflow.
package state

import (
	"fmt"

	"github.com/roleflow/roleflow/internal/domain/role"
	"github.com/roleflow/roleflow/internal/domain/stagnation"
)

// TerminalReason enumerates why a run stopped accepting transitions
type TerminalReason string

const (
	ReasonComplete    TerminalReason = "COMPLETE"
	ReasonStagnation  TerminalReason = "STAGNATION"
	ReasonIdleTimeout TerminalReason = "IDLE_TIMEOUT"
	ReasonFatalError  TerminalReason = "FATAL_ERROR"
	ReasonUserStop    TerminalReason = "USER_STOP"
	ReasonMaxCycles   TerminalReason = "MAX_CYCLES"
)

// ExitCode maps a terminal reason to the process exit code, so callers can
// distinguish every halt cause. Only COMPLETE exits zero.
func (r TerminalReason) ExitCode() int {
	switch r {
	case ReasonComplete:
		return 0
	case ReasonStagnation:
		return 2
	case ReasonIdleTimeout:
		return 3
	case ReasonMaxCycles:
		return 4
	case ReasonUserStop:
		return 130
	default:
		return 1
	}
}

// State is the workflow_state record, one instance per run.
// It is mutated only by the scheduler, exactly once per completed role
// invocation, and persisted atomically after every transition.
type State struct {
	Version        int       `json:"version"`
	RunID          string    `json:"run_id"`
	CurrentRole    role.Role `json:"current_role"`
	CycleIndex     int       `json:"cycle_index"`
	ActiveStepID   string    `json:"active_step_id,omitempty"`
	ReplanRequired bool      `json:"replan_required"`
	Terminal       bool      `json:"terminal"`
	TerminalReason TerminalReason `json:"terminal_reason,omitempty"`
	// Most-recent-first trail of gate outcome fingerprints, capped by the
	// stagnation detector.
	LastGateOutcomes []stagnation.Outcome `json:"last_gate_outcomes,omitempty"`
	UpdatedAt        string               `json:"updated_at,omitempty"`
}

// New creates the bootstrap state for a fresh run
func New(runID string) *State {
	return &State{
		Version:     1,
		RunID:       runID,
		CurrentRole: role.Planner,
		CycleIndex:  0,
	}
}

// MarkTerminal transitions the run into its absorbing terminal state.
// The transition is one-way: a second call is an error, and no role may
// run afterward.
func (s *State) MarkTerminal(reason TerminalReason) error {
	if s.Terminal {
		return fmt.Errorf("state already terminal (reason %s)", s.TerminalReason)
	}
	s.Terminal = true
	s.TerminalReason = reason
	return nil
}

// Validate checks the invariants a loaded state must satisfy
func (s *State) Validate() error {
	if !s.CurrentRole.IsValid() {
		return fmt.Errorf("invalid current_role %q", s.CurrentRole)
	}
	if s.CycleIndex < 0 {
		return fmt.Errorf("negative cycle_index %d", s.CycleIndex)
	}
	if s.CurrentRole.RequiresActiveStep() && s.ActiveStepID == "" && !s.Terminal {
		return fmt.Errorf("role %s requires an active step binding", s.CurrentRole)
	}
	if s.Terminal && s.TerminalReason == "" {
		return fmt.Errorf("terminal state without terminal_reason")
	}
	if !s.Terminal && s.TerminalReason != "" {
		return fmt.Errorf("terminal_reason %q on non-terminal state", s.TerminalReason)
	}
	return nil
}
