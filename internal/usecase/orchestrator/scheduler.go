// Package orchestrator drives the role workflow: it selects the next role,
// invokes the external agent, parses the status markers, evaluates the gate,
// and persists state after every transition so any process launch can resume
// where the previous one stopped.
package orchestrator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/roleflow/roleflow/internal/app"
	appconfig "github.com/roleflow/roleflow/internal/app/config"
	"github.com/roleflow/roleflow/internal/app/journal"
	"github.com/roleflow/roleflow/internal/app/state"
	"github.com/roleflow/roleflow/internal/domain/gate"
	"github.com/roleflow/roleflow/internal/domain/marker"
	"github.com/roleflow/roleflow/internal/domain/plan"
	"github.com/roleflow/roleflow/internal/domain/role"
	"github.com/roleflow/roleflow/internal/domain/stagnation"
	"github.com/roleflow/roleflow/internal/infra/artifact"
	"github.com/roleflow/roleflow/internal/infra/scan"
	"github.com/roleflow/roleflow/internal/interface/external/agentcli"
)

// decisionLogTail bounds the rendered decisions_log.md view; the NDJSON
// journal keeps the full trail.
const decisionLogTail = 12

// AgentRunner abstracts the external agent invocation so the scheduler can
// be exercised without spawning processes.
type AgentRunner interface {
	Run(ctx context.Context, req agentcli.Request) (agentcli.Result, error)
}

// Scheduler owns the workflow loop for one workspace
type Scheduler struct {
	fsys    afero.Fs
	cfg     appconfig.Config
	runner  AgentRunner
	store   *artifact.Store
	journal *journal.Writer
	paths   app.Paths
	log     app.Logger
}

// New wires a scheduler for the given workspace and home layout
func New(fsys afero.Fs, cfg appconfig.Config, runner AgentRunner, paths app.Paths, log app.Logger) *Scheduler {
	if log == nil {
		log = app.GetLogger()
	}
	return &Scheduler{
		fsys:    fsys,
		cfg:     cfg,
		runner:  runner,
		store:   artifact.NewStore(fsys, cfg.WorkDir()),
		journal: journal.NewWriter(fsys, paths.Journal),
		paths:   paths,
		log:     log,
	}
}

// Run executes the workflow until it reaches a terminal state and returns
// the terminal reason. A non-nil error means the loop itself broke (I/O,
// corrupt state), not that the workflow failed; workflow failures are
// terminal reasons.
func (s *Scheduler) Run(ctx context.Context) (state.TerminalReason, error) {
	in, err := LoadInputs(s.fsys, s.cfg)
	if err != nil {
		return state.ReasonFatalError, fmt.Errorf("failed to load run inputs: %w", err)
	}

	st, err := state.Load(s.fsys, s.paths.State)
	switch {
	case errors.Is(err, state.ErrNoState):
		if in.Idea == "" {
			return state.ReasonFatalError,
				fmt.Errorf("new run needs a brief: %s is missing or has no idea", s.cfg.BriefFile())
		}
		st = state.New(newRunID())
		if err := s.store.EnsureSeeds(in.Idea, in.Guidelines, in.RolePreferences); err != nil {
			return state.ReasonFatalError, err
		}
		if err := s.persist(st); err != nil {
			return state.ReasonFatalError, err
		}
		s.log.Info("new run %s in %s", st.RunID, s.cfg.WorkDir())
	case err != nil:
		return state.ReasonFatalError, err
	default:
		s.log.Info("resuming run %s at %s (cycle %d)", st.RunID, st.CurrentRole, st.CycleIndex)
	}

	if st.Terminal {
		s.log.Info("run %s is already terminal (%s); nothing to do", st.RunID, st.TerminalReason)
		return st.TerminalReason, nil
	}

	detector := stagnation.New(s.cfg.StagnationWindow())
	detector.Restore(st.LastGateOutcomes)

	// MaxCycles bounds full plan cycles; each allows one invocation per role
	maxInvocations := s.cfg.MaxCycles() * len(role.Sequence)

	for {
		if ctx.Err() != nil {
			return s.halt(st, state.ReasonUserStop, "interrupted before invocation")
		}

		planText, err := s.store.Read(artifact.PlanFile)
		if err != nil {
			return state.ReasonFatalError, err
		}
		steps := plan.Parse(planText)

		st.CurrentRole = selectRole(st.CurrentRole, st.ReplanRequired, len(steps) > 0)
		if err := s.ensureBinding(st, steps); err != nil {
			return state.ReasonFatalError, err
		}

		if detector.Stagnant() {
			detail := fmt.Sprintf("%d identical gate outcomes on %s (signatures %s)",
				s.cfg.StagnationWindow(), st.CurrentRole, strings.Join(detector.Trail(), ", "))
			return s.halt(st, state.ReasonStagnation, detail)
		}
		if st.CycleIndex >= maxInvocations {
			return s.halt(st, state.ReasonMaxCycles,
				fmt.Sprintf("cycle budget exhausted (%d invocations)", maxInvocations))
		}

		st.CycleIndex++

		var activeStep *plan.Step
		if st.ActiveStepID != "" {
			if step, ok := plan.Find(steps, st.ActiveStepID); ok {
				activeStep = &step
			}
		}

		s.log.Info("cycle %d: %s is %s", st.CycleIndex, st.CurrentRole, st.CurrentRole.Activity())
		res, runErr := s.runner.Run(ctx, agentcli.Request{
			Role:    st.CurrentRole.String(),
			Prompt:  buildPrompt(st.CurrentRole, in, activeStep, st.CycleIndex, s.cfg.WorkDir()),
			WorkDir: s.cfg.WorkDir(),
		})
		if runErr != nil {
			s.journalError(st, res, runErr)
			switch {
			case errors.Is(runErr, agentcli.ErrIdleTimeout):
				return s.halt(st, state.ReasonIdleTimeout, runErr.Error())
			case errors.Is(runErr, agentcli.ErrOutputLoop):
				return s.halt(st, state.ReasonStagnation, runErr.Error())
			case ctx.Err() != nil:
				return s.halt(st, state.ReasonUserStop, "interrupted during invocation")
			default:
				return s.halt(st, state.ReasonFatalError, runErr.Error())
			}
		}
		if res.ExitCode != 0 {
			// The agent produced output before failing; markers may still be
			// present, so parse rather than discard the cycle.
			s.log.Warn("[%s] agent exited with code %d; parsing captured output anyway",
				st.CurrentRole, res.ExitCode)
		}

		values := marker.Scan(res.Output)

		evidence := ""
		if st.CurrentRole == role.Compliance && s.cfg.ScanSensitive() {
			findings, scanErr := scan.Findings(s.fsys, s.cfg.WorkDir())
			if scanErr != nil {
				s.log.Warn("sensitive scan failed: %v", scanErr)
			}
			if len(findings) > 0 {
				s.log.Warn("sensitive scan: %d finding(s); forcing safeguard failure", len(findings))
				values[marker.ComplianceStatus.Name] = "VIOLATIONS"
				values[marker.SafeguardStatus.Name] = "FAIL"
				evidence = "\n\n## Sensitive Content Findings\n- " + strings.Join(findings, "\n- ")
			}
		}

		result := gate.Evaluate(st.CurrentRole, st.ActiveStepID, values,
			openStepsExcluding(steps, st.ActiveStepID))

		// Relaxed gates downgrade a policy miss to a warning; sensitive
		// findings always block.
		if result.Role == role.Compliance && result.Decision == gate.RepeatRole &&
			!s.cfg.StrictGates() && evidence == "" {
			s.log.Warn("compliance gate not satisfied (%s); strict gates disabled, completing", result.Reason)
			result.Decision = gate.Complete
			result.Target = ""
			result.Reason = "strict gates disabled"
		}

		if name := snapshotFile(result.Role); name != "" {
			if err := s.store.WriteSnapshot(name, res.Output+evidence); err != nil {
				s.log.Warn("failed to snapshot %s: %v", name, err)
			}
		}

		if result.Role == role.Developer {
			s.applyStepStatus(st, values)
		}

		detector.Record(stagnation.Outcome{
			Signature: result.Signature,
			Role:      result.Role.String(),
			StepID:    result.StepID,
			Decision:  string(result.Decision),
		})
		st.LastGateOutcomes = detector.Outcomes()

		s.journalGate(st, res, result)
		s.log.Info("cycle %d: %s gate -> %s %s %s",
			st.CycleIndex, result.Role, result.Decision, result.Target, result.Reason)

		switch result.Decision {
		case gate.Fail:
			return s.halt(st, state.ReasonFatalError, result.Reason)

		case gate.Complete:
			st.ActiveStepID = ""
			return s.halt(st, state.ReasonComplete, "")

		case gate.Replan:
			st.ReplanRequired = true
			st.ActiveStepID = ""
			st.CurrentRole = role.Planner
			// The plan is about to change; old outcome trails are moot
			detector.Reset()
			st.LastGateOutcomes = nil

		case gate.Advance:
			if result.Role == role.Architect {
				// Planning pass finished; the replan request is satisfied
				st.ReplanRequired = false
			}
			if result.Role == role.Tester && result.Target == role.Developer {
				// Step verified: bind the next open step and restart the trail
				st.ActiveStepID = ""
				detector.Reset()
				st.LastGateOutcomes = nil
			}
			st.CurrentRole = result.Target

		case gate.RepeatRole:
			st.CurrentRole = result.Target
		}

		// Resolve the next binding before persisting so a crash never leaves
		// a step-bound role without its step.
		nextPlan, err := s.store.Read(artifact.PlanFile)
		if err != nil {
			return state.ReasonFatalError, err
		}
		if err := s.ensureBinding(st, plan.Parse(nextPlan)); err != nil {
			return state.ReasonFatalError, err
		}
		if err := s.persist(st); err != nil {
			return state.ReasonFatalError, err
		}
	}
}

// selectRole decides the entry role as a pure function of the persisted
// position, the replan flag, and whether a plan exists yet. Planner and
// architect positions are always honored so an interrupted planning pass
// resumes where it stopped.
func selectRole(current role.Role, replanRequired, hasPlan bool) role.Role {
	if current == role.Planner || current == role.Architect {
		return current
	}
	if replanRequired || !hasPlan {
		return role.Planner
	}
	return current
}

// ensureBinding guarantees that a step-bound role has a live step: a stale
// binding (the planner rewrote the step away) is replaced by the first open
// step, and when no open work is left the run routes to the final policy
// gate instead.
func (s *Scheduler) ensureBinding(st *state.State, steps []plan.Step) error {
	if !st.CurrentRole.RequiresActiveStep() {
		return nil
	}
	if st.ActiveStepID != "" {
		if _, ok := plan.Find(steps, st.ActiveStepID); ok {
			return nil
		}
		s.log.Warn("active step %s no longer in the plan; rebinding", st.ActiveStepID)
		st.ActiveStepID = ""
	}
	if next, ok := plan.FirstPending(steps); ok {
		st.ActiveStepID = next.ID
		s.log.Info("active step %s: %s", next.ID, next.Description)
		return nil
	}
	s.log.Info("no open plan steps left; running the final policy gate")
	st.CurrentRole = role.Compliance
	return nil
}

// applyStepStatus mirrors the developer's marker into the plan checklist.
// The plan is re-read first because the agent may have rewritten it during
// the invocation.
func (s *Scheduler) applyStepStatus(st *state.State, values marker.Values) {
	if st.ActiveStepID == "" {
		return
	}
	box := ""
	switch values[marker.DevStatus.Name] {
	case "DONE":
		box = "done"
	case "BLOCKED":
		box = "blocked"
	default:
		return
	}

	planText, err := s.store.Read(artifact.PlanFile)
	if err != nil {
		s.log.Warn("failed to read plan for step update: %v", err)
		return
	}
	var updated string
	var step plan.Step
	if box == "done" {
		updated, step, err = plan.MarkDone(planText, st.ActiveStepID)
	} else {
		updated, step, err = plan.MarkBlocked(planText, st.ActiveStepID)
	}
	if err != nil {
		s.log.Warn("failed to update plan step %s: %v", st.ActiveStepID, err)
		return
	}
	if err := s.store.Write(artifact.PlanFile, updated); err != nil {
		s.log.Warn("failed to write plan: %v", err)
		return
	}
	s.log.Info("plan step %s marked %s", step.ID, strings.ToLower(string(step.Status)))
}

func openStepsExcluding(steps []plan.Step, activeID string) int {
	n := 0
	for _, s := range steps {
		if s.Status == plan.StatusPending && s.ID != activeID {
			n++
		}
	}
	return n
}

// snapshotFile maps a role to the artifact it snapshots each cycle.
// Planner and architect write plan.md / architecture.md themselves.
func snapshotFile(r role.Role) string {
	switch r {
	case role.Developer:
		return artifact.DevelopmentFile
	case role.Reviewer:
		return artifact.ReviewFile
	case role.Tester:
		return artifact.TestResultsFile
	case role.Compliance:
		return artifact.ComplianceFile
	default:
		return ""
	}
}

func (s *Scheduler) persist(st *state.State) error {
	return state.SaveAtomic(s.fsys, st, s.paths.State)
}

func (s *Scheduler) journalGate(st *state.State, res agentcli.Result, result gate.Result) {
	entry := &journal.Entry{
		Cycle:     st.CycleIndex,
		Role:      result.Role.String(),
		StepID:    result.StepID,
		Markers:   result.Markers,
		Decision:  string(result.Decision),
		Handoff:   result.Target.String(),
		Reason:    result.Reason,
		ElapsedMS: res.Duration.Milliseconds(),
	}
	if err := s.journal.Append(entry); err != nil {
		s.log.Warn("failed to append journal entry: %v", err)
	}
	s.renderDecisions()
}

func (s *Scheduler) journalError(st *state.State, res agentcli.Result, runErr error) {
	entry := &journal.Entry{
		Cycle:     st.CycleIndex,
		Role:      st.CurrentRole.String(),
		StepID:    st.ActiveStepID,
		Decision:  string(gate.Fail),
		ElapsedMS: res.Duration.Milliseconds(),
		Error:     runErr.Error(),
	}
	if err := s.journal.Append(entry); err != nil {
		s.log.Warn("failed to append journal entry: %v", err)
	}
	s.renderDecisions()
}

func (s *Scheduler) renderDecisions() {
	entries, err := journal.ReadTail(s.fsys, s.paths.Journal, decisionLogTail)
	if err != nil {
		s.log.Warn("failed to read journal tail: %v", err)
		return
	}
	if err := s.store.RenderDecisionsLog(entries); err != nil {
		s.log.Warn("failed to render decisions log: %v", err)
	}
}

// halt moves the run into its absorbing terminal state and persists it.
// Every halt path funnels through here so the one-way transition and the
// final persist cannot be skipped.
func (s *Scheduler) halt(st *state.State, reason state.TerminalReason, detail string) (state.TerminalReason, error) {
	if err := st.MarkTerminal(reason); err != nil {
		s.log.Warn("%v", err)
		return st.TerminalReason, nil
	}
	if err := s.persist(st); err != nil {
		return reason, err
	}
	if reason == state.ReasonComplete {
		s.log.Info("run %s complete after %d cycles", st.RunID, st.CycleIndex)
	} else {
		s.log.Error("run %s halted: %s (%s)", st.RunID, reason, detail)
	}
	return reason, nil
}

func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
