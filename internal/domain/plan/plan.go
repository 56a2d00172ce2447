// Package plan models the checkbox plan document the planner role owns.
// The scheduler reads step state and flips the single active step when a
// cycle completes; rewriting the plan itself is the planner's job.
package plan

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Status of a single plan checklist step
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusDone    Status = "DONE"
	StatusBlocked Status = "BLOCKED"
)

// Step is one checklist item of the plan document
type Step struct {
	ID          string
	Description string
	Status      Status
}

// checkboxRE matches "- [ ] step", "- [x] step" and "- [-] step" lines.
// '*' bullets are accepted as well.
var checkboxRE = regexp.MustCompile(`^(\s*[-*]\s+\[)( |x|X|-)(\]\s+)(.+)$`)

// StepID derives a stable identifier from the step description.
// Case and whitespace changes do not alter the ID, so references held in
// the workflow state survive cosmetic plan edits.
func StepID(description string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(description)), " ")
	h := fnv.New32a()
	h.Write([]byte(normalized))
	return fmt.Sprintf("s-%08x", h.Sum32())
}

// Parse extracts the checklist steps from a plan document.
// Non-checkbox lines (headings, prose) are ignored.
func Parse(text string) []Step {
	var steps []Step
	for _, line := range strings.Split(text, "\n") {
		m := checkboxRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[4])
		status := StatusPending
		switch m[2] {
		case "x", "X":
			status = StatusDone
		case "-":
			status = StatusBlocked
		}
		steps = append(steps, Step{
			ID:          StepID(desc),
			Description: desc,
			Status:      status,
		})
	}
	return steps
}

// Find returns the step with the given ID, if present
func Find(steps []Step, id string) (Step, bool) {
	for _, s := range steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// FirstPending returns the first step that is still open
func FirstPending(steps []Step) (Step, bool) {
	for _, s := range steps {
		if s.Status == StatusPending {
			return s, true
		}
	}
	return Step{}, false
}

// CountOpen returns the number of steps that are neither done nor blocked
func CountOpen(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Status == StatusPending {
			n++
		}
	}
	return n
}

// setBox rewrites the checkbox of the step with the given ID.
// Returns the updated document and the affected step.
func setBox(text, id, box string) (string, Step, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := checkboxRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[4])
		if StepID(desc) != id {
			continue
		}
		lines[i] = m[1] + box + m[3] + m[4]
		step := Step{ID: id, Description: desc}
		switch box {
		case "x":
			step.Status = StatusDone
		case "-":
			step.Status = StatusBlocked
		default:
			step.Status = StatusPending
		}
		return strings.Join(lines, "\n"), step, nil
	}
	return "", Step{}, fmt.Errorf("plan step %s not found", id)
}

// MarkDone flips the step with the given ID to done
func MarkDone(text, id string) (string, Step, error) {
	return setBox(text, id, "x")
}

// MarkBlocked flips the step with the given ID to blocked
func MarkBlocked(text, id string) (string, Step, error) {
	return setBox(text, id, "-")
}
