// Package stagnation detects non-progress: the workflow repeating the same
// gate outcome on the same piece of work with no observable change.
package stagnation

// DefaultWindow is the number of identical gate outcomes for one
// (role, step) pair that counts as stagnation. Legitimate repeat cycles (a
// developer continuing an unfinished step) change the marker payload each
// time, so their signatures differ and never trip the detector.
const DefaultWindow = 3

// Outcome is the fingerprint of one gate result.
// Most-recent outcomes are kept first.
type Outcome struct {
	Signature string `json:"signature"`
	Role      string `json:"role"`
	StepID    string `json:"step_id"`
	Decision  string `json:"decision"`
}

// Detector tracks a bounded trail of gate outcome fingerprints
type Detector struct {
	window   int
	outcomes []Outcome
}

// New creates a detector with the given window; values below 2 fall back
// to DefaultWindow.
func New(window int) *Detector {
	if window < 2 {
		window = DefaultWindow
	}
	return &Detector{window: window}
}

// Restore seeds the detector from a persisted outcome trail
func (d *Detector) Restore(outcomes []Outcome) {
	d.outcomes = append([]Outcome(nil), outcomes...)
	d.trim()
}

// Record pushes a new outcome as the most recent entry
func (d *Detector) Record(o Outcome) {
	d.outcomes = append([]Outcome{o}, d.outcomes...)
	d.trim()
}

func (d *Detector) trim() {
	// Outcomes of one role interleave with the other roles of the cycle, so
	// the trail must span several full cycles to hold a window per role.
	max := d.window * 6
	if len(d.outcomes) > max {
		d.outcomes = d.outcomes[:max]
	}
}

// Outcomes returns the current trail, most recent first
func (d *Detector) Outcomes() []Outcome {
	return append([]Outcome(nil), d.outcomes...)
}

// Reset clears the trail, typically after a plan step is verified
func (d *Detector) Reset() {
	d.outcomes = nil
}

// Stagnant reports whether the most recent outcome's (role, step) pair has
// now produced a full window of identical signatures with no different
// signature in between. Outcomes of other roles interleave and are skipped;
// any payload change for the pair resets the run.
func (d *Detector) Stagnant() bool {
	if len(d.outcomes) == 0 {
		return false
	}
	head := d.outcomes[0]
	count := 0
	for _, o := range d.outcomes {
		if o.Role != head.Role || o.StepID != head.StepID {
			continue
		}
		if o.Signature != head.Signature {
			return false
		}
		count++
		if count >= d.window {
			return true
		}
	}
	return false
}

// Trail returns the signatures the verdict was based on: the most recent
// outcomes of the head's (role, step) pair, up to one window.
func (d *Detector) Trail() []string {
	if len(d.outcomes) == 0 {
		return nil
	}
	head := d.outcomes[0]
	var out []string
	for _, o := range d.outcomes {
		if o.Role != head.Role || o.StepID != head.StepID {
			continue
		}
		out = append(out, o.Signature)
		if len(out) >= d.window {
			break
		}
	}
	return out
}
