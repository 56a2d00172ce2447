package stagnation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func outcome(sig, role, step string) Outcome {
	return Outcome{Signature: sig, Role: role, StepID: step, Decision: "REPEAT_ROLE"}
}

func TestStagnantAfterWindowIdenticalOutcomes(t *testing.T) {
	d := New(3)
	d.Record(outcome("aaaa", "TESTER", "s-1"))
	d.Record(outcome("aaaa", "TESTER", "s-1"))
	assert.False(t, d.Stagnant(), "two identical outcomes are not yet stagnation")

	d.Record(outcome("aaaa", "TESTER", "s-1"))
	assert.True(t, d.Stagnant())
}

func TestStagnantSkipsInterleavedRoles(t *testing.T) {
	// Developer and reviewer outcomes interleave with the repeating tester
	// failures; the tester pair still trips.
	d := New(3)
	for i := 0; i < 3; i++ {
		d.Record(outcome("dddd", "DEVELOPER", "s-1"))
		d.Record(outcome("rrrr", "REVIEWER", "s-1"))
		d.Record(outcome("tttt", "TESTER", "s-1"))
	}
	assert.True(t, d.Stagnant())
}

func TestChangedSignatureResets(t *testing.T) {
	d := New(3)
	d.Record(outcome("aaaa", "DEVELOPER", "s-1"))
	d.Record(outcome("aaaa", "DEVELOPER", "s-1"))
	// Marker payload changed, so the signature differs
	d.Record(outcome("bbbb", "DEVELOPER", "s-1"))
	assert.False(t, d.Stagnant())

	// Two more identical outcomes are still below the window because the
	// change sits between them and the older pair
	d.Record(outcome("bbbb", "DEVELOPER", "s-1"))
	assert.False(t, d.Stagnant())
	d.Record(outcome("bbbb", "DEVELOPER", "s-1"))
	assert.True(t, d.Stagnant())
}

func TestDifferentStepTrackedSeparately(t *testing.T) {
	d := New(3)
	d.Record(outcome("aaaa", "DEVELOPER", "s-1"))
	d.Record(outcome("aaaa", "DEVELOPER", "s-2"))
	d.Record(outcome("aaaa", "DEVELOPER", "s-1"))
	assert.False(t, d.Stagnant())
}

func TestWindowBelowTwoFallsBack(t *testing.T) {
	d := New(0)
	for i := 0; i < DefaultWindow-1; i++ {
		d.Record(outcome("aaaa", "TESTER", "s-1"))
	}
	assert.False(t, d.Stagnant())
	d.Record(outcome("aaaa", "TESTER", "s-1"))
	assert.True(t, d.Stagnant())
}

func TestRestoreRoundTrip(t *testing.T) {
	d := New(3)
	d.Record(outcome("aaaa", "TESTER", "s-1"))
	d.Record(outcome("aaaa", "TESTER", "s-1"))
	d.Record(outcome("aaaa", "TESTER", "s-1"))

	// A new process restoring the trail sees the same verdict
	restored := New(3)
	restored.Restore(d.Outcomes())
	assert.True(t, restored.Stagnant())
	assert.Equal(t, d.Outcomes(), restored.Outcomes())
}

func TestTrimBoundsTheTrail(t *testing.T) {
	d := New(3)
	for i := 0; i < 100; i++ {
		d.Record(outcome("aaaa", "TESTER", "s-1"))
	}
	assert.Len(t, d.Outcomes(), 18)
}

func TestResetClearsTrail(t *testing.T) {
	d := New(3)
	for i := 0; i < 3; i++ {
		d.Record(outcome("aaaa", "TESTER", "s-1"))
	}
	d.Reset()
	assert.False(t, d.Stagnant())
	assert.Empty(t, d.Outcomes())
}

func TestTrailFollowsHeadPair(t *testing.T) {
	d := New(3)
	d.Record(outcome("1111", "TESTER", "s-1"))
	d.Record(outcome("dddd", "DEVELOPER", "s-1"))
	d.Record(outcome("2222", "TESTER", "s-1"))
	assert.Equal(t, []string{"2222", "1111"}, d.Trail())
}
