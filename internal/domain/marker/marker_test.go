package marker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsDeclaredMarkers(t *testing.T) {
	out := Scan("some reasoning\nDEV_STATUS: DONE\nmore text")
	assert.Equal(t, "DONE", out["DEV_STATUS"])
}

func TestScanLastOccurrenceWins(t *testing.T) {
	text := `DEV_STATUS: IN_PROGRESS
rethinking the approach...
DEV_STATUS: DONE`
	out := Scan(text)
	assert.Equal(t, "DONE", out["DEV_STATUS"])
}

func TestScanSemicolonSegments(t *testing.T) {
	out := Scan("DEV_STATUS: DONE; REPLAN_REQUIRED: NO")
	assert.Equal(t, "DONE", out["DEV_STATUS"])
	assert.Equal(t, "NO", out["REPLAN_REQUIRED"])
}

func TestScanIgnoresUndeclaredNames(t *testing.T) {
	out := Scan("Note: this is prose\nSTATUS: DONE\nDEV_STATUS: DONE")
	assert.NotContains(t, out, "NOTE")
	assert.NotContains(t, out, "STATUS")
	assert.Contains(t, out, "DEV_STATUS")
}

func TestScanNormalizesFullWidthColon(t *testing.T) {
	// Full-width colon from a CJK-locale agent
	out := Scan("DEV_STATUS： DONE")
	assert.Equal(t, "DONE", out["DEV_STATUS"])
}

func TestScanUppercasesValues(t *testing.T) {
	out := Scan("test_status: pass")
	assert.Equal(t, "PASS", out["TEST_STATUS"])
}

func TestScanFlexibleSpacing(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no space after colon", "DEV_STATUS:DONE"},
		{"space before colon", "DEV_STATUS : DONE"},
		{"leading whitespace", "   DEV_STATUS: DONE"},
		{"trailing whitespace", "DEV_STATUS: DONE   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Scan(tt.line)
			assert.Equal(t, "DONE", out["DEV_STATUS"], "line %q", tt.line)
		})
	}
}

func TestExtractMissingVsInvalid(t *testing.T) {
	_, err := DevStatus.Extract(Values{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissing))
	assert.False(t, errors.Is(err, ErrInvalid))

	_, err = DevStatus.Extract(Values{"DEV_STATUS": "MAYBE"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.False(t, errors.Is(err, ErrMissing))
}

func TestExtractValid(t *testing.T) {
	v, err := TestStatus.Extract(Values{"TEST_STATUS": "PASS"})
	require.NoError(t, err)
	assert.Equal(t, "PASS", v)
}

func TestExtractOptional(t *testing.T) {
	v, present, err := ReplanRequired.ExtractOptional(Values{})
	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, v)

	v, present, err = ReplanRequired.ExtractOptional(Values{"REPLAN_REQUIRED": "YES"})
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "YES", v)

	_, present, err = ReplanRequired.ExtractOptional(Values{"REPLAN_REQUIRED": "MAYBE"})
	require.Error(t, err)
	assert.True(t, present)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestSortedIsDeterministic(t *testing.T) {
	v := Values{"TEST_STATUS": "PASS", "DEV_STATUS": "DONE", "REPLAN_REQUIRED": "NO"}
	expect := []string{"DEV_STATUS=DONE", "REPLAN_REQUIRED=NO", "TEST_STATUS=PASS"}
	for i := 0; i < 10; i++ {
		assert.Equal(t, expect, v.Sorted())
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("dev_status")
	require.True(t, ok)
	assert.Equal(t, "DEV_STATUS", d.Name)

	_, ok = Lookup("NOT_A_MARKER")
	assert.False(t, ok)
}
