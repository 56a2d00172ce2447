package agentcli

import (
	"regexp"
	"strings"
)

var ansiRE = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// Echoed prompt fragments and CLI chrome that are never progress
var noisyPrefixes = []string{
	"SYSTEM ROLE INSTRUCTIONS:",
	"TASK:",
	"Responsibilities:",
	"Collaboration files:",
	"Rules:",
	"workdir:",
	"model:",
	"provider:",
	"session id:",
	"tokens used",
	"⏺", // tool call glyph
	"⎿", // tool result glyph
}

var codeLikeRE = []*regexp.Regexp{
	regexp.MustCompile("^```"),
	regexp.MustCompile(`^diff --git `),
	regexp.MustCompile(`^index [0-9a-f]+\.\.[0-9a-f]+`),
	regexp.MustCompile(`^@@`),
	regexp.MustCompile(`^\+\+\+ `),
	regexp.MustCompile(`^--- `),
}

var timestampedRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// extractProgress keeps concise narrative updates and drops everything
// else: prompt echo, code, diffs, shell noise, oversized lines.
func extractProgress(stripped string) string {
	if stripped == "" {
		return ""
	}
	if timestampedRE.MatchString(stripped) {
		return ""
	}
	for _, prefix := range noisyPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return ""
		}
	}
	for _, re := range codeLikeRE {
		if re.MatchString(stripped) {
			return ""
		}
	}
	if strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "-") ||
		strings.HasPrefix(stripped, "*") || strings.HasPrefix(stripped, ">") ||
		strings.HasPrefix(stripped, "+") {
		return ""
	}
	if strings.ContainsAny(stripped, "`\t") {
		return ""
	}
	if len(stripped) > 220 {
		return ""
	}
	return stripped
}

// progressTracker watches recent progress updates for repeating blocks.
// Identical non-marker text recurring across a window means the tool is
// stuck, not producing new work.
type progressTracker struct {
	window  int
	repeats int
	recent  []string
}

func newProgressTracker(window, repeats int) *progressTracker {
	if window <= 0 {
		window = 6
	}
	if repeats <= 1 {
		repeats = 3
	}
	return &progressTracker{window: window, repeats: repeats}
}

// record adds an update and reports whether the last window of updates has
// now repeated back-to-back the configured number of times.
func (t *progressTracker) record(update string) bool {
	t.recent = append(t.recent, update)
	max := t.window * t.repeats
	if len(t.recent) > max {
		t.recent = t.recent[len(t.recent)-max:]
	}
	return hasRepeatingSequence(t.recent, t.window, t.repeats)
}

func hasRepeatingSequence(items []string, window, repeats int) bool {
	needed := window * repeats
	if window <= 0 || repeats <= 1 || len(items) < needed {
		return false
	}
	block := items[len(items)-window:]
	for idx := 2; idx <= repeats; idx++ {
		start := len(items) - window*idx
		for i := range block {
			if items[start+i] != block[i] {
				return false
			}
		}
	}
	return true
}
