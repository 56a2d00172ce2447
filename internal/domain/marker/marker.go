// Package marker isolates all free-text interpretation of agent output.
// Roles signal outcomes through single-line NAME: VALUE tokens; everything
// downstream consumes only the typed, validated values extracted here.
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Def declares a marker name and its value enumeration
type Def struct {
	Name    string
	Allowed []string
}

// Marker vocabulary. One status marker per role plus the shared replan flag.
var (
	PlanStatus       = Def{Name: "PLAN_STATUS", Allowed: []string{"READY"}}
	ArchStatus       = Def{Name: "ARCH_STATUS", Allowed: []string{"READY"}}
	DevStatus        = Def{Name: "DEV_STATUS", Allowed: []string{"IN_PROGRESS", "DONE", "BLOCKED"}}
	ReviewStatus     = Def{Name: "REVIEW_STATUS", Allowed: []string{"PASS", "FAIL", "NEEDS_CHANGES"}}
	TestStatus       = Def{Name: "TEST_STATUS", Allowed: []string{"PASS", "FAIL"}}
	ComplianceStatus = Def{Name: "COMPLIANCE_STATUS", Allowed: []string{"APPROVED", "VIOLATIONS"}}
	SafeguardStatus  = Def{Name: "SAFEGUARD_STATUS", Allowed: []string{"PASS", "FAIL"}}
	ReplanRequired   = Def{Name: "REPLAN_REQUIRED", Allowed: []string{"YES", "NO"}}
)

// registry lists every declared marker. Scan ignores NAME: VALUE lines whose
// name is not declared here, so ordinary prose ("Note: ...") is never
// mistaken for a status token.
var registry = map[string]Def{
	PlanStatus.Name:       PlanStatus,
	ArchStatus.Name:       ArchStatus,
	DevStatus.Name:        DevStatus,
	ReviewStatus.Name:     ReviewStatus,
	TestStatus.Name:       TestStatus,
	ComplianceStatus.Name: ComplianceStatus,
	SafeguardStatus.Name:  SafeguardStatus,
	ReplanRequired.Name:   ReplanRequired,
}

// Lookup returns the declared Def for a marker name, if any
func Lookup(name string) (Def, bool) {
	d, ok := registry[strings.ToUpper(name)]
	return d, ok
}

// Extraction failure modes. Absence of a required marker is distinct from
// a marker that is present with a value outside its enumeration.
var (
	ErrMissing = errors.New("required marker missing")
	ErrInvalid = errors.New("marker value not in enumeration")
)

// Values maps marker names to their raw (upper-cased) values
type Values map[string]string

// Sorted returns "NAME=VALUE" pairs in lexical name order, used for
// signature computation and journal entries.
func (v Values) Sorted() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	// insertion sort; the map never holds more than a handful of markers
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name + "=" + v[name]
	}
	return out
}

var segmentRE = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s*:\s*(\S.*)$`)

// Scan extracts declared markers from raw agent output.
//
// The full text is scanned, not just the last line: roles restate status
// while reasoning aloud, and the last occurrence of each name wins. A line
// may carry several markers separated by ';'
// ("DEV_STATUS: DONE; REPLAN_REQUIRED: NO"). Text is NFKC-normalized first
// so full-width colons and letters from the agent still parse.
func Scan(text string) Values {
	text = norm.NFKC.String(text)
	out := Values{}
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		for _, seg := range strings.Split(line, ";") {
			m := segmentRE.FindStringSubmatch(strings.TrimSpace(seg))
			if m == nil {
				continue
			}
			name := strings.ToUpper(m[1])
			if _, ok := registry[name]; !ok {
				continue
			}
			out[name] = strings.ToUpper(strings.TrimSpace(m[2]))
		}
	}
	return out
}

// Extract returns the validated value for this marker.
// Missing markers and out-of-enumeration values fail differently so the
// gate can report the distinguishing cause.
func (d Def) Extract(v Values) (string, error) {
	raw, ok := v[d.Name]
	if !ok {
		return "", fmt.Errorf("%s: %w", d.Name, ErrMissing)
	}
	for _, allowed := range d.Allowed {
		if raw == allowed {
			return raw, nil
		}
	}
	return "", fmt.Errorf("%s=%q: %w", d.Name, raw, ErrInvalid)
}

// ExtractOptional behaves like Extract but absence is not an error
func (d Def) ExtractOptional(v Values) (string, bool, error) {
	if _, ok := v[d.Name]; !ok {
		return "", false, nil
	}
	val, err := d.Extract(v)
	if err != nil {
		return "", true, err
	}
	return val, true, nil
}
