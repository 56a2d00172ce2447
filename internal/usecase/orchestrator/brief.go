package orchestrator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	appconfig "github.com/roleflow/roleflow/internal/app/config"
)

// GovernanceFile is the optional workspace contract read verbatim into every
// role prompt.
const GovernanceFile = "AGENTS.md"

// Inputs are the human-authored run inputs, read once per process launch.
// Missing files read as empty; the scheduler decides what is mandatory.
type Inputs struct {
	Idea            string
	Guidelines      string
	RolePreferences string
	ChangeRequest   string
	Governance      string
	Policy          string
}

// LoadInputs reads the brief, change request, governance contract, and
// compliance policy pack from the workspace.
func LoadInputs(fsys afero.Fs, cfg appconfig.Config) (Inputs, error) {
	var in Inputs

	brief, err := readWorkspaceFile(fsys, cfg.WorkDir(), cfg.BriefFile())
	if err != nil {
		return in, err
	}
	in.Idea, in.Guidelines, in.RolePreferences = splitBrief(brief)

	change, err := readWorkspaceFile(fsys, cfg.WorkDir(), cfg.ChangesFile())
	if err != nil {
		return in, err
	}
	in.ChangeRequest = strings.TrimSpace(change)

	gov, err := readWorkspaceFile(fsys, cfg.WorkDir(), GovernanceFile)
	if err != nil {
		return in, err
	}
	in.Governance = strings.TrimSpace(gov)

	policy, err := readWorkspaceFile(fsys, cfg.WorkDir(), cfg.PolicyFile())
	if err != nil {
		return in, err
	}
	in.Policy = strings.TrimSpace(policy)

	return in, nil
}

func readWorkspaceFile(fsys afero.Fs, dir, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	path := name
	if !filepath.IsAbs(name) {
		path = filepath.Join(dir, name)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// splitBrief separates the brief document into its recognized sections.
// A brief without recognized headings is treated as a bare idea.
func splitBrief(text string) (idea, guidelines, prefs string) {
	sections := map[string]*strings.Builder{}
	var current *strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			switch heading {
			case "idea", "guidelines", "role preferences":
				b, ok := sections[heading]
				if !ok {
					b = &strings.Builder{}
					sections[heading] = b
				}
				current = b
			default:
				current = nil
			}
			continue
		}
		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if len(sections) == 0 {
		return strings.TrimSpace(text), "", ""
	}
	section := func(name string) string {
		if b, ok := sections[name]; ok {
			return strings.TrimSpace(b.String())
		}
		return ""
	}
	return section("idea"), section("guidelines"), section("role preferences")
}
