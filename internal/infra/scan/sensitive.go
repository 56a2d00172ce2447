// Package scan implements the sensitive-content safeguard that backs the
// compliance gate: a bounded regex sweep for credentials accidentally
// written into the workspace.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

const (
	maxFileBytes = 512 * 1024
	maxFindings  = 25
)

type pattern struct {
	label string
	re    *regexp.Regexp
}

var sensitivePatterns = []pattern{
	{"AWS access key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"Private key block", regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"Generic secret assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password)\b\s*[:=]\s*['"][^'"]{8,}['"]`)},
}

var includeGlobs = []string{
	"*.go", "*.py", "*.sh", "*.md", "*.yaml", "*.yml",
	"*.json", "*.tf", "*.tfvars", "*.env", "*.txt",
}

var excludedDirs = map[string]bool{
	".git":         true,
	".roleflow":    true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
}

// Findings walks the workspace and returns "path:line (label)" strings for
// every sensitive match, capped at maxFindings. Unreadable or oversized
// files are skipped, not reported.
func Findings(fsys afero.Fs, root string) ([]string, error) {
	var findings []string

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if excludedDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(findings) >= maxFindings {
			return filepath.SkipDir
		}
		if info.Size() > maxFileBytes {
			return nil
		}
		if !included(info.Name()) {
			return nil
		}

		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		for lineNo, line := range strings.Split(string(data), "\n") {
			for _, p := range sensitivePatterns {
				if p.re.MatchString(line) {
					findings = append(findings, fmt.Sprintf("%s:%d (%s)", rel, lineNo+1, p.label))
					if len(findings) >= maxFindings {
						return filepath.SkipDir
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sensitive scan failed: %w", err)
	}
	return findings, nil
}

func included(name string) bool {
	for _, glob := range includeGlobs {
		if ok, _ := filepath.Match(glob, name); ok {
			return true
		}
	}
	return false
}
