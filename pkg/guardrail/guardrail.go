// Package guardrail scans rendered workflow scripts for capabilities the
// target runtime must never use. The scan is plain text matching: it does
// not distinguish code from comments or string literals, so a forbidden
// token anywhere in the script rejects the artifact.
package guardrail

import (
	"regexp"
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// allowlistedFetch is the sole sanctioned external-call form. Any other
// match of the generic network-call pattern is a violation.
const allowlistedFetch = "UrlFetchApp.fetch("

// rule pairs a pattern name with its compiled matcher.
type rule struct {
	name    string
	pattern *regexp.Regexp
}

// forbidden lists every capability class the validator blocks: foreign
// module systems, package managers, process/environment access, synchronous
// file I/O, and unrestricted network calls.
var forbidden = []rule{
	{"module-import", regexp.MustCompile(`\brequire\s*\(`)},
	{"module-import", regexp.MustCompile(`(?m)^\s*import\s+[\w{*]`)},
	{"module-export", regexp.MustCompile(`\bmodule\.exports\b|\bexport\s+(default|const|function|class)\b`)},
	{"package-manager", regexp.MustCompile(`\b(npm|yarn|pnpm)\s+(install|add|run)\b`)},
	{"process-access", regexp.MustCompile(`\bprocess\.(env|exit|argv)\b`)},
	{"child-process", regexp.MustCompile(`\bchild_process\b|\bexecSync\s*\(`)},
	{"file-io", regexp.MustCompile(`\bfs\.(readFileSync|writeFileSync|readFile|writeFile|existsSync)\b`)},
	{"network-call", regexp.MustCompile(`\bXMLHttpRequest\b`)},
	{"network-call", regexp.MustCompile(`\baxios\s*[.(]`)},
	{"network-call", regexp.MustCompile(`\b(?:[A-Za-z_$][\w$]*\s*\.\s*)?fetch\s*\(`)},
}

// Validator scans script text against the forbidden-capability set.
type Validator struct{}

// New creates a guardrail validator.
func New() *Validator {
	return &Validator{}
}

// Scan checks the script and returns a GuardrailError describing the first
// violation, or nil when the script is clean.
func (v *Validator) Scan(script string) error {
	lines := strings.Split(script, "\n")
	for lineNo, line := range lines {
		for _, r := range forbidden {
			if !lineViolates(r, line) {
				continue
			}
			return &errors.GuardrailError{
				Pattern: r.name,
				Line:    lineNo + 1,
				Snippet: snippet(line),
			}
		}
	}
	return nil
}

// lineViolates reports whether a line breaks a rule. For the generic
// network-call pattern every match on the line must be the sanctioned form;
// any one unsanctioned match is a violation.
func lineViolates(r rule, line string) bool {
	if r.name != "network-call" {
		return r.pattern.MatchString(line)
	}
	offset := 0
	for {
		loc := r.pattern.FindStringIndex(line[offset:])
		if loc == nil {
			return false
		}
		start, end := offset+loc[0], offset+loc[1]
		if !isAllowlisted(line[start:end]) {
			return true
		}
		offset = end
	}
}

// isAllowlisted reports whether a match is exactly the sanctioned
// UrlFetchApp.fetch form.
func isAllowlisted(match string) bool {
	return strings.ReplaceAll(match, " ", "") == allowlistedFetch
}

const maxSnippetLen = 120

// snippet truncates an offending line so violation errors stay log-safe.
func snippet(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > maxSnippetLen {
		return trimmed[:maxSnippetLen] + "..."
	}
	return trimmed
}
