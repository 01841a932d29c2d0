package guardrail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

func TestScan_CleanScript(t *testing.T) {
	v := New()
	err := v.Scan(`function main() {
  var threads = GmailApp.search("is:unread");
  UrlFetchApp.fetch("https://hooks.slack.com/services/T/B/X", { method: "post" });
  Logger.log("done");
}`)
	assert.NoError(t, err)
}

func TestScan_ForbiddenPatterns(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		pattern string
	}{
		{"require", `var fs = require("fs");`, "module-import"},
		{"es import", `import axios from "axios";`, "module-import"},
		{"module exports", `module.exports = run;`, "module-export"},
		{"npm", `// run: npm install left-pad`, "package-manager"},
		{"process env", `var key = process.env.API_KEY;`, "process-access"},
		{"child process", `child_process.execSync("ls");`, "child-process"},
		{"fs sync", `fs.readFileSync("/etc/passwd");`, "file-io"},
		{"xhr", `var xhr = new XMLHttpRequest();`, "network-call"},
		{"axios", `axios.get("https://example.com");`, "network-call"},
		{"bare fetch", `fetch("https://example.com");`, "network-call"},
		{"qualified fetch", `window.fetch("https://example.com");`, "network-call"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Scan("function main() {\n  " + tt.line + "\n}")
			var gerr *errors.GuardrailError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.pattern, gerr.Pattern)
			assert.Equal(t, 2, gerr.Line)
		})
	}
}

func TestScan_AllowlistedFetchOnly(t *testing.T) {
	v := New()

	assert.NoError(t, v.Scan(`UrlFetchApp.fetch("https://example.com");`))

	// Multiple sanctioned calls on one line are all allowed.
	assert.NoError(t, v.Scan(`var a = UrlFetchApp.fetch("https://x"); var b = UrlFetchApp.fetch("https://y");`))

	// A second, unsanctioned call on the same line still fails.
	err := v.Scan(`UrlFetchApp.fetch("https://a"); fetch("https://b");`)
	var gerr *errors.GuardrailError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "network-call", gerr.Pattern)

	// Order does not matter: an unsanctioned call before a sanctioned one
	// fails too.
	err = v.Scan(`fetch("https://b"); UrlFetchApp.fetch("https://a");`)
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "network-call", gerr.Pattern)
}

func TestScan_MatchesInsideCommentsAndStrings(t *testing.T) {
	// Raw text matching: a forbidden token in a comment still rejects.
	v := New()
	err := v.Scan(`// do not use require("fs") here`)
	assert.Error(t, err)
}

func TestScan_BenignTokensPass(t *testing.T) {
	v := New()
	assert.NoError(t, v.Scan(`refetchData();`), "fetch as a name suffix is not a call")
	assert.NoError(t, v.Scan(`var importance = 5;`))
	assert.NoError(t, v.Scan(`var required = node.required;`))
}

func TestScan_SnippetTruncation(t *testing.T) {
	v := New()
	long := `fetch("` + strings.Repeat("a", 300) + `");`
	err := v.Scan(long)
	var gerr *errors.GuardrailError
	require.ErrorAs(t, err, &gerr)
	assert.LessOrEqual(t, len(gerr.Snippet), 123)
	assert.True(t, strings.HasSuffix(gerr.Snippet, "..."))
}
