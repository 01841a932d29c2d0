package synth

import (
	"strings"
	"text/template"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// scriptTemplate is the fixed program skeleton: header, one function per
// node, an execution-order main wrapped in error handling, and a trigger
// installation routine. Fragments slot into the per-node functions.
var scriptTemplate = template.Must(template.New("script").Parse(`/**
 * {{.Title}}
 * Generated by ScriptFlow. Review placeholder values before deploying.
 */
{{range .Nodes}}
// {{.Comment}}
function {{.FuncName}}(input) {
{{.Body}}
}
{{end}}
function main() {
  var input = null;
  try {
{{- range .Nodes}}
    input = {{.FuncName}}(input);
{{- end}}
    Logger.log("workflow completed");
  } catch (err) {
    Logger.log("workflow failed: " + err);
    throw err;
  }
}

// Run once to install the workflow trigger.
function installTrigger() {
  {{.TriggerStatement}}
}
`))

type scriptData struct {
	Title            string
	Nodes            []nodeRender
	TriggerStatement string
}

type nodeRender struct {
	FuncName string
	Comment  string
	Body     string
}

// triggerStatement maps a canonical trigger descriptor onto a ScriptApp
// trigger builder call. Unknown descriptors install an hourly trigger.
func triggerStatement(descriptor string) string {
	d := strings.ToLower(descriptor)
	switch {
	case strings.Contains(d, "every 15 minutes"):
		return `ScriptApp.newTrigger("main").timeBased().everyMinutes(15).create();`
	case strings.Contains(d, "daily"):
		return `ScriptApp.newTrigger("main").timeBased().everyDays(1).atHour(9).create();`
	case strings.Contains(d, "new-item"):
		return `ScriptApp.newTrigger("main").timeBased().everyMinutes(5).create();`
	default:
		return `ScriptApp.newTrigger("main").timeBased().everyHours(1).create();`
	}
}

// renderScript composes node fragments through the skeleton.
func renderScript(title, trigger string, nodes []Node) (string, error) {
	data := scriptData{
		Title:            title,
		TriggerStatement: triggerStatement(trigger),
	}
	for _, n := range nodes {
		data.Nodes = append(data.Nodes, nodeRender{
			FuncName: "run_" + n.ID,
			Comment:  n.DisplayName() + " (" + n.FunctionID + ")",
			Body:     fragmentFor(n),
		})
	}

	var sb strings.Builder
	if err := scriptTemplate.Execute(&sb, data); err != nil {
		return "", errors.Wrap(err, "rendering workflow script")
	}
	return sb.String(), nil
}
