package nlu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
)

const defaultMaxQuestions = 3

// buildTaskPrompts renders the system and user prompts for a task against
// the current catalog snapshot. Prompt construction is deterministic so
// identical requests produce identical provider calls.
func buildTaskPrompts(req Request, cat catalog.Catalog) (system, user string) {
	switch req.Task {
	case TaskGenerateQuestions:
		max := req.MaxQuestions
		if max <= 0 {
			max = defaultMaxQuestions
		}
		system = fmt.Sprintf(`You help configure workflow automations.
Given a user's automation request, produce at most %d clarification questions
covering what is still unknown: the trigger, filters, destinations, and
required permissions.

Respond with JSON only, no prose and no code fences, matching:
{"questions":[{"id":"...","prompt":"...","kind":"choice|text","choices":["..."],"required":true,"category":"trigger|filter|destination|permission"}]}`, max)
	default:
		system = `You analyze workflow automation requests.
Identify the single application whose event should trigger the automation and
the downstream applications that act on it, using only the applications listed.

Respond with JSON only, no prose and no code fences, matching:
{"intent":"...","trigger_app":"...","action_apps":["..."],"confidence":0.0}`
	}

	var b strings.Builder
	b.WriteString("Available applications and functions:\n")
	for _, app := range cat.Apps() {
		b.WriteString("- " + app + ":")
		for _, fn := range cat.Functions(app) {
			b.WriteString(" " + fn.ID)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRequest: " + req.Prompt + "\n")

	if len(req.Answers) > 0 {
		b.WriteString("\nAnswers already provided:\n")
		keys := make([]string, 0, len(req.Answers))
		for k := range req.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, req.Answers[k]))
		}
	}

	return system, b.String()
}
