package intent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
)

// ruleEnv is the expression environment parameter rules evaluate against.
type ruleEnv struct {
	Prompt  string            `expr:"prompt"`
	Answers map[string]string `expr:"answers"`
}

// paramRule fills one parameter of one function. The first rule whose
// condition holds wins; rules are evaluated in table order.
type paramRule struct {
	functionID string
	param      string
	when       string
	value      string
}

// paramRules is the fixed best-guess table. Conditions and values are
// expressions over the lower-cased prompt and the canonical answers.
var paramRules = []paramRule{
	{
		functionID: "gmail.search_messages",
		param:      "query",
		when:       `answers["filter"] != ""`,
		value:      `"is:unread " + answers["filter"]`,
	},
	{
		functionID: "gmail.search_messages",
		param:      "query",
		when:       `prompt contains "invoice"`,
		value:      `"is:unread subject:invoice"`,
	},
	{
		functionID: "gmail.search_messages",
		param:      "query",
		when:       `prompt contains "attachment"`,
		value:      `"is:unread has:attachment"`,
	},
	{
		functionID: "gmail.search_messages",
		param:      "query",
		when:       `true`,
		value:      `"is:unread"`,
	},
	{
		functionID: "gmail.auto_reply",
		param:      "query",
		when:       `answers["filter"] != ""`,
		value:      `"is:unread " + answers["filter"]`,
	},
	{
		functionID: "gmail.auto_reply",
		param:      "query",
		when:       `true`,
		value:      `"is:unread"`,
	},
	{
		functionID: "gmail.add_label",
		param:      "query",
		when:       `answers["filter"] != ""`,
		value:      `answers["filter"]`,
	},
	{
		functionID: "sheets.append_row",
		param:      "spreadsheet_id",
		when:       `answers["destination"] != ""`,
		value:      `answers["destination"]`,
	},
	{
		functionID: "sheets.read_range",
		param:      "spreadsheet_id",
		when:       `answers["destination"] != ""`,
		value:      `answers["destination"]`,
	},
	{
		functionID: "sheets.update_cell",
		param:      "spreadsheet_id",
		when:       `answers["destination"] != ""`,
		value:      `answers["destination"]`,
	},
	{
		functionID: "drive.save_attachment",
		param:      "folder_name",
		when:       `answers["destination"] != ""`,
		value:      `answers["destination"]`,
	},
	{
		functionID: "calendar.create_event",
		param:      "title",
		when:       `answers["destination"] != ""`,
		value:      `answers["destination"]`,
	},
	{
		functionID: "slack.post_webhook",
		param:      "webhook_url",
		when:       `answers["destination"] startsWith "https://"`,
		value:      `answers["destination"]`,
	},
}

type compiledRule struct {
	rule  paramRule
	when  *vm.Program
	value *vm.Program
}

var compiledRules = compileRules()

func compileRules() []compiledRule {
	compiled := make([]compiledRule, 0, len(paramRules))
	for _, rule := range paramRules {
		when, err := expr.Compile(rule.when, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			panic(fmt.Sprintf("intent: bad rule condition %q: %v", rule.when, err))
		}
		value, err := expr.Compile(rule.value, expr.Env(ruleEnv{}))
		if err != nil {
			panic(fmt.Sprintf("intent: bad rule value %q: %v", rule.value, err))
		}
		compiled = append(compiled, compiledRule{rule: rule, when: when, value: value})
	}
	return compiled
}

// Placeholder returns the explicit marker used for a parameter the rule
// table could not resolve. Callers are expected to fill these in.
func Placeholder(param string) string {
	return "{{" + param + "}}"
}

// resolveParameters fills the descriptor's parameters from the rule table,
// the catalog defaults, and finally explicit placeholders for anything left.
// Only required parameters and parameters with rules or defaults appear in
// the result.
func resolveParameters(d catalog.FunctionDescriptor, ctx Context) map[string]string {
	env := ruleEnv{
		Prompt:  strings.ToLower(ctx.Prompt),
		Answers: ctx.Answers,
	}
	if env.Answers == nil {
		env.Answers = map[string]string{}
	}

	resolved := make(map[string]string)
	for _, c := range compiledRules {
		if c.rule.functionID != d.ID {
			continue
		}
		if _, done := resolved[c.rule.param]; done {
			continue
		}
		ok, err := expr.Run(c.when, env)
		if err != nil || ok != true {
			continue
		}
		out, err := expr.Run(c.value, env)
		if err != nil {
			continue
		}
		if s, isString := out.(string); isString && s != "" {
			resolved[c.rule.param] = s
		}
	}

	names := make([]string, 0, len(d.Parameters))
	for name := range d.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, done := resolved[name]; done {
			continue
		}
		spec := d.Parameters[name]
		switch {
		case spec.Default != "":
			resolved[name] = spec.Default
		case spec.Required:
			resolved[name] = Placeholder(name)
		}
	}

	return resolved
}
