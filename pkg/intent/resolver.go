package intent

import (
	"fmt"
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// Context is the automation context a selection is resolved against. It is
// the sole input to scoring besides the catalog, so identical contexts always
// produce identical selections.
type Context struct {
	// Intent is the classified automation intent (e.g., "tracking_automation").
	Intent string

	// TriggerApp is the application the flow starts from.
	TriggerApp string

	// ActionApps are the downstream applications in execution order.
	ActionApps []string

	// Prompt is the user's original request text.
	Prompt string

	// Answers is the canonical answer map produced by NormalizeAnswers.
	Answers map[string]string
}

// isTrigger reports whether app plays the trigger role in this context.
func (c Context) isTrigger(app string) bool {
	return strings.EqualFold(c.TriggerApp, app)
}

// isLastAction reports whether app is the final action in this context.
func (c Context) isLastAction(app string) bool {
	if len(c.ActionApps) == 0 {
		return false
	}
	return strings.EqualFold(c.ActionApps[len(c.ActionApps)-1], app)
}

// Selection is the resolved function for one application.
type Selection struct {
	App        string            `json:"app"`
	FunctionID string            `json:"function_id"`
	Confidence float64           `json:"confidence"`
	Rationale  []string          `json:"rationale"`
	Parameters map[string]string `json:"parameters"`
}

// Scoring weights. Fixed and hand-authored; there is no learning here.
const (
	keywordHintWeight  = 15
	intentBonusWeight  = 50
	roleBonusWeight    = 15
	verbBonusWeight    = 10
	categoryBonus      = 5
	confidenceCeiling  = 0.98
	scoreNormalizer    = 100.0
	automationCategory = "Automation"
)

// sharedVerbs earn a bonus when they appear in both the prompt and the
// function id.
var sharedVerbs = []string{
	"send", "create", "update", "read", "search",
	"delete", "add", "remove", "track", "monitor",
}

// readTokens mark functions suited to the trigger role.
var readTokens = []string{"read", "search", "get", "list", "fetch"}

// writeTokens mark functions suited to the final action role.
var writeTokens = []string{"create", "send", "append", "add", "post", "update", "save"}

// intentBonuses maps a classified intent onto (app, function-id substring)
// pairs that earn a large bonus.
var intentBonuses = map[string][]intentBonus{
	"auto_reply": {
		{app: "gmail", idSubstring: "auto_reply"},
	},
	"tracking_automation": {
		{app: "gmail", idSubstring: "search"},
		{app: "sheets", idSubstring: "append"},
	},
	"notification_automation": {
		{app: "slack", idSubstring: "post"},
		{app: "gmail", idSubstring: "send"},
	},
}

type intentBonus struct {
	app         string
	idSubstring string
}

// roleDefaults names the fallback function per application when no
// descriptor scores above zero.
var roleDefaults = map[string]struct{ trigger, action string }{
	"gmail":    {trigger: "gmail.search_messages", action: "gmail.send_email"},
	"sheets":   {trigger: "sheets.read_range", action: "sheets.append_row"},
	"drive":    {trigger: "drive.list_files", action: "drive.save_attachment"},
	"calendar": {trigger: "calendar.list_events", action: "calendar.create_event"},
	"slack":    {trigger: "slack.post_webhook", action: "slack.post_webhook"},
}

// Resolver selects the best-matching catalog function per application.
type Resolver struct {
	catalog catalog.Catalog
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(cat catalog.Catalog) *Resolver {
	return &Resolver{catalog: cat}
}

// Select resolves the single best function of app for the given context.
// Scoring is a pure function of (app, ctx, catalog); ties break in catalog
// order. A zero top score falls back to the application's role default.
func (r *Resolver) Select(app string, ctx Context) (Selection, error) {
	descriptors := r.catalog.Functions(app)
	if len(descriptors) == 0 {
		return Selection{}, &errors.NotFoundError{Resource: "application", ID: app}
	}

	prompt := strings.ToLower(ctx.Prompt)

	best := descriptors[0]
	bestScore := -1
	var bestRationale []string
	for _, d := range descriptors {
		score, rationale := scoreDescriptor(d, ctx, prompt)
		if score > bestScore {
			best, bestScore, bestRationale = d, score, rationale
		}
	}

	if bestScore == 0 {
		fallbackID := defaultFunction(app, ctx)
		if fallbackID != "" && fallbackID != best.ID {
			for _, d := range descriptors {
				if d.ID == fallbackID {
					best = d
					bestRationale = []string{fmt.Sprintf("no scoring match, role default for %s", app)}
					break
				}
			}
		}
	}

	confidence := float64(bestScore) / scoreNormalizer
	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}
	if confidence < 0 {
		confidence = 0
	}

	return Selection{
		App:        best.App,
		FunctionID: best.ID,
		Confidence: confidence,
		Rationale:  bestRationale,
		Parameters: resolveParameters(best, ctx),
	}, nil
}

// SelectAll resolves the trigger app followed by every action app, in
// context order. Duplicate apps resolve once, keeping one selection per
// application per run.
func (r *Resolver) SelectAll(ctx Context) ([]Selection, error) {
	seen := make(map[string]bool)
	apps := make([]string, 0, 1+len(ctx.ActionApps))
	if ctx.TriggerApp != "" {
		apps = append(apps, ctx.TriggerApp)
		seen[strings.ToLower(ctx.TriggerApp)] = true
	}
	for _, app := range ctx.ActionApps {
		if seen[strings.ToLower(app)] {
			continue
		}
		seen[strings.ToLower(app)] = true
		apps = append(apps, app)
	}

	selections := make([]Selection, 0, len(apps))
	for _, app := range apps {
		sel, err := r.Select(app, ctx)
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

func scoreDescriptor(d catalog.FunctionDescriptor, ctx Context, prompt string) (int, []string) {
	score := 0
	var rationale []string

	for _, hint := range d.Keywords {
		if hint != "" && strings.Contains(prompt, strings.ToLower(hint)) {
			score += keywordHintWeight
			rationale = append(rationale, fmt.Sprintf("keyword %q in prompt", hint))
		}
	}

	for _, bonus := range intentBonuses[ctx.Intent] {
		if strings.EqualFold(bonus.app, d.App) && strings.Contains(d.ID, bonus.idSubstring) {
			score += intentBonusWeight
			rationale = append(rationale, fmt.Sprintf("intent %q targets %s", ctx.Intent, d.ID))
		}
	}

	if ctx.isTrigger(d.App) && containsAny(d.ID, readTokens) {
		score += roleBonusWeight
		rationale = append(rationale, "read-type function for trigger app")
	}
	if ctx.isLastAction(d.App) && containsAny(d.ID, writeTokens) {
		score += roleBonusWeight
		rationale = append(rationale, "write-type function for final action app")
	}

	for _, verb := range sharedVerbs {
		if strings.Contains(prompt, verb) && strings.Contains(d.ID, verb) {
			score += verbBonusWeight
			rationale = append(rationale, fmt.Sprintf("verb %q shared by prompt and function", verb))
		}
	}

	if strings.Contains(ctx.Intent, "automation") && d.Category == automationCategory {
		score += categoryBonus
		rationale = append(rationale, "automation-category function")
	}

	return score, rationale
}

func defaultFunction(app string, ctx Context) string {
	defaults, ok := roleDefaults[strings.ToLower(app)]
	if !ok {
		return ""
	}
	if ctx.isTrigger(app) {
		return defaults.trigger
	}
	return defaults.action
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
