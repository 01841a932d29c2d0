package nlu

import (
	"sort"
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
)

// localAnalyzerName is the Source reported for local results.
const localAnalyzerName = "local"

// localConfidence is the lowered confidence attached to rule-based results.
const localConfidence = 0.35

// LocalAnalyzer is the terminal fallback of the provider chain: a rule-based
// analyzer over keyword matches against the capability catalog. It is a pure
// function of (request, catalog) and never fails.
type LocalAnalyzer struct {
	cat catalog.Catalog
}

// NewLocalAnalyzer creates a local analyzer over a catalog snapshot.
func NewLocalAnalyzer(cat catalog.Catalog) *LocalAnalyzer {
	return &LocalAnalyzer{cat: cat}
}

// Run executes the task deterministically. It always returns a result.
func (a *LocalAnalyzer) Run(req Request) *Result {
	switch req.Task {
	case TaskGenerateQuestions:
		return &Result{Questions: a.generateQuestions(req), Source: localAnalyzerName}
	default:
		return &Result{Intent: a.analyzeIntent(req), Source: localAnalyzerName}
	}
}

// appMatch records where an application was first mentioned in the prompt.
type appMatch struct {
	app string
	pos int
}

// analyzeIntent derives an intent from keyword matches. Applications are
// ordered by first mention position; the earliest becomes the trigger.
func (a *LocalAnalyzer) analyzeIntent(req Request) *IntentResult {
	prompt := strings.ToLower(req.Prompt)

	var matches []appMatch
	for _, app := range a.cat.Apps() {
		pos := a.firstMention(prompt, app)
		if pos >= 0 {
			matches = append(matches, appMatch{app: app, pos: pos})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].app < matches[j].app
	})

	result := &IntentResult{
		Intent:     classifyIntent(prompt),
		Confidence: localConfidence,
		Source:     localAnalyzerName,
	}

	if len(matches) == 0 {
		// Nothing recognized: a safe universal default keeps the analyzer total.
		result.TriggerApp = "gmail"
		result.Confidence = 0.2
		return result
	}

	result.TriggerApp = matches[0].app
	for _, m := range matches[1:] {
		result.ActionApps = append(result.ActionApps, m.app)
	}
	return result
}

// firstMention returns the earliest index where the app name or any of its
// functions' keyword phrases appears in the prompt, or -1.
func (a *LocalAnalyzer) firstMention(prompt, app string) int {
	best := -1
	consider := func(phrase string) {
		if phrase == "" {
			return
		}
		if idx := indexWord(prompt, strings.ToLower(phrase)); idx >= 0 {
			if best < 0 || idx < best {
				best = idx
			}
		}
	}

	consider(app)
	for _, fn := range a.cat.Functions(app) {
		for _, keyword := range fn.Keywords {
			consider(keyword)
		}
	}
	return best
}

// indexWord returns the earliest index where phrase occurs in s on word
// boundaries, or -1. Substring hits inside longer words do not count:
// "read" must not match inside "spreadsheet".
func indexWord(s, phrase string) int {
	for from := 0; ; {
		idx := strings.Index(s[from:], phrase)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(phrase)
		if (idx == 0 || !isWordByte(s[idx-1])) && (end == len(s) || !isWordByte(s[end])) {
			return idx
		}
		from = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// classifyIntent maps verb phrases to a fixed intent label.
func classifyIntent(prompt string) string {
	switch {
	case strings.Contains(prompt, "auto-reply"),
		strings.Contains(prompt, "auto reply"),
		strings.Contains(prompt, "automatic reply"):
		return "auto_reply"
	case strings.Contains(prompt, "track"),
		strings.Contains(prompt, "log "),
		strings.Contains(prompt, "record"),
		strings.Contains(prompt, "append"):
		return "tracking_automation"
	case strings.Contains(prompt, "notify"),
		strings.Contains(prompt, "alert"),
		strings.Contains(prompt, "remind"):
		return "notification_automation"
	default:
		return "general_automation"
	}
}

// generateQuestions produces the standard clarification set, skipping
// categories already covered by canonical answers.
func (a *LocalAnalyzer) generateQuestions(req Request) []Question {
	max := req.MaxQuestions
	if max <= 0 {
		max = defaultMaxQuestions
	}

	has := func(key string) bool {
		_, ok := req.Answers[key]
		return ok
	}

	var questions []Question
	if !has("trigger") {
		questions = append(questions, Question{
			ID:     "q_trigger",
			Prompt: "How should this automation start?",
			Kind:   "choice",
			Choices: []string{
				"Every 15 minutes",
				"Every hour",
				"Daily at 9am",
				"When a new item arrives",
			},
			Required: true,
			Category: "trigger",
		})
	}
	if !has("filter") {
		questions = append(questions, Question{
			ID:       "q_filter",
			Prompt:   "Which items should be included? Describe any filters (sender, label, keywords).",
			Kind:     "text",
			Required: false,
			Category: "filter",
		})
	}
	if !has("destination") {
		questions = append(questions, Question{
			ID:       "q_destination",
			Prompt:   "Where should the results go (spreadsheet, folder, channel)?",
			Kind:     "text",
			Required: false,
			Category: "destination",
		})
	}

	if len(questions) > max {
		questions = questions[:max]
	}
	return questions
}
