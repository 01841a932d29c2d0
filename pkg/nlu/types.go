package nlu

// Task identifies the NLU operation being requested.
type Task string

const (
	// TaskAnalyzeIntent extracts an automation intent from the user's request.
	TaskAnalyzeIntent Task = "analyze_intent"

	// TaskGenerateQuestions produces clarification questions for an
	// underspecified request.
	TaskGenerateQuestions Task = "generate_questions"
)

// Request describes one NLU task over the user's automation request.
type Request struct {
	// Task selects the operation.
	Task Task

	// Prompt is the user's original request text.
	Prompt string

	// Answers holds the canonical clarification answers collected so far.
	Answers map[string]string

	// MaxQuestions caps question generation output. Zero uses the default.
	MaxQuestions int
}

// IntentResult is the validated output of TaskAnalyzeIntent.
type IntentResult struct {
	// Intent is a short machine-readable intent label (e.g., "auto_reply").
	Intent string `json:"intent"`

	// TriggerApp is the application whose event starts the automation.
	TriggerApp string `json:"trigger_app"`

	// ActionApps are the downstream applications in execution order.
	ActionApps []string `json:"action_apps"`

	// Confidence is the analyzer's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Source names the provider (or "local") that produced this result.
	Source string `json:"-"`
}

// Question is a clarification question produced by TaskGenerateQuestions.
type Question struct {
	// ID is a stable question identifier.
	ID string `json:"id"`

	// Prompt is the text shown to the user.
	Prompt string `json:"prompt"`

	// Kind is the input kind: "choice" or "text".
	Kind string `json:"kind"`

	// Choices are the ordered options, present iff Kind is "choice".
	Choices []string `json:"choices,omitempty"`

	// Required marks questions that must be answered before synthesis.
	Required bool `json:"required"`

	// Category is one of: trigger, filter, destination, permission.
	Category string `json:"category"`
}

// Result is the outcome of an orchestrated NLU task; exactly one of the
// payload fields is set depending on the task.
type Result struct {
	// Intent is set for TaskAnalyzeIntent.
	Intent *IntentResult

	// Questions is set for TaskGenerateQuestions.
	Questions []Question

	// Source names the provider (or "local") that produced the result.
	Source string
}
