package mojito

import "github.com/MrEthical07/mojito/workflow"

// StartOptions carries what a page receives when it opens.
type StartOptions struct {
	// RequestInfo is the opaque identifier from an emailed link. Required for
	// password reset, account verification and email verification.
	RequestInfo string
	// AffairID identifies the reported content. Required for report.
	AffairID string
	// Language is the display language. Empty or unsupported values fall
	// back to the default language.
	Language string
	// SessionID is the caller's member session, if any. Report requires one.
	SessionID string
}

// View is the localized rendering of one workflow state. Rendering the same
// state twice yields the same View.
type View struct {
	ID                string            `json:"id"`
	Kind              workflow.Kind     `json:"kind"`
	Step              workflow.Step     `json:"step"`
	Language          string            `json:"language"`
	NextLanguage      string            `json:"nextLanguage"`
	NextLanguageLabel string            `json:"nextLanguageLabel"`
	Submitting        bool              `json:"submitting"`
	AwaitingChallenge bool              `json:"awaitingChallenge"`
	SubmitDisabled    bool              `json:"submitDisabled"`
	SubmitLabel       string            `json:"submitLabel,omitempty"`
	Message           string            `json:"message,omitempty"`
	Fields            []FieldView       `json:"fields,omitempty"`
	Banner            string            `json:"banner,omitempty"`
	Values            map[string]string `json:"values,omitempty"`
	Outcome           *OutcomeView      `json:"outcome,omitempty"`
	// RetryAfter is set with the rate-limit banner: seconds until the
	// limiter window closes.
	RetryAfter int `json:"retryAfterSeconds,omitempty"`
}

// FieldView is one input of the form step.
type FieldView struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []string `json:"options,omitempty"`
}

// OutcomeView is the localized result content.
type OutcomeView struct {
	Bucket          workflow.Bucket     `json:"bucket"`
	Title           string              `json:"title"`
	Body            string              `json:"body"`
	Affordance      workflow.Affordance `json:"affordance"`
	AffordanceLabel string              `json:"affordanceLabel"`
}

// Page is a static informational page.
type Page struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}
