package workflow

import (
	"errors"
	"time"
)

var (
	// ErrTerminal is returned when an event targets a workflow in StepResult.
	ErrTerminal = errors.New("workflow is terminal")
	// ErrInFlight is returned when a submission is attempted while another is pending.
	ErrInFlight = errors.New("workflow submission in flight")
	// ErrWrongStep is returned when an event does not apply to the current step.
	ErrWrongStep = errors.New("workflow event does not apply to current step")
)

// Step is the display step of a workflow instance.
type Step string

const (
	StepTokenCheck Step = "tokencheck"
	StepForm       Step = "form"
	StepResult     Step = "result"
)

// Bucket classifies a remote response into a user-facing result category.
type Bucket string

const (
	BucketSuccess       Bucket = "success"
	BucketConflict      Bucket = "conflict"
	BucketNotFound      Bucket = "notfound"
	BucketServerFailure Bucket = "serverfailure"
)

// BucketForStatus applies the generic status classification shared by all flows.
// Status 0 stands for a transport failure with no response.
func BucketForStatus(status int) Bucket {
	switch status {
	case 200:
		return BucketSuccess
	case 400:
		return BucketConflict
	case 403, 404:
		return BucketNotFound
	default:
		return BucketServerFailure
	}
}

// Affordance names the navigation control offered on a result.
type Affordance string

const (
	AffordanceHome    Affordance = "home"
	AffordanceBack    Affordance = "back"
	AffordanceRestart Affordance = "restart"
	AffordanceSignIn  Affordance = "signin"
)

// Field names used in FormInput.
const (
	FieldEmailAddress   = "emailAddress"
	FieldPassword       = "password"
	FieldRepeatPassword = "repeatpassword"
	FieldReportCategory = "reportCategory"
	FieldDetails        = "details"
)

// Context keys carried between steps.
const (
	ContextRequestInfo  = "requestInfo"
	ContextEmailAddress = "emailAddress"
	ContextResetToken   = "resetPasswordToken"
	ContextAffairID     = "affairId"
	ContextAffairType   = "affairType"
	ContextAffairTitle  = "affairTitle"
	ContextSessionID    = "sessionId"
)

// FormInput maps field names to the values currently typed into the form.
type FormInput map[string]string

// Get returns the value of field, or "" when absent.
func (f FormInput) Get(field string) string {
	if f == nil {
		return ""
	}
	return f[field]
}

// Banner is an inline, localized error message shown above the form.
type Banner struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
}

// Outcome is the terminal content selected for StepResult. It is immutable
// once set.
type Outcome struct {
	Bucket     Bucket     `json:"bucket"`
	TitleKey   string     `json:"titleKey"`
	BodyKey    string     `json:"bodyKey"`
	Affordance Affordance `json:"affordance"`
	Status     int        `json:"status"`
}

// State is the full snapshot of one workflow instance.
type State struct {
	ID                string            `json:"id"`
	Kind              Kind              `json:"kind"`
	Step              Step              `json:"step"`
	Submitting        bool              `json:"submitting"`
	AwaitingChallenge bool              `json:"awaitingChallenge"`
	ChallengeToken    string            `json:"-"`
	Banner            *Banner           `json:"banner,omitempty"`
	Outcome           *Outcome          `json:"outcome,omitempty"`
	Context           map[string]string `json:"context,omitempty"`
	Language          string            `json:"language"`
	Attempts          int               `json:"attempts"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Terminal reports whether the state is a Result step.
func (s State) Terminal() bool {
	return s.Step == StepResult
}

// Value returns a context value carried between steps.
func (s State) Value(key string) string {
	if s.Context == nil {
		return ""
	}
	return s.Context[key]
}

// CanSubmit reports whether a submission event may be accepted in step.
func (s State) CanSubmit(step Step) error {
	switch {
	case s.Terminal():
		return ErrTerminal
	case s.Submitting:
		return ErrInFlight
	case s.Step != step:
		return ErrWrongStep
	default:
		return nil
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.Banner != nil {
		b := *s.Banner
		out.Banner = &b
	}
	if s.Outcome != nil {
		o := *s.Outcome
		out.Outcome = &o
	}
	if s.Context != nil {
		out.Context = make(map[string]string, len(s.Context))
		for k, v := range s.Context {
			out.Context[k] = v
		}
	}
	return out
}
