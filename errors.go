package mojito

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or partially built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrWorkflowNotFound is returned for unknown or expired workflow ids.
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrWorkflowTerminal is returned when an event targets a workflow that
	// already shows its result. The user must restart the flow.
	ErrWorkflowTerminal = errors.New("workflow already finished")
	// ErrSubmissionInFlight is returned while another submission of the same
	// workflow is pending.
	ErrSubmissionInFlight = errors.New("submission in flight")
	// ErrWrongStep is returned when an event does not apply to the current step,
	// for example a form submission during the token check.
	ErrWrongStep = errors.New("event does not apply to current step")
	// ErrUnknownKind is returned by Start for an unrecognized flow kind.
	ErrUnknownKind = errors.New("unknown workflow kind")
	// ErrMissingRequestInfo is returned when a link-driven flow is started
	// without the request identifier from the emailed link.
	ErrMissingRequestInfo = errors.New("missing request info")
	// ErrMissingAffairID is returned when a report flow is started without the
	// id of the reported content.
	ErrMissingAffairID = errors.New("missing affair id")
	// ErrStoreUnavailable is returned when the workflow or session backend
	// cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInvalid is returned when a stored session fails to decode or
	// its access token no longer verifies.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrUnknownPage is returned by StaticPage for names outside the fixed
	// page set. The not-found page is returned alongside it.
	ErrUnknownPage = errors.New("unknown page")
)
