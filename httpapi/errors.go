package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/mojito"
)

type errorBody struct {
	Error string `json:"error"`
}

// errorStatus maps engine errors to a status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, mojito.ErrWorkflowNotFound):
		return http.StatusNotFound, "workflow_not_found"
	case errors.Is(err, mojito.ErrUnknownKind):
		return http.StatusBadRequest, "unknown_kind"
	case errors.Is(err, mojito.ErrMissingRequestInfo):
		return http.StatusBadRequest, "missing_request_info"
	case errors.Is(err, mojito.ErrMissingAffairID):
		return http.StatusBadRequest, "missing_affair_id"
	case errors.Is(err, mojito.ErrWorkflowTerminal):
		return http.StatusConflict, "workflow_terminal"
	case errors.Is(err, mojito.ErrSubmissionInFlight):
		return http.StatusConflict, "submission_in_flight"
	case errors.Is(err, mojito.ErrWrongStep):
		return http.StatusConflict, "wrong_step"
	case errors.Is(err, mojito.ErrSessionNotFound), errors.Is(err, mojito.ErrSessionInvalid):
		return http.StatusUnauthorized, "session_required"
	case errors.Is(err, mojito.ErrUnknownPage):
		return http.StatusNotFound, "page_not_found"
	case errors.Is(err, mojito.ErrStoreUnavailable), errors.Is(err, mojito.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorBody{Error: code})
}
