package internaldefs

import (
	"github.com/MrEthical07/mojito"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   mojito.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   mojito.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: mojito.MetricWorkflowStarted, Name: "mojito_workflow_started_total", Help: "Workflows opened."},
	{ID: mojito.MetricSubmitAttempt, Name: "mojito_submit_attempt_total", Help: "Submission and token check attempts."},
	{ID: mojito.MetricValidationRejected, Name: "mojito_validation_rejected_total", Help: "Submissions rejected by local validation."},
	{ID: mojito.MetricRateLimited, Name: "mojito_rate_limited_total", Help: "Submissions denied by the submission limiter."},
	{ID: mojito.MetricInFlightRejected, Name: "mojito_in_flight_rejected_total", Help: "Submissions rejected because another one was pending."},
	{ID: mojito.MetricChallengeAcquired, Name: "mojito_challenge_acquired_total", Help: "Challenge tokens obtained."},
	{ID: mojito.MetricChallengeFailed, Name: "mojito_challenge_failed_total", Help: "Attempts abandoned without a challenge token."},
	{ID: mojito.MetricChallengeReset, Name: "mojito_challenge_reset_total", Help: "Challenge provider resets."},
	{ID: mojito.MetricTransportFailure, Name: "mojito_transport_failure_total", Help: "Remote calls that produced no response."},
	{ID: mojito.MetricOutcomeSuccess, Name: "mojito_outcome_success_total", Help: "Responses classified as success."},
	{ID: mojito.MetricOutcomeConflict, Name: "mojito_outcome_conflict_total", Help: "Responses classified as conflict."},
	{ID: mojito.MetricOutcomeNotFound, Name: "mojito_outcome_not_found_total", Help: "Responses classified as not found."},
	{ID: mojito.MetricOutcomeServerFailure, Name: "mojito_outcome_server_failure_total", Help: "Responses classified as server failure."},
	{ID: mojito.MetricSessionCreated, Name: "mojito_session_created_total", Help: "Member sessions created at sign-in."},
	{ID: mojito.MetricSignOut, Name: "mojito_signout_total", Help: "Member sessions ended."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: mojito.MetricSubmitLatency, Name: "mojito_submit_latency_seconds", Help: "Remote API call latency."},
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const (
	AuditDroppedName = "mojito_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundSuffix names each bucket for exporters without native
// histograms.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
