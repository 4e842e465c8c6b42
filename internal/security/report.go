package security

import (
	"strings"
	"time"
)

// Warning codes raised by BuildReport.
const (
	WarnHTTPBaseURL         = "api_base_url_not_https"
	WarnMemoryStore         = "memory_store_single_replica"
	WarnLimiterDisabled     = "submission_limiter_disabled"
	WarnLimiterFailOpen     = "submission_limiter_fail_open"
	WarnNoIssuerCheck       = "jwt_issuer_unchecked"
	WarnSharedSecret        = "jwt_shared_secret"
	WarnSigningKeyPresent   = "jwt_signing_key_present"
	WarnChallengeUnbounded  = "challenge_attempts_unbounded"
	WarnAuditDisabled       = "audit_disabled"
	WarnPasswordPolicyShort = "password_min_length_below_8"
)

// ReportInput is the configuration slice the report looks at.
type ReportInput struct {
	BaseURL            string
	StoreBackend       string
	SigningMethod      string
	HasSigningKey      bool
	Issuer             string
	Audience           string
	Leeway             time.Duration
	LimiterEnabled     bool
	LimiterFailClosed  bool
	LimiterMaxAttempts int
	LimiterWindow      time.Duration
	ChallengeAttempts  int
	AuditEnabled       bool
	PasswordMinLength  int
	WorkflowTTL        time.Duration
	SessionMaxTTL      time.Duration
}

// Report summarizes the deployment posture of one engine.
type Report struct {
	SigningAlgorithm   string
	IssuerChecked      bool
	AudienceChecked    bool
	Leeway             time.Duration
	SharedStore        bool
	RateLimitingActive bool
	LimiterFailClosed  bool
	LimiterBudget      int
	LimiterWindow      time.Duration
	ChallengeAttempts  int
	AuditActive        bool
	WorkflowTTL        time.Duration
	SessionMaxTTL      time.Duration
	Warnings           []string
}

// BuildReport derives the posture and warnings from input. Warnings are in
// a fixed order.
func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm:   input.SigningMethod,
		IssuerChecked:      input.Issuer != "",
		AudienceChecked:    input.Audience != "",
		Leeway:             input.Leeway,
		SharedStore:        input.StoreBackend == "redis",
		RateLimitingActive: input.LimiterEnabled && input.LimiterMaxAttempts > 0,
		LimiterFailClosed:  input.LimiterEnabled && input.LimiterFailClosed,
		ChallengeAttempts:  input.ChallengeAttempts,
		AuditActive:        input.AuditEnabled,
		WorkflowTTL:        input.WorkflowTTL,
		SessionMaxTTL:      input.SessionMaxTTL,
	}
	if r.RateLimitingActive {
		r.LimiterBudget = input.LimiterMaxAttempts
		r.LimiterWindow = input.LimiterWindow
	}

	warn := func(cond bool, code string) {
		if cond {
			r.Warnings = append(r.Warnings, code)
		}
	}
	warn(!strings.HasPrefix(strings.ToLower(input.BaseURL), "https://"), WarnHTTPBaseURL)
	warn(!r.SharedStore, WarnMemoryStore)
	warn(!r.RateLimitingActive, WarnLimiterDisabled)
	warn(r.RateLimitingActive && !r.LimiterFailClosed, WarnLimiterFailOpen)
	warn(!r.IssuerChecked, WarnNoIssuerCheck)
	warn(input.SigningMethod == "hs256", WarnSharedSecret)
	warn(input.SigningMethod != "hs256" && input.HasSigningKey, WarnSigningKeyPresent)
	warn(input.ChallengeAttempts <= 0, WarnChallengeUnbounded)
	warn(!input.AuditEnabled, WarnAuditDisabled)
	warn(input.PasswordMinLength < 8, WarnPasswordPolicyShort)
	return r
}

// HasWarning reports whether code was raised.
func (r Report) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
