package mojito

import "github.com/MrEthical07/mojito/internal/security"

// SecurityReport is the deployment posture of an engine.
type SecurityReport = security.Report

// SecurityReport summarizes the configuration the engine was built with.
// Warnings name settings that are only safe for local development.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	c := e.config
	return security.BuildReport(security.ReportInput{
		BaseURL:            c.API.BaseURL,
		StoreBackend:       string(c.Store.Backend),
		SigningMethod:      c.Session.JWT.SigningMethod,
		HasSigningKey:      len(c.Session.JWT.PrivateKey) > 0,
		Issuer:             c.Session.JWT.Issuer,
		Audience:           c.Session.JWT.Audience,
		Leeway:             c.Session.JWT.Leeway,
		LimiterEnabled:     c.Limiter.Enabled,
		LimiterFailClosed:  c.Limiter.FailClosed,
		LimiterMaxAttempts: c.Limiter.MaxAttempts,
		LimiterWindow:      c.Limiter.Window,
		ChallengeAttempts:  c.Challenge.MaxAttempts,
		AuditEnabled:       c.Audit.Enabled,
		PasswordMinLength:  c.Password.MinLength,
		WorkflowTTL:        c.Store.WorkflowTTL,
		SessionMaxTTL:      c.Session.MaxTTL,
	})
}
