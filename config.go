package mojito

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is the complete engine configuration. Build it from DefaultConfig
// and override what differs; Builder.Build validates it once.
type Config struct {
	API       APIConfig
	Challenge ChallengeConfig
	Password  PasswordConfig
	Locale    LocaleConfig
	Store     StoreConfig
	Session   SessionConfig
	Limiter   LimiterConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote Mojito API.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig bounds challenge acquisition for one submission attempt.
type ChallengeConfig struct {
	MaxAttempts int
	Timeout     time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the policy new passwords are checked against before
// sign-up and password reset submissions.
type PasswordConfig struct {
	MinLength      int
	RequireLower   bool
	RequireUpper   bool
	RequireDigit   bool
	RequireSpecial bool
}

/*
====================================
LOCALE CONFIG
====================================
*/

// LocaleConfig selects the fallback language. Empty uses the catalog default.
type LocaleConfig struct {
	DefaultLanguage string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreBackend selects where workflow snapshots, sessions, and limiter
// counters live.
type StoreBackend string

const (
	// StoreRedis keeps all state in Redis and is required for more than one replica.
	StoreRedis StoreBackend = "redis"
	// StoreMemory keeps state in process memory.
	StoreMemory StoreBackend = "memory"
)

// StoreConfig controls workflow persistence.
type StoreConfig struct {
	Backend     StoreBackend
	RedisPrefix string
	// WorkflowTTL is how long an untouched workflow survives. Expiry is
	// navigation away.
	WorkflowTTL time.Duration
	// LockTTL bounds how long a crashed submitter can hold a workflow. It
	// must exceed Challenge.Timeout plus API.Timeout.
	LockTTL time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls member sessions created at sign-in.
type SessionConfig struct {
	RedisPrefix string
	// MaxTTL caps a session below the access token's own expiry. Zero keeps
	// the token expiry.
	MaxTTL time.Duration
	JWT    JWTConfig
}

// JWTConfig describes how access tokens returned by the sign-in API are
// verified.
type JWTConfig struct {
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
LIMITER CONFIG
====================================
*/

// LimiterConfig is the fixed-window submission budget per flow kind.
type LimiterConfig struct {
	Enabled                  bool
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	Window                   time.Duration
	// FailClosed throttles submissions while the counter backend is down.
	FailClosed bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. API.BaseURL and the
// session verification keys have no default and must be set.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			UserAgent: "mojito-web",
		},
		Challenge: ChallengeConfig{
			MaxAttempts: 3,
			Timeout:     2 * time.Minute,
		},
		Password: PasswordConfig{
			MinLength:      8,
			RequireLower:   true,
			RequireUpper:   true,
			RequireDigit:   true,
			RequireSpecial: true,
		},
		Store: StoreConfig{
			Backend:     StoreRedis,
			RedisPrefix: "mwf",
			WorkflowTTL: 30 * time.Minute,
			LockTTL:     3 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "ms",
			MaxTTL:      24 * time.Hour,
			JWT: JWTConfig{
				SigningMethod: "ed25519",
				Leeway:        30 * time.Second,
			},
		},
		Limiter: LimiterConfig{
			Enabled:                  true,
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
			MaxAttempts:              10,
			Window:                   10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.JWT.PrivateKey = cloneBytes(cfg.Session.JWT.PrivateKey)
	out.Session.JWT.PublicKey = cloneBytes(cfg.Session.JWT.PublicKey)
	if cfg.Session.JWT.VerifyKeys != nil {
		out.Session.JWT.VerifyKeys = make(map[string][]byte, len(cfg.Session.JWT.VerifyKeys))
		for kid, key := range cfg.Session.JWT.VerifyKeys {
			out.Session.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error. It does not contact any
// backend.
func (c *Config) Validate() error {
	// API
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Challenge
	if c.Challenge.MaxAttempts <= 0 {
		return errors.New("Challenge MaxAttempts must be > 0")
	}
	if c.Challenge.MaxAttempts > 10 {
		return errors.New("Challenge MaxAttempts must be <= 10")
	}
	if c.Challenge.Timeout <= 0 {
		return errors.New("Challenge Timeout must be > 0")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MinLength > 128 {
		return errors.New("Password MinLength must be <= 128")
	}

	// Store
	switch c.Store.Backend {
	case StoreRedis, StoreMemory:
	default:
		return errors.New("Store Backend must be 'redis' or 'memory'")
	}
	if c.Store.WorkflowTTL <= 0 {
		return errors.New("Store WorkflowTTL must be > 0")
	}
	if c.Store.LockTTL <= 0 {
		return errors.New("Store LockTTL must be > 0")
	}
	// One attempt waits for a challenge token and then for the remote call.
	if c.Store.LockTTL <= c.Challenge.Timeout+c.API.Timeout {
		return errors.New("Store LockTTL must be > Challenge Timeout + API Timeout")
	}
	if strings.ContainsAny(c.Store.RedisPrefix, " \t\n") {
		return errors.New("Store RedisPrefix must not contain whitespace")
	}

	// Session
	if c.Session.MaxTTL < 0 {
		return errors.New("Session MaxTTL must be >= 0")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}
	if c.Session.RedisPrefix != "" && c.Session.RedisPrefix == c.Store.RedisPrefix {
		return errors.New("Session RedisPrefix must differ from Store RedisPrefix")
	}
	switch c.Session.JWT.SigningMethod {
	case "ed25519":
		if len(c.Session.JWT.PublicKey) == 0 && len(c.Session.JWT.PrivateKey) == 0 && len(c.Session.JWT.VerifyKeys) == 0 {
			return errors.New("ed25519 requires PublicKey, PrivateKey, or VerifyKeys")
		}
	case "hs256":
		if len(c.Session.JWT.PrivateKey) == 0 && len(c.Session.JWT.VerifyKeys) == 0 {
			return errors.New("hs256 requires PrivateKey or VerifyKeys")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.Session.JWT.Leeway < 0 || c.Session.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.Session.JWT.Issuer != "" && strings.TrimSpace(c.Session.JWT.Issuer) == "" {
		return errors.New("JWT Issuer must not be blank")
	}
	if c.Session.JWT.Audience != "" && strings.TrimSpace(c.Session.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}

	// Limiter
	if c.Limiter.Enabled {
		if c.Limiter.MaxAttempts <= 0 {
			return errors.New("Limiter MaxAttempts must be > 0")
		}
		if c.Limiter.Window <= 0 {
			return errors.New("Limiter Window must be > 0")
		}
		if !c.Limiter.EnableIdentifierThrottle && !c.Limiter.EnableIPThrottle {
			return errors.New("Limiter requires identifier or IP throttling when enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
