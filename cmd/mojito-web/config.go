package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/mojito"
)

// ServerConfig is the listener section of the config file.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TrustProxy      bool          `yaml:"trust_proxy"`
	SecureCookie    bool          `yaml:"secure_cookie"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RedisConfig locates Redis. An empty address starts an in-process
// miniredis, which is only fit for local development.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EngineConfig is the subset of mojito.Config the file may override.
type EngineConfig struct {
	APIBaseURL       string        `yaml:"api_base_url"`
	APITimeout       time.Duration `yaml:"api_timeout"`
	ChallengeTimeout time.Duration `yaml:"challenge_timeout"`
	ChallengeRetries int           `yaml:"challenge_max_attempts"`
	DefaultLanguage  string        `yaml:"default_language"`
	CatalogFile      string        `yaml:"catalog_file"`
	StoreBackend     string        `yaml:"store_backend"`
	WorkflowTTL      time.Duration `yaml:"workflow_ttl"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`

	SigningMethod  string        `yaml:"jwt_signing_method"`
	PublicKeyFile  string        `yaml:"jwt_public_key_file"`
	PrivateKeyFile string        `yaml:"jwt_private_key_file"`
	Issuer         string        `yaml:"jwt_issuer"`
	Audience       string        `yaml:"jwt_audience"`
	Leeway         time.Duration `yaml:"jwt_leeway"`

	LimiterEnabled     bool          `yaml:"limiter_enabled"`
	LimiterMaxAttempts int           `yaml:"limiter_max_attempts"`
	LimiterWindow      time.Duration `yaml:"limiter_window"`

	AuditEnabled bool `yaml:"audit_enabled"`
}

// FileConfig is the whole YAML document.
type FileConfig struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
	Engine EngineConfig `yaml:"engine"`
}

func defaultFileConfig() FileConfig {
	def := mojito.DefaultConfig()
	return FileConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Engine: EngineConfig{
			APITimeout:         def.API.Timeout,
			ChallengeTimeout:   def.Challenge.Timeout,
			ChallengeRetries:   def.Challenge.MaxAttempts,
			StoreBackend:       string(def.Store.Backend),
			WorkflowTTL:        def.Store.WorkflowTTL,
			SweepInterval:      time.Minute,
			SigningMethod:      def.Session.JWT.SigningMethod,
			Leeway:             def.Session.JWT.Leeway,
			LimiterEnabled:     def.Limiter.Enabled,
			LimiterMaxAttempts: def.Limiter.MaxAttempts,
			LimiterWindow:      def.Limiter.Window,
			AuditEnabled:       true,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (FileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return FileConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EngineConfig overlays the file values onto mojito.DefaultConfig and reads
// the key files.
func (c FileConfig) EngineConfig() (mojito.Config, error) {
	cfg := mojito.DefaultConfig()
	e := c.Engine

	cfg.API.BaseURL = e.APIBaseURL
	cfg.API.Timeout = e.APITimeout
	cfg.Challenge.Timeout = e.ChallengeTimeout
	cfg.Challenge.MaxAttempts = e.ChallengeRetries
	cfg.Locale.DefaultLanguage = e.DefaultLanguage
	cfg.Store.Backend = mojito.StoreBackend(e.StoreBackend)
	cfg.Store.WorkflowTTL = e.WorkflowTTL
	cfg.Session.JWT.SigningMethod = e.SigningMethod
	cfg.Session.JWT.Issuer = e.Issuer
	cfg.Session.JWT.Audience = e.Audience
	cfg.Session.JWT.Leeway = e.Leeway
	cfg.Limiter.Enabled = e.LimiterEnabled
	cfg.Limiter.MaxAttempts = e.LimiterMaxAttempts
	cfg.Limiter.Window = e.LimiterWindow
	cfg.Audit.Enabled = e.AuditEnabled

	if e.PublicKeyFile == "" && e.PrivateKeyFile == "" {
		return mojito.Config{}, errors.New("jwt_public_key_file or jwt_private_key_file is required")
	}
	if e.PublicKeyFile != "" {
		key, err := readKeyFile(e.PublicKeyFile)
		if err != nil {
			return mojito.Config{}, err
		}
		cfg.Session.JWT.PublicKey = key
	}
	if e.PrivateKeyFile != "" {
		key, err := readKeyFile(e.PrivateKeyFile)
		if err != nil {
			return mojito.Config{}, err
		}
		cfg.Session.JWT.PrivateKey = key
	}

	if err := cfg.Validate(); err != nil {
		return mojito.Config{}, err
	}
	return cfg, nil
}

// readKeyFile reads base64 key material. Surrounding whitespace is ignored.
func readKeyFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode key file %s: %w", path, err)
	}
	return key, nil
}
