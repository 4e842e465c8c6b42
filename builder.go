package mojito

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/audit"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/internal/limiters"
	"github.com/MrEthical07/mojito/internal/rate"
	"github.com/MrEthical07/mojito/internal/stores"
	"github.com/MrEthical07/mojito/jwt"
	"github.com/MrEthical07/mojito/locale"
	"github.com/MrEthical07/mojito/session"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	logger     *zap.Logger
	httpClient *http.Client
	catalog    *locale.Catalog
	auditSink  AuditSink

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used by the redis store backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithHTTPClient overrides the client used to reach the remote API.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithCatalog replaces the embedded message catalog.
func (b *Builder) WithCatalog(c *locale.Catalog) *Builder {
	b.catalog = c
	return b
}

// WithAuditSink sets where audit events go when Config.Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the remote call latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store.Backend == StoreRedis && b.redis == nil {
		return nil, errors.New("redis client required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- LOCALE --------
	catalog := b.catalog
	if catalog == nil {
		catalog = locale.Default()
	}
	if cfg.Locale.DefaultLanguage != "" {
		c, err := catalog.WithDefault(cfg.Locale.DefaultLanguage)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	// -------- REMOTE API --------
	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		HTTPClient: b.httpClient,
		Logger:     logger.Named("apiclient"),
	})
	if err != nil {
		return nil, err
	}

	// -------- ACCESS TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Session.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Session.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.Session.JWT.PublicKey),
		Issuer:        cfg.Session.JWT.Issuer,
		Audience:      cfg.Session.JWT.Audience,
		Leeway:        cfg.Session.JWT.Leeway,
		KeyID:         cfg.Session.JWT.KeyID,
		VerifyKeys:    cfg.Session.JWT.VerifyKeys,
	})
	if err != nil {
		return nil, err
	}

	// -------- STORES --------
	var (
		workflows workflowStore
		counter   rate.Counter
		backend   session.Backend
	)
	switch cfg.Store.Backend {
	case StoreRedis:
		workflows = stores.NewWorkflowStore(b.redis, cfg.Store.RedisPrefix)
		counter = rate.NewRedis(b.redis)
		backend = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	default:
		workflows = stores.NewMemoryWorkflowStore()
		counter = rate.NewMemory()
		backend = session.NewMemoryStore()
	}

	engine := &Engine{
		config:    cfg,
		logger:    logger,
		api:       api,
		catalog:   catalog,
		policy:    passwordPolicy(cfg.Password),
		workflows: workflows,
		sessions:  session.NewManager(tokens, backend, cfg.Session.MaxTTL),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     time.Now,
		newID:   uuid.NewString,
	}

	if cfg.Limiter.Enabled {
		engine.limiter = limiters.NewSubmissionLimiter(counter, limiters.SubmissionConfig{
			EnableIdentifierThrottle: cfg.Limiter.EnableIdentifierThrottle,
			EnableIPThrottle:         cfg.Limiter.EnableIPThrottle,
			MaxAttempts:              cfg.Limiter.MaxAttempts,
			Window:                   cfg.Limiter.Window,
		})
	}

	engine.flow = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
