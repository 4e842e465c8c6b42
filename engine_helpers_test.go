package mojito

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/jwt"
	"github.com/MrEthical07/mojito/workflow"
)

const (
	pathSignUp        = "/member/signup"
	pathSignUpVerify  = "/member/signup/verify"
	pathEmailVerify   = "/member/email/verify"
	pathSignIn        = "/member/signin"
	pathSignOut       = "/member/signout"
	pathResetRequest  = "/member/resetpassword/request"
	pathResetVerify   = "/member/resetpassword/verify"
	pathResetPassword = "/member/resetpassword"
	pathAffairInfo    = "/affair/info"
	pathReport        = "/affair/report"
)

// fakeAPI records every request and answers with a per-path status and body.
// Unconfigured paths answer 200 with an empty body, except sign-in, which
// issues a real access token.
type fakeAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	status   map[string]int
	bodies   map[string]string
	queries  map[string]url.Values
	payloads map[string]map[string]string
	auth     map[string]string
	tokens   *jwt.Manager
	server   *httptest.Server
}

func newFakeAPI(t testing.TB, tokens *jwt.Manager) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		calls:    map[string]int{},
		status:   map[string]int{},
		bodies:   map[string]string{},
		queries:  map[string]url.Values{},
		payloads: map[string]map[string]string{},
		auth:     map[string]string{},
		tokens:   tokens,
	}
	f.server = httptest.NewServer(f)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	var payload map[string]string
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	f.mu.Lock()
	f.calls[path]++
	f.queries[path] = r.URL.Query()
	f.auth[path] = r.Header.Get("Authorization")
	if payload != nil {
		f.payloads[path] = payload
	}
	status, ok := f.status[path]
	if !ok {
		status = http.StatusOK
	}
	body := f.bodies[path]
	f.mu.Unlock()

	if body == "" && path == pathSignIn && status == http.StatusOK {
		tok, err := f.tokens.Issue("member-1", payload["emailAddress"], "ann")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = `{"accessToken":"` + tok + `"}`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeAPI) respond(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = status
	f.bodies[path] = body
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) query(path, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path].Get(key)
}

func (f *fakeAPI) payload(path string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[path]
}

func (f *fakeAPI) authorization(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

// countingProvider hands out a fixed token, or fails with err.
type countingProvider struct {
	mu       sync.Mutex
	token    string
	err      error
	executes int
	resets   int
}

func newProvider(token string) *countingProvider {
	return &countingProvider{token: token}
}

func (p *countingProvider) Execute(ctx context.Context) (challenge.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.executes++
	if err := ctx.Err(); err != nil {
		return challenge.Result{}, err
	}
	if p.err != nil {
		return challenge.Result{}, p.err
	}
	return challenge.Result{Token: p.token}, nil
}

func (p *countingProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
}

func (p *countingProvider) counts() (executes, resets int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.executes, p.resets
}

func newTestKeys(t testing.TB) ed25519.PrivateKey {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return priv
}

func testConfig(baseURL string, priv ed25519.PrivateKey) Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second
	cfg.Store.Backend = StoreMemory
	cfg.Challenge.Timeout = time.Second
	cfg.Store.LockTTL = time.Minute
	cfg.Session.JWT.PrivateKey = priv
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

type engineOption func(*Config, *Builder)

func withConfig(mutate func(*Config)) engineOption {
	return func(cfg *Config, _ *Builder) { mutate(cfg) }
}

func withRedis(rdb redis.UniversalClient) engineOption {
	return func(cfg *Config, b *Builder) {
		cfg.Store.Backend = StoreRedis
		b.WithRedis(rdb)
	}
}

func withAuditSink(sink AuditSink) engineOption {
	return func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 64
		cfg.Audit.DropIfFull = false
		b.WithAuditSink(sink)
	}
}

func newTestEngine(t *testing.T, opts ...engineOption) (*Engine, *fakeAPI) {
	t.Helper()

	priv := newTestKeys(t)
	tokens, err := jwt.NewManager(jwt.Config{SigningMethod: jwt.MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("jwt.NewManager: %v", err)
	}
	api := newFakeAPI(t, tokens)

	cfg := testConfig(api.server.URL, priv)
	b := New()
	for _, opt := range opts {
		opt(&cfg, b)
	}

	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, api
}

func mustStart(t *testing.T, e *Engine, kind workflow.Kind, opts StartOptions) workflow.State {
	t.Helper()

	st, err := e.Start(context.Background(), kind, opts)
	if err != nil {
		t.Fatalf("Start(%s): %v", kind, err)
	}
	return st
}

func mustSubmit(t *testing.T, e *Engine, id string, input workflow.FormInput, p challenge.Provider) workflow.State {
	t.Helper()

	st, err := e.Submit(context.Background(), id, input, p)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return st
}

func signUpInput(email, password, repeat string) workflow.FormInput {
	return workflow.FormInput{
		workflow.FieldEmailAddress:   email,
		workflow.FieldPassword:       password,
		workflow.FieldRepeatPassword: repeat,
	}
}

func signInInput(email, password string) workflow.FormInput {
	return workflow.FormInput{
		workflow.FieldEmailAddress: email,
		workflow.FieldPassword:     password,
	}
}

func bannerKey(st workflow.State) string {
	if st.Banner == nil || !st.Banner.Visible {
		return ""
	}
	return st.Banner.Key
}

func outcomeTitle(st workflow.State) string {
	if st.Outcome == nil {
		return ""
	}
	return st.Outcome.TitleKey
}

// signedInSession runs a sign-in workflow and returns the session id.
func signedInSession(t *testing.T, e *Engine) string {
	t.Helper()

	st := mustStart(t, e, workflow.KindSignIn, StartOptions{})
	st = mustSubmit(t, e, st.ID, signInInput("a@b.com", "Abcdef1!"), newProvider("tok-signin"))
	id := st.Value(workflow.ContextSessionID)
	if id == "" {
		t.Fatalf("expected session id after sign-in, got state %+v", st)
	}
	return id
}
