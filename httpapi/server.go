package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/MrEthical07/mojito"
	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/metrics/export/prometheus"
	"github.com/MrEthical07/mojito/middleware"
	"github.com/MrEthical07/mojito/workflow"
)

const maxBodyBytes = 64 << 10

// Options configures the binding.
type Options struct {
	Logger *zap.Logger
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// Metrics serves GET /metrics. Nil mounts the Prometheus exporter of the
	// engine.
	Metrics http.Handler
}

// Server serves the JSON binding.
type Server struct {
	engine *mojito.Engine
	logger *zap.Logger
	secure bool
	router *mux.Router
}

// New builds the router for engine.
func New(engine *mojito.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	s := &Server{
		engine: engine,
		logger: logger,
		secure: opts.SecureCookie,
		router: mux.NewRouter(),
	}

	r := s.router
	r.Use(middleware.AccessLog(logger), middleware.ClientIP(opts.TrustProxy))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/workflows", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/workflows/{id}", s.handleAbandon).Methods(http.MethodDelete)
	api.HandleFunc("/workflows/{id}/submit", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/tokencheck", s.handleTokenCheck).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/language", s.handleLanguage).Methods(http.MethodPost)
	api.HandleFunc("/signout", s.handleSignOut).Methods(http.MethodPost)
	api.Handle("/session", middleware.RequireSession(engine)(http.HandlerFunc(s.handleSession))).Methods(http.MethodGet)
	api.HandleFunc("/pages/{name}", s.handlePage).Methods(http.MethodGet)
	r.Handle("/metrics", metrics).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type startRequest struct {
	Kind        workflow.Kind `json:"kind"`
	RequestInfo string        `json:"requestInfo,omitempty"`
	AffairID    string        `json:"affairId,omitempty"`
	Language    string        `json:"language,omitempty"`
}

type submitRequest struct {
	Input          workflow.FormInput `json:"input"`
	ChallengeToken string             `json:"challengeToken"`
}

type tokenCheckRequest struct {
	ChallengeToken string `json:"challengeToken"`
}

type sessionResponse struct {
	MemberID     string    `json:"memberId"`
	EmailAddress string    `json:"emailAddress"`
	Nickname     string    `json:"nickname"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	lang := req.Language
	if lang == "" {
		lang = s.engine.MatchLanguage(r.Header.Get("Accept-Language"))
	}

	st, err := s.engine.Start(r.Context(), req.Kind, mojito.StartOptions{
		RequestInfo: req.RequestInfo,
		AffairID:    req.AffairID,
		Language:    lang,
		SessionID:   middleware.SessionID(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.engine.Render(st))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Render(st))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.Submit(r.Context(), mux.Vars(r)["id"], req.Input, challenge.NewStatic(req.ChallengeToken))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.Kind == workflow.KindSignIn {
		s.setSessionCookie(r.Context(), w, st.Value(workflow.ContextSessionID))
	}
	v := s.engine.Render(st)
	if v.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(v.RetryAfter))
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleTokenCheck(w http.ResponseWriter, r *http.Request) {
	var req tokenCheckRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.CheckToken(r.Context(), mux.Vars(r)["id"], challenge.NewStatic(req.ChallengeToken))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Render(st))
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ToggleLanguage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Render(st))
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Abandon(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r)
	if err := s.engine.SignOut(r.Context(), id); err != nil &&
		!errors.Is(err, mojito.ErrSessionNotFound) && !errors.Is(err, mojito.ErrSessionInvalid) {
		s.fail(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		MemberID:     sess.MemberID,
		EmailAddress: sess.EmailAddress,
		Nickname:     sess.Nickname,
		ExpiresAt:    time.Unix(sess.ExpiresAt, 0).UTC(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.engine.MatchLanguage(r.Header.Get("Accept-Language"))
	}

	page, err := s.engine.StaticPage(mux.Vars(r)["name"], lang)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, page)
	case errors.Is(err, mojito.ErrUnknownPage):
		writeJSON(w, http.StatusNotFound, page)
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) setSessionCookie(ctx context.Context, w http.ResponseWriter, id string) {
	if id == "" {
		return
	}
	sess, err := s.engine.Session(ctx, id)
	if err != nil {
		s.logger.Warn("session lookup after sign-in failed", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Unix(sess.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, code)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return false
	}
	return true
}
