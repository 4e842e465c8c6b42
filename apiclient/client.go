// Package apiclient is the HTTP client for the remote Mojito member and affair
// API.
//
// Every call returns the HTTP status code and the raw body. Non-2xx statuses
// are not errors: callers classify them. An error is returned only when no
// status was obtained (transport failure, cancelled context, oversized body).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "mojito-web"
	maxBodyBytes     = 1 << 20
)

var (
	// ErrBaseURL is returned by New when the base URL is missing or not absolute.
	ErrBaseURL = errors.New("apiclient: invalid base url")
	// ErrBodyTooLarge is returned when a response body exceeds the read limit.
	ErrBodyTooLarge = errors.New("apiclient: response body too large")
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Response is the status and body of one API call.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the call returned 200.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Decode unmarshals the body into v.
func (r Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("apiclient: empty body")
	}
	return json.Unmarshal(r.Body, v)
}

// Client issues requests against the remote API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ErrBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:      base,
		http:      hc,
		userAgent: ua,
		logger:    logger,
	}, nil
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
}

func (c *Client) do(ctx context.Context, in call) (Response, error) {
	u := *c.base
	u.Path = c.base.Path + in.path
	if len(in.query) > 0 {
		u.RawQuery = in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return Response{}, fmt.Errorf("apiclient: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, u.String(), reader)
	if err != nil {
		return Response{}, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+in.bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api call failed",
			zap.String("method", in.method),
			zap.String("path", in.path),
			zap.Error(err),
		)
		return Response{}, fmt.Errorf("apiclient: %s %s: %w", in.method, in.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Response{}, fmt.Errorf("apiclient: read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return Response{}, ErrBodyTooLarge
	}

	c.logger.Debug("api call",
		zap.String("method", in.method),
		zap.String("path", in.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func challengeQuery(token string) url.Values {
	q := url.Values{}
	q.Set("recaptchaResponse", token)
	return q
}
