package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"LedgerSync/internal/ledger"
	"LedgerSync/internal/session"

	"go.uber.org/zap"
)

const (
	// SessionTTL matches the idle timeout of FileMaker Data API sessions.
	SessionTTL = 15 * time.Minute

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// Config describes how to reach the remote data API.
type Config struct {
	TokenURL    string
	DataURL     string
	Username    string
	Password    string
	Timeout     time.Duration
	InsecureTLS bool
}

// Configured reports whether both endpoints are set.
func (c Config) Configured() bool {
	return c.TokenURL != "" && c.DataURL != ""
}

// Client pulls account records from a FileMaker Data API layout.
type Client struct {
	cfg      Config
	http     *http.Client
	sessions *session.Manager
	log      *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessions shares a session cache between clients.
func WithSessions(m *session.Manager) Option {
	return func(c *Client) { c.sessions = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureTLS {
		hc.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}
	c := &Client{
		cfg:      cfg,
		http:     hc,
		sessions: session.NewManager(SessionTTL),
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Source identifies the remote in logs and sync results.
func (c *Client) Source() string {
	return c.cfg.DataURL
}

// Token returns a cached session token or requests a new one.
func (c *Client) Token(ctx context.Context) (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}
	if tok, ok := c.sessions.Get(c.cfg.TokenURL); ok {
		return tok, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", &FetchError{Op: "token", URL: c.cfg.TokenURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	body, status, err := c.do(req)
	if err != nil {
		return "", &FetchError{Op: "token", URL: c.cfg.TokenURL, Err: err}
	}
	if status < 200 || status > 299 {
		return "", &FetchError{Op: "token", URL: c.cfg.TokenURL, Status: status, Err: errors.New(http.StatusText(status))}
	}

	var payload struct {
		Response struct {
			Token string `json:"token"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &FetchError{Op: "token", URL: c.cfg.TokenURL, Status: status, Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if payload.Response.Token == "" {
		return "", &FetchError{Op: "token", URL: c.cfg.TokenURL, Status: status, Err: errors.New("no token in response")}
	}
	c.sessions.Store(c.cfg.TokenURL, payload.Response.Token)
	c.log.Info("remote session opened", zap.String("token_url", c.cfg.TokenURL))
	return payload.Response.Token, nil
}

// Fetch retrieves and normalizes the remote records. A 401 invalidates the
// session and is retried exactly once with a new token.
func (c *Client) Fetch(ctx context.Context) ([]ledger.Record, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	body, status, err := c.fetchOnce(ctx)
	if err == nil && status == http.StatusUnauthorized {
		c.log.Warn("remote token rejected, re-authenticating", zap.String("data_url", c.cfg.DataURL))
		c.sessions.Invalidate(c.cfg.TokenURL)
		body, status, err = c.fetchOnce(ctx)
		if err == nil && status == http.StatusUnauthorized {
			c.sessions.Invalidate(c.cfg.TokenURL)
			return nil, &FetchError{Op: "fetch", URL: c.cfg.DataURL, Status: status, Err: ErrAuthExpired}
		}
	}
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &FetchError{Op: "fetch", URL: c.cfg.DataURL, Status: status, Err: errors.New(http.StatusText(status))}
	}
	c.sessions.Touch(c.cfg.TokenURL)

	records, err := Normalize(body)
	if err != nil {
		return nil, &FetchError{Op: "fetch", URL: c.cfg.DataURL, Status: status, Err: err}
	}
	return records, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]byte, int, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.DataURL, nil)
	if err != nil {
		return nil, 0, &FetchError{Op: "fetch", URL: c.cfg.DataURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, 0, &FetchError{Op: "fetch", URL: c.cfg.DataURL, Err: err}
	}
	return body, status, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
