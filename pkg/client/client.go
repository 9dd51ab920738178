package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is returned for any other non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tuniguard API error %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// Client is the TuniGuard SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *responseCache

	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a session token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithCacheTTL caches catalog reads (ListThreats, GetThreat) for ttl.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
		c.cache = newResponseCache(ttl)
		return nil
	}
}

// New creates a Client for the API at baseURL.
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithBearerToken(token),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Token returns the session token in use, if any.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// ── Auth ─────────────────────────────────────────────────────────────────

// Login exchanges credentials for a session token, which the client then
// uses for every subsequent request.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	if s.Token != "" {
		c.mu.Lock()
		c.bearerToken = s.Token
		c.mu.Unlock()
	}
	return &s, nil
}

// Register creates an account. The returned session carries a token when
// the server has authentication enabled.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodPost, "/api/v1/auth/register", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetProfile fetches GET /api/v1/users/:id.
func (c *Client) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	if err := c.call(ctx, http.MethodGet, "/api/v1/users/"+strconv.FormatInt(userID, 10), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ── Scans ────────────────────────────────────────────────────────────────

// Scan submits one message for classification.
func (c *Client) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	var r ScanResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/scan", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ScanBatch classifies several messages without storing them.
func (c *Client) ScanBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	var r BatchResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/scan/batch", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetScan fetches a stored scan.
func (c *Client) GetScan(ctx context.Context, scanID int64) (*ScanDetail, error) {
	var d ScanDetail
	if err := c.call(ctx, http.MethodGet, "/api/v1/scan/"+strconv.FormatInt(scanID, 10), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetScanAction records what the user did with a scanned message: deleted,
// reported or ignored.
func (c *Client) SetScanAction(ctx context.Context, scanID int64, action string) error {
	path := "/api/v1/scan/" + strconv.FormatInt(scanID, 10) + "/action"
	return c.call(ctx, http.MethodPost, path, map[string]string{"action": action}, nil)
}

// ── Threats & intel ──────────────────────────────────────────────────────

// ListThreats returns catalog entries. Empty filters match everything.
func (c *Client) ListThreats(ctx context.Context, category, severity string) ([]Threat, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if severity != "" {
		q.Set("severity", severity)
	}
	var wrapper struct {
		Threats []Threat `json:"threats"`
	}
	if err := c.cachedGet(ctx, withQuery("/api/v1/threats", q), &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Threats, nil
}

// GetThreat fetches one catalog entry with its recent detections.
func (c *Client) GetThreat(ctx context.Context, threatID int64) (*ThreatDetail, error) {
	var d ThreatDetail
	if err := c.cachedGet(ctx, "/api/v1/threats/"+strconv.FormatInt(threatID, 10), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Trending returns the most scanned threat types over the last days,
// optionally narrowed to a region. days <= 0 uses the server default.
func (c *Client) Trending(ctx context.Context, days int, region string) (*Trending, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if region != "" {
		q.Set("region", region)
	}
	var t Trending
	if err := c.call(ctx, http.MethodGet, withQuery("/api/v1/threats/trending", q), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListIntel returns aggregated intel records matching f.
func (c *Client) ListIntel(ctx context.Context, f IntelFilter) ([]IntelRecord, error) {
	q := url.Values{}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if !f.Day.IsZero() {
		q.Set("day", f.Day.Format(time.DateOnly))
	}
	if f.Escalation != "" {
		q.Set("escalation", f.Escalation)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var wrapper struct {
		Intel []IntelRecord `json:"intel"`
	}
	if err := c.call(ctx, http.MethodGet, withQuery("/api/v1/intel", q), nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Intel, nil
}

// ── Analytics ────────────────────────────────────────────────────────────

// UserStats returns a user's scan statistics over the last days.
func (c *Client) UserStats(ctx context.Context, userID int64, days int) (*UserStats, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var s UserStats
	path := withQuery("/api/v1/analytics/user/"+strconv.FormatInt(userID, 10), q)
	if err := c.call(ctx, http.MethodGet, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NationalStats returns country-wide statistics over the last days.
func (c *Client) NationalStats(ctx context.Context, days int) (*NationalStats, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var s NationalStats
	if err := c.call(ctx, http.MethodGet, withQuery("/api/v1/analytics/national", q), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ── Transport ────────────────────────────────────────────────────────────

func (c *Client) cachedGet(ctx context.Context, path string, out any) error {
	if c.cache != nil {
		if body, ok := c.cache.get(path); ok {
			return json.Unmarshal(body, out)
		}
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.set(path, body)
	}
	return json.Unmarshal(body, out)
}

// call sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var bodyReader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// --- simple in-memory response cache ---

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

type responseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{entries: make(map[string]*cacheEntry), ttl: ttl}
}

func (rc *responseCache) get(key string) ([]byte, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	e, ok := rc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.body, true
}

func (rc *responseCache) set(key string, body []byte) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = &cacheEntry{body: body, expiresAt: time.Now().Add(rc.ttl)}
}
