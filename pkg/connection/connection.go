package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/dnscache"

	"github.com/neo4jrest/neo4j.go/internal/codec"
	"github.com/neo4jrest/neo4j.go/pkg/constants"
	"github.com/neo4jrest/neo4j.go/pkg/logger"
)

// Transport performs request/response exchanges against the REST root of one
// database. It is safe for concurrent use.
type Transport struct {
	baseURL     url.URL
	database    string
	timeout     Timeout
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger

	maxConns    int
	useDNSCache bool

	mu         sync.Mutex
	httpClient *http.Client
	ownsClient bool
	refresher  *dnsRefresher
	closed     atomic.Bool

	// auth is swapped atomically; requests read it once when they are built.
	auth atomic.Pointer[Credentials]
}

// New creates a Transport from cfg. The HTTP client is created lazily on the
// first request unless cfg.HTTPClient is set.
func New(cfg *Config) (*Transport, error) {
	if cfg == nil {
		return nil, constants.ErrNoBaseURL
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	base := cfg.URL
	userinfo := base.User
	base.User = nil
	base.Fragment = ""

	t := &Transport{
		baseURL:     base,
		database:    cfg.Database,
		timeout:     cfg.Timeout,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
		logger:      cfg.Logger,
		maxConns:    cfg.MaxConns,
		useDNSCache: cfg.UseDNSCache,
		httpClient:  cfg.HTTPClient,
	}
	if t.database == "" {
		t.database = constants.DefaultDatabase
	}
	if t.maxConns <= 0 {
		t.maxConns = constants.DefaultMaxConns
	}
	if t.logger == nil {
		t.logger = logger.Nop()
	}

	auth := cfg.Auth
	if auth == nil && userinfo != nil {
		auth = userinfo
	}
	if err := t.SetAuth(auth); err != nil {
		return nil, err
	}

	return t, nil
}

// Auth returns a copy of the current credentials, or nil.
func (t *Transport) Auth() *Credentials {
	c := t.auth.Load()
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// SetAuth replaces the credentials used by subsequent requests. See ParseAuth
// for the accepted forms; nil clears them. Requests already in flight keep
// the credentials they were built with.
func (t *Transport) SetAuth(v any) error {
	c, err := ParseAuth(v)
	if err != nil {
		return err
	}
	t.auth.Store(c)
	return nil
}

func (t *Transport) Database() string {
	return t.database
}

func (t *Transport) Timeout() Timeout {
	return t.timeout
}

// BaseURL returns the server root without credentials.
func (t *Transport) BaseURL() *url.URL {
	u := t.baseURL
	return &u
}

// URL composes baseURL/db/{database}/path with params as the query string.
func (t *Transport) URL(path string, params url.Values) *url.URL {
	u := t.baseURL.JoinPath("db", t.database, path)
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u
}

// HTTPClient returns the client used for requests, creating the pooled
// default on first use.
func (t *Transport) HTTPClient() (*http.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return nil, constants.ErrClosed
	}
	if t.httpClient != nil {
		return t.httpClient, nil
	}

	var resolver *dnscache.Resolver
	if t.useDNSCache {
		resolver = &dnscache.Resolver{}
		t.refresher = startDNSRefresher(resolver, constants.DNSCacheRefreshInterval)
	}
	t.httpClient = newPooledClient(t.maxConns, resolver)
	t.ownsClient = true
	return t.httpClient, nil
}

// Close releases pooled connections. It is safe to call more than once; later
// requests fail with a TransportError wrapping constants.ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Swap(true) {
		return nil
	}
	if t.refresher != nil {
		t.refresher.Stop()
		t.refresher = nil
	}
	if t.httpClient != nil {
		t.httpClient.CloseIdleConnections()
	}
	return nil
}

// PerformRequest runs one exchange. It never retries; the first failure is
// returned as one of SerializationError, TimeoutError, TransportError or
// ClientError.
func (t *Transport) PerformRequest(ctx context.Context, req Request) (*Response, error) {
	body, err := t.encode(req.Body)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := t.URL(req.Path, req.Params)

	timeout := req.Timeout.Or(t.timeout).Or(TimeoutOf(constants.DefaultRequestTimeout))
	if d, ok := timeout.Duration(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	requestID := uuid.NewString()
	log := []any{"method", method, "url", target.String(), "request_id", requestID}
	if c := t.auth.Load(); c != nil {
		log = append(log, "user", c.Username)
	}
	t.logger.Debug("performing request", log...)

	status, header, raw, err := t.roundTrip(ctx, method, target, body, requestID)
	if err != nil {
		err = classify(ctx, err, timeout)
		t.logger.Error("request failed", append(log, "error", err)...)
		return nil, err
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		err := &ClientError{StatusCode: status, Info: t.diagnostic(raw)}
		t.logger.Error("request rejected", append(log, "status", status, "error", err)...)
		return nil, err
	}

	decoded, err := t.decode(raw)
	if err != nil {
		return nil, err
	}

	if m, ok := decoded.(map[string]any); ok {
		if errs, ok := m["errors"]; ok && !isEmpty(errs) {
			err := &ClientError{StatusCode: status, Info: errs}
			t.logger.Error("query failed", append(log, "status", status, "error", err)...)
			return nil, err
		}
	}

	t.logger.Debug("request done", append(log, "status", status)...)
	return &Response{StatusCode: status, Header: header, Body: decoded}, nil
}

func (t *Transport) roundTrip(ctx context.Context, method string, target *url.URL, body []byte, requestID string) (int, http.Header, []byte, error) {
	client, err := t.HTTPClient()
	if err != nil {
		return 0, nil, nil, err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return 0, nil, nil, err
	}
	httpReq.Header.Set("Content-Type", constants.ContentType)
	httpReq.Header.Set("Accept", constants.Accept)
	httpReq.Header.Set(constants.RequestIDHeader, requestID)
	if c := t.auth.Load(); c != nil {
		httpReq.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, raw, nil
}

func (t *Transport) encode(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	}
	data, err := t.marshaler.Marshal(body)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

func (t *Transport) decode(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := t.unmarshaler.Unmarshal(raw, &v); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return v, nil
}

// diagnostic prefers the decoded error body and falls back to its raw text.
func (t *Transport) diagnostic(raw []byte) any {
	if len(bytes.TrimSpace(raw)) > 0 {
		var v any
		if err := t.unmarshaler.Unmarshal(raw, &v); err == nil && !isEmpty(v) {
			return v
		}
	}
	return string(raw)
}

func classify(ctx context.Context, err error, timeout Timeout) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		d, _ := timeout.Duration()
		return &TimeoutError{Timeout: d, Err: err}
	}
	return &TransportError{Err: err}
}

// isEmpty mirrors JSON falsiness: null, false, 0, "", [] and {}.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case json.Number:
		return x == "" || x == "0"
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
