// Package fakeneo provides a fake Neo4j HTTP server for testing purposes.
// It speaks enough of the Neo4j REST API to exercise the client: JSON bodies,
// basic authentication and the user password endpoint, plus stubbed
// responses matched by method and path.
//
// To flexibly inject failures, you can configure stub responses
// along with failure configurations that specify how it fails
// (e.g., delays, invalid bodies, dropped connections).
package fakeneo

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// cryptoRandFloat64 generates a cryptographically secure random float64 in [0.0, 1.0)
func cryptoRandFloat64() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(1<<53))
	return float64(n.Int64()) / float64(1<<53)
}

// cryptoRandInt64 generates a cryptographically secure random int64 in [0, max)
func cryptoRandInt64(rMax int64) int64 {
	if rMax <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(rMax))
	return n.Int64()
}

// FailureType represents the type of failure to inject during request processing
type FailureType string

const (
	// FailureNone indicates no failure injection
	FailureNone FailureType = "none"
	// FailureRequestDelay delays before responding. The delay ends early if the
	// client goes away, which is counted in Server.Abandoned.
	FailureRequestDelay FailureType = "request_delay"
	// FailureInvalidResponse sends a body that is not JSON with a 200 status
	FailureInvalidResponse FailureType = "invalid_response"
	// FailureDropConnection closes the underlying connection without a response
	FailureDropConnection FailureType = "drop_connection"
)

// FailureConfig defines how and when to inject a specific failure type
type FailureConfig struct {
	// Type specifies the type of failure to inject
	Type FailureType
	// Probability of triggering this failure (0.0 to 1.0)
	Probability float64
	// MinDelay is the minimum delay for FailureRequestDelay
	MinDelay time.Duration
	// MaxDelay is the maximum delay for FailureRequestDelay
	MaxDelay time.Duration
}

// Request is a request as seen by the server.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Header   http.Header
	Body     []byte
	Username string
	Password string
	HasAuth  bool
}

// JSON decodes the request body.
func (r *Request) JSON() (any, error) {
	if len(r.Body) == 0 {
		return nil, nil
	}
	var v any
	err := json.Unmarshal(r.Body, &v)
	return v, err
}

// RequestMatcher defines criteria for matching incoming requests.
type RequestMatcher struct {
	// Method is the HTTP method to match. Empty matches any method.
	Method string
	// Path is the full request path, e.g. /db/neo4j/tx/commit
	Path string
	// Matcher is an optional function for additional checks.
	Matcher func(r *Request) bool
}

func (m RequestMatcher) match(r *Request) bool {
	if m.Method != "" && !strings.EqualFold(m.Method, r.Method) {
		return false
	}
	if m.Path != "" && m.Path != r.Path {
		return false
	}
	if m.Matcher != nil && !m.Matcher(r) {
		return false
	}
	return true
}

// StubResponse defines a pre-configured response for matching requests.
type StubResponse struct {
	// Matcher determines which requests this stub should handle
	Matcher RequestMatcher
	// Status defaults to 200
	Status int
	// Body is JSON-encoded unless it is a string or []byte. nil sends no body.
	Body any
	// Failures defines failure injection configurations for this response
	Failures []FailureConfig
}

// Server is a fake Neo4j HTTP server with stub responses and failure injection
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	mu             sync.RWMutex
	stubResponses  []StubResponse
	globalFailures []FailureConfig
	users          map[string]string
	requests       []*Request

	stopOnce sync.Once
	stopErr  error

	inflight    atomic.Int64
	maxInflight atomic.Int64
	abandoned   atomic.Int64
}

// NewServer creates a new fake Neo4j server.
// Use "127.0.0.1:0" to bind to a random available port.
func NewServer(addr string) *Server {
	s := &Server{
		addr:  addr,
		users: make(map[string]string),
	}
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// AddStubResponse adds a stub response configuration to the server.
// Stub responses are matched in the order they were added.
func (s *Server) AddStubResponse(stub StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubResponses = append(s.stubResponses, stub)
}

// SetGlobalFailures sets failure configurations that apply to all requests.
// These are checked before stub-specific failures.
func (s *Server) SetGlobalFailures(failures []FailureConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalFailures = failures
}

// SetUser registers an account. Once any account exists, every request must
// carry valid basic auth.
func (s *Server) SetUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// Password returns the stored password of username.
func (s *Server) Password(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[username]
	return p, ok
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (s *Server) LastRequest() *Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// MaxConcurrent is the highest number of requests handled at the same time.
func (s *Server) MaxConcurrent() int64 {
	return s.maxInflight.Load()
}

// Abandoned counts delayed requests whose client disconnected before the
// response was written.
func (s *Server) Abandoned() int64 {
	return s.abandoned.Load()
}

// Start starts the server.
// Returns an error if the server cannot bind to the specified address.
func (s *Server) Start() error {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop closes the listener and all connections. It is safe to call twice.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.server.Close()
	})
	return s.stopErr
}

// Address returns the actual address the server is listening on.
// This is useful when using "127.0.0.1:0" to get the assigned port.
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// URL returns the http:// root of the server.
func (s *Server) URL() string {
	return "http://" + s.Address()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		cur := s.maxInflight.Load()
		if n <= cur || s.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	body, _ := io.ReadAll(r.Body)
	req := &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}
	req.Username, req.Password, req.HasAuth = r.BasicAuth()

	s.mu.Lock()
	s.requests = append(s.requests, req)
	globalFailures := s.globalFailures
	stub, found := s.findStub(req)
	authRequired := len(s.users) > 0
	authOK := !authRequired || (req.HasAuth && s.users[req.Username] == req.Password)
	s.mu.Unlock()

	for _, f := range globalFailures {
		if s.applyFailure(w, r, f) {
			return
		}
	}

	if !authOK {
		writeErrors(w, http.StatusUnauthorized, "Neo.ClientError.Security.Unauthorized", "Invalid username or password.")
		return
	}

	if !found {
		if s.handleBuiltin(w, req) {
			return
		}
		writeErrors(w, http.StatusNotFound, "Neo.ClientError.Request.Invalid", "no stub for "+req.Method+" "+req.Path)
		return
	}

	for _, f := range stub.Failures {
		if s.applyFailure(w, r, f) {
			return
		}
	}

	status := stub.Status
	if status == 0 {
		status = http.StatusOK
	}
	writeBody(w, status, stub.Body)
}

func (s *Server) findStub(req *Request) (StubResponse, bool) {
	for _, stub := range s.stubResponses {
		if stub.Matcher.match(req) {
			return stub, true
		}
	}
	return StubResponse{}, false
}

// handleBuiltin serves POST /db/{db}/user/{name}/password.
func (s *Server) handleBuiltin(w http.ResponseWriter, req *Request) bool {
	parts := strings.Split(strings.Trim(req.Path, "/"), "/")
	if req.Method != http.MethodPost || len(parts) != 5 || parts[0] != "db" || parts[2] != "user" || parts[4] != "password" {
		return false
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal(req.Body, &payload); err != nil || payload.Password == "" {
		writeErrors(w, http.StatusBadRequest, "Neo.ClientError.Request.InvalidFormat", "password is required")
		return true
	}

	s.SetUser(parts[3], payload.Password)
	w.WriteHeader(http.StatusOK)
	return true
}

// applyFailure reports whether the failure consumed the request.
func (s *Server) applyFailure(w http.ResponseWriter, r *http.Request, failure FailureConfig) bool {
	if !shouldTriggerFailure(failure.Probability) {
		return false
	}

	switch failure.Type {
	case FailureRequestDelay:
		select {
		case <-time.After(randomDuration(failure.MinDelay, failure.MaxDelay)):
			return false
		case <-r.Context().Done():
			s.abandoned.Add(1)
			return true
		}
	case FailureInvalidResponse:
		writeBody(w, http.StatusOK, []byte("<html>not json"))
		return true
	case FailureDropConnection:
		hj, ok := w.(http.Hijacker)
		if !ok {
			return false
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return true
	default:
		return false
	}
}

func writeBody(w http.ResponseWriter, status int, body any) {
	var data []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = json.Marshal(b)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if len(data) > 0 {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeErrors(w http.ResponseWriter, status int, code, message string) {
	writeBody(w, status, map[string]any{
		"errors": []any{map[string]any{"code": code, "message": message}},
	})
}

func shouldTriggerFailure(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return cryptoRandFloat64() < probability
}

func randomDuration(dMin, dMax time.Duration) time.Duration {
	if dMin >= dMax {
		return dMin
	}
	return dMin + time.Duration(cryptoRandInt64(int64(dMax-dMin)))
}

// Match creates a RequestMatcher on method and path
func Match(method, path string) RequestMatcher {
	return RequestMatcher{Method: method, Path: path}
}

// SimpleStubResponse creates a 200 stub for method and path without failure injection
func SimpleStubResponse(method, path string, body any) StubResponse {
	return StubResponse{
		Matcher: Match(method, path),
		Body:    body,
	}
}

// ErrorStubResponse creates a stub answering with status and a Neo4j errors list
func ErrorStubResponse(method, path string, status int, code, message string) StubResponse {
	return StubResponse{
		Matcher: Match(method, path),
		Status:  status,
		Body: map[string]any{
			"errors": []any{map[string]any{"code": code, "message": message}},
		},
	}
}
