package connection

import (
	"fmt"
	"strings"
	"time"
)

// SerializationError reports a request body that could not be encoded or a
// response body that could not be decoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the request deadline elapsed before the exchange
// completed. Timeout is zero when the deadline came from the caller's context.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request timed out after %s", e.Timeout)
	}
	return "request timed out"
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure of the underlying HTTP client.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClientError reports a non-2xx response, or a 2xx response carrying a
// non-empty "errors" list. Info is the decoded diagnostic payload, or the raw
// body text when it is not JSON.
type ClientError struct {
	StatusCode int
	Info       any
}

// ServerError is one entry of the "errors" list returned by Neo4j.
type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ClientError) Error() string {
	var detail string
	if errs := e.ServerErrors(); len(errs) > 0 {
		parts := make([]string, 0, len(errs))
		for _, se := range errs {
			parts = append(parts, se.Code+": "+se.Message)
		}
		detail = strings.Join(parts, "; ")
	} else {
		detail = fmt.Sprint(e.Info)
	}
	return fmt.Sprintf("neo4j error (status %d): %s", e.StatusCode, detail)
}

// ServerErrors extracts code/message pairs from Info. It returns nil when Info
// does not have the shape of a Neo4j errors list or errors object.
func (e *ClientError) ServerErrors() []ServerError {
	var items []any
	switch v := e.Info.(type) {
	case []any:
		items = v
	case map[string]any:
		if nested, ok := v["errors"].([]any); ok {
			items = nested
		} else {
			items = []any{v}
		}
	default:
		return nil
	}

	var out []ServerError
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code, _ := m["code"].(string)
		msg, _ := m["message"].(string)
		if code == "" && msg == "" {
			continue
		}
		out = append(out, ServerError{Code: code, Message: msg})
	}
	return out
}
