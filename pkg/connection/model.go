package connection

import (
	"net/http"
	"net/url"
)

// Request is one logical call against the database-scoped REST root.
type Request struct {
	Method string
	// Path is relative to /db/{database}/.
	Path   string
	Params url.Values
	// Body is JSON-encoded unless it is already a string, []byte or json.RawMessage.
	Body    any
	Timeout Timeout
}

// Response holds the decoded body of a successful exchange. Body is nil when
// the server sent no content.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
}
