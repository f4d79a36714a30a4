package neo4j

import (
	"net/url"
	"time"

	"github.com/neo4jrest/neo4j.go/pkg/connection"
)

type callOptions struct {
	path     string
	timeout  connection.Timeout
	params   url.Values
	username string
	setAuth  bool
}

// CallOption adjusts a single Client call.
type CallOption func(*callOptions)

func newCallOptions(defaultPath string, opts []CallOption) callOptions {
	o := callOptions{path: defaultPath}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPath replaces the endpoint path, relative to /db/{database}/.
func WithPath(p string) CallOption {
	return func(o *callOptions) {
		o.path = p
	}
}

// WithTimeout bounds the call. A non-positive d means no timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = connection.TimeoutOf(d)
	}
}

// WithoutTimeout lets the call wait indefinitely even when the client has a
// default timeout.
func WithoutTimeout() CallOption {
	return func(o *callOptions) {
		o.timeout = connection.NoTimeout()
	}
}

// WithParams adds query string parameters.
func WithParams(params url.Values) CallOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = url.Values{}
		}
		for k, vs := range params {
			o.params[k] = append(o.params[k], vs...)
		}
	}
}

// WithUsername selects the user whose password UserPassword changes.
func WithUsername(u string) CallOption {
	return func(o *callOptions) {
		o.username = u
	}
}

// WithSetAuth makes UserPassword store the new credentials once the server
// accepted them.
func WithSetAuth() CallOption {
	return func(o *callOptions) {
		o.setAuth = true
	}
}
