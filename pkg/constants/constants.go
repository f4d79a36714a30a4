package constants

import "time"

const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 7474
	DefaultDatabase = "neo4j"
	DefaultUsername = "neo4j"

	// DefaultMaxConns bounds the number of concurrent connections per host.
	DefaultMaxConns = 20

	// DefaultRequestTimeout is used when neither the request nor the transport
	// sets a timeout. Zero means the request may wait indefinitely.
	DefaultRequestTimeout time.Duration = 0

	// DNSCacheRefreshInterval is how often cached DNS entries are re-resolved.
	DNSCacheRefreshInterval = 5 * time.Minute
)

// Endpoint paths, relative to /db/{database}/.
const (
	PathCypher       = "tx/commit"
	PathTxCommit     = "tx/commit"
	PathIndexes      = "schema/index"
	PathConstraints  = "schema/constraint"
	PathUserPassword = "user/{username}/password"
	PathData         = ""
)

const (
	ContentType     = "application/json"
	Accept          = "application/json; charset=UTF-8"
	RequestIDHeader = "X-Request-Id"
)

var (
	HTTPScheme       = "http"
	HTTPSecureScheme = "https"
)
