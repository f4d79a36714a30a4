package neo4j

import "github.com/neo4jrest/neo4j.go/pkg/connection"

// Error kinds returned by Client calls. Match them with errors.As.
type (
	SerializationError = connection.SerializationError
	TimeoutError       = connection.TimeoutError
	TransportError     = connection.TransportError
	ClientError        = connection.ClientError
	ServerError        = connection.ServerError
)
