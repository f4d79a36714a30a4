// The [neo4j] package is a thin client for the [Neo4j HTTP API].
//
// # Client and Transport
//
// A [Client] exposes the domain operations: [Client.Cypher],
// [Client.TransactionCommit], [Client.Indexes], [Client.Constraints],
// [Client.UserPassword] and [Client.Data]. Each of them builds a JSON body and
// delegates to a [github.com/neo4jrest/neo4j.go/pkg/connection.Transport],
// which composes /db/{database}/{path}, attaches basic auth, enforces the
// timeout and classifies failures.
//
// Create a client with [FromURL] and close it when done, or let [With] do
// both:
//
//	err := neo4j.With(ctx, cfg, func(ctx context.Context, c *neo4j.Client) error {
//		_, err := c.Cypher(ctx, neo4j.Shorthand("RETURN 1", nil))
//		return err
//	})
//
// # Errors
//
// Calls fail with one of [SerializationError], [TimeoutError],
// [TransportError] or [ClientError]. A 2xx response whose body carries a
// non-empty "errors" list is a [ClientError] too. Nothing is retried.
//
// # Timeouts
//
// A timeout is unset (use the client default), none (wait indefinitely) or a
// duration. See [github.com/neo4jrest/neo4j.go/pkg/connection.Timeout].
//
// [Neo4j HTTP API]: https://neo4j.com/docs/http-api/current/
package neo4j
