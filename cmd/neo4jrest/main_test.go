package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/neo4jrest/neo4j.go/internal/fakeneo"
)

func startServer(t *testing.T) *fakeneo.Server {
	t.Helper()
	s := fakeneo.NewServer("127.0.0.1:0")
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	s.AddStubResponse(fakeneo.StubResponse{
		Matcher: fakeneo.RequestMatcher{
			Method: http.MethodPost,
			Path:   "/db/neo4j/tx/commit",
			Matcher: func(r *fakeneo.Request) bool {
				return bytes.Contains(r.Body, []byte("broken"))
			},
		},
		Body: map[string]any{"errors": []any{map[string]any{"code": "Neo.ClientError.Statement.SyntaxError", "message": "Invalid input"}}},
	})
	s.AddStubResponse(fakeneo.SimpleStubResponse(http.MethodPost, "/db/neo4j/tx/commit", map[string]any{
		"results": []any{map[string]any{"columns": []any{"x"}, "data": []any{map[string]any{"row": []any{1}}}}},
		"errors":  []any{},
	}))
	s.AddStubResponse(fakeneo.SimpleStubResponse(http.MethodGet, "/db/movies/schema/index", []any{
		map[string]any{"label": "Movie", "property_keys": []any{"title"}},
	}))
	return s
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCypherCommand(t *testing.T) {
	s := startServer(t)

	out, err := execute(t, "--url", s.URL(), "cypher", "RETURN $x AS x", "-p", "x=1", "-p", "name=Keanu")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res, "results")

	body, err := s.LastRequest().JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"query":  "RETURN $x AS x",
		"params": map[string]any{"x": float64(1), "name": "Keanu"},
	}, body)
}

func TestCypherCommandRunsQueriesConcurrently(t *testing.T) {
	s := startServer(t)

	out, err := execute(t, "--url", s.URL(), "cypher", "RETURN 1", "RETURN 2", "RETURN 3")
	require.NoError(t, err)

	var res []any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res, 3)

	var queries []string
	for _, r := range s.Requests() {
		body, err := r.JSON()
		require.NoError(t, err)
		queries = append(queries, body.(map[string]any)["query"].(string))
	}
	sort.Strings(queries)
	assert.Equal(t, []string{"RETURN 1", "RETURN 2", "RETURN 3"}, queries)
}

func TestCypherCommandReportsServerErrors(t *testing.T) {
	s := startServer(t)

	_, err := execute(t, "--url", s.URL(), "cypher", "RETURN 1", "broken query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query 2")
	assert.Contains(t, err.Error(), "Neo.ClientError.Statement.SyntaxError")
}

func TestCommitCommand(t *testing.T) {
	s := startServer(t)

	_, err := execute(t, "--url", s.URL(), "commit", "CREATE (n)", "MATCH (n) RETURN n")
	require.NoError(t, err)

	body, err := s.LastRequest().JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"statements": []any{
		map[string]any{"statement": "CREATE (n)"},
		map[string]any{"statement": "MATCH (n) RETURN n"},
	}}, body)
}

func TestIndexesCommandYAML(t *testing.T) {
	s := startServer(t)

	out, err := execute(t, "--url", s.URL(), "--database", "movies", "-o", "yaml", "indexes")
	require.NoError(t, err)

	var res []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	require.Len(t, res, 1)
	assert.Equal(t, "Movie", res[0]["label"])
}

func TestPasswordCommand(t *testing.T) {
	s := startServer(t)
	s.SetUser("alice", "old")

	u := "http://alice:old@" + s.Address()
	out, err := execute(t, "--url", u, "password", "new", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "password changed")

	pw, ok := s.Password("alice")
	require.True(t, ok)
	assert.Equal(t, "new", pw)
}

func TestDataCommandNotFound(t *testing.T) {
	s := startServer(t)

	_, err := execute(t, "--url", s.URL(), "data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "--output", "xml", "data")
	require.ErrorContains(t, err, "unsupported output format")

	_, err = execute(t, "--url", "bolt://localhost:7687", "data")
	require.ErrorContains(t, err, "url must be an http or https URL")

	_, err = execute(t, "--timeout", "soon", "data")
	require.ErrorContains(t, err, "timeout must be a duration")
}

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"n=1", "s=text", "l=[1,2]", "q=\"quoted\"", "e="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1), "s": "text", "l": []any{float64(1), float64(2)}, "q": "quoted", "e": ""}, p)

	_, err = parseParams([]string{"novalue"})
	require.Error(t, err)

	p, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}
