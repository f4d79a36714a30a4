package neo4j

import (
	"fmt"

	"github.com/neo4jrest/neo4j.go/pkg/constants"
)

// Query is the body of a Cypher call. It is either a shorthand query string
// with optional named parameters, or a raw request mapping sent as is.
type Query struct {
	text   string
	params map[string]any
	raw    map[string]any
}

// Shorthand builds a query sent as {"query": text, "params": params}.
// params is omitted from the body when empty.
func Shorthand(text string, params map[string]any) Query {
	return Query{text: text, params: params}
}

// Raw builds a query whose body is exactly body.
func Raw(body map[string]any) Query {
	if body == nil {
		body = map[string]any{}
	}
	return Query{raw: body}
}

// NewQuery builds a Query from dynamic input. q may be a string, a mapping or
// a Query. Params cannot be combined with a mapping.
func NewQuery(q any, params map[string]any) (Query, error) {
	switch v := q.(type) {
	case string:
		return Shorthand(v, params), nil
	case map[string]any:
		if len(params) > 0 {
			return Query{}, constants.ErrQueryWithParams
		}
		return Raw(v), nil
	case Query:
		if len(params) > 0 && v.IsRaw() {
			return Query{}, constants.ErrQueryWithParams
		}
		if len(params) > 0 {
			return Shorthand(v.text, mergeParams(v.params, params)), nil
		}
		return v, nil
	default:
		return Query{}, fmt.Errorf("%w: unsupported query type %T", constants.ErrNoQuery, q)
	}
}

func (q Query) IsRaw() bool {
	return q.raw != nil
}

// Body returns the request body for q.
func (q Query) Body() (map[string]any, error) {
	if q.raw != nil {
		return q.raw, nil
	}
	if q.text == "" {
		return nil, constants.ErrNoQuery
	}
	body := map[string]any{"query": q.text}
	if len(q.params) > 0 {
		body["params"] = q.params
	}
	return body, nil
}

func mergeParams(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Statement is one entry of a transaction commit.
type Statement struct {
	Statement          string         `json:"statement"`
	Parameters         map[string]any `json:"parameters,omitempty"`
	ResultDataContents []string       `json:"resultDataContents,omitempty"`
	IncludeStats       bool           `json:"includeStats,omitempty"`
}

func (s Statement) toMap() map[string]any {
	m := map[string]any{"statement": s.Statement}
	if len(s.Parameters) > 0 {
		m["parameters"] = s.Parameters
	}
	if len(s.ResultDataContents) > 0 {
		m["resultDataContents"] = s.ResultDataContents
	}
	if s.IncludeStats {
		m["includeStats"] = true
	}
	return m
}

// commitBody assembles {"statements": [...]}. A single mapping that already
// has a "statements" key is returned unchanged.
func commitBody(statements []any) (map[string]any, error) {
	if len(statements) == 1 {
		if m, ok := statements[0].(map[string]any); ok {
			if _, ok := m["statements"]; ok {
				return m, nil
			}
		}
	}

	list := make([]any, 0, len(statements))
	for i, st := range statements {
		switch v := st.(type) {
		case string:
			list = append(list, map[string]any{"statement": v})
		case map[string]any:
			if _, ok := v["statement"]; !ok {
				return nil, fmt.Errorf("statement %d: %w", i, constants.ErrMissingStatement)
			}
			list = append(list, v)
		case Statement:
			list = append(list, v.toMap())
		case *Statement:
			if v == nil {
				return nil, fmt.Errorf("statement %d: %w", i, constants.ErrInvalidStatement)
			}
			list = append(list, v.toMap())
		default:
			return nil, fmt.Errorf("statement %d: %w: got %T", i, constants.ErrInvalidStatement, st)
		}
	}
	return map[string]any{"statements": list}, nil
}
