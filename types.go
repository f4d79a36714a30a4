package neo4j

import (
	"github.com/neo4jrest/neo4j.go/pkg/marshal"
)

// TxResult is the body returned by the transaction endpoints.
type TxResult struct {
	Results     []Result          `json:"results"`
	Errors      []ServerError     `json:"errors"`
	Commit      string            `json:"commit,omitempty"`
	Transaction *TransactionState `json:"transaction,omitempty"`
}

type TransactionState struct {
	Expires string `json:"expires"`
}

// Result holds the rows of one statement.
type Result struct {
	Columns []string       `json:"columns"`
	Data    []Record       `json:"data"`
	Stats   map[string]any `json:"stats,omitempty"`
}

// Record is one row. Meta has an entry per column, nil for plain values.
type Record struct {
	Row  []any `json:"row"`
	Meta []any `json:"meta"`
}

// Get returns the value of column in r, using the columns of the enclosing
// Result.
func (r Record) Get(columns []string, column string) (any, bool) {
	for i, c := range columns {
		if c == column && i < len(r.Row) {
			return r.Row[i], true
		}
	}
	return nil, false
}

// Index describes a schema index.
type Index struct {
	Label        string   `json:"label"`
	PropertyKeys []string `json:"property_keys"`
}

// Constraint describes a schema constraint.
type Constraint struct {
	Label        string   `json:"label"`
	Type         string   `json:"type"`
	PropertyKeys []string `json:"property_keys"`
}

// DecodeTxResult converts the body returned by Cypher or TransactionCommit.
func DecodeTxResult(body any) (*TxResult, error) {
	var res TxResult
	if err := marshal.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DecodeIndexes converts the body returned by Indexes.
func DecodeIndexes(body any) ([]Index, error) {
	return marshal.SmartUnmarshal[[]Index](body, nil)
}

// DecodeConstraints converts the body returned by Constraints.
func DecodeConstraints(body any) ([]Constraint, error) {
	return marshal.SmartUnmarshal[[]Constraint](body, nil)
}
