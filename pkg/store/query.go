package store

import (
	"context"
	"errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Query is a compiled filter expression evaluated against a record's field
// map. Field names are variables; undefined ones resolve to nil, so a
// filter never fails on a sparse record.
//
// Example:
//
//	q, err := store.NewQuery(`status == "active" && visits > 10`)
type Query struct {
	program *vm.Program
	src     string
}

// NewQuery compiles an expr-lang expression into a reusable query. The
// expression must evaluate to a boolean.
func NewQuery(src string) (*Query, error) {
	program, err := expr.Compile(src,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidQuery, err)
	}
	return &Query{program: program, src: src}, nil
}

// String returns the source expression.
func (q *Query) String() string { return q.src }

// Match evaluates the query against a record. The record's fields plus the
// reserved _key and _version variables form the environment.
func (q *Query) Match(rec *Record) (bool, error) {
	env := make(map[string]any, len(rec.Data)+2)
	for k, v := range rec.Data {
		env[k] = v
	}
	env["_key"] = rec.Key
	env["_version"] = rec.Version

	out, err := expr.Run(q.program, env)
	if err != nil {
		return false, errors.Join(ErrInvalidQuery, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, ErrInvalidQuery
	}
	return b, nil
}

// Find lists a collection and keeps the records the query matches,
// preserving backend order. A nil query matches everything.
func Find(ctx context.Context, s Store, collection string, q *Query) ([]*Record, error) {
	recs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return recs, nil
	}

	out := recs[:0]
	for _, rec := range recs {
		ok, err := q.Match(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
