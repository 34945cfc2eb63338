package sql

import (
	"fmt"
	"strings"

	threads "github.com/pressw-llc/threads-go"
)

var operatorSQL = map[threads.Operator]string{
	threads.OpEq:  "=",
	threads.OpNe:  "<>",
	threads.OpGt:  ">",
	threads.OpGte: ">=",
	threads.OpLt:  "<",
	threads.OpLte: "<=",
}

// buildWhere renders cleaned, field-mapped conditions into a single SQL
// predicate. Conditions are partitioned by connector: all AND-connected
// conditions are conjoined, all OR-connected conditions are disjoined, and
// both groups combine as (AND-group) AND (OR-group). This is deliberately
// not a general boolean-expression tree.
//
// startIdx is the 1-based index of the first bind parameter.
func buildWhere(d *dialect, where []threads.Where, startIdx int) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	var (
		andParts []string
		orParts  []string
		args     []any
	)
	idx := startIdx

	for _, w := range where {
		predicate, predArgs, used, err := buildPredicate(d, w, idx)
		if err != nil {
			return "", nil, err
		}
		idx += used
		args = append(args, predArgs...)

		if w.Connector == threads.ConnectorOr {
			orParts = append(orParts, predicate)
		} else {
			andParts = append(andParts, predicate)
		}
	}

	var groups []string
	if len(andParts) > 0 {
		groups = append(groups, strings.Join(andParts, " AND "))
	}
	if len(orParts) > 0 {
		groups = append(groups, "("+strings.Join(orParts, " OR ")+")")
	}

	return strings.Join(groups, " AND "), args, nil
}

func buildPredicate(d *dialect, w threads.Where, idx int) (string, []any, int, error) {
	if op, ok := operatorSQL[w.Operator]; ok {
		return fmt.Sprintf("%s %s %s", w.Field, op, d.placeholder(idx)), []any{w.Value}, 1, nil
	}

	switch w.Operator {
	case threads.OpIn:
		values := anySlice(w.Value)
		if len(values) == 0 {
			// IN over an empty set matches nothing.
			return "1 = 0", nil, 0, nil
		}
		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = d.placeholder(idx + i)
		}
		return fmt.Sprintf("%s IN (%s)", w.Field, strings.Join(placeholders, ", ")), values, len(values), nil

	case threads.OpContains:
		return fmt.Sprintf("%s LIKE %s", w.Field, d.placeholder(idx)), []any{"%" + likeString(w.Value) + "%"}, 1, nil

	case threads.OpStartsWith:
		return fmt.Sprintf("%s LIKE %s", w.Field, d.placeholder(idx)), []any{likeString(w.Value) + "%"}, 1, nil

	case threads.OpEndsWith:
		return fmt.Sprintf("%s LIKE %s", w.Field, d.placeholder(idx)), []any{"%" + likeString(w.Value)}, 1, nil

	default:
		return "", nil, 0, threads.NewValidationError(fmt.Sprintf("operator %q not supported by the sql adapter", w.Operator), threads.ErrInvalidArgument)
	}
}

func likeString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func anySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []int64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []bool:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return nil
	}
}
