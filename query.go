package threads

import "fmt"

// Operator is a comparison operator used in a filter condition.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

// Connector joins a condition with its siblings.
type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

// SortDirection is the sort order for a query.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Where is a single filter condition. A zero Operator means OpEq and a zero
// Connector means ConnectorAnd; CleanConditions fills both in so concrete
// adapters always see fully-specified conditions.
type Where struct {
	Field     string    `json:"field"`
	Value     any       `json:"value"`
	Operator  Operator  `json:"operator,omitempty"`
	Connector Connector `json:"connector,omitempty"`
}

// Validate checks the operator/value shape: OpIn requires a slice value,
// every other operator requires a scalar.
func (w Where) Validate() error {
	isSlice := false
	switch w.Value.(type) {
	case []any, []string, []int, []int64, []float64, []bool:
		isSlice = true
	}

	op := w.Operator
	if op == "" {
		op = OpEq
	}

	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains, OpStartsWith, OpEndsWith:
		if isSlice {
			return NewValidationError(fmt.Sprintf("operator %q requires a scalar value for field %q", op, w.Field), ErrInvalidArgument)
		}
	case OpIn:
		if !isSlice {
			return NewValidationError(fmt.Sprintf("operator %q requires an array value for field %q", op, w.Field), ErrInvalidArgument)
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown operator %q for field %q", op, w.Field), ErrInvalidArgument)
	}

	return nil
}

// CleanConditions returns a copy of conditions with defaults applied and
// every condition validated.
func CleanConditions(conditions []Where) ([]Where, error) {
	if len(conditions) == 0 {
		return nil, nil
	}

	cleaned := make([]Where, len(conditions))
	for i, w := range conditions {
		if w.Operator == "" {
			w.Operator = OpEq
		}
		if w.Connector == "" {
			w.Connector = ConnectorAnd
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		cleaned[i] = w
	}

	return cleaned, nil
}

// SortSpec orders query results by a single field. Multi-key sorting is not
// supported; at most one SortSpec is active per query.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// FindParams bundles the optional knobs of a FindMany call.
type FindParams struct {
	Where  []Where
	Limit  int // defaults to DefaultFindLimit when <= 0
	Offset int
	SortBy *SortSpec
}

// DefaultFindLimit caps FindMany result sets when no limit is given.
const DefaultFindLimit = 100
