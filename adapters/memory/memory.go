// Package memory provides an in-memory Adapter. It supports every canonical
// model and operator and is the default backend for tests and examples.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	threads "github.com/pressw-llc/threads-go"
)

// Adapter is a mutex-guarded in-memory implementation of threads.Adapter.
type Adapter struct {
	mu          sync.RWMutex
	records     map[string]map[string]threads.Record
	transformer *threads.Transformer
}

// Option configures the adapter.
type Option func(*options)

type options struct {
	generateID threads.IDGenerator
}

// WithIDGenerator overrides the default UUID id generator.
func WithIDGenerator(gen threads.IDGenerator) Option {
	return func(o *options) {
		o.generateID = gen
	}
}

// New creates an empty in-memory adapter.
func New(opts ...Option) *Adapter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Adapter{
		records:     make(map[string]map[string]threads.Record),
		transformer: threads.NewTransformer(capabilities(), nil, o.generateID),
	}
}

func capabilities() threads.Capabilities {
	return threads.Capabilities{
		SupportsJSON:      true,
		SupportsDates:     true,
		SupportsBooleans:  true,
		SupportsReturning: true,
	}
}

// Capabilities reports full native fidelity.
func (a *Adapter) Capabilities() threads.Capabilities {
	return capabilities()
}

// Schema returns the canonical schema of a model.
func (a *Adapter) Schema(model string) (*threads.ModelSchema, error) {
	return threads.SchemaFor(model)
}

// Create stores a new record.
func (a *Adapter) Create(ctx context.Context, model string, data threads.Record) (threads.Record, error) {
	if _, err := threads.SchemaFor(model); err != nil {
		return nil, err
	}

	rec, err := a.transformer.TransformCreate(model, data)
	if err != nil {
		return nil, err
	}

	id, _ := rec["id"].(string)
	if id == "" {
		return nil, threads.NewValidationError("id is required when id generation is disabled", threads.ErrInvalidArgument)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.records[model] == nil {
		a.records[model] = make(map[string]threads.Record)
	}
	a.records[model][id] = clone(rec)

	return clone(rec), nil
}

// FindOne returns the first matching record, or nil.
func (a *Adapter) FindOne(ctx context.Context, model string, where []threads.Where) (threads.Record, error) {
	matches, err := a.FindMany(ctx, model, threads.FindParams{Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// FindMany returns all matching records, sorted and paginated.
func (a *Adapter) FindMany(ctx context.Context, model string, params threads.FindParams) ([]threads.Record, error) {
	if _, err := threads.SchemaFor(model); err != nil {
		return nil, err
	}

	cleaned, err := threads.CleanConditions(params.Where)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	var matched []threads.Record
	for _, rec := range a.records[model] {
		if matches(rec, cleaned) {
			matched = append(matched, clone(rec))
		}
	}
	a.mu.RUnlock()

	if params.SortBy != nil && params.SortBy.Field != "" {
		field := params.SortBy.Field
		desc := params.SortBy.Direction == threads.SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i][field], matched[j][field])
			if c < -1 || c > 1 {
				return false
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	limit := params.Limit
	if limit <= 0 {
		limit = threads.DefaultFindLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Update merges data over the first matching record and returns it, or nil
// when nothing matched.
func (a *Adapter) Update(ctx context.Context, model string, where []threads.Where, data threads.Record) (threads.Record, error) {
	if _, err := threads.SchemaFor(model); err != nil {
		return nil, err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return nil, err
	}

	patch, err := a.transformer.TransformUpdate(model, data)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, rec := range a.records[model] {
		if !matches(rec, cleaned) {
			continue
		}
		updated := clone(rec)
		for field, value := range patch {
			updated[field] = value
		}
		a.records[model][id] = updated
		return clone(updated), nil
	}

	return nil, nil
}

// Delete removes all matching records. Matching nothing is not an error.
func (a *Adapter) Delete(ctx context.Context, model string, where []threads.Where) error {
	if _, err := threads.SchemaFor(model); err != nil {
		return err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, rec := range a.records[model] {
		if matches(rec, cleaned) {
			delete(a.records[model], id)
		}
	}

	return nil
}

// Count returns the number of matching records.
func (a *Adapter) Count(ctx context.Context, model string, where []threads.Where) (int64, error) {
	if _, err := threads.SchemaFor(model); err != nil {
		return 0, err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	var n int64
	for _, rec := range a.records[model] {
		if matches(rec, cleaned) {
			n++
		}
	}

	return n, nil
}

// matches evaluates cleaned conditions against a record: every AND-connected
// condition must hold, and at least one OR-connected condition when any are
// present.
func matches(rec threads.Record, where []threads.Where) bool {
	if len(where) == 0 {
		return true
	}

	orSeen := false
	orMatched := false
	for _, w := range where {
		ok := evaluate(rec[w.Field], w)
		if w.Connector == threads.ConnectorOr {
			orSeen = true
			orMatched = orMatched || ok
			continue
		}
		if !ok {
			return false
		}
	}

	return !orSeen || orMatched
}

func evaluate(value any, w threads.Where) bool {
	switch w.Operator {
	case threads.OpEq:
		return compare(value, w.Value) == 0
	case threads.OpNe:
		return compare(value, w.Value) != 0
	case threads.OpGt:
		return ordered(value, w.Value) && compare(value, w.Value) > 0
	case threads.OpGte:
		return ordered(value, w.Value) && compare(value, w.Value) >= 0
	case threads.OpLt:
		return ordered(value, w.Value) && compare(value, w.Value) < 0
	case threads.OpLte:
		return ordered(value, w.Value) && compare(value, w.Value) <= 0
	case threads.OpIn:
		for _, candidate := range toSlice(w.Value) {
			if compare(value, candidate) == 0 {
				return true
			}
		}
		return false
	case threads.OpContains:
		s, target, ok := stringPair(value, w.Value)
		return ok && strings.Contains(s, target)
	case threads.OpStartsWith:
		s, target, ok := stringPair(value, w.Value)
		return ok && strings.HasPrefix(s, target)
	case threads.OpEndsWith:
		s, target, ok := stringPair(value, w.Value)
		return ok && strings.HasSuffix(s, target)
	default:
		return false
	}
}

func stringPair(value, target any) (string, string, bool) {
	s, ok1 := value.(string)
	t, ok2 := target.(string)
	return s, t, ok1 && ok2
}

func toSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	case []bool:
		out := make([]any, len(v))
		for i, b := range v {
			out[i] = b
		}
		return out
	default:
		return nil
	}
}

// compare orders two values of the same family: numbers, strings, times,
// bools. Mixed or unknown families compare as unequal (returns 2).
func compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil || b == nil {
		return 2
	}

	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
		return 2
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return 2
	}

	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
		return 2
	}

	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			if ab == bb {
				return 0
			}
			return 2
		}
	}

	return 2
}

func ordered(a, b any) bool {
	c := compare(a, b)
	return c >= -1 && c <= 1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// clone copies a record one level deep, including nested metadata maps, so
// callers never alias stored state.
func clone(rec threads.Record) threads.Record {
	out := make(threads.Record, len(rec))
	for k, v := range rec {
		if m, ok := v.(map[string]any); ok {
			copied := make(map[string]any, len(m))
			for mk, mv := range m {
				copied[mk] = mv
			}
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}
