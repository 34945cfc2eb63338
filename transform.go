package threads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldMapping maps canonical field names to physical column/property names
// for one model. A missing entry means identity mapping. Built once at
// adapter construction, immutable thereafter.
type FieldMapping map[string]string

// IDGenerator produces new entity ids. The default is a random UUID v4.
type IDGenerator func() string

// NewID is the default id generator.
func NewID() string {
	return uuid.New().String()
}

// timeLayout is RFC 3339 with fixed-width nanoseconds.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// writeOp distinguishes create from update when stamping timestamps.
type writeOp int

const (
	opCreate writeOp = iota
	opUpdate
)

// Transformer performs the bidirectional translation between the canonical
// record representation and a capability-limited backend representation:
// field renaming, JSON/date/boolean coercion, and default id generation.
// Concrete adapters embed one and run every value through it.
type Transformer struct {
	caps       Capabilities
	fields     map[string]FieldMapping
	reverse    map[string]map[string]string
	generateID IDGenerator
}

// NewTransformer builds a transformer for the given capabilities and
// per-model field mappings. gen may be nil to use NewID.
func NewTransformer(caps Capabilities, fields map[string]FieldMapping, gen IDGenerator) *Transformer {
	if gen == nil {
		gen = NewID
	}

	reverse := make(map[string]map[string]string, len(fields))
	for model, mapping := range fields {
		rev := make(map[string]string, len(mapping))
		for canonical, physical := range mapping {
			rev[physical] = canonical
		}
		reverse[model] = rev
	}

	return &Transformer{
		caps:       caps,
		fields:     fields,
		reverse:    reverse,
		generateID: gen,
	}
}

// Capabilities returns the capability flags the transformer encodes for.
func (t *Transformer) Capabilities() Capabilities {
	return t.caps
}

// FieldName maps a canonical field to its physical name.
func (t *Transformer) FieldName(model, field string) string {
	if mapping, ok := t.fields[model]; ok {
		if physical, ok := mapping[field]; ok {
			return physical
		}
	}
	return field
}

// CanonicalName maps a physical column back to its canonical field.
func (t *Transformer) CanonicalName(model, column string) string {
	if rev, ok := t.reverse[model]; ok {
		if canonical, ok := rev[column]; ok {
			return canonical
		}
	}
	return column
}

// TransformCreate prepares data for insertion: generates a missing id, stamps
// createdAt/updatedAt with the same instant, renames fields and encodes
// values for the backend.
func (t *Transformer) TransformCreate(model string, data Record) (Record, error) {
	return t.transformInput(model, data, opCreate)
}

// TransformUpdate prepares data for an update: refreshes updatedAt, renames
// fields and encodes values. No id is generated.
func (t *Transformer) TransformUpdate(model string, data Record) (Record, error) {
	return t.transformInput(model, data, opUpdate)
}

func (t *Transformer) transformInput(model string, data Record, op writeOp) (Record, error) {
	out := make(Record, len(data)+3)
	for field, value := range data {
		out[field] = value
	}

	now := time.Now().UTC()
	switch op {
	case opCreate:
		if id, ok := out["id"].(string); !ok || id == "" {
			if !t.caps.DisableIDGeneration {
				out["id"] = t.generateID()
			}
		}
		out["createdAt"] = now
		out["updatedAt"] = now
	case opUpdate:
		out["updatedAt"] = now
	}

	encoded := make(Record, len(out))
	for field, value := range out {
		v, err := t.encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", field, err)
		}
		encoded[t.FieldName(model, field)] = v
	}

	return encoded, nil
}

// TransformOutput converts a backend row back to the canonical
// representation. Decoding is best-effort: a string is only promoted to JSON
// or a time when the schema marks the field as such and the value parses
// cleanly; anything else passes through unchanged. Decode failures never
// error, since a column may hold plain strings that merely look structured.
func (t *Transformer) TransformOutput(model string, row Record) Record {
	if row == nil {
		return nil
	}

	schema, err := SchemaFor(model)
	if err != nil {
		schema = &ModelSchema{Name: model}
	}

	out := make(Record, len(row))
	for column, value := range row {
		field := t.CanonicalName(model, column)
		out[field] = t.decodeValue(value, schema.Kind(field))
	}

	return out
}

// TransformWhere validates conditions, renames their fields and encodes their
// values under the same capability rules as writes.
func (t *Transformer) TransformWhere(model string, where []Where) ([]Where, error) {
	cleaned, err := CleanConditions(where)
	if err != nil {
		return nil, err
	}

	out := make([]Where, len(cleaned))
	for i, w := range cleaned {
		v, err := t.encodeConditionValue(w)
		if err != nil {
			return nil, fmt.Errorf("encoding condition on %q: %w", w.Field, err)
		}
		out[i] = Where{
			Field:     t.FieldName(model, w.Field),
			Value:     v,
			Operator:  w.Operator,
			Connector: w.Connector,
		}
	}

	return out, nil
}

// encodeConditionValue encodes a condition value. The slice carried by an
// "in" condition is a set of scalars, not a JSON value, so its elements are
// encoded one by one.
func (t *Transformer) encodeConditionValue(w Where) (any, error) {
	if w.Operator != OpIn {
		return t.encodeValue(w.Value)
	}

	elems := conditionSlice(w.Value)
	if elems == nil {
		return w.Value, nil
	}
	encoded := make([]any, len(elems))
	for i, e := range elems {
		v, err := t.encodeValue(e)
		if err != nil {
			return nil, err
		}
		encoded[i] = v
	}
	return encoded, nil
}

// conditionSlice widens the slice types Where.Validate accepts for "in"
// conditions to []any, so every element passes through value encoding.
func conditionSlice(value any) []any {
	switch s := value.(type) {
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

func (t *Transformer) encodeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if !t.caps.SupportsDates {
			// Fixed-width fractional seconds keep string ordering equal to
			// time ordering, so backends can ORDER BY the raw column.
			return v.UTC().Format(timeLayout), nil
		}
		return v, nil
	case bool:
		if !t.caps.SupportsBooleans {
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return v, nil
	case map[string]any, Record, []any:
		if !t.caps.SupportsJSON {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return string(raw), nil
		}
		return v, nil
	default:
		return v, nil
	}
}

func (t *Transformer) decodeValue(value any, kind FieldKind) any {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	switch kind {
	case FieldJSON:
		s, ok := value.(string)
		if !ok {
			return value
		}
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
			return value
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return value
		}
		return decoded

	case FieldDate:
		s, ok := value.(string)
		if !ok {
			return value
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
		if ts, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", s); err == nil {
			return ts
		}
		return value

	case FieldBoolean:
		switch v := value.(type) {
		case int64:
			if v == 0 || v == 1 {
				return v == 1
			}
		case float64:
			if v == 0 || v == 1 {
				return v == 1
			}
		}
		return value

	default:
		return value
	}
}
