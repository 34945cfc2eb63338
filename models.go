package threads

// FieldKind hints how a canonical field is represented so capability-limited
// backends can decode values defensively.
type FieldKind string

const (
	FieldString  FieldKind = "string"
	FieldNumber  FieldKind = "number"
	FieldBoolean FieldKind = "boolean"
	FieldDate    FieldKind = "date"
	FieldJSON    FieldKind = "json"
)

// ModelSchema describes one canonical model: which fields must exist in the
// backing store and how each field is typed.
type ModelSchema struct {
	// Name is the canonical model name.
	Name string

	// Required lists the canonical fields every backend must provide a
	// column/property for. Validated eagerly at adapter construction.
	Required []string

	// Fields maps every known canonical field to its kind.
	Fields map[string]FieldKind
}

// Kind returns the kind of a field, defaulting to FieldString for fields the
// schema does not know about.
func (m *ModelSchema) Kind(field string) FieldKind {
	if k, ok := m.Fields[field]; ok {
		return k
	}
	return FieldString
}

// The three canonical models. Every adapter serves some subset of these.
const (
	ModelUser     = "user"
	ModelThread   = "thread"
	ModelFeedback = "feedback"
)

var modelSchemas = map[string]*ModelSchema{
	ModelUser: {
		Name:     ModelUser,
		Required: []string{"id", "createdAt", "updatedAt"},
		Fields: map[string]FieldKind{
			"id":        FieldString,
			"email":     FieldString,
			"name":      FieldString,
			"metadata":  FieldJSON,
			"createdAt": FieldDate,
			"updatedAt": FieldDate,
		},
	},
	ModelThread: {
		Name:     ModelThread,
		Required: []string{"id", "userId", "createdAt", "updatedAt"},
		Fields: map[string]FieldKind{
			"id":             FieldString,
			"userId":         FieldString,
			"organizationId": FieldString,
			"tenantId":       FieldString,
			"title":          FieldString,
			"metadata":       FieldJSON,
			"createdAt":      FieldDate,
			"updatedAt":      FieldDate,
		},
	},
	ModelFeedback: {
		Name:     ModelFeedback,
		Required: []string{"id", "threadId", "userId", "createdAt", "updatedAt"},
		Fields: map[string]FieldKind{
			"id":        FieldString,
			"threadId":  FieldString,
			"userId":    FieldString,
			"messageId": FieldString,
			"rating":    FieldNumber,
			"helpful":   FieldBoolean,
			"comment":   FieldString,
			"metadata":  FieldJSON,
			"createdAt": FieldDate,
			"updatedAt": FieldDate,
		},
	},
}

// SchemaFor returns the schema of a canonical model.
func SchemaFor(model string) (*ModelSchema, error) {
	schema, ok := modelSchemas[model]
	if !ok {
		return nil, NewValidationError("unknown model "+model, ErrUnknownModel)
	}
	return schema, nil
}

// Models returns the canonical model names.
func Models() []string {
	return []string{ModelUser, ModelThread, ModelFeedback}
}
