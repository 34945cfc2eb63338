package threads

import "context"

// Record is the generic entity representation adapters exchange. Keys are
// canonical field names; values are canonical Go types (string, int64,
// float64, bool, time.Time, map[string]any).
type Record map[string]any

// Capabilities declares what a backend can represent natively. Fixed at
// adapter construction; they never change during the adapter's lifetime.
type Capabilities struct {
	// SupportsJSON is true when the backend stores structured values without
	// string serialization.
	SupportsJSON bool

	// SupportsDates is true when the backend has a native timestamp type.
	SupportsDates bool

	// SupportsBooleans is true when the backend has a native boolean type.
	SupportsBooleans bool

	// SupportsReturning is true when writes can return the affected row in
	// the same round trip.
	SupportsReturning bool

	// UsePlural pluralizes derived table names (model "thread" → "threads").
	UsePlural bool

	// DisableIDGeneration suppresses automatic id generation on create.
	DisableIDGeneration bool
}

// Adapter is the uniform CRUD contract every backend implements. All
// implementations operate on cleaned conditions (see CleanConditions) and
// canonical field names; physical naming is an adapter-internal concern.
type Adapter interface {
	// Create inserts data and returns the stored record. The adapter manages
	// id (unless disabled) and createdAt/updatedAt.
	Create(ctx context.Context, model string, data Record) (Record, error)

	// FindOne returns the first record matching where, or nil when there is
	// no match. A miss is not an error.
	FindOne(ctx context.Context, model string, where []Where) (Record, error)

	// FindMany returns all records matching params.
	FindMany(ctx context.Context, model string, params FindParams) ([]Record, error)

	// Update mutates every record matching where and returns the updated
	// record, or nil when nothing matched. updatedAt is refreshed.
	Update(ctx context.Context, model string, where []Where, data Record) (Record, error)

	// Delete removes matching records. Deleting nothing is not an error.
	Delete(ctx context.Context, model string, where []Where) error

	// Count returns the number of records matching where.
	Count(ctx context.Context, model string, where []Where) (int64, error)

	// Schema returns the canonical schema of a model.
	Schema(model string) (*ModelSchema, error)

	// Capabilities reports the backend's fixed capability flags.
	Capabilities() Capabilities
}
