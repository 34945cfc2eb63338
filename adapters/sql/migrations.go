package sql

import (
	"fmt"

	"github.com/iancoleman/strcase"

	threads "github.com/pressw-llc/threads-go"
)

// DefaultFieldMappings maps every canonical field of every model to its
// snake_case column name. Pair with Migration for a schema that works
// unquoted on all three engines.
func DefaultFieldMappings() map[string]threads.FieldMapping {
	mappings := make(map[string]threads.FieldMapping, len(threads.Models()))
	for _, model := range threads.Models() {
		schema, err := threads.SchemaFor(model)
		if err != nil {
			continue
		}
		mapping := make(threads.FieldMapping, len(schema.Fields))
		for field := range schema.Fields {
			mapping[field] = strcase.ToSnake(field)
		}
		mappings[model] = mapping
	}
	return mappings
}

// Migration returns the DDL creating the user, thread and feedback tables
// with snake_case columns for the given driver. tables overrides physical
// table names per model; unmapped models use the model name, pluralized when
// usePlural.
func Migration(driver string, tables map[string]string, usePlural bool) (string, error) {
	name := func(model string) string {
		if t, ok := tables[model]; ok && t != "" {
			return t
		}
		if usePlural {
			return model + "s"
		}
		return model
	}

	switch driver {
	case DriverPostgres:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id TEXT PRIMARY KEY,
				email TEXT,
				name TEXT,
				metadata JSONB,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			);

			CREATE TABLE IF NOT EXISTS %[2]s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				organization_id TEXT,
				tenant_id TEXT,
				title TEXT,
				metadata JSONB,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_%[2]s_user_id ON %[2]s (user_id);
			CREATE INDEX IF NOT EXISTS idx_%[2]s_updated_at ON %[2]s (updated_at DESC);

			CREATE TABLE IF NOT EXISTS %[3]s (
				id TEXT PRIMARY KEY,
				thread_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				message_id TEXT,
				rating INTEGER,
				helpful BOOLEAN,
				comment TEXT,
				metadata JSONB,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			);
		`, name(threads.ModelUser), name(threads.ModelThread), name(threads.ModelFeedback)), nil

	case DriverMySQL:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id VARCHAR(64) PRIMARY KEY,
				email VARCHAR(255),
				name VARCHAR(255),
				metadata JSON,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			);

			CREATE TABLE IF NOT EXISTS %[2]s (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				organization_id VARCHAR(64),
				tenant_id VARCHAR(64),
				title VARCHAR(512),
				metadata JSON,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_%[2]s_user_id (user_id),
				INDEX idx_%[2]s_updated_at (updated_at)
			);

			CREATE TABLE IF NOT EXISTS %[3]s (
				id VARCHAR(64) PRIMARY KEY,
				thread_id VARCHAR(64) NOT NULL,
				user_id VARCHAR(64) NOT NULL,
				message_id VARCHAR(64),
				rating INT,
				helpful TINYINT(1),
				comment TEXT,
				metadata JSON,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			);
		`, name(threads.ModelUser), name(threads.ModelThread), name(threads.ModelFeedback)), nil

	case DriverSQLite:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id TEXT PRIMARY KEY,
				email TEXT,
				name TEXT,
				metadata TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS %[2]s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				organization_id TEXT,
				tenant_id TEXT,
				title TEXT,
				metadata TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_%[2]s_user_id ON %[2]s (user_id);
			CREATE INDEX IF NOT EXISTS idx_%[2]s_updated_at ON %[2]s (updated_at DESC);

			CREATE TABLE IF NOT EXISTS %[3]s (
				id TEXT PRIMARY KEY,
				thread_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				message_id TEXT,
				rating INTEGER,
				helpful INTEGER,
				comment TEXT,
				metadata TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
		`, name(threads.ModelUser), name(threads.ModelThread), name(threads.ModelFeedback)), nil

	default:
		return "", threads.NewConfigurationError(fmt.Sprintf("unsupported driver %q", driver), nil)
	}
}
