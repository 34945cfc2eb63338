package sql

import (
	"context"
	"database/sql"
	"fmt"

	threads "github.com/pressw-llc/threads-go"
)

// Driver names accepted by Config.Driver.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// dialect captures what differs between the supported engines: placeholder
// style, RETURNING availability, native type fidelity and how the live
// schema is introspected.
//
// Structured values are always stored as JSON text regardless of engine
// (database/sql cannot bind Go maps portably), so SupportsJSON stays false
// for all three dialects; Postgres still lands them in jsonb through
// parameter-type inference.
type dialect struct {
	name string
	caps threads.Capabilities

	// placeholder renders the i-th (1-based) bind parameter.
	placeholder func(i int) string

	// columnsQuery returns the column names of a table, empty when the
	// table does not exist.
	columnsQuery string
}

func questionMark(int) string { return "?" }

func dollar(i int) string { return fmt.Sprintf("$%d", i) }

func dialectFor(driver string) (*dialect, error) {
	switch driver {
	case DriverPostgres:
		return &dialect{
			name: DriverPostgres,
			caps: threads.Capabilities{
				SupportsDates:     true,
				SupportsBooleans:  true,
				SupportsReturning: true,
			},
			placeholder: dollar,
			columnsQuery: `SELECT column_name FROM information_schema.columns
				WHERE table_schema = current_schema() AND table_name = $1`,
		}, nil
	case DriverMySQL:
		// MySQL has no RETURNING clause; created/updated rows are re-read.
		// Scanning DATETIME into time.Time requires parseTime=true in the DSN.
		return &dialect{
			name: DriverMySQL,
			caps: threads.Capabilities{
				SupportsDates:    true,
				SupportsBooleans: true,
			},
			placeholder: questionMark,
			columnsQuery: `SELECT column_name FROM information_schema.columns
				WHERE table_schema = DATABASE() AND table_name = ?`,
		}, nil
	case DriverSQLite:
		return &dialect{
			name: DriverSQLite,
			caps: threads.Capabilities{
				SupportsReturning: true,
			},
			placeholder:  questionMark,
			columnsQuery: `SELECT name FROM pragma_table_info(?)`,
		}, nil
	default:
		return nil, threads.NewConfigurationError(fmt.Sprintf("unsupported driver %q", driver), nil)
	}
}

// tableColumns introspects the live schema for one table. An empty result
// means the table does not exist.
func (d *dialect) tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, d.columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("introspecting table %q: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading columns of %q: %w", table, err)
	}

	return columns, nil
}
