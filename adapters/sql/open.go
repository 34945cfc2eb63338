package sql

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	threads "github.com/pressw-llc/threads-go"
)

// Open opens a database handle for one of the supported drivers. The caller
// owns the returned handle and is responsible for closing it.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		return sql.Open("pgx", dsn)
	case DriverMySQL:
		return sql.Open("mysql", dsn)
	case DriverSQLite:
		return sql.Open("sqlite", dsn)
	default:
		return nil, threads.NewConfigurationError(fmt.Sprintf("unsupported driver %q", driver), nil)
	}
}
