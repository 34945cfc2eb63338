// Package sql implements the thread adapter contract for relational
// databases reached through database/sql, across Postgres, MySQL and SQLite.
// Open registers the matching driver; callers managing their own *sql.DB can
// hand it to Config.DB directly instead.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/iancoleman/strcase"

	threads "github.com/pressw-llc/threads-go"
)

// Config configures the relational adapter. The *sql.DB lifecycle (pooling,
// closing) belongs to the caller; the adapter never closes it.
type Config struct {
	// Driver is one of DriverPostgres, DriverMySQL, DriverSQLite.
	Driver string

	// DB is the open database handle. Required.
	DB *sql.DB

	// Models lists the canonical models this adapter serves. Defaults to
	// all of them.
	Models []string

	// Tables maps canonical model names to physical table names. Unmapped
	// models use the snake_cased model name, pluralized when UsePlural.
	Tables map[string]string

	// Fields maps canonical field names to physical column names, per model.
	// Missing entries mean identity mapping.
	Fields map[string]threads.FieldMapping

	// UsePlural pluralizes derived table names.
	UsePlural bool

	// DisableIDGeneration suppresses automatic id generation on create.
	DisableIDGeneration bool

	// IDGenerator overrides the default UUID generator.
	IDGenerator threads.IDGenerator

	// Logger receives duration-measured query logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

type modelBinding struct {
	table     string
	columns   []string
	columnSet map[string]bool
}

// Adapter executes the CRUD contract against a relational store.
type Adapter struct {
	db          *sql.DB
	dialect     *dialect
	transformer *threads.Transformer
	bindings    map[string]modelBinding
	caps        threads.Capabilities
	logger      *slog.Logger
}

// New builds the adapter and eagerly validates the caller-declared mapping
// against the live schema: every served model must resolve to an existing
// table, and every required field to an existing column. Misconfiguration
// fails here, before any CRUD call is possible.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.DB == nil {
		return nil, threads.NewConfigurationError("db handle is required", nil)
	}

	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	caps := d.caps
	caps.UsePlural = cfg.UsePlural
	caps.DisableIDGeneration = cfg.DisableIDGeneration

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		db:          cfg.DB,
		dialect:     d,
		transformer: threads.NewTransformer(caps, cfg.Fields, cfg.IDGenerator),
		bindings:    make(map[string]modelBinding),
		caps:        caps,
		logger:      logger,
	}

	models := cfg.Models
	if len(models) == 0 {
		models = threads.Models()
	}

	for _, model := range models {
		schema, err := threads.SchemaFor(model)
		if err != nil {
			return nil, err
		}

		table := cfg.Tables[model]
		if table == "" {
			table = strcase.ToSnake(model)
			if cfg.UsePlural {
				table += "s"
			}
		}

		columns, err := d.tableColumns(ctx, cfg.DB, table)
		if err != nil {
			return nil, threads.NewConfigurationError("schema introspection failed", err)
		}
		if len(columns) == 0 {
			return nil, threads.NewConfigurationError(
				fmt.Sprintf("table %q for model %q does not exist", table, model),
				threads.ErrTableNotFound)
		}

		columnSet := make(map[string]bool, len(columns))
		for _, c := range columns {
			columnSet[c] = true
		}

		for _, field := range schema.Required {
			column := a.transformer.FieldName(model, field)
			if !columnSet[column] {
				return nil, threads.NewConfigurationError(
					fmt.Sprintf("required field %q (column %q) missing from table %q", field, column, table),
					threads.ErrRequiredFieldMissing)
			}
		}

		a.bindings[model] = modelBinding{table: table, columns: columns, columnSet: columnSet}
	}

	return a, nil
}

// Capabilities reports the dialect's fixed capability flags.
func (a *Adapter) Capabilities() threads.Capabilities {
	return a.caps
}

// Schema returns the canonical schema of a served model.
func (a *Adapter) Schema(model string) (*threads.ModelSchema, error) {
	if _, err := a.binding(model); err != nil {
		return nil, err
	}
	return threads.SchemaFor(model)
}

func (a *Adapter) binding(model string) (modelBinding, error) {
	b, ok := a.bindings[model]
	if !ok {
		return modelBinding{}, threads.NewValidationError("model not served by this adapter: "+model, threads.ErrUnknownModel)
	}
	return b, nil
}

// whereColumns resolves and validates the conditions of a query. Every mapped
// field must be a real column of the table; condition fields reach the SQL
// text verbatim, so an unverified one could smuggle in extra predicate.
func (a *Adapter) whereColumns(model string, b modelBinding, where []threads.Where) ([]threads.Where, error) {
	mapped, err := a.transformer.TransformWhere(model, where)
	if err != nil {
		return nil, err
	}
	for _, w := range mapped {
		if !b.columnSet[w.Field] {
			return nil, threads.NewValidationError(
				fmt.Sprintf("no column %q in table %q", w.Field, b.table), threads.ErrInvalidArgument)
		}
	}
	return mapped, nil
}

// Create inserts a record and returns the stored row, via RETURNING when the
// dialect supports it and a re-read by id otherwise.
func (a *Adapter) Create(ctx context.Context, model string, data threads.Record) (threads.Record, error) {
	b, err := a.binding(model)
	if err != nil {
		return nil, err
	}

	rec, err := a.transformer.TransformCreate(model, data)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(rec))
	for column := range rec {
		if !b.columnSet[column] {
			return nil, threads.NewValidationError(
				fmt.Sprintf("no column %q in table %q", column, b.table), threads.ErrInvalidArgument)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		placeholders[i] = a.dialect.placeholder(i + 1)
		args[i] = rec[column]
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if a.caps.SupportsReturning {
		query := insert + " RETURNING " + strings.Join(b.columns, ", ")
		row, err := a.queryRowRecord(ctx, model, b, query, args...)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", model, err)
		}
		if row == nil {
			return nil, threads.NewBackendError("insert returned no row", threads.ErrCannotRetrieveCreated)
		}
		return row, nil
	}

	if _, err := a.exec(ctx, insert, args...); err != nil {
		return nil, fmt.Errorf("creating %s: %w", model, err)
	}

	idColumn := a.transformer.FieldName(model, "id")
	id, _ := rec[idColumn].(string)
	if id == "" {
		return nil, threads.NewBackendError(
			fmt.Sprintf("dialect %s cannot return the created row without an id", a.dialect.name),
			threads.ErrCannotRetrieveCreated)
	}

	return a.FindOne(ctx, model, []threads.Where{{Field: "id", Value: id, Operator: threads.OpEq}})
}

// FindOne returns the first matching record, or nil when nothing matches.
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

// FindMany returns matching records with pagination and an optional
// single-column ORDER BY. A sort field that does not resolve to a real
// column is silently ignored.
func (a *Adapter) FindMany(ctx context.Context, model string, params threads.FindParams) ([]threads.Record, error) {
	b, err := a.binding(model)
	if err != nil {
		return nil, err
	}

	mapped, err := a.whereColumns(model, b, params.Where)
	if err != nil {
		return nil, err
	}

	clause, args, err := buildWhere(a.dialect, mapped, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	if clause != "" {
		query += " WHERE " + clause
	}

	if params.SortBy != nil && params.SortBy.Field != "" {
		column := a.transformer.FieldName(model, params.SortBy.Field)
		if b.columnSet[column] {
			direction := "ASC"
			if params.SortBy.Direction == threads.SortDesc {
				direction = "DESC"
			}
			query += fmt.Sprintf(" ORDER BY %s %s", column, direction)
		}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = threads.DefaultFindLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	start := time.Now()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		a.logError(query, args, time.Since(start), err)
		return nil, fmt.Errorf("querying %s: %w", model, err)
	}
	defer rows.Close()

	var records []threads.Record
	for rows.Next() {
		rec, err := scanRecord(rows, b.columns)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", model, err)
		}
		records = append(records, a.transformer.TransformOutput(model, rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", model, err)
	}

	a.logQuery(query, args, time.Since(start), len(records))
	return records, nil
}

// Update mutates matching rows and returns the updated record via RETURNING
// or a re-read, or nil when the row cannot be found afterward.
func (a *Adapter) Update(ctx context.Context, model string, where []threads.Where, data threads.Record) (threads.Record, error) {
	b, err := a.binding(model)
	if err != nil {
		return nil, err
	}

	patch, err := a.transformer.TransformUpdate(model, data)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(patch))
	for column := range patch {
		if !b.columnSet[column] {
			return nil, threads.NewValidationError(
				fmt.Sprintf("no column %q in table %q", column, b.table), threads.ErrInvalidArgument)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", column, a.dialect.placeholder(i+1))
		args[i] = patch[column]
	}

	mapped, err := a.whereColumns(model, b, where)
	if err != nil {
		return nil, err
	}
	clause, whereArgs, err := buildWhere(a.dialect, mapped, len(columns)+1)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	update := fmt.Sprintf("UPDATE %s SET %s", b.table, strings.Join(assignments, ", "))
	if clause != "" {
		update += " WHERE " + clause
	}

	if a.caps.SupportsReturning {
		query := update + " RETURNING " + strings.Join(b.columns, ", ")
		row, err := a.queryRowRecord(ctx, model, b, query, args...)
		if err != nil {
			return nil, fmt.Errorf("updating %s: %w", model, err)
		}
		return row, nil
	}

	if _, err := a.exec(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("updating %s: %w", model, err)
	}

	return a.FindOne(ctx, model, where)
}

// Delete removes matching rows. Deleting nothing is not an error.
func (a *Adapter) Delete(ctx context.Context, model string, where []threads.Where) error {
	b, err := a.binding(model)
	if err != nil {
		return err
	}

	mapped, err := a.whereColumns(model, b, where)
	if err != nil {
		return err
	}
	clause, args, err := buildWhere(a.dialect, mapped, 1)
	if err != nil {
		return err
	}

	query := "DELETE FROM " + b.table
	if clause != "" {
		query += " WHERE " + clause
	}

	if _, err := a.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s: %w", model, err)
	}

	return nil
}

// Count returns COUNT(*) over the matching rows.
func (a *Adapter) Count(ctx context.Context, model string, where []threads.Where) (int64, error) {
	b, err := a.binding(model)
	if err != nil {
		return 0, err
	}

	mapped, err := a.whereColumns(model, b, where)
	if err != nil {
		return 0, err
	}
	clause, args, err := buildWhere(a.dialect, mapped, 1)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + b.table
	if clause != "" {
		query += " WHERE " + clause
	}

	start := time.Now()
	var count int64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		a.logError(query, args, time.Since(start), err)
		return 0, fmt.Errorf("counting %s: %w", model, err)
	}
	a.logQuery(query, args, time.Since(start), 1)

	return count, nil
}

// queryRowRecord runs a single-row query (RETURNING form) and maps the row
// back to a canonical record. No row yields (nil, nil).
func (a *Adapter) queryRowRecord(ctx context.Context, model string, b modelBinding, query string, args ...any) (threads.Record, error) {
	start := time.Now()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		a.logError(query, args, time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		a.logQuery(query, args, time.Since(start), 0)
		return nil, nil
	}

	rec, err := scanRecord(rows, b.columns)
	if err != nil {
		return nil, err
	}
	a.logQuery(query, args, time.Since(start), 1)

	return a.transformer.TransformOutput(model, rec), nil
}

func (a *Adapter) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		a.logError(query, args, time.Since(start), err)
		return nil, err
	}

	affected, _ := result.RowsAffected()
	a.logger.Debug("sql exec", "query", compact(query), "args", len(args), "rows", affected, "duration", time.Since(start))

	return result, nil
}

func (a *Adapter) logQuery(query string, args []any, duration time.Duration, rows int) {
	a.logger.Debug("sql query", "query", compact(query), "args", len(args), "rows", rows, "duration", duration)
}

func (a *Adapter) logError(query string, args []any, duration time.Duration, err error) {
	a.logger.Error("sql error", "query", compact(query), "args", len(args), "duration", duration, "error", err)
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// scanRecord scans the current row into a physical-column record.
func scanRecord(rows *sql.Rows, columns []string) (threads.Record, error) {
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := rows.Scan(pointers...); err != nil {
		return nil, err
	}

	rec := make(threads.Record, len(columns))
	for i, column := range columns {
		rec[column] = values[i]
	}

	return rec, nil
}
