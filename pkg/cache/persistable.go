package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/richard-senior/xgscore/internal/logger"
	_ "modernc.org/sqlite"
)

// Persistable rows describe their schema with struct tags:
//
//	column:"name" dbtype:"TEXT NOT NULL" primary:"true" index:"true"
//
// Fields without a dbtype tag are not stored.
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
}

// ErrNotFound is returned by FindByPrimaryKey when no row matches
var ErrNotFound = errors.New("record not found")

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a small reflection driven mapper over a sqlite database
type Store struct {
	db *sql.DB
	ex execer
}

// OpenStore opens (creating if needed) the sqlite database at path
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Debug("Database initialized successfully", path)
	return &Store{db: db, ex: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn against a store bound to a transaction, committing if fn
// returns nil
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, ex: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// field is one persisted struct field
type field struct {
	column  string
	dbtype  string
	primary bool
	index   bool
	value   reflect.Value
}

func fields(obj any) []field {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var out []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		dbType := f.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		col := f.Tag.Get("column")
		if col == "" {
			col = strings.ToLower(f.Name)
		}
		out = append(out, field{
			column:  col,
			dbtype:  dbType,
			primary: f.Tag.Get("primary") == "true",
			index:   f.Tag.Get("index") == "true",
			value:   v.Field(i),
		})
	}
	return out
}

// createTableSQL builds CREATE TABLE and CREATE INDEX statements from tags
func createTableSQL(obj Persistable) []string {
	table := obj.GetTableName()
	var cols, pks []string
	var stmts []string
	for _, f := range fields(obj) {
		cols = append(cols, f.column+" "+f.dbtype)
		if f.primary {
			pks = append(pks, f.column)
		}
		if f.index {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, f.column, table, f.column))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	return append([]string{create}, stmts...)
}

// CreateTable creates the table and its indexes for obj
func (s *Store) CreateTable(ctx context.Context, obj Persistable) error {
	for _, q := range createTableSQL(obj) {
		logger.Debug("Creating table with SQL", q)
		if _, err := s.ex.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create table %s: %w", obj.GetTableName(), err)
		}
	}
	return nil
}

// Save inserts obj or updates the row with the same primary key
func (s *Store) Save(ctx context.Context, obj Persistable) error {
	table := obj.GetTableName()
	var cols, placeholders, updates []string
	var values []any
	for _, f := range fields(obj) {
		cols = append(cols, f.column)
		placeholders = append(placeholders, "?")
		values = append(values, f.value.Interface())
		if !f.primary {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", f.column, f.column))
		}
	}

	pk := sortedKeys(obj.GetPrimaryKey())
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(updates) > 0 && len(pk) > 0 {
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(pk, ", "), strings.Join(updates, ", "))
	}

	logger.Debug("Save SQL", query)
	if _, err := s.ex.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", table, err)
	}
	return nil
}

// FindByPrimaryKey loads the row matching obj's primary key into obj
func (s *Store) FindByPrimaryKey(ctx context.Context, obj Persistable) error {
	table := obj.GetTableName()
	cols, dests := selectData(obj)
	where, args := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), table, where)
	err := s.ex.QueryRowContext(ctx, query, args...).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to scan row from %s: %w", table, err)
	}
	return nil
}

// FindWhere returns every row of T matching the clause
func FindWhere[T any, P interface {
	*T
	Persistable
}](ctx context.Context, s *Store, where string, args ...any) ([]T, error) {
	var zero T
	table := P(&zero).GetTableName()
	cols, _ := selectData(&zero)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	if where != "" {
		query += " WHERE " + where
	}
	logger.Debug("FindWhere SQL", query)

	rows, err := s.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		_, dests := selectData(&row)
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", table, err)
	}
	return out, nil
}

// DeleteWhere removes matching rows from obj's table
func (s *Store) DeleteWhere(ctx context.Context, obj Persistable, where string, args ...any) (int64, error) {
	table := obj.GetTableName()
	res, err := s.ex.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return res.RowsAffected()
}

func selectData(obj any) ([]string, []any) {
	var cols []string
	var dests []any
	for _, f := range fields(obj) {
		cols = append(cols, f.column)
		dests = append(dests, f.value.Addr().Interface())
	}
	return cols, dests
}

// buildWhereClause builds a WHERE clause from a primary key map in column order
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	var conditions []string
	var values []any
	for _, col := range sortedKeys(primaryKey) {
		conditions = append(conditions, col+" = ?")
		values = append(values, primaryKey[col])
	}
	return strings.Join(conditions, " AND "), values
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
