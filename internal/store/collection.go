package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// table describes how one entity maps onto its SQL table. columns are the
// writable columns after id, in the order values returns them.
type table[T Record] struct {
	name    string
	label   string
	scope   string
	columns []string
	// derived are read-only select expressions scanned after the columns.
	derived []string
	scan    func(scan func(dest ...any) error, item *T) error
	values  func(item T) []any
	// afterWrite runs inside the write transaction; before is nil on insert.
	afterWrite func(ctx context.Context, tx *sql.Tx, before *T, after T) error
}

func (t table[T]) selectList() string {
	parts := make([]string, 0, len(t.columns)+len(t.derived)+1)
	parts = append(parts, "t.id")
	for _, column := range t.columns {
		parts = append(parts, "t."+column)
	}
	parts = append(parts, t.derived...)
	return strings.Join(parts, ", ")
}

func (t table[T]) orderBy() string {
	if t.scope == "" {
		return "t.sort_order, t.id"
	}
	return "t." + t.scope + ", t.sort_order, t.id"
}

// Collection stores one ordered entity type.
type Collection[T Record, P Patch[T]] struct {
	db    *sql.DB
	table table[T]
}

func newCollection[T Record, P Patch[T]](db *sql.DB, t table[T]) *Collection[T, P] {
	return &Collection[T, P]{db: db, table: t}
}

// Label is the human entity name used in messages.
func (c *Collection[T, P]) Label() string {
	return c.table.label
}

func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s t ORDER BY %s`, c.table.selectList(), c.table.name, c.table.orderBy())
	return c.query(ctx, c.db, query)
}

func (c *Collection[T, P]) ListByScope(ctx context.Context, scopeID string) ([]T, error) {
	if c.table.scope == "" {
		return c.List(ctx)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s t WHERE t.%s = $1 ORDER BY t.sort_order, t.id`,
		c.table.selectList(), c.table.name, c.table.scope)
	return c.query(ctx, c.db, query, scopeID)
}

func (c *Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	item, err := c.get(ctx, c.db, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", c.table.name, err)
	}
	return item, nil
}

func (c *Collection[T, P]) Insert(ctx context.Context, item T) (T, error) {
	var zero T
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin insert %s: %w", c.table.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	columns := append([]string{"id"}, c.table.columns...)
	args := append([]any{item.Key()}, c.table.values(item)...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, c.table.name, strings.Join(columns, ", "), placeholders(len(args)))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return zero, fmt.Errorf("insert %s: %w", c.table.name, err)
	}
	if c.table.afterWrite != nil {
		if err := c.table.afterWrite(ctx, tx, nil, item); err != nil {
			return zero, err
		}
	}

	created, err := c.get(ctx, tx, item.Key())
	if err != nil {
		return zero, fmt.Errorf("reload %s: %w", c.table.name, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit insert %s: %w", c.table.name, err)
	}
	return created, nil
}

// Update locks the row, applies patch to it and writes the result back in
// one transaction. It returns the row as it was before and after the write.
func (c *Collection[T, P]) Update(ctx context.Context, id string, patch P) (T, T, error) {
	var zero T
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, zero, fmt.Errorf("begin update %s: %w", c.table.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := c.lock(ctx, tx, id); err != nil {
		return zero, zero, err
	}
	before, err := c.get(ctx, tx, id)
	if err != nil {
		return zero, zero, fmt.Errorf("read %s: %w", c.table.name, err)
	}

	next := before
	patch.Apply(&next)

	assignments := make([]string, 0, len(c.table.columns))
	for i, column := range c.table.columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+2))
	}
	args := append([]any{id}, c.table.values(next)...)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`, c.table.name, strings.Join(assignments, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return zero, zero, fmt.Errorf("update %s: %w", c.table.name, err)
	}
	if c.table.afterWrite != nil {
		if err := c.table.afterWrite(ctx, tx, &before, next); err != nil {
			return zero, zero, err
		}
	}

	after, err := c.get(ctx, tx, id)
	if err != nil {
		return zero, zero, fmt.Errorf("reload %s: %w", c.table.name, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, zero, fmt.Errorf("commit update %s: %w", c.table.name, err)
	}
	return before, after, nil
}

// Delete removes the row and returns it as it was. Dependent rows go with it
// through foreign key cascades.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin delete %s: %w", c.table.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := c.lock(ctx, tx, id); err != nil {
		return zero, err
	}
	item, err := c.get(ctx, tx, id)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", c.table.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table.name), id); err != nil {
		return zero, fmt.Errorf("delete %s: %w", c.table.name, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit delete %s: %w", c.table.name, err)
	}
	return item, nil
}

// SetOrder writes a single row's order. It reports false when no row with id
// exists in the scope.
func (c *Collection[T, P]) SetOrder(ctx context.Context, scopeID, id string, order int) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET sort_order = $1 WHERE id = $2`, c.table.name)
	args := []any{order, id}
	if c.table.scope != "" && scopeID != "" {
		query += fmt.Sprintf(` AND %s = $3`, c.table.scope)
		args = append(args, scopeID)
	}
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set %s order: %w", c.table.name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set %s order: %w", c.table.name, err)
	}
	return affected > 0, nil
}

// NextOrder is one past the largest order in the scope, or 0 when empty.
func (c *Collection[T, P]) NextOrder(ctx context.Context, scopeID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM %s`, c.table.name)
	args := []any{}
	if c.table.scope != "" {
		query += fmt.Sprintf(` WHERE %s = $1`, c.table.scope)
		args = append(args, scopeID)
	}
	var next int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("next %s order: %w", c.table.name, err)
	}
	return next, nil
}

func (c *Collection[T, P]) lock(ctx context.Context, tx *sql.Tx, id string) error {
	var locked string
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, c.table.name), id).Scan(&locked)
	if err != nil {
		return fmt.Errorf("lock %s: %w", c.table.name, err)
	}
	return nil
}

func (c *Collection[T, P]) get(ctx context.Context, q queryer, id string) (T, error) {
	var item T
	query := fmt.Sprintf(`SELECT %s FROM %s t WHERE t.id = $1`, c.table.selectList(), c.table.name)
	row := q.QueryRowContext(ctx, query, id)
	if err := c.table.scan(row.Scan, &item); err != nil {
		return item, err
	}
	return item, nil
}

func (c *Collection[T, P]) query(ctx context.Context, q queryer, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.name, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var item T
		if err := c.table.scan(rows.Scan, &item); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table.name, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table.name, err)
	}
	return items, nil
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
