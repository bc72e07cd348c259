package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"directory-service/internal/entity"
	"directory-service/internal/pagination"

	"github.com/jmoiron/sqlx"
)

// ResourceRepository runs CRUD statements against a single entity table.
// Table and column names come from fixed descriptors; values always go through placeholders.
type ResourceRepository struct {
	db      *sqlx.DB
	table   string
	columns []string
}

// NewResourceRepository creates a repository for table accepting the given columns.
func NewResourceRepository(db *sqlx.DB, table string, columns []string) *ResourceRepository {
	return &ResourceRepository{db: db, table: table, columns: columns}
}

// Count returns the total number of rows in the table.
func (r *ResourceRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", quote(r.table))
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return count, nil
}

// ListPage returns the requested page, clamped into range, ordered by id.
func (r *ResourceRepository) ListPage(ctx context.Context, requestedPage, totalCount int) (*entity.Page, error) {
	page, lastPage, offset := pagination.Clamp(requestedPage, totalCount)

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY id LIMIT ?, ?", quote(r.table))
	items, err := r.queryRecords(ctx, query, offset, pagination.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", r.table, page, err)
	}

	return &entity.Page{
		Collection: r.table,
		Items:      items,
		PageNumber: page,
		TotalPages: lastPage,
		PageSize:   pagination.PageSize,
		TotalCount: totalCount,
	}, nil
}

// GetByID returns the row with id. found is false when no row matches.
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (entity.Record, bool, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ?", quote(r.table))
	row := map[string]interface{}{}
	err := r.db.QueryRowxContext(ctx, query, id).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %d: %w", r.table, id, err)
	}
	return normalize(row), true, nil
}

// Insert stores fields as a new row and returns the generated id.
// Keys outside the repository columns, including id, are ignored.
func (r *ResourceRepository) Insert(ctx context.Context, fields entity.Record) (int64, error) {
	cols, args := r.present(fields)
	if len(cols) == 0 {
		return 0, fmt.Errorf("insert %s: no columns", r.table)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quote(r.table),
		joinQuoted(cols),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table, err)
	}
	return id, nil
}

// Replace overwrites every column of row id; columns absent from fields become NULL.
// It reports whether a row with that id existed.
func (r *ResourceRepository) Replace(ctx context.Context, id int64, fields entity.Record) (bool, error) {
	sets := make([]string, 0, len(r.columns))
	args := make([]interface{}, 0, len(r.columns)+1)
	for _, col := range r.columns {
		sets = append(sets, quote(col)+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", quote(r.table), strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("replace %s %d: %w", r.table, id, err)
	}
	return affected(res)
}

// DeleteByID removes row id and reports whether it existed.
func (r *ResourceRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", quote(r.table))
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", r.table, id, err)
	}
	return affected(res)
}

// ListBy returns every row whose column equals value, ordered by id.
func (r *ResourceRepository) ListBy(ctx context.Context, column string, value interface{}) ([]entity.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY id", quote(r.table), quote(column))
	items, err := r.queryRecords(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("list %s by %s: %w", r.table, column, err)
	}
	return items, nil
}

// CountWhere counts rows matching every column = value pair.
func (r *ResourceRepository) CountWhere(ctx context.Context, equals entity.Record) (int, error) {
	cols := make([]string, 0, len(equals))
	for col := range equals {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		conds = append(conds, quote(col)+" = ?")
		args = append(args, equals[col])
	}

	query := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", quote(r.table))
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return count, nil
}

func (r *ResourceRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]entity.Record, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]entity.Record, 0)
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		records = append(records, normalize(row))
	}
	return records, rows.Err()
}

// present returns the repository columns set in fields, in column order.
func (r *ResourceRepository) present(fields entity.Record) ([]string, []interface{}) {
	cols := make([]string, 0, len(r.columns))
	args := make([]interface{}, 0, len(r.columns))
	for _, col := range r.columns {
		if col == "id" {
			continue
		}
		if v, ok := fields[col]; ok {
			cols = append(cols, col)
			args = append(args, v)
		}
	}
	return cols, args
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// normalize converts driver byte slices into strings so records serialize as JSON text.
func normalize(row map[string]interface{}) entity.Record {
	rec := make(entity.Record, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			rec[k] = string(b)
			continue
		}
		rec[k] = v
	}
	return rec
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "") + "`"
}

func joinQuoted(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = quote(id)
	}
	return strings.Join(quoted, ", ")
}
