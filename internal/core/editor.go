package core

// editor.go is the generic, introspection-driven record editor. Table and
// column identifiers come only from the live table descriptor and are
// quoted; values always travel as $n parameters.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/jackc/pgx/v5"
)

// Insert adds a row and returns its primary key. A caller-supplied primary
// key is ignored. Declared columns absent from fs are stored as NULL, or as
// their column default when one is declared.
func (s *Service) Insert(ctx context.Context, table string, fs FieldSet) (int64, error) {
	if err := editable(table); err != nil {
		return 0, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var (
		key    int64
		stored FieldSet
	)
	err := s.withTx(ctx, "insert", table, func(tx pgx.Tx) error {
		desc, err := describeTable(ctx, tx, s.schema, table)
		if err != nil {
			return err
		}
		pk, err := requireKey(desc)
		if err != nil {
			return err
		}

		fs = fs.Without(pk)
		if err := validateFields(table, fs, true); err != nil {
			return err
		}
		stored, err = prepareValues(desc, fs)
		if err != nil {
			return err
		}

		if isPart(table) {
			if deviceID, ok := stored.Get("device_id"); ok {
				if id, ok := deviceID.(int64); ok {
					if err := ensureNoPart(ctx, tx, table, id); err != nil {
						return err
					}
				}
			}
		}

		key, err = insertRow(ctx, tx, desc, stored)
		return err
	})
	if err != nil {
		return 0, err
	}

	logging.FromContext(ctx).Info("row inserted", "table", table, "key", key)
	s.record(ctx, AuditLogParams{
		Action:  ActionRowInsert,
		Table:   table,
		RowKey:  key,
		RowData: fieldData(fs),
	})
	return key, nil
}

// Update changes only the columns in fs. The primary key cannot be changed.
func (s *Service) Update(ctx context.Context, table string, key int64, fs FieldSet) error {
	if err := editable(table); err != nil {
		return err
	}
	if key <= 0 {
		return &ValidationError{Field: "key", Value: strconv.FormatInt(key, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	desc, err := describeTable(ctx, s.db, s.schema, table)
	if err != nil {
		return classifyDBError("update", table, err)
	}
	pk, err := requireKey(desc)
	if err != nil {
		return err
	}

	fs = fs.Without(pk)
	if len(fs) == 0 {
		return &ValidationError{Message: "no fields to update"}
	}
	if owner, ok := ownedTables[table]; ok {
		if _, moving := fs.Get(owner); moving {
			return &IntegrityError{
				Table:    table,
				Key:      key,
				Relation: table + "." + owner,
				Owner:    "devices",
				Reason:   "rows cannot be moved to another device",
			}
		}
	}
	if err := validateFields(table, fs, false); err != nil {
		return err
	}
	values, err := prepareValues(desc, fs)
	if err != nil {
		return err
	}

	n, err := updateRow(ctx, s.db, desc, key, values)
	if err != nil {
		return classifyDBError("update", table, err)
	}
	if n == 0 {
		return notFound(table, key)
	}

	logging.FromContext(ctx).Info("row updated", "table", table, "key", key, "columns", fs.Columns())
	s.record(ctx, AuditLogParams{
		Action:  ActionRowUpdate,
		Table:   table,
		RowKey:  key,
		RowData: fieldData(fs),
	})
	return nil
}

// Delete removes one row. Device-owned rows are refused, devices go through
// the cascade, and any other row is refused while the reference guard finds
// it in use.
func (s *Service) Delete(ctx context.Context, table string, key int64) error {
	if owner, ok := ownedTables[table]; ok {
		return &IntegrityError{
			Table:    table,
			Key:      key,
			Relation: table + "." + owner,
			Owner:    "devices",
			Reason:   "rows are removed together with their device",
		}
	}
	if table == "devices" {
		_, err := s.DeleteDevice(ctx, key)
		return err
	}
	if err := editable(table); err != nil {
		return err
	}
	if key <= 0 {
		return &ValidationError{Field: "key", Value: strconv.FormatInt(key, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var snapshot Row
	err := s.withTx(ctx, "delete", table, func(tx pgx.Tx) error {
		desc, err := describeTable(ctx, tx, s.schema, table)
		if err != nil {
			return err
		}
		pk, err := requireKey(desc)
		if err != nil {
			return err
		}

		inUse, where, err := isReferenced(ctx, tx, table, key)
		if err != nil {
			return err
		}
		if inUse {
			return &IntegrityError{Table: table, Key: key, Relation: where, Reason: "row is still referenced"}
		}

		snapshot, err = getRow(ctx, tx, desc, key)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = $1", quoteIdentifier(table), quoteIdentifier(pk)),
			key)
		return err
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("row deleted", "table", table, "key", key)
	s.record(ctx, AuditLogParams{
		Action:  ActionRowDelete,
		Table:   table,
		RowKey:  key,
		RowData: snapshot,
	})
	return nil
}

// GetRow returns one row by primary key.
func (s *Service) GetRow(ctx context.Context, table string, key int64) (Row, error) {
	if key <= 0 {
		return nil, &ValidationError{Field: "key", Value: strconv.FormatInt(key, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	desc, err := describeTable(ctx, s.db, s.schema, table)
	if err != nil {
		return nil, classifyDBError("get row", table, err)
	}
	row, err := getRow(ctx, s.db, desc, key)
	if err != nil {
		return nil, classifyDBError("get row", table, err)
	}
	return row, nil
}

// ListRows returns one page of a table ordered by primary key. page is
// 1-based; a pageSize of 0 uses the service default.
func (s *Service) ListRows(ctx context.Context, table string, page, pageSize int) (RowPage, error) {
	if internalTables[table] {
		return RowPage{}, &SchemaError{Table: table, Reason: "table is maintained by the service"}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	desc, err := describeTable(ctx, s.db, s.schema, table)
	if err != nil {
		return RowPage{}, classifyDBError("list rows", table, err)
	}

	result := RowPage{
		Table:    table,
		Columns:  desc.ColumnNames(),
		Page:     page,
		PageSize: pageSize,
		Rows:     []Row{},
	}

	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteIdentifier(table)).Scan(&result.Total); err != nil {
		return RowPage{}, classifyDBError("list rows", table, err)
	}

	orderBy := desc.Columns[0].Name
	if desc.PrimaryKey != nil {
		orderBy = *desc.PrimaryKey
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		selectList(desc), quoteIdentifier(table), quoteIdentifier(orderBy))

	rows, err := s.db.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return RowPage{}, classifyDBError("list rows", table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return RowPage{}, classifyDBError("list rows", table, err)
	}
	for _, m := range maps {
		result.Rows = append(result.Rows, Row(m))
	}
	return result, nil
}

// editable rejects tables the generic editor must not write.
func editable(table string) error {
	if internalTables[table] {
		return &SchemaError{Table: table, Reason: "table is maintained by the service"}
	}
	return nil
}

// prepareValues checks every column against desc and coerces its value.
func prepareValues(desc TableDescriptor, fs FieldSet) (FieldSet, error) {
	out := make(FieldSet, 0, len(fs))
	for _, f := range fs {
		col, ok := desc.Column(f.Column)
		if !ok {
			return nil, &SchemaError{Table: desc.Name, Column: f.Column}
		}
		v, err := coerceValue(col, f.Value)
		if err != nil {
			return nil, err
		}
		out = out.Set(f.Column, v)
	}
	return out, nil
}

// insertRow writes every declared column in declaration order. values must
// already be coerced and must not contain the primary key.
func insertRow(ctx context.Context, q DBTX, desc TableDescriptor, values FieldSet) (int64, error) {
	pk, err := requireKey(desc)
	if err != nil {
		return 0, err
	}

	var key int64
	if !desc.KeyGenerated {
		if key, err = nextKey(ctx, q, desc); err != nil {
			return 0, err
		}
	}

	cols := make([]string, 0, len(desc.Columns))
	exprs := make([]string, 0, len(desc.Columns))
	args := make([]any, 0, len(desc.Columns))

	for _, col := range desc.Columns {
		switch v, provided := values.Get(col.Name); {
		case col.Name == pk:
			if desc.KeyGenerated {
				continue
			}
			args = append(args, key)
			exprs = append(exprs, fmt.Sprintf("$%d", len(args)))
		case provided:
			args = append(args, v)
			exprs = append(exprs, fmt.Sprintf("$%d", len(args)))
		case col.Default != nil:
			exprs = append(exprs, "DEFAULT")
		default:
			exprs = append(exprs, "NULL")
		}
		cols = append(cols, quoteIdentifier(col.Name))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdentifier(desc.Name), strings.Join(cols, ", "), strings.Join(exprs, ", "), quoteIdentifier(pk))

	if err := q.QueryRow(ctx, query, args...).Scan(&key); err != nil {
		return 0, err
	}
	return key, nil
}

// updateRow applies a sparse update and returns the number of rows matched.
func updateRow(ctx context.Context, q DBTX, desc TableDescriptor, key int64, values FieldSet) (int64, error) {
	pk, err := requireKey(desc)
	if err != nil {
		return 0, err
	}
	query, args := buildUpdate(desc.Name, pk, key, values)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildUpdate(table, pk string, key int64, values FieldSet) (string, []any) {
	sets := make([]string, len(values))
	args := make([]any, 0, len(values)+1)
	for i, f := range values {
		args = append(args, f.Value)
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(f.Column), len(args))
	}
	args = append(args, key)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		quoteIdentifier(table), strings.Join(sets, ", "), quoteIdentifier(pk), len(args))
	return query, args
}

func getRow(ctx context.Context, q DBTX, desc TableDescriptor, key int64) (Row, error) {
	pk, err := requireKey(desc)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		selectList(desc), quoteIdentifier(desc.Name), quoteIdentifier(pk))

	rows, err := q.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(desc.Name, key)
	}
	if err != nil {
		return nil, err
	}
	return Row(m), nil
}

func selectList(desc TableDescriptor) string {
	cols := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		cols[i] = quoteIdentifier(c.Name)
	}
	return strings.Join(cols, ", ")
}

func fieldData(fs FieldSet) map[string]any {
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Column] = f.Value
	}
	return m
}
