package core

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/jackc/pgx/v5"
)

// internalTables are maintained by the service itself and hidden from
// generic browsing and editing.
var internalTables = map[string]bool{
	auditTable: true,
}

// ListTables returns the base tables of the catalog schema in name order.
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tables, err := listTables(ctx, s.db, s.schema)
	if err != nil {
		return nil, classifyDBError("list tables", "", err)
	}
	return tables, nil
}

// DescribeTable reads the live definition of a table. Unknown tables fail
// with a SchemaError.
func (s *Service) DescribeTable(ctx context.Context, name string) (TableDescriptor, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	start := time.Now()
	desc, err := describeTable(ctx, s.db, s.schema, name)
	if err != nil {
		return TableDescriptor{}, classifyDBError("describe table", name, err)
	}
	logging.FromContext(ctx).Debug("table described",
		"table", name,
		"columns", len(desc.Columns),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return desc, nil
}

func listTables(ctx context.Context, q DBTX, schema string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	visible := names[:0]
	for _, n := range names {
		if !internalTables[n] {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

func describeTable(ctx context.Context, q DBTX, schema, name string) (TableDescriptor, error) {
	rows, err := q.Query(ctx, `
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			is_identity
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return TableDescriptor{}, err
	}
	defer rows.Close()

	desc := TableDescriptor{Name: name}
	for rows.Next() {
		var (
			col                  ColumnInfo
			nullable, isIdentity string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &isIdentity); err != nil {
			return TableDescriptor{}, err
		}
		col.Nullable = nullable == "YES"
		col.IsIdentity = isIdentity == "YES"
		desc.Columns = append(desc.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return TableDescriptor{}, err
	}
	if len(desc.Columns) == 0 {
		return TableDescriptor{}, &SchemaError{Table: name}
	}

	pkRows, err := q.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, schema, name)
	if err != nil {
		return TableDescriptor{}, err
	}
	pkCols, err := pgx.CollectRows(pkRows, pgx.RowTo[string])
	if err != nil {
		return TableDescriptor{}, err
	}

	// A composite key cannot be allocated or addressed by a single value.
	if len(pkCols) == 1 {
		pk := pkCols[0]
		desc.PrimaryKey = &pk
		if col, ok := desc.Column(pk); ok {
			desc.KeyGenerated = col.IsIdentity ||
				(col.Default != nil && strings.HasPrefix(*col.Default, "nextval("))
		}
	}

	return desc, nil
}

// requireKey returns the primary key column or a SchemaError.
func requireKey(desc TableDescriptor) (string, error) {
	if desc.PrimaryKey == nil {
		return "", &SchemaError{Table: desc.Name, Reason: "table has no single-column primary key"}
	}
	return *desc.PrimaryKey, nil
}
