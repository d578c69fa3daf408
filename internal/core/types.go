package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DB is a DBTX that can also open transactions. *pgxpool.Pool satisfies it.
type DB interface {
	DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// ColumnInfo describes one introspected column.
type ColumnInfo struct {
	Name       string  `json:"name" yaml:"name"`
	DataType   string  `json:"dataType" yaml:"data_type"`
	Nullable   bool    `json:"nullable" yaml:"nullable"`
	Default    *string `json:"default,omitempty" yaml:"default,omitempty"`
	IsIdentity bool    `json:"isIdentity,omitempty" yaml:"is_identity,omitempty"`
}

// TableDescriptor is the live shape of a table. It is computed per call and
// never cached, so schema changes are picked up immediately.
type TableDescriptor struct {
	Name    string       `json:"name" yaml:"name"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`

	// PrimaryKey is nil when the table has no single-column primary key.
	PrimaryKey *string `json:"primaryKey,omitempty" yaml:"primary_key,omitempty"`

	// KeyGenerated reports that the database assigns primary key values
	// itself (identity column or sequence default).
	KeyGenerated bool `json:"keyGenerated" yaml:"key_generated"`
}

// ColumnNames returns column names in declaration order.
func (d TableDescriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d TableDescriptor) Column(name string) (ColumnInfo, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// IsPrimaryKey reports whether name is the table's primary key column.
func (d TableDescriptor) IsPrimaryKey(name string) bool {
	return d.PrimaryKey != nil && *d.PrimaryKey == name
}

// Field is one column assignment.
type Field struct {
	Column string
	Value  any
}

// FieldSet is an ordered list of column assignments. Order is preserved into
// generated SQL so statements are deterministic.
type FieldSet []Field

// Fields builds a FieldSet from alternating column, value arguments.
//
//	core.Fields("name", "Acme", "country_id", 3)
func Fields(kv ...any) FieldSet {
	fs := make(FieldSet, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		col, _ := kv[i].(string)
		fs = append(fs, Field{Column: col, Value: kv[i+1]})
	}
	return fs
}

// Set replaces the value for column, or appends it when absent.
func (fs FieldSet) Set(column string, value any) FieldSet {
	for i := range fs {
		if fs[i].Column == column {
			fs[i].Value = value
			return fs
		}
	}
	return append(fs, Field{Column: column, Value: value})
}

// Get returns the value for column.
func (fs FieldSet) Get(column string) (any, bool) {
	for _, f := range fs {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Without returns a copy of fs with column removed.
func (fs FieldSet) Without(column string) FieldSet {
	out := make(FieldSet, 0, len(fs))
	for _, f := range fs {
		if f.Column != column {
			out = append(out, f)
		}
	}
	return out
}

// Columns returns the column names in order.
func (fs FieldSet) Columns() []string {
	cols := make([]string, len(fs))
	for i, f := range fs {
		cols[i] = f.Column
	}
	return cols
}

// Row is a single table row keyed by column name.
type Row map[string]any

// RowPage is one page of a table listing.
type RowPage struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Total    int64    `json:"total"`
}
