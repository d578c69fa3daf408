package core

import (
	"context"
	"fmt"
)

// Reference is a column that may hold another table's primary key.
type Reference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (r Reference) String() string { return r.Table + "." + r.Column }

// referenceMap lists, per protected table, the columns that point at it.
// Order is the order of the existence checks. Read it through References.
var referenceMap = [...]struct {
	table string
	deps  []Reference
}{
	{"manufacturers", []Reference{{"devices", "manufacturer_id"}}},
	{"categories", []Reference{{"devices", "category_id"}}},
	{"color", []Reference{{"devices", "color_id"}}},
	{"operating_systems", []Reference{{"devices", "os_id"}}},
	{"users", []Reference{{"devices", "created_by"}}},
	{"country", []Reference{{"manufacturers", "country_id"}}},
	{"os_name", []Reference{{"operating_systems", "os_name_id"}}},
	{"retailers", []Reference{{"device_retailers", "retailer_id"}}},
	{"proc_model", []Reference{{"specifications", "proc_model_id"}}},
	{"storage_type", []Reference{{"specifications", "storage_type_id"}}},
	{"techn_matr", []Reference{{"displays", "techn_matr_id"}}},
}

// ownedTables hold rows that belong to a device and are removed only
// through the device cascade. Values are the owning column.
var ownedTables = map[string]string{
	"specifications":   "device_id",
	"displays":         "device_id",
	"cameras":          "device_id",
	"batteries":        "device_id",
	"device_retailers": "device_id",
}

// References returns a copy of the dependents configured for table.
func References(table string) []Reference {
	for _, e := range referenceMap {
		if e.table == table {
			return append([]Reference(nil), e.deps...)
		}
	}
	return nil
}

// ProtectedTables returns the tables the guard checks, in check order.
func ProtectedTables() []string {
	out := make([]string, len(referenceMap))
	for i, e := range referenceMap {
		out[i] = e.table
	}
	return out
}

// IsReferenced reports whether a row of table is still referenced, and by
// which "table.column". Tables without configured dependents are never
// referenced.
func (s *Service) IsReferenced(ctx context.Context, table string, key int64) (bool, string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	inUse, where, err := isReferenced(ctx, s.db, table, key)
	if err != nil {
		return false, "", classifyDBError("reference check", table, err)
	}
	return inUse, where, nil
}

// isReferenced stops at the first dependent that holds key.
func isReferenced(ctx context.Context, q DBTX, table string, key int64) (bool, string, error) {
	for _, ref := range References(table) {
		query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
			quoteIdentifier(ref.Table), quoteIdentifier(ref.Column))

		var exists bool
		if err := q.QueryRow(ctx, query, key).Scan(&exists); err != nil {
			return false, "", err
		}
		if exists {
			return true, ref.String(), nil
		}
	}
	return false, "", nil
}
