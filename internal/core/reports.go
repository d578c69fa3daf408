package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// TableStat is the size of one catalog table.
type TableStat struct {
	Table   string `json:"table" yaml:"table"`
	Rows    int64  `json:"rows" yaml:"rows"`
	Columns int    `json:"columns" yaml:"columns"`
}

// TableStatistics returns row and column counts for every visible table.
func (s *Service) TableStatistics(ctx context.Context) ([]TableStat, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tables, err := listTables(ctx, s.db, s.schema)
	if err != nil {
		return nil, classifyDBError("table statistics", "", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT table_name, COUNT(*)::int
		FROM information_schema.columns
		WHERE table_schema = $1
		GROUP BY table_name`, s.schema)
	if err != nil {
		return nil, classifyDBError("table statistics", "", err)
	}
	columns := make(map[string]int)
	var (
		name string
		n    int
	)
	if _, err := pgx.ForEachRow(rows, []any{&name, &n}, func() error {
		columns[name] = n
		return nil
	}); err != nil {
		return nil, classifyDBError("table statistics", "", err)
	}

	out := make([]TableStat, 0, len(tables))
	for _, t := range tables {
		st := TableStat{Table: t, Columns: columns[t]}
		if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteIdentifier(t)).Scan(&st.Rows); err != nil {
			return nil, classifyDBError("table statistics", t, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// Report is a canned read-only query result.
type Report struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type reportDef struct {
	title   string
	columns []string
	query   string
	limited bool
}

// DefaultReportLimit bounds limited reports when no limit is given.
const DefaultReportLimit = 5

var reports = map[string]reportDef{
	"cheapest_in_stock": {
		title:   "Cheapest offers in stock",
		columns: []string{"model", "retailer", "price"},
		query: `
		SELECT d.model, r.name, dr.price
		FROM device_retailers dr
		JOIN devices d ON dr.device_id = d.device_id
		JOIN retailers r ON dr.retailer_id = r.retailer_id
		WHERE dr.in_stock
		ORDER BY dr.price, d.model
		LIMIT $1`,
		limited: true,
	},
	"waterproof_devices": {
		title:   "Waterproof devices",
		columns: []string{"model", "manufacturer", "category"},
		query: `
		SELECT d.model, m.name, c.name
		FROM devices d
		JOIN manufacturers m ON d.manufacturer_id = m.manufacturer_id
		JOIN categories c ON d.category_id = c.category_id
		WHERE d.is_waterproof
		ORDER BY LOWER(d.model), d.device_id`,
	},
	"manufacturers_countries": {
		title:   "Manufacturers with country",
		columns: []string{"manufacturer", "country"},
		query: `
		SELECT m.name, co.name
		FROM manufacturers m
		JOIN country co ON m.country_id = co.country_id
		ORDER BY m.name`,
	},
	"avg_price": {
		title:   "Average device price",
		columns: []string{"average_price"},
		query:   `SELECT ROUND(AVG(current_price)) FROM devices`,
	},
}

// ReportNames returns the known report names, sorted.
func ReportNames() []string {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunReport executes a named report. limit applies to limited reports only;
// 0 uses DefaultReportLimit.
func (s *Service) RunReport(ctx context.Context, name string, limit int) (*Report, error) {
	def, ok := reports[name]
	if !ok {
		return nil, fmt.Errorf("report %q: %w", name, ErrNotFound)
	}

	var args []any
	if def.limited {
		if limit <= 0 {
			limit = DefaultReportLimit
		}
		args = append(args, limit)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, def.query, args...)
	if err != nil {
		return nil, classifyDBError("report "+name, "", err)
	}
	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]any, error) {
		return row.Values()
	})
	if err != nil {
		return nil, classifyDBError("report "+name, "", err)
	}
	if values == nil {
		values = [][]any{}
	}

	return &Report{Name: name, Title: def.title, Columns: def.columns, Rows: values}, nil
}
