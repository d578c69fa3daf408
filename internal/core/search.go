package core

// search.go builds faceted device searches. Every statement is assembled
// from the fixed join and dimension tables below; caller input only ever
// becomes $n parameters, and filters always compare foreign-key columns.

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// Dimension is a reference table devices can be filtered or grouped by.
type Dimension string

const (
	DimCategory          Dimension = "category"
	DimManufacturer      Dimension = "manufacturer"
	DimColor             Dimension = "color"
	DimCountry           Dimension = "country"
	DimStorageType       Dimension = "storage_type"
	DimProcessorModel    Dimension = "processor_model"
	DimDisplayTechnology Dimension = "display_technology"
	DimOperatingSystem   Dimension = "operating_system"
	DimRetailer          Dimension = "retailer"
)

// AllValues is the filter value meaning "no filter".
const AllValues = "all"

// SearchMode selects how devices with missing attribute records are treated.
type SearchMode string

const (
	// JoinStrict returns only devices that have specification and display
	// records and fully resolved manufacturer, category, country and color.
	JoinStrict SearchMode = "strict"

	// JoinLoose returns every device matching the filters; unresolved
	// attributes come back NULL.
	JoinLoose SearchMode = "loose"
)

type joinDef struct {
	alias    string
	clause   string // "<table> <alias> ON ..."
	requires string
}

// joinOrder is the emit order; a join always follows the join it requires.
var joinOrder = []joinDef{
	{"m", "manufacturers m ON d.manufacturer_id = m.manufacturer_id", ""},
	{"co", "country co ON m.country_id = co.country_id", "m"},
	{"c", "categories c ON d.category_id = c.category_id", ""},
	{"col", "color col ON d.color_id = col.color_id", ""},
	{"s", "specifications s ON d.device_id = s.device_id", ""},
	{"st", "storage_type st ON s.storage_type_id = st.storage_type_id", "s"},
	{"pm", "proc_model pm ON s.proc_model_id = pm.proc_model_id", "s"},
	{"disp", "displays disp ON d.device_id = disp.device_id", ""},
	{"tm", "techn_matr tm ON disp.techn_matr_id = tm.techn_matr_id", "disp"},
	{"os", "operating_systems os ON d.os_id = os.os_id", ""},
	{"osn", "os_name osn ON os.os_name_id = osn.os_name_id", "os"},
}

// strictJoins are inner joins in JoinStrict mode.
var strictJoins = map[string]bool{
	"m": true, "co": true, "c": true, "col": true,
	"s": true, "st": true, "pm": true, "disp": true,
}

type dimensionDef struct {
	name       Dimension
	table      string
	idExpr     string // selected key, on the dimension's alias
	labelExpr  string
	filterExpr string // foreign-key column compared in searches
	joins      []string
	searchable bool
}

var dimensionDefs = []dimensionDef{
	{DimCategory, "categories", "c.category_id", "c.name", "d.category_id", []string{"c"}, true},
	{DimManufacturer, "manufacturers", "m.manufacturer_id", "m.name", "d.manufacturer_id", []string{"m"}, true},
	{DimColor, "color", "col.color_id", "col.name", "d.color_id", []string{"col"}, true},
	{DimCountry, "country", "co.country_id", "co.name", "m.country_id", []string{"co"}, true},
	{DimStorageType, "storage_type", "st.storage_type_id", "st.name", "s.storage_type_id", []string{"st"}, true},
	{DimProcessorModel, "proc_model", "pm.proc_model_id", "pm.name", "s.proc_model_id", []string{"pm"}, true},
	{DimDisplayTechnology, "techn_matr", "tm.techn_matr_id", "tm.name", "disp.techn_matr_id", []string{"tm"}, true},
	{DimOperatingSystem, "operating_systems", "os.os_id", "osn.name", "d.os_id", []string{"osn"}, true},
	{DimRetailer, "retailers", "r.retailer_id", "r.name", "", nil, false},
}

func lookupDimension(d Dimension) (dimensionDef, bool) {
	for _, def := range dimensionDefs {
		if def.name == d {
			return def, true
		}
	}
	return dimensionDef{}, false
}

// SearchDimensions returns the dimensions Search and FacetOptions accept.
func SearchDimensions() []Dimension {
	var out []Dimension
	for _, def := range dimensionDefs {
		if def.searchable {
			out = append(out, def.name)
		}
	}
	return out
}

func searchDimension(d Dimension) (dimensionDef, error) {
	def, ok := lookupDimension(d)
	if !ok || !def.searchable {
		return dimensionDef{}, &ValidationError{Field: "dimension", Value: string(d), Message: "must be one of: " + joinDimensions(SearchDimensions())}
	}
	return def, nil
}

func joinDimensions(ds []Dimension) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

// buildJoins emits JOIN clauses for the needed aliases and their
// prerequisites, in joinOrder.
func buildJoins(needed []string, kind func(alias string) string) string {
	want := make(map[string]bool)
	var add func(alias string)
	add = func(alias string) {
		if want[alias] {
			return
		}
		want[alias] = true
		for _, j := range joinOrder {
			if j.alias == alias && j.requires != "" {
				add(j.requires)
			}
		}
	}
	for _, a := range needed {
		add(a)
	}

	var b strings.Builder
	for _, j := range joinOrder {
		if want[j.alias] {
			fmt.Fprintf(&b, "\n\t\t%s %s", kind(j.alias), j.clause)
		}
	}
	return b.String()
}

// filterParams turns dimension filters into "<fk> = $n" clauses in a fixed
// dimension order. skip is excluded.
func filterParams(filters map[Dimension]string, skip Dimension, argStart int) ([]string, []any, []string, error) {
	var (
		conds   []string
		args    []any
		aliases []string
	)

	dims := make([]Dimension, 0, len(filters))
	for d := range filters {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })

	for _, d := range dims {
		raw := strings.TrimSpace(filters[d])
		if d == skip || raw == "" || strings.EqualFold(raw, AllValues) {
			continue
		}
		def, err := searchDimension(d)
		if err != nil {
			return nil, nil, nil, err
		}
		key, err := ParseKey(raw)
		if err != nil {
			return nil, nil, nil, &ValidationError{Field: string(d), Value: raw, Message: "malformed key"}
		}
		args = append(args, key)
		conds = append(conds, fmt.Sprintf("%s = $%d", def.filterExpr, argStart+len(args)-1))
		aliases = append(aliases, strings.SplitN(def.filterExpr, ".", 2)[0])
	}
	return conds, args, aliases, nil
}

// SearchRequest filters devices. Filter values are dimension keys or "all".
type SearchRequest struct {
	Filters  map[Dimension]string
	PriceMin string
	PriceMax string
	Mode     SearchMode
	Limit    int
}

// SearchResult is one device row of a search.
type SearchResult struct {
	DeviceID          int64    `json:"deviceId"`
	Model             string   `json:"model"`
	Manufacturer      *string  `json:"manufacturer"`
	Category          *string  `json:"category"`
	Country           *string  `json:"country"`
	Price             *float64 `json:"price"`
	Color             *string  `json:"color"`
	Waterproof        *bool    `json:"waterproof"`
	StorageGB         *int64   `json:"storageGb"`
	StorageType       *string  `json:"storageType"`
	ProcessorModel    *string  `json:"processorModel"`
	DiagonalInches    *float64 `json:"diagonalInches"`
	DisplayTechnology *string  `json:"displayTechnology"`
	OperatingSystem   *string  `json:"operatingSystem"`
}

const searchColumns = `
		d.device_id, d.model, m.name, c.name, co.name, d.current_price,
		col.name, d.is_waterproof, s.storage_gb, st.name, pm.name,
		disp.diagonal_inches, tm.name, osn.name`

var searchJoins = []string{"m", "co", "c", "col", "s", "st", "pm", "disp", "tm", "os", "osn"}

func buildSearch(req SearchRequest) (string, []any, error) {
	mode := req.Mode
	if mode == "" {
		mode = JoinStrict
	}
	if mode != JoinStrict && mode != JoinLoose {
		return "", nil, &ValidationError{Field: "mode", Value: string(mode), Message: "must be one of: strict, loose"}
	}

	kind := func(alias string) string {
		if mode == JoinStrict && strictJoins[alias] {
			return "JOIN"
		}
		return "LEFT JOIN"
	}

	conds, args, _, err := filterParams(req.Filters, "", 1)
	if err != nil {
		return "", nil, err
	}

	for _, p := range []struct {
		field, raw, op string
	}{
		{"price_min", req.PriceMin, ">="},
		{"price_max", req.PriceMax, "<="},
	} {
		if strings.TrimSpace(p.raw) == "" {
			continue
		}
		n := ToPgNumeric(p.raw)
		if !n.Valid {
			return "", nil, &ValidationError{Field: p.field, Value: p.raw, Message: "invalid number"}
		}
		args = append(args, n)
		conds = append(conds, fmt.Sprintf("d.current_price %s $%d", p.op, len(args)))
	}

	var b strings.Builder
	b.WriteString("\n\t\tSELECT")
	b.WriteString(searchColumns)
	b.WriteString("\n\t\tFROM devices d")
	b.WriteString(buildJoins(searchJoins, kind))
	if len(conds) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(conds, "\n\t\t  AND "))
	}
	b.WriteString("\n\t\tORDER BY LOWER(d.model), d.device_id")
	if req.Limit > 0 {
		args = append(args, req.Limit)
		fmt.Fprintf(&b, "\n\t\tLIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

// Search returns devices matching every non-"all" filter, ordered
// case-insensitively by model. No match is an empty slice.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	query, args, err := buildSearch(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyDBError("search", "devices", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchResult, error) {
		var r SearchResult
		err := row.Scan(&r.DeviceID, &r.Model, &r.Manufacturer, &r.Category, &r.Country, &r.Price,
			&r.Color, &r.Waterproof, &r.StorageGB, &r.StorageType, &r.ProcessorModel,
			&r.DiagonalInches, &r.DisplayTechnology, &r.OperatingSystem)
		return r, err
	})
	if err != nil {
		return nil, classifyDBError("search", "devices", err)
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// Option is one selectable dimension value.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func buildFacet(target Dimension, filters map[Dimension]string) (string, []any, error) {
	def, err := searchDimension(target)
	if err != nil {
		return "", nil, err
	}
	conds, args, aliases, err := filterParams(filters, target, 1)
	if err != nil {
		return "", nil, err
	}

	needed := append(append([]string(nil), def.joins...), aliases...)
	inner := func(string) string { return "JOIN" }

	var b strings.Builder
	fmt.Fprintf(&b, "\n\t\tSELECT DISTINCT %s, %s\n\t\tFROM devices d", def.idExpr, def.labelExpr)
	b.WriteString(buildJoins(needed, inner))
	if len(conds) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(conds, "\n\t\t  AND "))
	}
	fmt.Fprintf(&b, "\n\t\tORDER BY %s, %s", def.labelExpr, def.idExpr)
	return b.String(), args, nil
}

// FacetOptions returns the values of target that occur on at least one
// device matching filters. A filter on target itself is ignored so the
// current choice can still be changed.
func (s *Service) FacetOptions(ctx context.Context, target Dimension, filters map[Dimension]string) ([]Option, error) {
	query, args, err := buildFacet(target, filters)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return collectOptions(ctx, s.db, "facet options", query, args...)
}

// AvailableValues returns the values of target that co-occur with
// otherValue of other among existing devices. "all" applies no filter.
func (s *Service) AvailableValues(ctx context.Context, target, other Dimension, otherValue string) ([]Option, error) {
	return s.FacetOptions(ctx, target, map[Dimension]string{other: otherValue})
}

func optionsQuery(d Dimension) (string, error) {
	def, ok := lookupDimension(d)
	if !ok {
		return "", &ValidationError{Field: "dimension", Value: string(d), Message: "unknown dimension"}
	}
	if d == DimOperatingSystem {
		return `
		SELECT os.os_id, COALESCE(osn.name, '') || COALESCE(' ' || os.latest_version, '')
		FROM operating_systems os
		LEFT JOIN os_name osn ON os.os_name_id = osn.os_name_id
		ORDER BY 2, 1`, nil
	}
	alias := strings.SplitN(def.idExpr, ".", 2)[0]
	return fmt.Sprintf("SELECT %s, %s FROM %s %s ORDER BY %s, %s",
		def.idExpr, def.labelExpr, def.table, alias, def.labelExpr, def.idExpr), nil
}

// Options lists every row of a dimension table, used or not.
func (s *Service) Options(ctx context.Context, d Dimension) ([]Option, error) {
	query, err := optionsQuery(d)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return collectOptions(ctx, s.db, "options", query)
}

// FormOptions loads every dimension list concurrently. The service must be
// backed by a pool for the queries to overlap.
func (s *Service) FormOptions(ctx context.Context) (map[Dimension][]Option, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		result = make(map[Dimension][]Option, len(dimensionDefs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, def := range dimensionDefs {
		d := def.name
		g.Go(func() error {
			query, err := optionsQuery(d)
			if err != nil {
				return err
			}
			opts, err := collectOptions(gctx, s.db, "options", query)
			if err != nil {
				return err
			}
			mu.Lock()
			result[d] = opts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectOptions(ctx context.Context, q DBTX, op, query string, args ...any) ([]Option, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyDBError(op, "", err)
	}
	opts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Option, error) {
		var (
			o    Option
			name *string
		)
		if err := row.Scan(&o.ID, &name); err != nil {
			return o, err
		}
		if name != nil {
			o.Name = *name
		}
		return o, nil
	})
	if err != nil {
		return nil, classifyDBError(op, "", err)
	}
	if opts == nil {
		opts = []Option{}
	}
	return opts, nil
}
