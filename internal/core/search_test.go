package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildSearch_NoFilters(t *testing.T) {
	query, args, err := buildSearch(SearchRequest{})
	if err != nil {
		t.Fatalf("buildSearch() error = %v", err)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
	if strings.Contains(query, "WHERE") {
		t.Errorf("query has WHERE without filters:\n%s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY LOWER(d.model), d.device_id") {
		t.Errorf("query ordering:\n%s", query)
	}
}

func TestBuildSearch_AllMeansNoFilter(t *testing.T) {
	_, args, err := buildSearch(SearchRequest{Filters: map[Dimension]string{
		DimCategory:     "all",
		DimManufacturer: "ALL",
		DimColor:        "",
	}})
	if err != nil {
		t.Fatalf("buildSearch() error = %v", err)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuildSearch_FiltersCompareForeignKeys(t *testing.T) {
	query, args, err := buildSearch(SearchRequest{
		Filters: map[Dimension]string{
			DimManufacturer: "2",
			DimCategory:     "1",
			DimCountry:      "4",
			DimStorageType:  "3",
		},
		PriceMin: "100",
		PriceMax: "1 000",
	})
	if err != nil {
		t.Fatalf("buildSearch() error = %v", err)
	}

	// Filters are emitted in dimension name order.
	for _, cond := range []string{
		"d.category_id = $1",
		"m.country_id = $2",
		"d.manufacturer_id = $3",
		"s.storage_type_id = $4",
		"d.current_price >= $5",
		"d.current_price <= $6",
	} {
		if !strings.Contains(query, cond) {
			t.Errorf("query missing %q:\n%s", cond, query)
		}
	}
	if !reflect.DeepEqual(args[:4], []any{int64(1), int64(4), int64(2), int64(3)}) {
		t.Errorf("filter args = %v", args[:4])
	}
	if len(args) != 6 {
		t.Errorf("len(args) = %d, want 6", len(args))
	}
}

func TestBuildSearch_Modes(t *testing.T) {
	strict, _, err := buildSearch(SearchRequest{Mode: JoinStrict})
	if err != nil {
		t.Fatal(err)
	}
	loose, _, err := buildSearch(SearchRequest{Mode: JoinLoose})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(strict, "\tJOIN specifications s") || !strings.Contains(strict, "\tJOIN displays disp") {
		t.Errorf("strict mode should inner join attribute tables:\n%s", strict)
	}
	if !strings.Contains(strict, "LEFT JOIN operating_systems os") {
		t.Errorf("operating system stays optional in strict mode:\n%s", strict)
	}
	if strings.Contains(loose, "\tJOIN ") {
		t.Errorf("loose mode should only left join:\n%s", loose)
	}

	if _, _, err := buildSearch(SearchRequest{Mode: "fuzzy"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown mode error = %v, want validation", err)
	}
}

func TestBuildSearch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"non-key filter", SearchRequest{Filters: map[Dimension]string{DimCategory: "1 OR 1=1"}}},
		{"zero key", SearchRequest{Filters: map[Dimension]string{DimColor: "0"}}},
		{"unknown dimension", SearchRequest{Filters: map[Dimension]string{"price": "1"}}},
		{"retailer is not searchable", SearchRequest{Filters: map[Dimension]string{DimRetailer: "1"}}},
		{"bad price", SearchRequest{PriceMin: "cheap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := buildSearch(tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("buildSearch() error = %v, want validation", err)
			}
		})
	}
}

func TestBuildSearch_Limit(t *testing.T) {
	query, args, err := buildSearch(SearchRequest{Filters: map[Dimension]string{DimColor: "5"}, Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(query, "LIMIT $2") || args[1] != 20 {
		t.Errorf("limit not applied: %s %v", query, args)
	}
}

func TestBuildFacet(t *testing.T) {
	query, args, err := buildFacet(DimCountry, map[Dimension]string{
		DimCategory: "1",
		DimCountry:  "9",
	})
	if err != nil {
		t.Fatalf("buildFacet() error = %v", err)
	}

	if !strings.HasPrefix(strings.TrimSpace(query), "SELECT DISTINCT co.country_id, co.name") {
		t.Errorf("facet select:\n%s", query)
	}
	// The target's own filter is ignored.
	if strings.Contains(query, "m.country_id = $") {
		t.Errorf("facet filtered on its own dimension:\n%s", query)
	}
	if !strings.Contains(query, "d.category_id = $1") || !reflect.DeepEqual(args, []any{int64(1)}) {
		t.Errorf("facet filter: %s %v", query, args)
	}
	// country needs manufacturers joined first.
	m := strings.Index(query, "JOIN manufacturers m")
	co := strings.Index(query, "JOIN country co")
	if m < 0 || co < 0 || m > co {
		t.Errorf("join order wrong:\n%s", query)
	}
	if strings.Contains(query, "LEFT JOIN") {
		t.Errorf("facets only list values that occur on devices:\n%s", query)
	}
}

func TestBuildFacet_PullsFilterJoins(t *testing.T) {
	query, _, err := buildFacet(DimCategory, map[Dimension]string{DimProcessorModel: "2"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "JOIN specifications s") {
		t.Errorf("processor filter needs specifications:\n%s", query)
	}
	if !strings.Contains(query, "s.proc_model_id = $1") {
		t.Errorf("filter missing:\n%s", query)
	}
}

func TestBuildFacet_UnknownTarget(t *testing.T) {
	if _, _, err := buildFacet("weight", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("buildFacet() error = %v, want validation", err)
	}
}

func TestOptionsQuery(t *testing.T) {
	q, err := optionsQuery(DimRetailer)
	if err != nil {
		t.Fatal(err)
	}
	if q != "SELECT r.retailer_id, r.name FROM retailers r ORDER BY r.name, r.retailer_id" {
		t.Errorf("optionsQuery(retailer) = %s", q)
	}

	q, err = optionsQuery(DimOperatingSystem)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(q, "LEFT JOIN os_name osn") {
		t.Errorf("optionsQuery(operating_system) = %s", q)
	}

	if _, err := optionsQuery("size"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown dimension error = %v", err)
	}
}

func TestSearchDimensions(t *testing.T) {
	dims := SearchDimensions()
	if len(dims) != 8 {
		t.Errorf("SearchDimensions() = %v", dims)
	}
	for _, d := range dims {
		if d == DimRetailer {
			t.Error("retailer must not be a search dimension")
		}
	}
}
