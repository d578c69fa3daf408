package core

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DimensionStat is one group of StatsByDimension.
type DimensionStat struct {
	Key          int64    `json:"key"`
	Label        string   `json:"label"`
	DeviceCount  int64    `json:"deviceCount"`
	InStockCount int64    `json:"inStockCount"`
	MinPrice     *float64 `json:"minPrice"`
	AvgPrice     *float64 `json:"avgPrice"`
	MaxPrice     *float64 `json:"maxPrice"`
}

// Device-grouped dimensions price by devices.current_price and count a
// device in stock when any of its offers is in stock.
const deviceStatColumns = `
		COUNT(DISTINCT d.device_id),
		COUNT(DISTINCT d.device_id) FILTER (WHERE EXISTS (
			SELECT 1 FROM device_retailers dr
			WHERE dr.device_id = d.device_id AND dr.in_stock
		)),
		MIN(d.current_price), AVG(d.current_price), MAX(d.current_price)`

var statsQueries = map[Dimension]string{
	DimCategory: `
		SELECT c.category_id, c.name,` + deviceStatColumns + `
		FROM categories c
		JOIN devices d ON d.category_id = c.category_id
		GROUP BY c.category_id, c.name
		HAVING COUNT(d.device_id) > 0
		ORDER BY c.name, c.category_id`,

	DimManufacturer: `
		SELECT m.manufacturer_id, m.name,` + deviceStatColumns + `
		FROM manufacturers m
		JOIN devices d ON d.manufacturer_id = m.manufacturer_id
		GROUP BY m.manufacturer_id, m.name
		HAVING COUNT(d.device_id) > 0
		ORDER BY m.name, m.manufacturer_id`,

	DimCountry: `
		SELECT co.country_id, co.name,` + deviceStatColumns + `
		FROM country co
		JOIN manufacturers m ON m.country_id = co.country_id
		JOIN devices d ON d.manufacturer_id = m.manufacturer_id
		GROUP BY co.country_id, co.name
		HAVING COUNT(d.device_id) > 0
		ORDER BY co.name, co.country_id`,

	// Retailers price by their own offers and count what they list in stock.
	DimRetailer: `
		SELECT r.retailer_id, r.name,
		       COUNT(DISTINCT dr.device_id),
		       COUNT(DISTINCT dr.device_id) FILTER (WHERE dr.in_stock),
		       MIN(dr.price), AVG(dr.price), MAX(dr.price)
		FROM retailers r
		JOIN device_retailers dr ON dr.retailer_id = r.retailer_id
		GROUP BY r.retailer_id, r.name
		HAVING COUNT(dr.device_id) > 0
		ORDER BY r.name, r.retailer_id`,
}

// StatDimensions lists the dimensions StatsByDimension accepts.
func StatDimensions() []Dimension {
	return []Dimension{DimCategory, DimManufacturer, DimCountry, DimRetailer}
}

// StatsByDimension groups devices by dim. Groups without devices never
// appear; an empty catalog yields an empty slice.
func (s *Service) StatsByDimension(ctx context.Context, dim Dimension) ([]DimensionStat, error) {
	query, ok := statsQueries[dim]
	if !ok {
		return nil, &ValidationError{Field: "dimension", Value: string(dim), Message: "must be one of: " + joinDimensions(StatDimensions())}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, classifyDBError("stats", string(dim), err)
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DimensionStat, error) {
		var (
			st    DimensionStat
			label *string
		)
		err := row.Scan(&st.Key, &label, &st.DeviceCount, &st.InStockCount, &st.MinPrice, &st.AvgPrice, &st.MaxPrice)
		if label != nil {
			st.Label = *label
		}
		return st, err
	})
	if err != nil {
		return nil, classifyDBError("stats", string(dim), err)
	}
	if stats == nil {
		stats = []DimensionStat{}
	}
	return stats, nil
}
