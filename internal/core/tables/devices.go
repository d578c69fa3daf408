package tables

import "github.com/JonMunkholm/catalog/internal/core"

func init() {
	registerDevices()
	registerSpecifications()
	registerDisplays()
	registerCameras()
	registerBatteries()
	registerDeviceRetailers()
}

func registerDevices() {
	core.Register(core.TableRules{
		Table: "devices",
		Group: "Catalog",
		Label: "Devices",
		Rules: []core.ColumnRule{
			{Column: "model", Type: core.FieldText, Required: true, MaxLen: 200},
			{Column: "manufacturer_id", Type: core.FieldRef, Required: true},
			{Column: "category_id", Type: core.FieldRef, Required: true},
			{Column: "os_id", Type: core.FieldRef},
			{Column: "color_id", Type: core.FieldRef},
			{Column: "created_by", Type: core.FieldRef},
			{Column: "release_date", Type: core.FieldDate},
			{Column: "current_price", Type: core.FieldNumeric, Min: core.Ptr(0)},
			{Column: "weight_grams", Type: core.FieldInt, Min: core.Ptr(1), Max: core.Ptr(100000)},
			{Column: "is_waterproof", Type: core.FieldBool},
			{Column: "warranty_months", Type: core.FieldInt, Min: core.Ptr(0), Max: core.Ptr(120)},
		},
	})
}

func registerSpecifications() {
	core.Register(core.TableRules{
		Table: "specifications",
		Group: "Device records",
		Label: "Specifications",
		Rules: []core.ColumnRule{
			{Column: "device_id", Type: core.FieldRef},
			{Column: "proc_model_id", Type: core.FieldRef},
			{Column: "processor_cores", Type: core.FieldInt, Min: core.Ptr(1), Max: core.Ptr(256)},
			{Column: "ram_gb", Type: core.FieldInt, Min: core.Ptr(0), Max: core.Ptr(4096)},
			{Column: "storage_gb", Type: core.FieldInt, Min: core.Ptr(0)},
			{Column: "storage_type_id", Type: core.FieldRef},
		},
	})
}

func registerDisplays() {
	core.Register(core.TableRules{
		Table: "displays",
		Group: "Device records",
		Label: "Displays",
		Rules: []core.ColumnRule{
			{Column: "device_id", Type: core.FieldRef},
			{Column: "diagonal_inches", Type: core.FieldNumeric, Min: core.Ptr(0.5), Max: core.Ptr(120)},
			{Column: "resolution", Type: core.FieldText, MaxLen: 50},
			{Column: "techn_matr_id", Type: core.FieldRef},
			{Column: "refresh_rate_hz", Type: core.FieldInt, Min: core.Ptr(1), Max: core.Ptr(1000)},
			{Column: "brightness_nits", Type: core.FieldInt, Min: core.Ptr(0)},
		},
	})
}

func registerCameras() {
	core.Register(core.TableRules{
		Table: "cameras",
		Group: "Device records",
		Label: "Cameras",
		Rules: []core.ColumnRule{
			{Column: "device_id", Type: core.FieldRef},
			{Column: "megapixels_main", Type: core.FieldNumeric, Min: core.Ptr(0)},
			{Column: "aperture_main", Type: core.FieldText, MaxLen: 20},
			{Column: "optical_zoom_x", Type: core.FieldNumeric, Min: core.Ptr(0)},
			{Column: "video_resolution", Type: core.FieldText, MaxLen: 50},
			{Column: "has_ai_enhance", Type: core.FieldBool},
		},
	})
}

func registerBatteries() {
	core.Register(core.TableRules{
		Table: "batteries",
		Group: "Device records",
		Label: "Batteries",
		Rules: []core.ColumnRule{
			{Column: "device_id", Type: core.FieldRef},
			{Column: "capacity_mah", Type: core.FieldInt, Min: core.Ptr(1)},
			{Column: "fast_charging_w", Type: core.FieldInt, Min: core.Ptr(0)},
			{Column: "wireless_charging", Type: core.FieldBool},
			{Column: "estimated_life_hours", Type: core.FieldNumeric, Min: core.Ptr(0)},
		},
	})
}

func registerDeviceRetailers() {
	core.Register(core.TableRules{
		Table: "device_retailers",
		Group: "Device records",
		Label: "Offers",
		Rules: []core.ColumnRule{
			{Column: "device_id", Type: core.FieldRef},
			{Column: "retailer_id", Type: core.FieldRef},
			{Column: "price", Type: core.FieldNumeric, Min: core.Ptr(0)},
			{Column: "in_stock", Type: core.FieldBool},
			{Column: "last_updated", Type: core.FieldDate},
		},
	})
}
