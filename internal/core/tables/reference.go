package tables

import "github.com/JonMunkholm/catalog/internal/core"

// nameOnly registers a lookup table whose only editable column is its name.
func nameOnly(table, label string) {
	core.Register(core.TableRules{
		Table: table,
		Group: "Reference",
		Label: label,
		Rules: []core.ColumnRule{
			{Column: "name", Type: core.FieldText, Required: true, MaxLen: 100},
		},
	})
}

func init() {
	nameOnly("categories", "Categories")
	nameOnly("country", "Countries")
	nameOnly("os_name", "OS names")
	nameOnly("proc_model", "Processor models")
	nameOnly("storage_type", "Storage types")
	nameOnly("techn_matr", "Display technologies")

	core.Register(core.TableRules{
		Table: "manufacturers",
		Group: "Reference",
		Label: "Manufacturers",
		Rules: []core.ColumnRule{
			{Column: "name", Type: core.FieldText, Required: true, MaxLen: 100},
			{Column: "country_id", Type: core.FieldRef},
			{Column: "website", Type: core.FieldText, MaxLen: 255},
			{Column: "founded_year", Type: core.FieldInt, Min: core.Ptr(1800), Max: core.Ptr(2100)},
		},
	})

	core.Register(core.TableRules{
		Table: "color",
		Group: "Reference",
		Label: "Colors",
		Rules: []core.ColumnRule{
			{Column: "name", Type: core.FieldText, Required: true, MaxLen: 50},
			{Column: "hex_code", Type: core.FieldText, MaxLen: 7},
		},
	})

	core.Register(core.TableRules{
		Table: "operating_systems",
		Group: "Reference",
		Label: "Operating systems",
		Rules: []core.ColumnRule{
			{Column: "os_name_id", Type: core.FieldRef, Required: true},
			{Column: "developer", Type: core.FieldText, MaxLen: 100},
			{Column: "latest_version", Type: core.FieldText, MaxLen: 50},
			{Column: "release_date", Type: core.FieldDate},
		},
	})

	core.Register(core.TableRules{
		Table: "retailers",
		Group: "Reference",
		Label: "Retailers",
		Rules: []core.ColumnRule{
			{Column: "name", Type: core.FieldText, Required: true, MaxLen: 100},
			{Column: "website", Type: core.FieldText, MaxLen: 255},
		},
	})

	core.Register(core.TableRules{
		Table: "users",
		Group: "Access",
		Label: "Users",
		Rules: []core.ColumnRule{
			{Column: "username", Type: core.FieldText, Required: true, MaxLen: 100},
			{Column: "email", Type: core.FieldText, MaxLen: 255},
			{Column: "password_hash", Type: core.FieldText, Required: true},
			{Column: "is_active", Type: core.FieldBool},
			{Column: "is_admin", Type: core.FieldBool},
		},
	})
}
