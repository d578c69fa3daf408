// Package core is the schema-driven data manager behind the device catalog.
//
// It holds no domain state of its own: every operation reads the live
// database, and the same [Service] can be used by web handlers, CLI tools,
// or tests without modification.
//
// # Architecture
//
//   - Introspection: [Service.DescribeTable] reads columns and the primary key
//     from information_schema, so generic editing needs no per-table code.
//   - Editor: [Service.Insert], [Service.Update] and [Service.Delete] build
//     statements from the descriptor, quote every identifier, and pass every
//     value as a parameter.
//   - Reference guard: a fixed map of dependent columns is consulted before a
//     reference row is deleted ([Service.IsReferenced]).
//   - Device aggregate: [Service.DeleteDevice] removes a device and every row
//     it owns in one transaction; [Service.UpsertDependent] keeps at most one
//     attribute record per device and part.
//   - Faceted search and statistics: [Service.Search], [Service.FacetOptions]
//     and [Service.StatsByDimension] compose queries from a fixed set of
//     dimension tables.
//
// # Column Rules
//
// Catalog tables register value rules at init time using [Register]:
//
//	core.Register(core.TableRules{
//	    Table: "devices", Group: "Catalog", Label: "Devices",
//	    Rules: []core.ColumnRule{
//	        {Column: "model", Type: core.FieldText, Required: true, MaxLen: 200},
//	        {Column: "current_price", Type: core.FieldNumeric, Min: core.Ptr(0)},
//	    },
//	})
//
// Tables without rules are still checked against their column types.
//
// # Error Handling
//
// Every error matches one of [ErrSchema], [ErrIntegrity], [ErrValidation],
// [ErrTransient] or [ErrNotFound] with errors.Is. [MapError] turns them into
// user-facing messages with a support code:
//
//   - SCH001-SCH003: unknown tables and columns
//   - INT001-INT004: blocked deletes and constraint violations
//   - VAL000-VAL007: rejected values
//   - DB004-DB007: connection problems, timeouts and conflicts
//
// # Audit Logging
//
// Committed changes are recorded in admin_audit_log with severity levels:
//
//   - Low: inserts and device creation
//   - Medium: updates and saved offers
//   - High: row deletes, removed offers, admin changes
//   - Critical: device cascades
//
// Audit writes are best effort and never fail the change they describe.
package core
