// Package tables registers the column rules of the catalog tables with the
// core registry. Import it for side effects wherever a core.Service writes
// catalog rows.
package tables
