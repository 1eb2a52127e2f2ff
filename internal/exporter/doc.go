// Package exporter writes pricing results to files.
//
// Three components:
//
// CSVWriter: core CSV writing with headers, streaming, and a UTF-8 BOM for
// Excel compatibility.
//
// BoundaryExporter and GridExporter: shape pricing results into the boundary
// and value-grid CSV layouts.
//
// WorkbookExporter: writes a full xlsx workbook with Summary, Boundary and
// ValueGrid sheets.
package exporter
