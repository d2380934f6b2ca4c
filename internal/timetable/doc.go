// Package timetable reconstructs a structured timetable from a flat list of
// OCR text fragments using a page-layout template known in advance.
//
// Recognized text carries no row or column membership, so the grid is
// inferred purely from geometry. The pipeline runs strictly forward:
//
//  1. Locate finds the single fragment whose text equals the configured
//     anchor identifier. Its top-left vertex plus the anchor offset is the
//     template origin.
//  2. ComputeCells tiles the header band from the origin and the body band
//     directly beneath it, producing one rectangle per (region, row, column).
//  3. Assign attaches every fragment to at most one cell by its polygon
//     centroid and orders each cell's fragments top-to-bottom then
//     left-to-right.
//  4. Assemble groups the cells into a row-major grid and extracts metadata
//     (the room identifier by default) through a pluggable MetadataPolicy.
//
// Parser wires the four steps together for one Document.
//
// # Assignment Rules
//
// For each fragment centroid, in priority order:
//
//   - strictly inside exactly one cell: that cell;
//   - on the closed edge of one or more cells: the cell sharing the larger
//     intersection area with the fragment's bounding box, ties broken by the
//     topmost then leftmost cell;
//   - outside every cell: the nearest cell when within the tolerance
//     (default half the smallest cell dimension), otherwise the fragment is
//     reported as an UnassignedFragment.
//
// # Errors
//
// ErrInvalidTemplate, ErrAnchorNotFound, ErrAmbiguousAnchor and
// ErrMetadataMissing are fatal for the document and are returned from
// Parse. Unassignable fragments are not errors for the document: they are
// collected in ParsedTable.Unassigned and each matches
// ErrFragmentUnassignable under errors.Is.
//
// # Concurrency
//
// Nothing in this package performs I/O or keeps package-level mutable state.
// Cell rectangles are computed once per document and only read afterwards.
// Assign may split fragments across goroutines; results are merged by cell
// id and re-sorted by the fixed reading order, so output never depends on
// goroutine scheduling. A Parser can be shared by concurrent callers.
package timetable
