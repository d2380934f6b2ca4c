package timetable

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// ParsedTable is the reconstructed timetable for one document.
type ParsedTable struct {
	// Meta holds extracted metadata; it always contains RoomKey on success
	// with the default policy.
	Meta map[string]string `json:"meta"`

	// Origin is the template origin the grid was laid out from.
	Origin geometry.Point `json:"origin"`

	// Header and Body are row-major cell matrices of each band.
	Header [][]Cell `json:"header"`
	Body   [][]Cell `json:"body"`

	// Unassigned lists the fragments no cell took.
	Unassigned []UnassignedFragment `json:"unassigned,omitempty"`
}

// Rows returns header rows followed by body rows.
func (t *ParsedTable) Rows() [][]Cell {
	out := make([][]Cell, 0, len(t.Header)+len(t.Body))
	out = append(out, t.Header...)
	return append(out, t.Body...)
}

// Cells returns every cell in id order.
func (t *ParsedTable) Cells() []Cell {
	var out []Cell
	for _, row := range t.Rows() {
		out = append(out, row...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Grid returns the cell texts of all rows, header first.
func (t *ParsedTable) Grid() [][]string {
	rows := t.Rows()
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Text
		}
	}
	return out
}

// Room returns the room identifier, if any.
func (t *ParsedTable) Room() string { return t.Meta[RoomKey] }

// Assemble groups cells into the header and body matrices and extracts
// metadata with policy (DefaultPolicy when nil).
//
// Every row of a band must carry the same columns; a hole or duplicate
// position yields ErrInvalidTemplate. A policy failure is returned as is,
// normally wrapping ErrMetadataMissing.
func Assemble(cells []Cell, policy MetadataPolicy) (*ParsedTable, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}

	header, err := band(cells, Header)
	if err != nil {
		return nil, err
	}
	body, err := band(cells, Body)
	if err != nil {
		return nil, err
	}

	t := &ParsedTable{Header: header, Body: body}
	meta, err := policy.Extract(t)
	if err != nil {
		return nil, err
	}
	t.Meta = meta
	return t, nil
}

func band(cells []Cell, region Region) ([][]Cell, error) {
	rows, cols := 0, 0
	for _, c := range cells {
		if c.Region != region {
			continue
		}
		if c.Row < 0 || c.Column < 0 {
			return nil, errors.Wrapf(ErrInvalidTemplate, "%s cell %d has a negative position", region, c.ID)
		}
		rows = max(rows, c.Row+1)
		cols = max(cols, c.Column+1)
	}

	grid := make([][]Cell, rows)
	seen := make([][]bool, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		seen[r] = make([]bool, cols)
	}
	for _, c := range cells {
		if c.Region != region {
			continue
		}
		if seen[c.Row][c.Column] {
			return nil, errors.Wrapf(ErrInvalidTemplate, "%s cell (%d,%d) appears twice", region, c.Row, c.Column)
		}
		seen[c.Row][c.Column] = true
		grid[c.Row][c.Column] = c
	}
	for r := range seen {
		for c, ok := range seen[r] {
			if !ok {
				return nil, errors.Wrapf(ErrInvalidTemplate, "%s row %d is missing column %d", region, r, c)
			}
		}
	}
	return grid, nil
}
