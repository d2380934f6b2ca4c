package timetable

import (
	"fmt"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
)

// Region identifies one band of the page.
type Region int

const (
	Header Region = iota
	Body
)

func (r Region) String() string {
	switch r {
	case Header:
		return "header"
	case Body:
		return "body"
	}
	return fmt.Sprintf("region(%d)", int(r))
}

// MarshalText encodes the region by name.
func (r Region) MarshalText() ([]byte, error) {
	if r != Header && r != Body {
		return nil, fmt.Errorf("invalid region %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes "header" or "body".
func (r *Region) UnmarshalText(text []byte) error {
	switch string(text) {
	case "header":
		*r = Header
	case "body":
		*r = Body
	default:
		return fmt.Errorf("unknown region %q", text)
	}
	return nil
}

// Cell is one rectangular slot of the reconstructed grid.
type Cell struct {
	// ID is the cell's position in ComputeCells order: header cells row-major,
	// then body cells row-major.
	ID     int            `json:"id"`
	Region Region         `json:"region"`
	Row    int            `json:"row"`
	Column int            `json:"column"`
	Tag    layout.RowType `json:"tag"`
	Rect   geometry.Rect  `json:"rect"`

	// Text is the space-joined text of the assigned fragments in reading order.
	Text string `json:"text"`

	// Fragments lists the indexes of the assigned fragments in reading order.
	Fragments []int `json:"fragments,omitempty"`
}

// ComputeCells lays out the empty grid for a template anchored at origin.
//
// The header band starts at origin; the body band starts directly beneath
// the header's last row. Within a band, the cell at row r, column c has the
// width of the shape selected by tag c and the band's row height, and its
// top-left corner is the cumulative width of the preceding columns and the
// cumulative height of the preceding rows. The result depends only on the
// arguments.
func ComputeCells(origin geometry.Point, tpl layout.CanvasTemplate, rows layout.Rows) ([]Cell, error) {
	if err := tpl.ValidateRows(rows); err != nil {
		return nil, err
	}

	cells := make([]Cell, 0, rows.Header*tpl.Header.Columns()+rows.Body*tpl.Body.Columns())
	top := origin.Y
	for _, band := range []struct {
		region Region
		tpl    layout.RegionTemplate
		rows   int
	}{
		{Header, tpl.Header, rows.Header},
		{Body, tpl.Body, rows.Body},
	} {
		edges := band.tpl.ColumnEdges()
		height := band.tpl.RowHeight()
		for r := 0; r < band.rows; r++ {
			y1 := top + float64(r)*height
			y2 := top + float64(r+1)*height
			for c, tag := range band.tpl.Tags {
				cells = append(cells, Cell{
					ID:     len(cells),
					Region: band.region,
					Row:    r,
					Column: c,
					Tag:    tag,
					Rect: geometry.Rect{
						X1: origin.X + edges[c],
						Y1: y1,
						X2: origin.X + edges[c+1],
						Y2: y2,
					},
				})
			}
		}
		top += float64(band.rows) * height
	}
	return cells, nil
}
