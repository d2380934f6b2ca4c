package layout

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidTemplate marks a malformed CanvasTemplate. It is fatal: no
// fragment processing happens with an invalid template.
var ErrInvalidTemplate = errors.New("invalid template")

// CellSize is a width and height in pixels.
type CellSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (s CellSize) positive() bool { return s.Width > 0 && s.Height > 0 }

// RegionTemplate describes one band of the page: up to three cell shapes and
// the ordered tags that lay out every row of the band. The tag count is the
// band's column count.
type RegionTemplate struct {
	Primary   CellSize  `json:"primary" yaml:"primary"`
	Secondary CellSize  `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Tertiary  CellSize  `json:"tertiary,omitempty" yaml:"tertiary,omitempty"`
	Tags      []RowType `json:"tags" yaml:"tags"`
}

// Columns returns the number of cells in each row.
func (r RegionTemplate) Columns() int { return len(r.Tags) }

// Size returns the cell size a tag selects.
func (r RegionTemplate) Size(rt RowType) CellSize {
	switch rt.Shape() {
	case Secondary:
		return r.Secondary
	case Tertiary:
		return r.Tertiary
	}
	return r.Primary
}

// RowWidth is the sum of the cell widths of one row.
func (r RegionTemplate) RowWidth() float64 {
	var w float64
	for _, rt := range r.Tags {
		w += r.Size(rt).Width
	}
	return w
}

// RowHeight is the height of one row: the tallest shape the tags reference.
// Every cell of the row spans this height so the row tiles without gaps.
func (r RegionTemplate) RowHeight() float64 {
	var h float64
	for _, rt := range r.Tags {
		h = math.Max(h, r.Size(rt).Height)
	}
	return h
}

// ColumnEdges returns the x offsets of the column boundaries relative to the
// row's left edge: Columns()+1 values starting at 0, each the cumulative
// width of the preceding cells. Adjacent cells share the same edge value.
func (r RegionTemplate) ColumnEdges() []float64 {
	out := make([]float64, len(r.Tags)+1)
	for i, rt := range r.Tags {
		out[i+1] = out[i] + r.Size(rt).Width
	}
	return out
}

// SmallestDimension returns the smallest width or height among the shapes
// the tags reference.
func (r RegionTemplate) SmallestDimension() float64 {
	smallest := math.Inf(1)
	for _, rt := range r.Tags {
		s := r.Size(rt)
		smallest = math.Min(smallest, math.Min(s.Width, s.Height))
	}
	return smallest
}

func (r RegionTemplate) validate(name string) error {
	if len(r.Tags) == 0 {
		return errors.Wrapf(ErrInvalidTemplate, "%s region has no row-type tags", name)
	}
	for i, rt := range r.Tags {
		if !rt.Valid() {
			return errors.Wrapf(ErrInvalidTemplate, "%s region tag %d is not a known row type", name, i)
		}
		if s := r.Size(rt); !s.positive() {
			return errors.Wrapf(ErrInvalidTemplate, "%s region %s cell size %gx%g is not positive",
				name, rt.Shape(), s.Width, s.Height)
		}
	}
	return nil
}

// CanvasTemplate is the immutable geometric description of a printed page:
// page size, margins and the header and body bands.
type CanvasTemplate struct {
	Page    CellSize       `json:"page" yaml:"page"`
	MarginX float64        `json:"margin_x" yaml:"margin_x"`
	MarginY float64        `json:"margin_y" yaml:"margin_y"`
	Header  RegionTemplate `json:"header" yaml:"header"`
	Body    RegionTemplate `json:"body" yaml:"body"`
}

// NewCanvasTemplate builds and validates a template. The tag slices are
// copied so later changes by the caller cannot alter the template.
func NewCanvasTemplate(page CellSize, marginX, marginY float64, header, body RegionTemplate) (CanvasTemplate, error) {
	header.Tags = append([]RowType(nil), header.Tags...)
	body.Tags = append([]RowType(nil), body.Tags...)
	t := CanvasTemplate{Page: page, MarginX: marginX, MarginY: marginY, Header: header, Body: body}
	if err := t.Validate(); err != nil {
		return CanvasTemplate{}, err
	}
	return t, nil
}

// Validate checks cell sizes, tags and that one row of each band fits on
// the page inside the margins.
func (t CanvasTemplate) Validate() error {
	return t.ValidateRows(Rows{Header: 1, Body: 1})
}

// ValidateRows is Validate for a specific number of rows per band.
func (t CanvasTemplate) ValidateRows(rows Rows) error {
	if !t.Page.positive() {
		return errors.Wrapf(ErrInvalidTemplate, "page size %gx%g is not positive", t.Page.Width, t.Page.Height)
	}
	if t.MarginX < 0 || t.MarginY < 0 {
		return errors.Wrapf(ErrInvalidTemplate, "margins %g/%g are negative", t.MarginX, t.MarginY)
	}
	if err := t.Header.validate("header"); err != nil {
		return err
	}
	if err := t.Body.validate("body"); err != nil {
		return err
	}
	if rows.Header < 1 || rows.Body < 1 {
		return errors.Wrapf(ErrInvalidTemplate, "row counts %d/%d must be at least 1", rows.Header, rows.Body)
	}

	usableW := t.Page.Width - 2*t.MarginX
	usableH := t.Page.Height - 2*t.MarginY
	for _, band := range []struct {
		name   string
		region RegionTemplate
	}{{"header", t.Header}, {"body", t.Body}} {
		if w := band.region.RowWidth(); w > usableW {
			return errors.Wrapf(ErrInvalidTemplate, "%s region width %g exceeds usable page width %g",
				band.name, w, usableW)
		}
	}
	if h := t.Extent(rows).Height; h > usableH {
		return errors.Wrapf(ErrInvalidTemplate, "template height %g exceeds usable page height %g", h, usableH)
	}
	return nil
}

// Extent returns the total size covered by both bands for the given rows.
func (t CanvasTemplate) Extent(rows Rows) CellSize {
	return CellSize{
		Width:  math.Max(t.Header.RowWidth(), t.Body.RowWidth()),
		Height: float64(rows.Header)*t.Header.RowHeight() + float64(rows.Body)*t.Body.RowHeight(),
	}
}

// SmallestDimension returns the smallest referenced cell dimension across
// both bands.
func (t CanvasTemplate) SmallestDimension() float64 {
	return math.Min(t.Header.SmallestDimension(), t.Body.SmallestDimension())
}

// Rows is the number of tag-sequence repetitions in each band.
type Rows struct {
	Header int `json:"header" yaml:"header"`
	Body   int `json:"body" yaml:"body"`
}
