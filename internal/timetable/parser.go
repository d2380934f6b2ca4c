package timetable

import (
	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
)

// Parser reconstructs timetables with one fixed configuration.
type Parser struct {
	cfg    layout.Config
	policy MetadataPolicy
}

// Option customizes a Parser.
type Option func(*Parser)

// WithPolicy replaces the policy selected by the configuration.
func WithPolicy(policy MetadataPolicy) Option {
	return func(p *Parser) { p.policy = policy }
}

// NewParser validates cfg and resolves its metadata policy. Template
// problems surface here, before any document is read.
func NewParser(cfg layout.Config, opts ...Option) (*Parser, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := PolicyByName(cfg.Policy)
	if err != nil {
		return nil, err
	}

	p := &Parser{cfg: cfg, policy: policy}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the normalized configuration.
func (p *Parser) Config() layout.Config { return p.cfg }

// Cells lays out the empty grid for origin.
func (p *Parser) Cells(origin geometry.Point) ([]Cell, error) {
	return ComputeCells(origin, p.cfg.Template, p.cfg.Rows)
}

// Locate runs the anchor search on doc.
func (p *Parser) Locate(doc *fragment.Document) (Match, error) {
	return Locate(doc.Fragments, p.cfg.Anchor)
}

// Parse reconstructs the timetable of one document.
//
// The anchor fragment marks the layout and is excluded from assignment.
// Anchor, template and metadata failures are returned as errors; fragments
// no cell could take are listed in the result's Unassigned field.
func (p *Parser) Parse(doc *fragment.Document) (*ParsedTable, error) {
	match, err := p.Locate(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", doc.Source)
	}

	cells, err := p.Cells(match.Origin)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", doc.Source)
	}

	assigned := Assign(cells, doc.Without(match.Fragment.Index), AssignOptions{
		Tolerance: p.cfg.Tolerance,
		Workers:   p.cfg.Workers,
	})

	table, err := Assemble(assigned.Cells, p.policy)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", doc.Source)
	}
	table.Origin = match.Origin
	table.Unassigned = assigned.Unassigned
	return table, nil
}

// Rectangles re-derives the empty grid a table was assembled from, using
// the table's recorded origin.
func (p *Parser) Rectangles(t *ParsedTable) ([]geometry.Rect, error) {
	cells, err := p.Cells(t.Origin)
	if err != nil {
		return nil, err
	}
	out := make([]geometry.Rect, len(cells))
	for i, c := range cells {
		out[i] = c.Rect
	}
	return out, nil
}
