package timetable

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
)

// scenarioConfig is the 2x2 layout: header cells 100x50, body cells 100x80,
// page 400x400, no margins, anchor "X" with no offset.
func scenarioConfig() layout.Config {
	return layout.Config{
		Template: layout.CanvasTemplate{
			Page: layout.CellSize{Width: 400, Height: 400},
			Header: layout.RegionTemplate{
				Primary: layout.CellSize{Width: 100, Height: 50},
				Tags:    []layout.RowType{layout.SingleDay, layout.SingleDay},
			},
			Body: layout.RegionTemplate{
				Primary: layout.CellSize{Width: 100, Height: 80},
				Tags:    []layout.RowType{layout.SingleDay, layout.SingleDay},
			},
		},
		Anchor: layout.Anchor{Identifier: "X"},
		Rows:   layout.Rows{Header: 1, Body: 1},
	}
}

// box builds a fragment whose bounding box is centered at (cx, cy).
func box(index int, text string, cx, cy, w, h float64) fragment.Fragment {
	return fragment.Fragment{
		Index:      index,
		Text:       text,
		Polygon:    geometry.RectPolygon(geometry.Rect{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2}),
		Confidence: 1,
	}
}

func scenarioDoc(extra ...fragment.Fragment) *fragment.Document {
	raw := []fragment.Fragment{box(0, "X", 20, 20, 20, 20)}
	raw = append(raw, extra...)
	return fragment.New("scenario", 400, 400, raw)
}

func TestLocate(t *testing.T) {
	frags := []fragment.Fragment{
		box(0, "x", 5, 5, 2, 2),
		box(1, "X", 20, 20, 20, 20),
		box(2, "XX", 50, 50, 2, 2),
	}

	m, err := Locate(frags, layout.Anchor{Identifier: "X", Offset: layout.Offset{X: 38, Y: 250}})
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{X: 48, Y: 260}, m.Origin)
	assert.Equal(t, 1, m.Fragment.Index)
}

func TestLocateNotFound(t *testing.T) {
	_, err := Locate([]fragment.Fragment{box(0, "x", 5, 5, 2, 2)}, layout.Anchor{Identifier: "X"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnchorNotFound))

	_, err = Locate(nil, layout.Anchor{Identifier: "X"})
	assert.True(t, errors.Is(err, ErrAnchorNotFound))
}

func TestLocateWithoutPosition(t *testing.T) {
	frags := []fragment.Fragment{
		{Index: 0, Text: "X", Confidence: 1},
		box(1, "Room1", 60, 35, 40, 20),
	}
	_, err := Locate(frags, layout.Anchor{Identifier: "X", Offset: layout.Offset{X: 5, Y: 5}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnchorNotFound))
	assert.Contains(t, err.Error(), "no position")

	// A positioned duplicate still makes the identifier ambiguous.
	frags = append(frags, box(2, "X", 20, 20, 20, 20))
	_, err = Locate(frags, layout.Anchor{Identifier: "X"})
	assert.True(t, errors.Is(err, ErrAmbiguousAnchor))
}

func TestLocateAmbiguous(t *testing.T) {
	frags := []fragment.Fragment{
		box(0, "X", 20, 20, 20, 20),
		box(1, "X", 200, 200, 20, 20),
	}
	_, err := Locate(frags, layout.Anchor{Identifier: "X"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousAnchor))
	assert.False(t, errors.Is(err, ErrAnchorNotFound))
}

func TestComputeCellsScenario(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)
	require.Len(t, cells, 4)

	want := []struct {
		region   Region
		row, col int
		rect     geometry.Rect
	}{
		{Header, 0, 0, geometry.Rect{X1: 10, Y1: 10, X2: 110, Y2: 60}},
		{Header, 0, 1, geometry.Rect{X1: 110, Y1: 10, X2: 210, Y2: 60}},
		{Body, 0, 0, geometry.Rect{X1: 10, Y1: 60, X2: 110, Y2: 140}},
		{Body, 0, 1, geometry.Rect{X1: 110, Y1: 60, X2: 210, Y2: 140}},
	}
	for i, w := range want {
		assert.Equal(t, i, cells[i].ID)
		assert.Equal(t, w.region, cells[i].Region, "cell %d", i)
		assert.Equal(t, w.row, cells[i].Row, "cell %d", i)
		assert.Equal(t, w.col, cells[i].Column, "cell %d", i)
		assert.Equal(t, w.rect, cells[i].Rect, "cell %d", i)
		assert.Equal(t, layout.SingleDay, cells[i].Tag)
	}
}

func TestComputeCellsDeterministic(t *testing.T) {
	cfg := layout.DefaultConfig()
	origin := geometry.Point{X: 48.5, Y: 260.25}

	a, err := ComputeCells(origin, cfg.Template, cfg.Rows)
	require.NoError(t, err)
	b, err := ComputeCells(origin, cfg.Template, cfg.Rows)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeCellsTiling(t *testing.T) {
	tpl := layout.DefaultTemplate(6000, 8000)
	rows := layout.Rows{Header: 3, Body: 4}
	origin := geometry.Point{X: 17.3, Y: 41.9}

	cells, err := ComputeCells(origin, tpl, rows)
	require.NoError(t, err)
	require.Len(t, cells, 3*11+4*5)

	for _, region := range []Region{Header, Body} {
		var (
			area   float64
			extent geometry.Rect
			first  = true
			inBand []Cell
		)
		for _, c := range cells {
			if c.Region != region {
				continue
			}
			inBand = append(inBand, c)
			area += c.Rect.Area()
			if first {
				extent, first = c.Rect, false
			} else {
				extent = extent.Union(c.Rect)
			}
		}

		// No two cells overlap...
		for i := range inBand {
			for j := i + 1; j < len(inBand); j++ {
				assert.False(t, inBand[i].Rect.Overlaps(inBand[j].Rect),
					"%s cells %d and %d overlap", region, inBand[i].ID, inBand[j].ID)
			}
		}
		// ...and together they cover the band's bounding box exactly.
		assert.InDelta(t, extent.Area(), area, 1e-6, "%s band has gaps", region)
	}

	// The body starts exactly where the header ends.
	lastHeader := cells[3*11-1].Rect
	firstBody := cells[3*11].Rect
	assert.Equal(t, lastHeader.Y2, firstBody.Y1)
	assert.Equal(t, origin.X, firstBody.X1)

	// Within a row, each cell starts where the previous one ended.
	for i := 1; i < 11; i++ {
		assert.Equal(t, cells[i-1].Rect.X2, cells[i].Rect.X1)
	}
	// The split block is narrower than its neighbours.
	assert.Equal(t, layout.SplitBlock, cells[5].Tag)
	assert.Equal(t, 232.0, cells[5].Rect.Width())
	assert.Equal(t, 258.0, cells[5].Rect.Height())
}

func TestComputeCellsRejectsBadRows(t *testing.T) {
	cfg := scenarioConfig()
	_, err := ComputeCells(geometry.Point{}, cfg.Template, layout.Rows{Header: 1, Body: 0})
	assert.True(t, errors.Is(err, ErrInvalidTemplate))
}

func TestAssignCenterIsOrderIndependent(t *testing.T) {
	cfg := layout.DefaultConfig()
	cells, err := ComputeCells(geometry.Point{X: 48, Y: 260}, cfg.Template, layout.Rows{Header: 1, Body: 1})
	require.NoError(t, err)

	frags := make([]fragment.Fragment, len(cells))
	for i, c := range cells {
		center := c.Rect.Center()
		frags[i] = box(i, c.Region.String()+"-"+c.Tag.Code(), center.X, center.Y, 30, 12)
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		shuffled := append([]fragment.Fragment(nil), frags...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Assign(cells, shuffled, AssignOptions{Workers: round + 1})
		require.Empty(t, got.Unassigned)
		for i, c := range got.Cells {
			assert.Equal(t, []int{i}, c.Fragments, "round %d cell %d", round, i)
			assert.Equal(t, frags[i].Text, c.Text)
		}
	}
}

func TestAssignBoundaryTieBreak(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)

	tests := []struct {
		name string
		frag fragment.Fragment
		want int
	}{
		// Shared vertical edge x=110 between header (0,0) and (0,1).
		{"vertical edge picks left", box(0, "v", 110, 35, 20, 10), 0},
		// Shared horizontal edge y=60 between header (0,0) and body (0,0).
		{"horizontal edge picks top", box(0, "h", 60, 60, 20, 10), 0},
		// Corner shared by all four cells.
		{"corner picks top-left", box(0, "c", 110, 60, 20, 20), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assign(cells, []fragment.Fragment{tt.frag}, AssignOptions{Workers: 1})
			require.Empty(t, got.Unassigned)
			assert.Equal(t, []int{0}, got.Cells[tt.want].Fragments)
		})
	}
}

func TestAssignLargerOverlapOnEdge(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)

	// A 20x10 box centered on x=110 plus a zero-area spike along its top
	// edge: the centroid stays on the shared edge while the bounding box
	// reaches further into the right cell.
	f := fragment.Fragment{Index: 0, Text: "R", Polygon: geometry.Polygon{
		{X: 100, Y: 30}, {X: 150, Y: 30}, {X: 120, Y: 30}, {X: 120, Y: 40}, {X: 100, Y: 40},
	}}
	require.InDelta(t, 110.0, f.Centroid().X, 1e-9)

	got := Assign(cells, []fragment.Fragment{f}, AssignOptions{Workers: 1})
	assert.Equal(t, []int{0}, got.Cells[1].Fragments, "right cell shares more of the bounding box")
	assert.Empty(t, got.Cells[0].Fragments)
}

func TestAssignTolerance(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)

	near := box(0, "near", 230, 30, 4, 4) // 20px right of header (0,1)
	far := box(1, "far", 300, 300, 4, 4)  // well below the body
	above := box(2, "above", 60, -10, 4, 4)

	// Default tolerance: half of the smallest dimension (50) = 25.
	got := Assign(cells, []fragment.Fragment{near, far, above}, AssignOptions{})
	assert.Equal(t, "near", got.Cells[1].Text)
	assert.Equal(t, "above", got.Cells[0].Text)
	require.Len(t, got.Unassigned, 1)

	u := got.Unassigned[0]
	assert.Equal(t, "far", u.Fragment.Text)
	assert.Equal(t, 3, u.NearestCell)
	assert.InDelta(t, geometry.Point{X: 210, Y: 140}.Distance(geometry.Point{X: 300, Y: 300}), u.Distance, 1e-9)
	assert.True(t, errors.Is(u, ErrFragmentUnassignable))
	assert.Contains(t, u.Error(), "far")

	// A tight tolerance drops the near fragment too.
	got = Assign(cells, []fragment.Fragment{near, far}, AssignOptions{Tolerance: 5})
	assert.Len(t, got.Unassigned, 2)
	assert.Empty(t, got.Cells[1].Text)
}

func TestAssignReadingOrder(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)

	frags := []fragment.Fragment{
		box(0, "D", 80, 120, 10, 10),
		box(1, "B", 70, 80, 10, 10),
		box(2, "A", 30, 80, 10, 10),
		box(3, "C", 30, 100, 10, 10),
	}
	got := Assign(cells, frags, AssignOptions{Workers: 3})
	assert.Equal(t, "A B C D", got.Cells[2].Text)
	assert.Equal(t, []int{2, 1, 3, 0}, got.Cells[2].Fragments)
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, cfg.Rows)
	require.NoError(t, err)
	before := append([]Cell(nil), cells...)

	_ = Assign(cells, []fragment.Fragment{box(0, "Room1", 60, 35, 40, 20)}, AssignOptions{})
	assert.Equal(t, before, cells)
}

func TestAssignNoCells(t *testing.T) {
	got := Assign(nil, []fragment.Fragment{box(0, "lost", 1, 1, 1, 1)}, AssignOptions{})
	require.Len(t, got.Unassigned, 1)
	assert.Equal(t, -1, got.Unassigned[0].NearestCell)
	assert.Empty(t, got.Cells)

	got = Assign(nil, nil, AssignOptions{})
	assert.Empty(t, got.Unassigned)
}

func TestAssemble(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{X: 10, Y: 10}, cfg.Template, layout.Rows{Header: 1, Body: 2})
	require.NoError(t, err)
	cells[0].Text = "Room1"
	cells[2].Text = "MON"

	table, err := Assemble(cells, nil)
	require.NoError(t, err)
	assert.Equal(t, "Room1", table.Room())
	require.Len(t, table.Header, 1)
	require.Len(t, table.Body, 2)
	assert.Len(t, table.Rows(), 3)
	assert.Equal(t, [][]string{{"Room1", ""}, {"MON", ""}, {"", ""}}, table.Grid())
	assert.Len(t, table.Cells(), 6)
}

func TestAssembleMetadataMissing(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{}, cfg.Template, cfg.Rows)
	require.NoError(t, err)

	_, err = Assemble(cells, nil)
	assert.True(t, errors.Is(err, ErrMetadataMissing))

	_, err = Assemble(cells, HeaderCellPolicy{Key: RoomKey, Row: 4})
	assert.True(t, errors.Is(err, ErrMetadataMissing))
}

func TestAssembleInconsistentGrid(t *testing.T) {
	cfg := scenarioConfig()
	cells, err := ComputeCells(geometry.Point{}, cfg.Template, cfg.Rows)
	require.NoError(t, err)
	cells[0].Text = "R"

	hole := append(append([]Cell(nil), cells[:2]...), cells[3])
	_, err = Assemble(hole, nil)
	assert.True(t, errors.Is(err, ErrInvalidTemplate), "missing body column")

	dup := append(append([]Cell(nil), cells...), cells[1])
	_, err = Assemble(dup, nil)
	assert.True(t, errors.Is(err, ErrInvalidTemplate), "duplicate position")
}

func TestPolicies(t *testing.T) {
	table := &ParsedTable{Header: [][]Cell{{{Text: ""}, {Text: "ห้อง 4201 ชั้น 2"}}}}

	meta, err := PatternPolicy{Key: RoomKey, Pattern: regexp.MustCompile(`ห้อง\s*(\d+)`)}.Extract(table)
	require.NoError(t, err)
	assert.Equal(t, "4201", meta[RoomKey])

	meta, err = HeaderCellPolicy{Key: "label", Row: 0, Column: 1}.Extract(table)
	require.NoError(t, err)
	assert.Equal(t, "ห้อง 4201 ชั้น 2", meta["label"])

	custom := MetadataPolicyFunc(func(t *ParsedTable) (map[string]string, error) {
		return map[string]string{RoomKey: "fixed"}, nil
	})
	meta, err = custom.Extract(table)
	require.NoError(t, err)
	assert.Equal(t, "fixed", meta[RoomKey])

	_, err = PatternPolicy{Key: RoomKey, Pattern: regexp.MustCompile(`^Z`)}.Extract(table)
	assert.True(t, errors.Is(err, ErrMetadataMissing))
}

func TestPolicyByName(t *testing.T) {
	tests := []struct {
		name    string
		want    MetadataPolicy
		wantErr bool
	}{
		{"", HeaderCellPolicy{Key: RoomKey}, false},
		{"header-cell", HeaderCellPolicy{Key: RoomKey}, false},
		{"header-cell:0,3", HeaderCellPolicy{Key: RoomKey, Row: 0, Column: 3}, false},
		{"header-cell:3", nil, true},
		{"header-cell:a,1", nil, true},
		{"pattern:(", nil, true},
		{"footer", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PolicyByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	p, err := PolicyByName(`pattern:^R(\d+)`)
	require.NoError(t, err)
	assert.IsType(t, PatternPolicy{}, p)
}

func TestParserScenario(t *testing.T) {
	p, err := NewParser(scenarioConfig())
	require.NoError(t, err)

	doc := scenarioDoc(
		box(1, "Room1", 60, 35, 40, 20),
		box(2, "MON", 160, 100, 30, 10),
		box(3, "noise", 390, 390, 5, 5),
	)
	table, err := p.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, geometry.Point{X: 10, Y: 10}, table.Origin)
	assert.Equal(t, geometry.Rect{X1: 10, Y1: 10, X2: 110, Y2: 60}, table.Header[0][0].Rect)
	assert.Equal(t, "Room1", table.Meta["room"], "anchor fragment is not part of the room cell")
	assert.Equal(t, "MON", table.Body[0][1].Text)
	require.Len(t, table.Unassigned, 1)
	assert.Equal(t, "noise", table.Unassigned[0].Fragment.Text)
}

// A Vision annotation with an empty boundingPoly carries no position. It must
// not land in the cell around the page origin.
func TestParserFragmentWithoutPosition(t *testing.T) {
	const artifact = `{"responses":[{"textAnnotations":[
		{"description":"X Room1 junk"},
		{"description":"X","boundingPoly":{"vertices":[{"x":10,"y":10},{"x":30,"y":10},{"x":30,"y":30},{"x":10,"y":30}]}},
		{"description":"Room1","boundingPoly":{"vertices":[{"x":40,"y":25},{"x":80,"y":25},{"x":80,"y":45},{"x":40,"y":45}]}},
		{"description":"junk","boundingPoly":{}}
	]}]}`

	doc, err := fragment.Read(strings.NewReader(artifact), "vision.json")
	require.NoError(t, err)
	require.Len(t, doc.Fragments, 3)

	p, err := NewParser(scenarioConfig())
	require.NoError(t, err)
	table, err := p.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "Room1", table.Meta["room"])
	require.Len(t, table.Unassigned, 1)
	u := table.Unassigned[0]
	assert.Equal(t, "junk", u.Fragment.Text)
	assert.Equal(t, -1, u.NearestCell)
	assert.Zero(t, u.Distance)
	assert.True(t, errors.Is(u, ErrFragmentUnassignable))
	assert.Contains(t, u.Error(), "has no position")
}

func TestParserRoundTrip(t *testing.T) {
	p, err := NewParser(scenarioConfig())
	require.NoError(t, err)

	table, err := p.Parse(scenarioDoc(box(1, "Room1", 60, 35, 40, 20)))
	require.NoError(t, err)

	rects, err := p.Rectangles(table)
	require.NoError(t, err)
	cells := table.Cells()
	require.Len(t, rects, len(cells))
	for i, c := range cells {
		assert.Equal(t, c.Rect, rects[i])
	}
}

func TestParserFailures(t *testing.T) {
	p, err := NewParser(scenarioConfig())
	require.NoError(t, err)

	_, err = p.Parse(fragment.New("two", 0, 0, []fragment.Fragment{
		box(0, "X", 20, 20, 20, 20),
		box(1, "X", 300, 300, 20, 20),
	}))
	assert.True(t, errors.Is(err, ErrAmbiguousAnchor))

	_, err = p.Parse(fragment.New("none", 0, 0, []fragment.Fragment{box(0, "Room1", 60, 35, 40, 20)}))
	assert.True(t, errors.Is(err, ErrAnchorNotFound))

	_, err = p.Parse(scenarioDoc())
	assert.True(t, errors.Is(err, ErrMetadataMissing))

	bad := scenarioConfig()
	bad.Template.Body.Tags = nil
	_, err = NewParser(bad)
	assert.True(t, errors.Is(err, ErrInvalidTemplate))

	bad = scenarioConfig()
	bad.Policy = "nope"
	_, err = NewParser(bad)
	assert.Error(t, err)
}

func TestParserWithPolicy(t *testing.T) {
	p, err := NewParser(scenarioConfig(), WithPolicy(MetadataPolicyFunc(func(t *ParsedTable) (map[string]string, error) {
		return map[string]string{RoomKey: t.Body[0][0].Text}, nil
	})))
	require.NoError(t, err)

	table, err := p.Parse(scenarioDoc(box(1, "B-12", 60, 100, 20, 10)))
	require.NoError(t, err)
	assert.Equal(t, "B-12", table.Room())
}
