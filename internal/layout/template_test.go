package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoByTwo() (CellSize, RegionTemplate, RegionTemplate) {
	header := RegionTemplate{
		Primary: CellSize{Width: 100, Height: 50},
		Tags:    []RowType{SingleDay, SingleDay},
	}
	body := RegionTemplate{
		Primary: CellSize{Width: 100, Height: 80},
		Tags:    []RowType{SingleDay, SingleDay},
	}
	return CellSize{Width: 400, Height: 400}, header, body
}

func TestParseRowType(t *testing.T) {
	tests := []struct {
		in      string
		want    RowType
		wantErr bool
	}{
		{"DS", SingleDay, false},
		{"single-day", SingleDay, false},
		{"bp", PairedBlock, false},
		{" paired-block ", PairedBlock, false},
		{"BS", SplitBlock, false},
		{"split-block", SplitBlock, false},
		{"SD", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRowType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowTypeShapes(t *testing.T) {
	assert.Equal(t, Primary, SingleDay.Shape())
	assert.Equal(t, Secondary, PairedBlock.Shape())
	assert.Equal(t, Tertiary, SplitBlock.Shape())

	text, err := PairedBlock.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "BP", string(text))

	_, err = RowType(0).MarshalText()
	assert.Error(t, err)
	assert.False(t, RowType(42).Valid())
}

func TestMustParseRowTypesPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseRowTypes("DS", "XX") })
}

func TestNewCanvasTemplate(t *testing.T) {
	page, header, body := twoByTwo()
	tpl, err := NewCanvasTemplate(page, 0, 0, header, body)
	require.NoError(t, err)

	assert.Equal(t, 2, tpl.Header.Columns())
	assert.Equal(t, 200.0, tpl.Header.RowWidth())
	assert.Equal(t, 50.0, tpl.Header.RowHeight())
	assert.Equal(t, []float64{0, 100, 200}, tpl.Header.ColumnEdges())
	assert.Equal(t, 50.0, tpl.SmallestDimension())
	assert.Equal(t, CellSize{Width: 200, Height: 130}, tpl.Extent(Rows{Header: 1, Body: 1}))

	header.Tags[0] = SplitBlock
	assert.Equal(t, SingleDay, tpl.Header.Tags[0], "template keeps its own copy of the tags")
}

func TestNewCanvasTemplateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(page *CellSize, mx, my *float64, h, b *RegionTemplate)
	}{
		{"empty header tags", func(_ *CellSize, _, _ *float64, h, _ *RegionTemplate) { h.Tags = nil }},
		{"empty body tags", func(_ *CellSize, _, _ *float64, _, b *RegionTemplate) { b.Tags = []RowType{} }},
		{"zero width", func(_ *CellSize, _, _ *float64, h, _ *RegionTemplate) { h.Primary.Width = 0 }},
		{"negative height", func(_ *CellSize, _, _ *float64, _, b *RegionTemplate) { b.Primary.Height = -1 }},
		{"referenced shape missing", func(_ *CellSize, _, _ *float64, h, _ *RegionTemplate) {
			h.Tags = []RowType{SingleDay, PairedBlock}
		}},
		{"unknown tag", func(_ *CellSize, _, _ *float64, h, _ *RegionTemplate) { h.Tags = []RowType{9} }},
		{"too wide", func(p *CellSize, _, _ *float64, _, _ *RegionTemplate) { p.Width = 150 }},
		{"too wide with margins", func(_ *CellSize, mx, _ *float64, _, _ *RegionTemplate) { *mx = 101 }},
		{"too tall with margins", func(_ *CellSize, _, my *float64, _, _ *RegionTemplate) { *my = 136 }},
		{"zero page", func(p *CellSize, _, _ *float64, _, _ *RegionTemplate) { *p = CellSize{} }},
		{"negative margin", func(_ *CellSize, mx, _ *float64, _, _ *RegionTemplate) { *mx = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, header, body := twoByTwo()
			var mx, my float64
			tt.mutate(&page, &mx, &my, &header, &body)

			_, err := NewCanvasTemplate(page, mx, my, header, body)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplate), "got %v", err)
		})
	}
}

func TestValidateRows(t *testing.T) {
	page, header, body := twoByTwo()
	tpl, err := NewCanvasTemplate(page, 0, 0, header, body)
	require.NoError(t, err)

	// 50 + 4*80 = 370 fits, 50 + 5*80 = 450 does not.
	assert.NoError(t, tpl.ValidateRows(Rows{Header: 1, Body: 4}))
	assert.True(t, errors.Is(tpl.ValidateRows(Rows{Header: 1, Body: 5}), ErrInvalidTemplate))
	assert.True(t, errors.Is(tpl.ValidateRows(Rows{Header: 0, Body: 1}), ErrInvalidTemplate))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig().Normalized()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 11, cfg.Template.Header.Columns())
	assert.Equal(t, 5, cfg.Template.Body.Columns())
	assert.Equal(t, 3102.0, cfg.Template.Header.RowWidth())
	assert.Equal(t, 258.0, cfg.Template.Header.RowHeight())
	assert.Equal(t, "ภาคเรียน", cfg.Anchor.Identifier)
	assert.Equal(t, Offset{X: 38, Y: 250}, cfg.Anchor.Offset)
	assert.Equal(t, 65.0, cfg.Tolerance, "half of the 130px body cell width")
	assert.Equal(t, DefaultPolicy, cfg.Policy)

	sized := DefaultConfigSized(4000, 3000)
	assert.Equal(t, CellSize{Width: 4000, Height: 3000}, sized.Template.Page)
}

func TestParseConfig(t *testing.T) {
	yml := `
template:
  page: {width: 400, height: 400}
  margin_x: 0
  margin_y: 0
  header:
    primary: {width: 100, height: 50}
    tags: [single-day, DS]
  body:
    primary: {width: 100, height: 80}
    tags: [DS, DS]
anchor:
  identifier: X
  offset: {x: 0, y: 0}
rows: {header: 1, body: 2}
tolerance: 10
workers: 3
`
	cfg, err := ParseConfig([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, []RowType{SingleDay, SingleDay}, cfg.Template.Header.Tags)
	assert.Equal(t, "X", cfg.Anchor.Identifier)
	assert.Equal(t, Rows{Header: 1, Body: 2}, cfg.Rows)
	assert.Equal(t, 10.0, cfg.Tolerance)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, DefaultPolicy, cfg.Policy, "unset policy keeps the default")
}

func TestParseConfigRejects(t *testing.T) {
	_, err := ParseConfig([]byte("template:\n  header:\n    tags: [XX]\n"))
	assert.Error(t, err, "unknown tag")

	_, err = ParseConfig([]byte("anchor:\n  identifier: \"  \"\n"))
	assert.True(t, errors.Is(err, ErrInvalidTemplate), "blank anchor")

	_, err = ParseConfig([]byte("rows: {header: 1, body: 3}\n"))
	assert.True(t, errors.Is(err, ErrInvalidTemplate), "three 1290px body rows do not fit")
}

func TestLoadConfigAndYAML(t *testing.T) {
	def, err := LoadConfig("")
	require.NoError(t, err)

	data, err := def.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "- BP")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, def, loaded)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
