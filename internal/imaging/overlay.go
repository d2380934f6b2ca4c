package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// EncodedImage is a PNG ready to be returned over a text protocol.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// OverlayOptions controls what Overlay draws.
type OverlayOptions struct {
	// Thickness of cell outlines in pixels. Zero means 3, which stays
	// visible on a full-resolution scan scaled down for viewing.
	Thickness int

	// Labels draws "H r,c" / "B r,c" in each cell's top-left corner.
	Labels bool

	// Fragments, when set, are outlined in FragmentColor so assignment
	// problems can be spotted.
	Fragments []fragment.Fragment

	// FragmentColor is a hex color; empty means "#808080".
	FragmentColor string

	// Palette overrides the per-row-type outline colors.
	Palette map[layout.RowType]color.Color
}

// OverlayResult is the annotated page.
type OverlayResult struct {
	EncodedImage
	Cells int `json:"cells"`
}

// RowTypePalette returns one outline color per row type, evenly spaced in
// HCL hue so neighbouring block kinds stay distinguishable.
func RowTypePalette() map[layout.RowType]color.Color {
	types := []layout.RowType{layout.SingleDay, layout.PairedBlock, layout.SplitBlock}
	out := make(map[layout.RowType]color.Color, len(types))
	for i, rt := range types {
		hue := 20 + 360*float64(i)/float64(len(types))
		out[rt] = colorful.Hcl(math.Mod(hue, 360), 0.9, 0.55).Clamped()
	}
	return out
}

// Overlay draws the cell rectangles (and optionally OCR fragments) over a
// copy of img. Shapes falling partly outside the page are clipped.
func Overlay(img image.Image, cells []timetable.Cell, opts OverlayOptions) (*OverlayResult, error) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = 3
	}
	palette := opts.Palette
	if palette == nil {
		palette = RowTypePalette()
	}

	if len(opts.Fragments) > 0 {
		hex := opts.FragmentColor
		if hex == "" {
			hex = "#808080"
		}
		fc, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fragment color %q: %w", hex, err)
		}
		for _, f := range opts.Fragments {
			if !f.Positioned() {
				continue
			}
			strokeRect(canvas, toImageRect(f.Bounds()), 1, fc)
		}
	}

	for _, c := range cells {
		col, ok := palette[c.Tag]
		if !ok {
			col = color.RGBA{255, 0, 0, 255}
		}
		r := toImageRect(c.Rect)
		strokeRect(canvas, r, thickness, col)
		if opts.Labels {
			label := fmt.Sprintf("%s %d,%d", strings.ToUpper(c.Region.String()[:1]), c.Row, c.Column)
			drawLabel(canvas, r.Min.X+thickness+2, r.Min.Y+thickness+2, label, col)
		}
	}

	enc, err := EncodePNG(canvas)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: *enc, Cells: len(cells)}, nil
}

// toImageRect rounds a rectangle outward to whole pixels.
func toImageRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X1)), int(math.Floor(r.Y1)),
		int(math.Ceil(r.X2)), int(math.Ceil(r.Y2)),
	)
}

// strokeRect draws an outline of the given thickness inside r.
func strokeRect(dst *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(dst.Bounds())
		if !e.Empty() {
			draw.Draw(dst, e, src, image.Point{}, draw.Over)
		}
	}
}

// drawLabel writes text with the top-left of its box at (x, y), on a dark
// background so it reads over any scan.
func drawLabel(dst *image.RGBA, x, y int, text string, fg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	bg := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(dst.Bounds())
	if !bg.Empty() {
		draw.Draw(dst, bg, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
