// Package fragment models the recognized-text artifact produced by an
// external OCR engine and reads it from disk.
//
// A Document is an ordered, immutable list of Fragments. Each Fragment is a
// run of text with its pixel-space bounding polygon and a confidence score.
// Two artifact formats are understood:
//
//   - Google Cloud Vision textDetection responses
//     ({"responses":[{"textAnnotations":[...]}]}). The first annotation of a
//     response holds the whole page text and is skipped.
//   - The native format written by this module's OCR package
//     ({"fragments":[{"text":..., "polygon":[...], "confidence":...}]}).
//
// Fragment text is trimmed and normalized to Unicode NFC so that
// identifiers compare exactly regardless of how the engine composed
// combining marks. Fragments with no text after trimming are dropped.
package fragment

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// Fragment is one recognized run of text.
type Fragment struct {
	// Index is the fragment's position in its Document. It is the stable
	// identity used for ordering ties and diagnostics.
	Index int `json:"index"`

	// Text is the recognized text, NFC-normalized and trimmed.
	Text string `json:"text"`

	// Polygon is the bounding polygon in page pixels.
	Polygon geometry.Polygon `json:"polygon"`

	// Confidence is the engine's confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Centroid returns the area centroid of the bounding polygon.
func (f Fragment) Centroid() geometry.Point { return f.Polygon.Centroid() }

// Bounds returns the axis-aligned bounding box of the polygon.
func (f Fragment) Bounds() geometry.Rect { return f.Polygon.Bounds() }

// TopLeft returns the first polygon vertex. OCR engines list the corner
// where the text starts first, so on rotated text this follows the reading
// direction rather than the page axes.
func (f Fragment) TopLeft() geometry.Point { return f.Polygon.TopLeft() }

// Positioned reports whether the fragment has any polygon vertices. The
// geometry helpers return zero values for fragments that don't.
func (f Fragment) Positioned() bool { return !f.Polygon.Empty() }

// Document is the full OCR result for one scanned page.
type Document struct {
	// Source names the image or artifact the fragments came from.
	Source string `json:"source,omitempty"`

	// Width and Height are the page image dimensions when known.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Fragments []Fragment `json:"fragments"`
}

// Normalize returns s trimmed and in Unicode NFC form.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// New builds a Document from raw fragments, normalizing their text,
// dropping empty ones and renumbering Index to match the final order.
func New(source string, width, height int, raw []Fragment) *Document {
	doc := &Document{
		Source:    source,
		Width:     width,
		Height:    height,
		Fragments: make([]Fragment, 0, len(raw)),
	}
	for _, f := range raw {
		f.Text = Normalize(f.Text)
		if f.Text == "" {
			continue
		}
		f.Index = len(doc.Fragments)
		doc.Fragments = append(doc.Fragments, f)
	}
	return doc
}

// Without returns the fragments of doc except those whose Index is listed.
func (d *Document) Without(indexes ...int) []Fragment {
	skip := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		skip[i] = true
	}
	out := make([]Fragment, 0, len(d.Fragments))
	for _, f := range d.Fragments {
		if !skip[f.Index] {
			out = append(out, f)
		}
	}
	return out
}
