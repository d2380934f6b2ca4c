package ocr

import (
	"fmt"
	"image"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// RefineOptions tunes Refine.
type RefineOptions struct {
	// Pad grows each crop so strokes touching the cell edge survive.
	Pad int

	// Scale enlarges each crop before recognition; 0 means 2.
	Scale float64

	// Header also re-reads empty header cells. Body cells are always
	// considered.
	Header bool
}

// Refine re-reads every empty cell of t from img and fills in what it
// finds, in place. Words are attached with the same rules as the parser
// (only words whose centroid falls inside the cell count) and joined in
// reading order. It returns the number of cells that gained text.
func Refine(t *timetable.ParsedTable, img image.Image, rec *Recognizer, opts RefineOptions) (int, error) {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}

	bands := [][][]timetable.Cell{t.Body}
	if opts.Header {
		bands = append(bands, t.Header)
	}

	filled := 0
	for _, band := range bands {
		for r := range band {
			for c := range band[r] {
				cell := &band[r][c]
				if cell.Text != "" {
					continue
				}
				words, err := rec.RecognizeRegion(img, cell.Rect, opts.Pad, opts.Scale)
				if err != nil {
					return filled, fmt.Errorf("failed to refine %s cell (%d,%d): %w", cell.Region, cell.Row, cell.Column, err)
				}
				text := cellText(*cell, words)
				if text == "" {
					continue
				}
				cell.Text = text
				filled++
			}
		}
	}
	return filled, nil
}

// cellText runs the parser's assignment on a single cell with no
// tolerance, so padding never pulls in a neighbour's words.
func cellText(cell timetable.Cell, words []fragment.Fragment) string {
	if len(words) == 0 {
		return ""
	}
	cell.Text, cell.Fragments = "", nil
	res := timetable.Assign([]timetable.Cell{cell}, words, timetable.AssignOptions{
		Tolerance: 1e-6,
		Workers:   1,
	})
	return res.Cells[0].Text
}
