package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// PreprocessOptions tunes Preprocess.
type PreprocessOptions struct {
	// Contrast is passed to adjust.Contrast (-1..1); 0 leaves contrast alone.
	Contrast float64

	// Threshold binarizes the page at this gray level; 0 keeps grayscale.
	Threshold uint8
}

// DefaultPreprocessOptions suits scanned forms: light contrast boost, then
// binarization just above mid-gray so thin table rules survive.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{Contrast: 0.25, Threshold: 140}
}

// Preprocess converts a scan to the high-contrast grayscale Tesseract reads
// best. The input is not modified.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	var out image.Image = effect.Grayscale(img)
	if opts.Contrast != 0 {
		out = adjust.Contrast(out, opts.Contrast)
	}
	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}
	return out
}
