package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	pageimg "github.com/Adisuarn/Schedule-Parser/internal/imaging"
)

// DefaultLanguage covers Thai headings and Latin course codes.
const DefaultLanguage = "tha+eng"

// Recognizer holds Tesseract settings.
type Recognizer struct {
	// Language is a Tesseract language spec such as "tha+eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// Preprocess runs Preprocess on the image before recognition.
	Preprocess bool

	// MinConfidence drops words Tesseract is less sure about (0..1).
	MinConfidence float64
}

// NewRecognizer returns a Recognizer for language (DefaultLanguage when
// empty) with preprocessing enabled.
func NewRecognizer(language string) *Recognizer {
	if language == "" {
		language = DefaultLanguage
	}
	return &Recognizer{Language: language, Preprocess: true}
}

func (r *Recognizer) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if r.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	lang := r.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}

// Recognize reads the image at path and returns its words as a document
// named after the file.
//
// Parameters:
//   - path: File path to the page scan. Any format disintegration/imaging
//     can open is accepted.
//
// Returns:
//   - *fragment.Document: One fragment per word, in page pixel coordinates,
//     with the page's width and height and Source set to the file's base name.
//   - error: Non-nil if the image cannot be opened or OCR fails.
//
// Words come from a fresh Tesseract client per call, so a Recognizer may be
// shared between goroutines.
//
// # Errors
//
//   - Returns error if the file cannot be opened or decoded
//   - Returns error if Tesseract cannot be initialized for the configured language
func (r *Recognizer) Recognize(path string) (*fragment.Document, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return r.RecognizeImage(img, filepath.Base(path))
}

// RecognizeImage runs OCR on an in-memory page.
func (r *Recognizer) RecognizeImage(img image.Image, source string) (*fragment.Document, error) {
	words, err := r.words(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return fragment.New(source, b.Dx(), b.Dy(), words), nil
}

// RecognizeRegion runs OCR on the part of img under rect, grown by pad and
// enlarged by scale, and returns the words in page coordinates.
//
// Parameters:
//   - img: The full page.
//   - rect: The cell rectangle in page pixel coordinates.
//   - pad: Pixels added on every side before cropping, clamped to the page.
//   - scale: Enlargement applied to the crop before OCR. Values <= 0 mean 1.
//
// Returns:
//   - []fragment.Fragment: The recognized words with polygons mapped back onto
//     the page, indexed in Tesseract's reading order within the crop.
//   - error: Non-nil if the crop is empty or OCR fails.
//
// # Errors
//
//   - Returns error if rect, after padding, does not overlap the page
//   - Returns error if Tesseract cannot be initialized or cannot read the crop
func (r *Recognizer) RecognizeRegion(img image.Image, rect geometry.Rect, pad int, scale float64) ([]fragment.Fragment, error) {
	if scale <= 0 {
		scale = 1
	}
	crop, region, err := pageimg.CropCell(img, rect, pad, scale)
	if err != nil {
		return nil, err
	}
	words, err := r.words(crop)
	if err != nil {
		return nil, err
	}

	// Undo the resize, then move from crop space back onto the page.
	sx := float64(region.Dx()) / float64(crop.Bounds().Dx())
	sy := float64(region.Dy()) / float64(crop.Bounds().Dy())
	for i := range words {
		for j, p := range words[i].Polygon {
			words[i].Polygon[j] = geometry.Point{
				X: p.X*sx + float64(region.Min.X),
				Y: p.Y*sy + float64(region.Min.Y),
			}
		}
	}
	return words, nil
}

// words returns one fragment per recognized word, in the crop's own
// coordinates. Fragment indexes follow Tesseract's reading order.
func (r *Recognizer) words(img image.Image) ([]fragment.Fragment, error) {
	if r.Preprocess {
		img = Preprocess(img, DefaultPreprocessOptions())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client, err := r.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	out := make([]fragment.Fragment, 0, len(boxes))
	for _, box := range boxes {
		confidence := box.Confidence / 100.0
		text := fragment.Normalize(box.Word)
		if text == "" || confidence < r.MinConfidence {
			continue
		}
		rect := geometry.Rect{
			X1: float64(box.Box.Min.X),
			Y1: float64(box.Box.Min.Y),
			X2: float64(box.Box.Max.X),
			Y2: float64(box.Box.Max.Y),
		}
		out = append(out, fragment.Fragment{
			Index:      len(out),
			Text:       text,
			Polygon:    geometry.RectPolygon(rect),
			Confidence: confidence,
		})
	}
	return out, nil
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Error     string `json:"error,omitempty"`
}

// Info reports whether Tesseract can be initialized with the configured
// language.
func (r *Recognizer) Info() Info {
	info := Info{Language: r.Language}
	client, err := r.client()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer client.Close()

	info.Version = client.Version()
	info.Available = info.Version != ""
	return info
}
