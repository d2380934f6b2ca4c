package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// CropCell extracts the pixels under rect, grown by pad on every side and
// clamped to the image. A scale other than 1 resizes the crop with Lanczos
// resampling, which helps Tesseract on small print.
//
// The returned rectangle is the clamped region in page coordinates, needed
// to map anything found in the crop back onto the page.
func CropCell(img image.Image, rect geometry.Rect, pad int, scale float64) (*image.NRGBA, image.Rectangle, error) {
	region := toImageRect(rect).Inset(-pad).Intersect(img.Bounds())
	if region.Empty() {
		return nil, image.Rectangle{}, fmt.Errorf("crop region (%.0f,%.0f)-(%.0f,%.0f) outside image bounds %v",
			rect.X1, rect.Y1, rect.X2, rect.Y2, img.Bounds())
	}

	cropped := imaging.Crop(img, region)
	if scale > 0 && scale != 1.0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w > 0 && h > 0 {
			cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
		}
	}
	return cropped, region, nil
}
