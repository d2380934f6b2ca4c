package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// createQuadrantImage paints red, green, blue and white quadrants.
func createQuadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCropCell(t *testing.T) {
	img := createQuadrantImage(100, 100)

	cropped, region, err := CropCell(img, geometry.Rect{X1: 50, Y1: 0, X2: 100, Y2: 50}, 0, 1)
	if err != nil {
		t.Fatalf("CropCell failed: %v", err)
	}
	if region != image.Rect(50, 0, 100, 50) {
		t.Errorf("region: got %v", region)
	}
	if b := cropped.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", b.Dx(), b.Dy())
	}
	r, g, b, _ := cropped.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("cropped pixel: got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
}

func TestCropCell_PaddingIsClamped(t *testing.T) {
	img := createQuadrantImage(100, 100)

	tests := []struct {
		name string
		rect geometry.Rect
		pad  int
		want image.Rectangle
	}{
		{"inside", geometry.Rect{X1: 20, Y1: 20, X2: 40, Y2: 40}, 5, image.Rect(15, 15, 45, 45)},
		{"top-left corner", geometry.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, 5, image.Rect(0, 0, 15, 15)},
		{"fractional rounds outward", geometry.Rect{X1: 10.4, Y1: 10.6, X2: 20.2, Y2: 20.9}, 0, image.Rect(10, 10, 21, 21)},
		{"overhangs page", geometry.Rect{X1: 90, Y1: 90, X2: 130, Y2: 130}, 0, image.Rect(90, 90, 100, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cropped, region, err := CropCell(img, tt.rect, tt.pad, 1)
			if err != nil {
				t.Fatalf("CropCell failed: %v", err)
			}
			if region != tt.want {
				t.Errorf("region: got %v, want %v", region, tt.want)
			}
			if cropped.Bounds().Dx() != tt.want.Dx() || cropped.Bounds().Dy() != tt.want.Dy() {
				t.Errorf("crop size %v does not match region %v", cropped.Bounds(), tt.want)
			}
		})
	}
}

func TestCropCell_Scale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	cropped, _, err := CropCell(img, geometry.Rect{X2: 40, Y2: 20}, 0, 2)
	if err != nil {
		t.Fatalf("CropCell with scale failed: %v", err)
	}
	if b := cropped.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("scaled dimensions: got %dx%d, want 80x40", b.Dx(), b.Dy())
	}
}

func TestCropCell_OutsideImage(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	if _, _, err := CropCell(img, geometry.Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}, 2, 1); err == nil {
		t.Error("expected error for a cell outside the page")
	}
	if _, _, err := CropCell(img, geometry.Rect{X1: 50, Y1: 50, X2: 50, Y2: 60}, 0, 1); err == nil {
		t.Error("expected error for an empty cell")
	}
}
