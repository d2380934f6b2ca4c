package imaging

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestConvert(t *testing.T) {
	src := createTestImage(t, 64, 48, color.RGBA{200, 30, 30, 255})
	dir := t.TempDir()

	tests := []struct {
		name     string
		out      string
		format   string
		compress bool
		wantPath string
		wantFmt  string
	}{
		{"jpg full quality", "a.jpg", "jpg", false, "a.jpg", "jpeg"},
		{"jpg compressed", "b.jpg", "JPEG", true, "b.jpg", "jpeg"},
		{"png", "c.png", "png", false, "c.png", "png"},
		{"extension appended", "d", "png", true, "d.png", "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.out)
			if err := Convert(src, out, tt.format, tt.compress); err != nil {
				t.Fatalf("Convert failed: %v", err)
			}

			info, err := LoadImageInfo(NewImageCache(), filepath.Join(dir, tt.wantPath))
			if err != nil {
				t.Fatalf("converted file unreadable: %v", err)
			}
			if info.Format != tt.wantFmt {
				t.Errorf("format: got %s, want %s", info.Format, tt.wantFmt)
			}
			if info.Width != 64 || info.Height != 48 {
				t.Errorf("size: got %dx%d, want 64x48", info.Width, info.Height)
			}
		})
	}
}

func TestConvert_CompressionShrinksJPEG(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.png")
	img := createQuadrantImage(256, 256)
	for y := 0; y < 256; y += 3 {
		for x := 0; x < 256; x += 5 {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	if err := saveTestPNG(src, img); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	dir := t.TempDir()
	full, small := filepath.Join(dir, "full.jpg"), filepath.Join(dir, "small.jpg")
	if err := Convert(src, full, "jpg", false); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if err := Convert(src, small, "jpg", true); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	fi, _ := os.Stat(full)
	si, _ := os.Stat(small)
	if si.Size() >= fi.Size() {
		t.Errorf("quality %d output (%d bytes) not smaller than quality %d output (%d bytes)",
			QualityCompressed, si.Size(), QualityFull, fi.Size())
	}
}

func TestConvert_Errors(t *testing.T) {
	src := createTestImage(t, 8, 8, color.White)
	if err := Convert(src, filepath.Join(t.TempDir(), "x.webp"), "webp", false); err == nil {
		t.Error("expected error for unsupported target format")
	}
	if err := Convert("/nonexistent.png", filepath.Join(t.TempDir(), "x.png"), "png", false); err == nil {
		t.Error("expected error for missing input")
	}
}
