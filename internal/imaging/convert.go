package imaging

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Quality levels for Convert.
const (
	QualityFull       = 100
	QualityCompressed = 80
)

// Convert re-encodes the image at in as format ("jpg"/"jpeg" or "png") and
// writes it to out, appending the format's extension when out has none.
// With compress, JPEG output uses quality 80 and PNG output the best
// compression level; otherwise JPEG quality is 100 and PNG uses the default
// level.
func Convert(in, out, format string, compress bool) error {
	var opts []imaging.EncodeOption
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		quality := QualityFull
		if compress {
			quality = QualityCompressed
		}
		opts = append(opts, imaging.JPEGQuality(quality))
		format = "jpg"
	case "png":
		level := png.DefaultCompression
		if compress {
			level = png.BestCompression
		}
		opts = append(opts, imaging.PNGCompressionLevel(level))
		format = "png"
	default:
		return fmt.Errorf("unsupported target format %q: want jpg or png", format)
	}

	if filepath.Ext(out) == "" {
		out += "." + format
	}
	target, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("failed to resolve format: %w", err)
	}

	img, err := imaging.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := imaging.Encode(f, img, target, opts...); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s image: %w", target, err)
	}
	return f.Close()
}
