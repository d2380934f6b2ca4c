package batch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
)

// Recognizer produces an OCR artifact for one page image.
type Recognizer interface {
	Recognize(path string) (*fragment.Document, error)
}

// ImageExtensions are the page images Annotate picks up.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// Annotator writes one native OCR artifact per page image.
type Annotator struct {
	Recognizer Recognizer
	OutDir     string
	Workers    int
}

// Run recognizes every image in dir and writes "<name>.json" files to
// OutDir, ready for Runner.
func (a *Annotator) Run(ctx context.Context, dir string) (*Report, error) {
	report := newReport(dir, a.OutDir)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if err := ensureDir(a.OutDir); err != nil {
		return report, err
	}
	images, err := listFiles(dir, ImageExtensions...)
	if err != nil {
		return report, err
	}
	if len(images) == 0 {
		log.Printf("No images found in %s", dir)
		return report, nil
	}

	results := make([]Result, len(images))
	started := forEach(ctx, a.Workers, len(images), func(i int) {
		results[i] = a.annotate(images[i])
	})

	for i := range results {
		if !started[i] {
			results[i] = Result{Source: filepath.Base(images[i]), err: errors.Wrap(ctx.Err(), "not started")}
		}
		res := &results[i]
		if res.err != nil {
			res.Error = res.err.Error()
			log.Printf("Error processing image %s: %v", res.Source, res.err)
		} else {
			log.Printf("Annotations for %s saved in %s", res.Source, res.Output)
		}
	}
	report.Results = results
	return report, ctx.Err()
}

func (a *Annotator) annotate(path string) Result {
	base := filepath.Base(path)
	res := Result{Source: base}

	doc, err := a.Recognizer.Recognize(path)
	if err != nil {
		res.err = err
		return res
	}

	res.Output = filepath.Join(a.OutDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
	f, err := os.Create(res.Output)
	if err != nil {
		res.err = errors.Wrap(err, "failed to create artifact")
		return res
	}
	if err := fragment.WriteNative(f, doc); err != nil {
		f.Close()
		res.err = err
		return res
	}
	res.err = errors.Wrap(f.Close(), "failed to write artifact")
	return res
}
