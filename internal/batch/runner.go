package batch

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/export"
	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// Result is the outcome for one input file.
type Result struct {
	Source     string `json:"source"`
	Output     string `json:"output,omitempty"`
	Room       string `json:"room,omitempty"`
	Unassigned int    `json:"unassigned,omitempty"`
	Error      string `json:"error,omitempty"`

	err error
}

// Err returns the failure, or nil.
func (r Result) Err() error { return r.err }

// OK reports whether the file was processed successfully.
func (r Result) OK() bool { return r.err == nil }

// Report summarizes one run.
type Report struct {
	RunID     uuid.UUID     `json:"run_id"`
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

func newReport(input, output string) *Report {
	return &Report{RunID: uuid.New(), Input: input, Output: output, StartedAt: time.Now()}
}

// Runner turns a directory of OCR artifacts into timetable files.
type Runner struct {
	Parser  *timetable.Parser
	OutDir  string
	Format  export.Format
	Workers int
}

type parsed struct {
	table *timetable.ParsedTable
	err   error
}

// Run parses every *.json artifact in dir. Tables are parsed concurrently
// and written in file-name order once all have finished, so room-name
// collisions resolve the same way on every run.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	report := newReport(dir, r.OutDir)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if err := ensureDir(r.OutDir); err != nil {
		return report, err
	}
	files, err := listFiles(dir, ".json")
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		log.Printf("No files found in the resource directory %s", dir)
		return report, nil
	}
	log.Printf("Found %d files. Processing... (run %s)", len(files), report.RunID)

	out := make([]parsed, len(files))
	started := forEach(ctx, r.Workers, len(files), func(i int) {
		out[i].table, out[i].err = r.parse(files[i])
	})

	format := r.Format
	if format == "" {
		format = export.FormatJSON
	}
	claimed := make(map[string]bool)
	for i, path := range files {
		res := Result{Source: filepath.Base(path)}
		switch {
		case !started[i]:
			res.err = errors.Wrap(ctx.Err(), "not started")
		case out[i].err != nil:
			res.err = out[i].err
		default:
			t := out[i].table
			res.Room = t.Room()
			res.Unassigned = len(t.Unassigned)
			name := uniqueName(claimed, outputStem(t.Room(), path), format.Extension())
			res.Output = filepath.Join(r.OutDir, name)
			res.err = writeTable(res.Output, t, format)
		}

		if res.err != nil {
			res.Error = res.err.Error()
			log.Printf("Error processing file %s: %v", res.Source, res.err)
		} else {
			log.Printf("Parsed table for %s saved in %s", res.Source, res.Output)
		}
		report.Results = append(report.Results, res)
	}

	log.Printf("Table generation completed: %d ok, %d failed", len(report.Results)-len(report.Failed()), len(report.Failed()))
	return report, ctx.Err()
}

func (r *Runner) parse(path string) (*timetable.ParsedTable, error) {
	doc, err := fragment.Load(path)
	if err != nil {
		return nil, err
	}
	return r.Parser.Parse(doc)
}

func writeTable(path string, t *timetable.ParsedTable, format export.Format) error {
	var buf bytes.Buffer
	if err := export.Render(&buf, t, format); err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, buf.Bytes(), 0o644), "failed to write table")
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

// listFiles returns the regular files in dir with one of exts
// (case-insensitive), sorted by name.
func listFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// outputStem makes a room name safe as a file name, falling back to the
// input's base name.
func outputStem(room, source string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(room))
	stem = strings.Trim(stem, ". ")
	if stem == "" {
		stem = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return stem
}

func uniqueName(claimed map[string]bool, stem, ext string) string {
	name := stem + "." + ext
	for n := 2; claimed[name]; n++ {
		name = fmt.Sprintf("%s-%d.%s", stem, n, ext)
	}
	claimed[name] = true
	return name
}
