package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/Adisuarn/Schedule-Parser/internal/batch"
	"github.com/Adisuarn/Schedule-Parser/internal/export"
	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/imaging"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
	"github.com/Adisuarn/Schedule-Parser/internal/ocr"
	"github.com/Adisuarn/Schedule-Parser/internal/server"
	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Logging goes to stderr; stdout carries tables and the MCP protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("SCHEDULE_PARSER_LOG_LEVEL") == "debug" {
		log.Printf("Schedule Parser v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "schedule-parser",
		Usage:   "Rebuild class timetables from OCR'd scans of the printed form",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file (default: built-in template)",
				Sources: cli.EnvVars("SCHEDULE_PARSER_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			batchCommand(),
			annotateCommand(),
			overlayCommand(),
			convertCommand(),
			templateCommand(),
			serveCommand(),
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, markdown or html",
		Value:   string(export.FormatJSON),
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "workers",
		Aliases: []string{"w"},
		Usage:   "Parallel workers (0 means one per CPU)",
	}
}

func langFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "lang",
		Usage: "Tesseract language spec",
		Value: ocr.DefaultLanguage,
	}
}

func loadConfig(cmd *cli.Command) (layout.Config, error) {
	cfg, err := layout.LoadConfig(cmd.Root().String("config"))
	if err != nil {
		return layout.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if w := cmd.Int("workers"); w > 0 {
		cfg.Workers = w
	}
	return cfg, nil
}

func loadParser(cmd *cli.Command) (*timetable.Parser, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return timetable.NewParser(cfg)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return arg, nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Printf("Output written to %s", path)
	return nil
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse one OCR artifact into a timetable",
		ArgsUsage: "<artifact.json>",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "refine",
				Usage: "Page image; empty cells are re-read from it with Tesseract",
			},
			langFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "artifact")
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			p, err := loadParser(cmd)
			if err != nil {
				return err
			}

			doc, err := fragment.Load(path)
			if err != nil {
				return err
			}
			table, err := p.Parse(doc)
			if err != nil {
				return err
			}
			for _, u := range table.Unassigned {
				log.Printf("Warning: %v", u)
			}

			if img := cmd.String("refine"); img != "" {
				page, err := imaging.NewImageCache().Load(img)
				if err != nil {
					return err
				}
				n, err := ocr.Refine(table, page, ocr.NewRecognizer(cmd.String("lang")), ocr.RefineOptions{})
				if err != nil {
					return err
				}
				log.Printf("Refined %d empty cells from %s", n, img)
			}

			var buf bytes.Buffer
			if err := export.Render(&buf, table, format); err != nil {
				return err
			}
			return writeOutput(cmd.String("output"), buf.Bytes())
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Parse every OCR artifact in a directory, one output file per room",
		ArgsUsage: "<resource-dir>",
		Flags: []cli.Flag{
			formatFlag(),
			workersFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "output",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the run report as JSON to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := requireArg(cmd, "resource directory")
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			p, err := loadParser(cmd)
			if err != nil {
				return err
			}

			runner := &batch.Runner{
				Parser:  p,
				OutDir:  cmd.String("out"),
				Format:  format,
				Workers: p.Config().Workers,
			}
			report, runErr := runner.Run(ctx, dir)
			if err := writeReport(cmd.String("report"), report); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if failed := report.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d files failed", len(failed), len(report.Results))
			}
			return nil
		},
	}
}

func annotateCommand() *cli.Command {
	return &cli.Command{
		Name:      "annotate",
		Usage:     "Run Tesseract on every page image in a directory and write OCR artifacts",
		ArgsUsage: "<image-dir>",
		Flags: []cli.Flag{
			langFlag(),
			workersFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Artifact directory",
				Value:   "resource",
			},
			&cli.BoolFlag{
				Name:  "no-preprocess",
				Usage: "Skip grayscale, contrast and threshold before recognition",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the run report as JSON to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := requireArg(cmd, "image directory")
			if err != nil {
				return err
			}

			rec := ocr.NewRecognizer(cmd.String("lang"))
			rec.Preprocess = !cmd.Bool("no-preprocess")
			if info := rec.Info(); !info.Available {
				return fmt.Errorf("tesseract unavailable: %s", info.Error)
			}

			a := &batch.Annotator{Recognizer: rec, OutDir: cmd.String("out"), Workers: cmd.Int("workers")}
			report, runErr := a.Run(ctx, dir)
			if err := writeReport(cmd.String("report"), report); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if failed := report.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d images failed", len(failed), len(report.Results))
			}
			return nil
		},
	}
}

func writeReport(path string, report *batch.Report) error {
	if path == "" || report == nil {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return writeOutput(path, data)
}

func overlayCommand() *cli.Command {
	return &cli.Command{
		Name:      "overlay",
		Usage:     "Draw the computed grid over a page image",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artifact",
				Aliases: []string{"a"},
				Usage:   "OCR artifact; the grid is placed by its anchor",
			},
			&cli.FloatFlag{Name: "origin-x", Usage: "Template origin X when no artifact is given"},
			&cli.FloatFlag{Name: "origin-y", Usage: "Template origin Y when no artifact is given"},
			&cli.BoolFlag{Name: "fragments", Usage: "Outline the OCR fragments too"},
			&cli.BoolFlag{Name: "no-labels", Usage: "Do not label cells"},
			&cli.IntFlag{Name: "thickness", Usage: "Outline thickness in pixels", Value: 3},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output PNG file",
				Value:   "overlay.png",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			imgPath, err := requireArg(cmd, "image")
			if err != nil {
				return err
			}
			p, err := loadParser(cmd)
			if err != nil {
				return err
			}

			var (
				cells []timetable.Cell
				frags []fragment.Fragment
			)
			if artifact := cmd.String("artifact"); artifact != "" {
				doc, err := fragment.Load(artifact)
				if err != nil {
					return err
				}
				table, err := p.Parse(doc)
				if err != nil {
					return err
				}
				cells = table.Cells()
				if cmd.Bool("fragments") {
					frags = doc.Fragments
				}
			} else {
				cells, err = p.Cells(geometry.Point{X: cmd.Float("origin-x"), Y: cmd.Float("origin-y")})
				if err != nil {
					return err
				}
			}

			img, err := imaging.NewImageCache().Load(imgPath)
			if err != nil {
				return err
			}
			result, err := imaging.Overlay(img, cells, imaging.OverlayOptions{
				Thickness: cmd.Int("thickness"),
				Labels:    !cmd.Bool("no-labels"),
				Fragments: frags,
			})
			if err != nil {
				return err
			}
			data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
			if err != nil {
				return fmt.Errorf("failed to decode overlay: %w", err)
			}
			return writeOutput(cmd.String("output"), data)
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Re-encode page images (e.g. TIFF scans to JPEG for upload)",
		ArgsUsage: "<input-dir> <output-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "jpg or png", Value: "jpg"},
			&cli.BoolFlag{Name: "compress", Usage: "Trade quality for size"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected <input-dir> <output-dir>")
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			entries, err := os.ReadDir(in)
			if err != nil {
				return fmt.Errorf("failed to read input directory: %w", err)
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				src := filepath.Join(in, e.Name())
				dst := filepath.Join(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
				if err := imaging.Convert(src, dst, cmd.String("format"), cmd.Bool("compress")); err != nil {
					log.Printf("Error converting %s: %v", e.Name(), err)
					continue
				}
				log.Printf("Converted %s", e.Name())
			}
			return nil
		},
	}
}

func templateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Print the effective configuration as YAML",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "width", Usage: "Page width for the default template"},
			&cli.FloatFlag{Name: "height", Usage: "Page height for the default template"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var cfg layout.Config
			if w, h := cmd.Float("width"), cmd.Float("height"); w > 0 && h > 0 {
				cfg = layout.DefaultConfigSized(w, h)
			} else {
				var err error
				if cfg, err = loadConfig(cmd); err != nil {
					return err
				}
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			return writeOutput("", data)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdin/stdout",
		Flags: []cli.Flag{langFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			srv := server.New(cfg, ocr.NewRecognizer(cmd.String("lang")), Version)
			if err := srv.Run(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}
