// Package export renders parsed timetables as JSON, Markdown or HTML.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Adisuarn/Schedule-Parser/internal/timetable"
)

// Format selects an output rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", errors.Errorf("unsupported output format %q", s)
}

// Extension returns the file extension used for the format, without a dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatHTML:
		return "html"
	}
	return "json"
}

// Render writes t to w in the given format.
func Render(w io.Writer, t *timetable.ParsedTable, format Format) error {
	switch format {
	case FormatJSON, "":
		return JSON(w, t)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(t))
		return errors.Wrap(err, "failed to write markdown")
	case FormatHTML:
		out, err := HTML(t)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return errors.Wrap(err, "failed to write html")
	}
	return errors.Errorf("unsupported output format %q", format)
}

// JSON writes the table as indented JSON: meta, origin, the header and body
// cell matrices and any unassigned fragments.
func JSON(w io.Writer, t *timetable.ParsedTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(t), "failed to encode table")
}

// Markdown renders the metadata as a heading followed by one GFM table per
// band. A band's first row doubles as the table header, since GFM requires
// one.
func Markdown(t *timetable.ParsedTable) string {
	var b strings.Builder

	title := t.Room()
	if title == "" {
		title = "Timetable"
	}
	b.WriteString("# ")
	b.WriteString(escapeCell(title))
	b.WriteString("\n")

	for _, section := range []struct {
		name string
		rows [][]timetable.Cell
	}{
		{"Header", t.Header},
		{"Body", t.Body},
	} {
		if len(section.rows) == 0 || len(section.rows[0]) == 0 {
			continue
		}
		b.WriteString("\n## ")
		b.WriteString(section.name)
		b.WriteString("\n\n")
		writeTable(&b, section.rows)
	}

	if len(t.Unassigned) > 0 {
		b.WriteString("\n## Unassigned\n\n")
		for _, u := range t.Unassigned {
			b.WriteString("- ")
			b.WriteString(escapeCell(u.Fragment.Text))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, rows [][]timetable.Cell) {
	writeRow(b, rows[0])
	b.WriteString("|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(b, row)
	}
}

func writeRow(b *strings.Builder, row []timetable.Cell) {
	b.WriteString("|")
	for _, c := range row {
		b.WriteString(" ")
		b.WriteString(escapeCell(c.Text))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var cellEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`, "\n", " ", "\r", "")

func escapeCell(s string) string { return cellEscaper.Replace(s) }

// HTML converts the Markdown rendering to HTML with the GFM table
// extension.
func HTML(t *timetable.ParsedTable) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(t)), &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render html")
	}
	return buf.Bytes(), nil
}
