package timetable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RoomKey is the metadata key for the room identifier.
const RoomKey = "room"

// MetadataPolicy derives table metadata from an assembled grid. Policies
// see only the assembled table, never geometry code, so document families
// that print the room elsewhere can plug in their own rule.
type MetadataPolicy interface {
	Extract(t *ParsedTable) (map[string]string, error)
}

// MetadataPolicyFunc adapts a function to MetadataPolicy.
type MetadataPolicyFunc func(t *ParsedTable) (map[string]string, error)

// Extract calls f(t).
func (f MetadataPolicyFunc) Extract(t *ParsedTable) (map[string]string, error) { return f(t) }

// HeaderCellPolicy takes the verbatim text of one header cell.
type HeaderCellPolicy struct {
	Key    string
	Row    int
	Column int
}

// DefaultPolicy reads the room from the first cell of the header band.
func DefaultPolicy() MetadataPolicy {
	return HeaderCellPolicy{Key: RoomKey}
}

// Extract implements MetadataPolicy.
func (p HeaderCellPolicy) Extract(t *ParsedTable) (map[string]string, error) {
	if p.Row < 0 || p.Row >= len(t.Header) || p.Column < 0 || p.Column >= len(t.Header[p.Row]) {
		return nil, errors.Wrapf(ErrMetadataMissing, "%s: header cell (%d,%d) does not exist", p.Key, p.Row, p.Column)
	}
	text := t.Header[p.Row][p.Column].Text
	if text == "" {
		return nil, errors.Wrapf(ErrMetadataMissing, "%s: header cell (%d,%d) has no text", p.Key, p.Row, p.Column)
	}
	return map[string]string{p.Key: text}, nil
}

// PatternPolicy scans header cells row-major and takes the first text the
// pattern matches. When the pattern has a capture group the first group is
// used, otherwise the whole match.
type PatternPolicy struct {
	Key     string
	Pattern *regexp.Regexp
}

// Extract implements MetadataPolicy.
func (p PatternPolicy) Extract(t *ParsedTable) (map[string]string, error) {
	for _, row := range t.Header {
		for _, cell := range row {
			m := p.Pattern.FindStringSubmatch(cell.Text)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			if value = strings.TrimSpace(value); value != "" {
				return map[string]string{p.Key: value}, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrMetadataMissing, "%s: no header cell matches %s", p.Key, p.Pattern)
}

// PolicyByName resolves a configured policy selector:
//
//	header-cell            room from header cell (0,0)
//	header-cell:R,C        room from header cell (R,C)
//	pattern:REGEXP         room from the first header cell matching REGEXP
func PolicyByName(name string) (MetadataPolicy, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "", "header-cell":
		if arg == "" {
			return DefaultPolicy(), nil
		}
		r, c, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, errors.Errorf("policy %q: expected header-cell:ROW,COL", name)
		}
		row, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil {
			return nil, errors.Wrapf(err, "policy %q: bad row", name)
		}
		col, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, errors.Wrapf(err, "policy %q: bad column", name)
		}
		return HeaderCellPolicy{Key: RoomKey, Row: row, Column: col}, nil
	case "pattern":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "policy %q", name)
		}
		return PatternPolicy{Key: RoomKey, Pattern: re}, nil
	}
	return nil, errors.Errorf("unknown metadata policy %q", name)
}
