package layout

import (
	"fmt"
	"strings"
)

// RowType is the closed vocabulary of row-type tags. Each tag selects the
// cell shape used by the slot it labels. The zero value is not a valid tag.
type RowType int

const (
	// SingleDay is an ordinary teaching slot ("DS").
	SingleDay RowType = iota + 1
	// PairedBlock is a paired break block ("BP").
	PairedBlock
	// SplitBlock is a narrower split block, such as the lunch slot ("BS").
	SplitBlock
)

// Shape selects one of a region's cell sizes.
type Shape int

const (
	Primary Shape = iota
	Secondary
	Tertiary
)

func (s Shape) String() string {
	switch s {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Tertiary:
		return "tertiary"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

var rowTypeNames = map[RowType]struct {
	code, name string
	shape      Shape
}{
	SingleDay:   {"DS", "single-day", Primary},
	PairedBlock: {"BP", "paired-block", Secondary},
	SplitBlock:  {"BS", "split-block", Tertiary},
}

// ParseRowType accepts either the short printed code ("DS") or the long
// name ("single-day"). Matching ignores case and surrounding space.
func ParseRowType(s string) (RowType, error) {
	key := strings.TrimSpace(s)
	for rt, n := range rowTypeNames {
		if strings.EqualFold(key, n.code) || strings.EqualFold(key, n.name) {
			return rt, nil
		}
	}
	return 0, fmt.Errorf("unknown row type %q", s)
}

// MustParseRowTypes parses a list of tags and panics on the first unknown
// one. It is meant for literal defaults.
func MustParseRowTypes(tags ...string) []RowType {
	out := make([]RowType, len(tags))
	for i, tag := range tags {
		rt, err := ParseRowType(tag)
		if err != nil {
			panic(err)
		}
		out[i] = rt
	}
	return out
}

// Valid reports whether rt is one of the defined tags.
func (rt RowType) Valid() bool {
	_, ok := rowTypeNames[rt]
	return ok
}

// Code returns the short printed code, e.g. "DS".
func (rt RowType) Code() string {
	if n, ok := rowTypeNames[rt]; ok {
		return n.code
	}
	return "??"
}

// String returns the long name, e.g. "single-day".
func (rt RowType) String() string {
	if n, ok := rowTypeNames[rt]; ok {
		return n.name
	}
	return fmt.Sprintf("rowtype(%d)", int(rt))
}

// Shape returns the cell shape this tag selects.
func (rt RowType) Shape() Shape {
	return rowTypeNames[rt].shape
}

// MarshalText encodes the tag as its short code.
func (rt RowType) MarshalText() ([]byte, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("invalid row type %d", int(rt))
	}
	return []byte(rt.Code()), nil
}

// UnmarshalText decodes a short code or long name.
func (rt *RowType) UnmarshalText(text []byte) error {
	parsed, err := ParseRowType(string(text))
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}
