package timetable

import (
	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
)

// Match is the outcome of a successful anchor search.
type Match struct {
	// Origin is the matched fragment's top-left vertex plus the anchor offset.
	Origin geometry.Point `json:"origin"`

	// Fragment is the fragment that carried the identifier.
	Fragment fragment.Fragment `json:"fragment"`
}

// Locate finds the one fragment whose text equals anchor.Identifier exactly
// (case-sensitive) and returns the template origin it implies.
//
// Zero matches yield ErrAnchorNotFound and more than one yield
// ErrAmbiguousAnchor; Locate never guesses between candidates. A single
// match without polygon vertices fixes no position and is reported as
// ErrAnchorNotFound.
//
// The origin is taken from the fragment's first vertex, which OCR engines
// emit at the start of the text. For a page scanned with a slight rotation
// this is the anchor's own top-left corner, not its bounding box corner.
func Locate(fragments []fragment.Fragment, anchor layout.Anchor) (Match, error) {
	var (
		found   fragment.Fragment
		matches []int
	)
	for _, f := range fragments {
		if f.Text != anchor.Identifier {
			continue
		}
		if len(matches) == 0 {
			found = f
		}
		matches = append(matches, f.Index)
	}

	switch len(matches) {
	case 0:
		return Match{}, errors.Wrapf(ErrAnchorNotFound, "identifier %q", anchor.Identifier)
	case 1:
		if !found.Positioned() {
			return Match{}, errors.Wrapf(ErrAnchorNotFound, "identifier %q matches fragment %d, which has no position",
				anchor.Identifier, found.Index)
		}
		return Match{
			Origin:   found.TopLeft().Add(anchor.Offset.X, anchor.Offset.Y),
			Fragment: found,
		}, nil
	default:
		return Match{}, errors.Wrapf(ErrAmbiguousAnchor, "identifier %q matches fragments %v",
			anchor.Identifier, matches)
	}
}
