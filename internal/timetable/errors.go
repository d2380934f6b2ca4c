package timetable

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/layout"
)

var (
	// ErrInvalidTemplate is the layout package's template error.
	ErrInvalidTemplate = layout.ErrInvalidTemplate

	ErrAnchorNotFound       = errors.New("anchor not found")
	ErrAmbiguousAnchor      = errors.New("ambiguous anchor")
	ErrMetadataMissing      = errors.New("metadata missing")
	ErrFragmentUnassignable = errors.New("fragment unassignable")
)

// UnassignedFragment reports a fragment that no cell could take. It is a
// diagnostic, not a failure of the document.
type UnassignedFragment struct {
	Fragment fragment.Fragment `json:"fragment"`

	// NearestCell is the id of the closest cell, or -1 when there are no
	// cells at all or the fragment has no polygon.
	NearestCell int `json:"nearest_cell"`

	// Distance is how far the fragment centroid lies from NearestCell.
	Distance float64 `json:"distance"`
}

func (u UnassignedFragment) Error() string {
	if !u.Fragment.Positioned() {
		return fmt.Sprintf("fragment %d %q has no position", u.Fragment.Index, u.Fragment.Text)
	}
	c := u.Fragment.Centroid()
	return fmt.Sprintf("fragment %d %q at (%.1f,%.1f) is %.1fpx from the nearest cell",
		u.Fragment.Index, u.Fragment.Text, c.X, c.Y, u.Distance)
}

// Is makes every UnassignedFragment match ErrFragmentUnassignable.
func (u UnassignedFragment) Is(target error) bool {
	return target == ErrFragmentUnassignable
}
