package timetable

import (
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/rtree"

	"github.com/Adisuarn/Schedule-Parser/internal/fragment"
	"github.com/Adisuarn/Schedule-Parser/internal/geometry"
)

// epsilon absorbs floating-point noise when comparing areas and when
// querying the index with a point.
const epsilon = 1e-9

// AssignOptions tunes fragment assignment.
type AssignOptions struct {
	// Tolerance is the largest distance from a cell at which a fragment
	// centroid outside every cell is still attached to it. Zero or less
	// means half the smallest cell dimension.
	Tolerance float64

	// Workers is the number of goroutines sharing the fragments. Zero or
	// less means runtime.NumCPU().
	Workers int
}

// Assignment is the result of Assign.
type Assignment struct {
	// Cells are copies of the input cells with Text and Fragments filled in.
	Cells []Cell

	// Unassigned lists the fragments no cell took, ordered by fragment index.
	Unassigned []UnassignedFragment
}

// cellIndex is a read-only spatial index over cell rectangles.
type cellIndex struct {
	cells []Cell
	tree  rtree.RTreeG[int]
}

func newCellIndex(cells []Cell) *cellIndex {
	idx := &cellIndex{cells: cells}
	for i, c := range cells {
		idx.tree.Insert([2]float64{c.Rect.X1, c.Rect.Y1}, [2]float64{c.Rect.X2, c.Rect.Y2}, i)
	}
	return idx
}

// within returns the positions of cells whose rectangle comes within margin
// of p, in ascending position order.
func (idx *cellIndex) within(p geometry.Point, margin float64) []int {
	var out []int
	idx.tree.Search(
		[2]float64{p.X - margin, p.Y - margin},
		[2]float64{p.X + margin, p.Y + margin},
		func(_, _ [2]float64, i int) bool {
			out = append(out, i)
			return true
		},
	)
	sort.Ints(out)
	return out
}

// readingBefore reports whether cell a wins a tie against cell b: the
// topmost, then leftmost, then lowest id.
func readingBefore(a, b Cell) bool {
	if a.Rect.Y1 != b.Rect.Y1 {
		return a.Rect.Y1 < b.Rect.Y1
	}
	if a.Rect.X1 != b.Rect.X1 {
		return a.Rect.X1 < b.Rect.X1
	}
	return a.ID < b.ID
}

// placement is the decision for one fragment: a cell position, or -1.
type placement struct {
	frag     fragment.Fragment
	centroid geometry.Point
	cell     int
}

// place applies the assignment rules to a single fragment. It reads only
// its arguments.
func (idx *cellIndex) place(f fragment.Fragment, tolerance float64) placement {
	c := f.Centroid()
	pl := placement{frag: f, centroid: c, cell: -1}
	if !f.Positioned() {
		return pl
	}

	var strict, closed []int
	for _, i := range idx.within(c, epsilon) {
		r := idx.cells[i].Rect
		if r.ContainsStrict(c) {
			strict = append(strict, i)
		}
		if r.Contains(c) {
			closed = append(closed, i)
		}
	}

	switch {
	case len(strict) == 1:
		pl.cell = strict[0]
		return pl
	case len(closed) > 0:
		pl.cell = idx.largestOverlap(f.Bounds(), closed)
		return pl
	}

	best, bestDist := -1, math.Inf(1)
	for _, i := range idx.within(c, tolerance) {
		d := idx.cells[i].Rect.Distance(c)
		if d > tolerance {
			continue
		}
		if best < 0 || d < bestDist-epsilon ||
			(math.Abs(d-bestDist) <= epsilon && readingBefore(idx.cells[i], idx.cells[best])) {
			best, bestDist = i, d
		}
	}
	pl.cell = best
	return pl
}

// largestOverlap picks the candidate sharing the most area with bounds,
// falling back to the topmost-then-leftmost cell on ties.
func (idx *cellIndex) largestOverlap(bounds geometry.Rect, candidates []int) int {
	best, bestArea := candidates[0], bounds.Intersect(idx.cells[candidates[0]].Rect).Area()
	for _, i := range candidates[1:] {
		area := bounds.Intersect(idx.cells[i].Rect).Area()
		switch {
		case area > bestArea+epsilon:
			best, bestArea = i, area
		case math.Abs(area-bestArea) <= epsilon && readingBefore(idx.cells[i], idx.cells[best]):
			best = i
		}
	}
	return best
}

// nearest scans every cell for the closest one. It is only used to describe
// fragments that could not be assigned.
func (idx *cellIndex) nearest(p geometry.Point) (int, float64) {
	best, bestDist := -1, 0.0
	for i, cell := range idx.cells {
		d := cell.Rect.Distance(p)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return -1, 0
	}
	return idx.cells[best].ID, bestDist
}

// defaultTolerance is half the smallest cell dimension.
func defaultTolerance(cells []Cell) float64 {
	smallest := math.Inf(1)
	for _, c := range cells {
		smallest = math.Min(smallest, math.Min(c.Rect.Width(), c.Rect.Height()))
	}
	if math.IsInf(smallest, 1) {
		return 0
	}
	return smallest / 2
}

// Assign attaches each fragment to at most one cell and fills in cell text.
//
// The input cells are not modified. Fragments are split across
// opts.Workers goroutines, each producing its own placements; the merge
// groups them by cell and sorts every cell's fragments by centroid Y, then
// centroid X, then fragment index, so the result is independent of both
// input order and scheduling.
func Assign(cells []Cell, fragments []fragment.Fragment, opts AssignOptions) Assignment {
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance(cells)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(fragments) {
		workers = len(fragments)
	}

	idx := newCellIndex(cells)

	parts := make([][]placement, workers)
	var wg sync.WaitGroup
	chunk := 0
	if workers > 0 {
		chunk = (len(fragments) + workers - 1) / workers
	}
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(fragments))
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w int, frags []fragment.Fragment) {
			defer wg.Done()
			out := make([]placement, len(frags))
			for i, f := range frags {
				out[i] = idx.place(f, tolerance)
			}
			parts[w] = out
		}(w, fragments[lo:hi])
	}
	wg.Wait()

	return merge(idx, parts)
}

func merge(idx *cellIndex, parts [][]placement) Assignment {
	byCell := make([][]placement, len(idx.cells))
	var unassigned []UnassignedFragment
	for _, part := range parts {
		for _, pl := range part {
			if pl.cell < 0 {
				u := UnassignedFragment{Fragment: pl.frag, NearestCell: -1}
				if pl.frag.Positioned() {
					u.NearestCell, u.Distance = idx.nearest(pl.centroid)
				}
				unassigned = append(unassigned, u)
				continue
			}
			byCell[pl.cell] = append(byCell[pl.cell], pl)
		}
	}

	out := make([]Cell, len(idx.cells))
	for i, cell := range idx.cells {
		pls := byCell[i]
		sort.SliceStable(pls, func(a, b int) bool {
			pa, pb := pls[a], pls[b]
			if pa.centroid.Y != pb.centroid.Y {
				return pa.centroid.Y < pb.centroid.Y
			}
			if pa.centroid.X != pb.centroid.X {
				return pa.centroid.X < pb.centroid.X
			}
			return pa.frag.Index < pb.frag.Index
		})

		cell.Text = ""
		cell.Fragments = nil
		if len(pls) > 0 {
			texts := make([]string, len(pls))
			cell.Fragments = make([]int, len(pls))
			for j, pl := range pls {
				texts[j] = pl.frag.Text
				cell.Fragments[j] = pl.frag.Index
			}
			cell.Text = strings.Join(texts, " ")
		}
		out[i] = cell
	}

	sort.SliceStable(unassigned, func(a, b int) bool {
		return unassigned[a].Fragment.Index < unassigned[b].Fragment.Index
	})
	return Assignment{Cells: out, Unassigned: unassigned}
}
