// Package path assembles a region's unit edges into ordered, closed,
// collinear-simplified polygonal subpaths (C4 of the tracing pipeline).
package path

import (
	"sort"

	"github.com/pixeltrace/pixeltrace/pkg/boundary"
)

// Vertex is a lattice point shared with the boundary package.
type Vertex = boundary.Vertex

// direction probe order fixed by the spec: N, E, S, W in (dx, dy) terms
// using the spec's own labels - "down" is +y since the grid is y-down.
var probeOrder = [4]Vertex{
	{0, 1},  // (0,+1)
	{1, 0},  // (+1,0)
	{0, -1}, // (0,-1)
	{-1, 0}, // (-1,0)
}

// Join consumes edges (removing every edge it uses) and returns the
// region's closed subpaths in discovery order. Each subpath is trimmed of
// its duplicated closing vertex (front == back) and collinear-simplified:
// three consecutive vertices that continue in the same direction are
// collapsed to their endpoints.
func Join(edges boundary.Set) [][]Vertex {
	// Edge-set removal order only affects which vertex each subpath starts
	// at, never the resulting partition (§4.4), but a fixed starting edge
	// per subpath is what makes repeated runs byte-identical (§8 property
	// 7), so candidates are tried in a stable sorted order rather than
	// whatever order Go's (randomized) map iteration happens to produce.
	starts := make([]boundary.Edge, 0, len(edges))
	for e := range edges {
		starts = append(starts, e)
	}
	sort.Slice(starts, func(i, j int) bool { return edgeLess(starts[i], starts[j]) })

	var shape [][]Vertex
	si := 0

	for len(edges) > 0 {
		for {
			if _, ok := edges[starts[si]]; ok {
				break
			}
			si++
		}
		start := starts[si]
		delete(edges, start)

		sub := []Vertex{start.From, start.To}
		// dir tracks the direction of the most recently taken unit edge,
		// independent of how many vertices collinear collapsing has merged
		// into the current trailing segment - comparing against the raw
		// vertex delta of sub's last two points breaks once that segment
		// spans more than one unit (its delta is no longer a unit vector).
		dir := Vertex{start.To.X - start.From.X, start.To.Y - start.From.Y}

		for {
			last := sub[len(sub)-1]
			var next Vertex
			found := false
			for _, d := range probeOrder {
				cand := Vertex{last.X + d.X, last.Y + d.Y}
				e := boundary.Edge{From: last, To: cand}
				if _, ok := edges[e]; ok {
					delete(edges, e)
					next = cand
					found = true
					break
				}
			}
			if !found {
				break
			}

			takenDir := Vertex{next.X - last.X, next.Y - last.Y}
			if takenDir == dir {
				sub = sub[:len(sub)-1]
			}
			dir = takenDir
			sub = append(sub, next)

			if next == sub[0] {
				break
			}
		}

		if len(sub) > 1 && sub[len(sub)-1] == sub[0] {
			sub = sub[:len(sub)-1]
		}
		shape = append(shape, sub)
	}

	return shape
}

func edgeLess(a, b boundary.Edge) bool {
	if a.From.X != b.From.X {
		return a.From.X < b.From.X
	}
	if a.From.Y != b.From.Y {
		return a.From.Y < b.From.Y
	}
	if a.To.X != b.To.X {
		return a.To.X < b.To.X
	}
	return a.To.Y < b.To.Y
}
