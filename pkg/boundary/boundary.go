// Package boundary derives the exact unit-edge boundary of each region (C3
// of the tracing pipeline).
package boundary

import (
	"runtime"
	"sync"

	"github.com/pixeltrace/pixeltrace/pkg/region"
)

// Vertex is an integer point on the lattice [0..W] x [0..H], one unit larger
// than the pixel grid on each axis (pixel corners, not pixel centers).
type Vertex struct {
	X, Y int
}

// Edge is a directed unit edge: From and To are Manhattan distance 1 apart,
// oriented so the region lies to its left when walked from From to To.
type Edge struct {
	From, To Vertex
}

// Set is the mutable multiset (in practice a true set - §4.3 emits each
// edge exactly once) of unit edges belonging to one region, keyed for O(1)
// membership and removal as the joiner (C4) consumes it.
type Set map[Edge]struct{}

// Extract returns, for each region in regions (same order, same index), the
// set of unit edges separating it from everything that is not it - out of
// bounds cells and invisible cells included.
//
// Regions are independent, so extraction is fanned out across a worker pool
// sized to workers (falling back to runtime.NumCPU() when workers <= 0),
// mirroring this codebase's buffered job-channel pattern: each worker drains
// region indices from a shared channel and writes only into its own result
// slot, so no locking is needed and completion order does not affect the
// result.
func Extract(regions []region.Region, workers int) []Set {
	sets := make([]Set, len(regions))
	if len(regions) == 0 {
		return sets
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(regions) {
		workers = len(regions)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(regions))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sets[idx] = extractOne(regions[idx])
			}
		}()
	}
	for i := range regions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return sets
}

func extractOne(r region.Region) Set {
	edges := make(Set, len(r.Pixels)*4)
	member := make(map[region.Pixel]struct{}, len(r.Pixels))
	for _, p := range r.Pixels {
		member[p] = struct{}{}
	}
	in := func(x, y int) bool {
		_, ok := member[region.Pixel{X: x, Y: y}]
		return ok
	}

	for _, p := range r.Pixels {
		x, y := p.X, p.Y
		if !in(x-1, y) {
			edges[Edge{Vertex{x, y}, Vertex{x, y + 1}}] = struct{}{}
		}
		if !in(x, y+1) {
			edges[Edge{Vertex{x, y + 1}, Vertex{x + 1, y + 1}}] = struct{}{}
		}
		if !in(x+1, y) {
			edges[Edge{Vertex{x + 1, y + 1}, Vertex{x + 1, y}}] = struct{}{}
		}
		if !in(x, y-1) {
			edges[Edge{Vertex{x + 1, y}, Vertex{x, y}}] = struct{}{}
		}
	}
	return edges
}
