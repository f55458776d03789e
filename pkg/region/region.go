// Package region computes the maximal 4-connected monochromatic components
// of a raster.Grid (C2 of the tracing pipeline).
package region

import "github.com/pixeltrace/pixeltrace/pkg/raster"

// Pixel is an (x, y) pixel coordinate, 0 <= x < W, 0 <= y < H.
type Pixel struct {
	X, Y int
}

// Region is a maximal 4-connected set of identically-colored pixels.
type Region struct {
	Color  raster.Color
	Pixels []Pixel
	// MinX, MinY is the lexicographically-smallest pixel in the region,
	// carried for deterministic sort order (§4.2/§4.5 of the spec).
	MinX, MinY int
}

// Label partitions every visible pixel of g into regions via 4-connected
// breadth-first flood fill, iterating seeds in column-major order. Each
// pixel is enqueued (and marked visited) at most once, so the whole grid is
// labeled in O(W*H) time and space.
func Label(g *raster.Grid) []Region {
	w, h := g.W, g.H
	if w == 0 || h == 0 {
		return nil
	}

	visited := make([]bool, w*h)
	var regions []Region

	queue := make([]Pixel, 0, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			idx := y*w + x
			if visited[idx] || !g.Visible(x, y) {
				continue
			}
			c := g.At(x, y)

			queue = queue[:0]
			queue = append(queue, Pixel{x, y})
			visited[idx] = true

			pixels := make([]Pixel, 0, 16)
			minX, minY := x, y
			for qi := 0; qi < len(queue); qi++ {
				p := queue[qi]
				pixels = append(pixels, p)
				if p.X < minX || (p.X == minX && p.Y < minY) {
					minX, minY = p.X, p.Y
				}

				for _, n := range neighbors(p, w, h) {
					nidx := n.Y*w + n.X
					if visited[nidx] || !g.Visible(n.X, n.Y) {
						continue
					}
					if g.At(n.X, n.Y) != c {
						continue
					}
					visited[nidx] = true
					queue = append(queue, n)
				}
			}

			regions = append(regions, Region{Color: c, Pixels: pixels, MinX: minX, MinY: minY})
		}
	}

	return regions
}

func neighbors(p Pixel, w, h int) []Pixel {
	out := make([]Pixel, 0, 4)
	if p.X > 0 {
		out = append(out, Pixel{p.X - 1, p.Y})
	}
	if p.X < w-1 {
		out = append(out, Pixel{p.X + 1, p.Y})
	}
	if p.Y > 0 {
		out = append(out, Pixel{p.X, p.Y - 1})
	}
	if p.Y < h-1 {
		out = append(out, Pixel{p.X, p.Y + 1})
	}
	return out
}
