// Package svgdoc serializes traced regions as filled <path> elements inside
// an SVG document (C5 of the tracing pipeline), and can rasterize that same
// in-memory geometry back to pixels for round-trip verification and
// terminal preview.
package svgdoc

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pixeltrace/pixeltrace/pkg/path"
	"github.com/pixeltrace/pixeltrace/pkg/raster"
)

const prolog = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN"
  "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
`

// RegionShape is one region's fill color plus its closed subpaths, ready
// for emission.
type RegionShape struct {
	Color    raster.Color
	HasAlpha bool
	MinX     int
	MinY     int
	Subpaths [][]path.Vertex
}

// Write emits the complete SVG document for width x height to w, one <path>
// per shape. Shapes are sorted by (color, min pixel x, min pixel y) before
// emission so repeated runs over the same input produce byte-identical
// output (§4.2/§4.5/§9).
func Write(w io.Writer, width, height int, shapes []RegionShape) error {
	sorted := make([]RegionShape, len(shapes))
	copy(sorted, shapes)
	sort.Slice(sorted, func(i, j int) bool { return shapeLess(sorted[i], sorted[j]) })

	if _, err := fmt.Fprintf(w, "%s<svg width=\"%d\" height=\"%d\"\n     xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\">\n", prolog, width, height); err != nil {
		return err
	}

	var b strings.Builder
	for _, s := range sorted {
		b.Reset()
		for _, sub := range s.Subpaths {
			if len(sub) == 0 {
				continue
			}
			fmt.Fprintf(&b, " M %d,%d", sub[0].X, sub[0].Y)
			for _, v := range sub[1:] {
				fmt.Fprintf(&b, " L %d,%d", v.X, v.Y)
			}
			b.WriteString(" Z")
		}
		opacity := "1.0"
		if s.HasAlpha {
			opacity = strconv.FormatFloat(float64(s.Color.A)/255.0, 'g', -1, 64)
		}
		if _, err := fmt.Fprintf(w, " <path d=\"%s\" style=\"fill:rgb(%d,%d,%d); fill-opacity:%s; stroke:none;\" />\n",
			b.String(), s.Color.R, s.Color.G, s.Color.B, opacity); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</svg>\n")
	return err
}

func shapeLess(a, b RegionShape) bool {
	if a.Color != b.Color {
		return colorLess(a.Color, b.Color)
	}
	if a.MinX != b.MinX {
		return a.MinX < b.MinX
	}
	return a.MinY < b.MinY
}

// Rasterize renders shapes back to a pixel grid by nearest-neighbor
// sampling at pixel centers and even-odd fill over each shape's subpaths -
// the exact rule Testable Property 6 requires. It operates directly on the
// in-memory geometry (the same structures Write serializes) rather than
// re-parsing emitted SVG text, since this package is the one place that
// already knows how to walk a shape's subpaths.
//
// Pixels not covered by any shape are left at the zero Color (fully
// transparent), matching background pixels in the original input.
func Rasterize(width, height int, shapes []RegionShape) *raster.Grid {
	hasAlpha := false
	for _, s := range shapes {
		if s.HasAlpha {
			hasAlpha = true
			break
		}
	}

	pixelColor := make([]raster.Color, width*height)
	covered := make([]bool, width*height)

	for _, s := range shapes {
		for y := 0; y < height; y++ {
			cy := float64(y) + 0.5
			for x := 0; x < width; x++ {
				if covered[y*width+x] {
					continue
				}
				cx := float64(x) + 0.5
				if pointInShape(cx, cy, s.Subpaths) {
					pixelColor[y*width+x] = s.Color
					covered[y*width+x] = true
				}
			}
		}
	}

	return raster.New(width, height, hasAlpha, func(x, y int) raster.Color {
		return pixelColor[y*width+x]
	})
}

// pointInShape applies the even-odd rule across every subpath: a point is
// inside iff a ray cast from it crosses the combined boundary an odd number
// of times.
func pointInShape(px, py float64, subpaths [][]path.Vertex) bool {
	inside := false
	for _, sub := range subpaths {
		n := len(sub)
		for i := 0; i < n; i++ {
			a := sub[i]
			b := sub[(i+1)%n]
			ax, ay := float64(a.X), float64(a.Y)
			bx, by := float64(b.X), float64(b.Y)
			if (ay > py) != (by > py) {
				xCross := ax + (py-ay)/(by-ay)*(bx-ax)
				if px < xCross {
					inside = !inside
				}
			}
		}
	}
	return inside
}

func colorLess(a, b raster.Color) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	if a.B != b.B {
		return a.B < b.B
	}
	return a.A < b.A
}
