package path

import (
	"reflect"
	"testing"

	"github.com/pixeltrace/pixeltrace/pkg/boundary"
)

func TestJoinSinglePixelSquare(t *testing.T) {
	edges := boundary.Set{
		{Vertex{0, 0}, Vertex{0, 1}}: {},
		{Vertex{0, 1}, Vertex{1, 1}}: {},
		{Vertex{1, 1}, Vertex{1, 0}}: {},
		{Vertex{1, 0}, Vertex{0, 0}}: {},
	}
	shape := Join(edges)
	if len(shape) != 1 {
		t.Fatalf("expected 1 subpath, got %d", len(shape))
	}
	want := []Vertex{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	if !reflect.DeepEqual(shape[0], want) {
		t.Fatalf("got %v want %v", shape[0], want)
	}
	if len(edges) != 0 {
		t.Fatalf("expected all edges consumed, %d left", len(edges))
	}
}

func TestJoinCollapsesCollinearRun(t *testing.T) {
	// 2x1 region boundary: the two top edges and two bottom edges should
	// each collapse into a single segment.
	edges := boundary.Set{
		{Vertex{0, 0}, Vertex{0, 1}}: {}, // left
		{Vertex{0, 1}, Vertex{1, 1}}: {}, // bottom, pixel 0
		{Vertex{1, 1}, Vertex{2, 1}}: {}, // bottom, pixel 1
		{Vertex{2, 1}, Vertex{2, 0}}: {}, // right
		{Vertex{2, 0}, Vertex{1, 0}}: {}, // top, pixel 1
		{Vertex{1, 0}, Vertex{0, 0}}: {}, // top, pixel 0
	}
	shape := Join(edges)
	if len(shape) != 1 {
		t.Fatalf("expected 1 subpath, got %d", len(shape))
	}
	want := []Vertex{{0, 0}, {0, 1}, {2, 1}, {2, 0}}
	if !reflect.DeepEqual(shape[0], want) {
		t.Fatalf("got %v want %v", shape[0], want)
	}
}

func TestJoinCollapsesLongerCollinearRun(t *testing.T) {
	// 3x1 region: each side has a run of 3 unit edges that must collapse
	// into a single segment, exercising collinear runs deeper than 2.
	edges := boundary.Set{
		{Vertex{0, 0}, Vertex{0, 1}}: {}, // left
		{Vertex{0, 1}, Vertex{1, 1}}: {}, // bottom, pixel 0
		{Vertex{1, 1}, Vertex{2, 1}}: {}, // bottom, pixel 1
		{Vertex{2, 1}, Vertex{3, 1}}: {}, // bottom, pixel 2
		{Vertex{3, 1}, Vertex{3, 0}}: {}, // right
		{Vertex{3, 0}, Vertex{2, 0}}: {}, // top, pixel 2
		{Vertex{2, 0}, Vertex{1, 0}}: {}, // top, pixel 1
		{Vertex{1, 0}, Vertex{0, 0}}: {}, // top, pixel 0
	}
	shape := Join(edges)
	if len(shape) != 1 {
		t.Fatalf("expected 1 subpath, got %d", len(shape))
	}
	want := []Vertex{{0, 0}, {0, 1}, {3, 1}, {3, 0}}
	if !reflect.DeepEqual(shape[0], want) {
		t.Fatalf("got %v want %v", shape[0], want)
	}
	if len(edges) != 0 {
		t.Fatalf("expected all edges consumed, %d left", len(edges))
	}
}

func TestJoinNoCollinearTriples(t *testing.T) {
	edges := boundary.Set{
		{Vertex{0, 0}, Vertex{0, 1}}: {},
		{Vertex{0, 1}, Vertex{1, 1}}: {},
		{Vertex{1, 1}, Vertex{2, 1}}: {},
		{Vertex{2, 1}, Vertex{2, 0}}: {},
		{Vertex{2, 0}, Vertex{1, 0}}: {},
		{Vertex{1, 0}, Vertex{0, 0}}: {},
	}
	shape := Join(edges)
	sub := shape[0]
	n := len(sub)
	for i := 0; i < n; i++ {
		a := sub[i]
		b := sub[(i+1)%n]
		c := sub[(i+2)%n]
		d1 := Vertex{b.X - a.X, b.Y - a.Y}
		d2 := Vertex{c.X - b.X, c.Y - b.Y}
		if d1 == d2 {
			t.Fatalf("found collinear triple at index %d: %v %v %v", i, a, b, c)
		}
	}
}

func TestJoinDeterministicAcrossRuns(t *testing.T) {
	build := func() boundary.Set {
		return boundary.Set{
			{Vertex{0, 0}, Vertex{0, 1}}: {},
			{Vertex{0, 1}, Vertex{1, 1}}: {},
			{Vertex{1, 1}, Vertex{1, 0}}: {},
			{Vertex{1, 0}, Vertex{0, 0}}: {},
		}
	}
	first := Join(build())
	second := Join(build())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Join is not deterministic: %v vs %v", first, second)
	}
}
