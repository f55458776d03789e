// Package convert orchestrates the single-image pipeline: decode, label,
// extract boundaries, join them into shapes, and emit an SVG document
// (C1-C5 of the tracing pipeline, §7 error handling).
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixeltrace/pixeltrace/pkg/boundary"
	"github.com/pixeltrace/pixeltrace/pkg/path"
	"github.com/pixeltrace/pixeltrace/pkg/raster"
	"github.com/pixeltrace/pixeltrace/pkg/region"
	"github.com/pixeltrace/pixeltrace/pkg/svgdoc"
)

// Kind classifies the error a caller of File received.
type Kind string

const (
	InvalidFilePath        Kind = "InvalidFilePath"
	Decode                 Kind = "Decode"
	UnsupportedColorLayout Kind = "UnsupportedColorLayout"
	Io                     Kind = "Io"
)

// Error is the typed error surfaced to every caller of this package and of
// pkg/batch. It wraps the underlying cause so callers can still use
// errors.Is/errors.As against it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Workers overrides the worker-pool size used for per-region edge
// extraction (§4.3 expansion). Zero means runtime.NumCPU().
type Options struct {
	Workers int
}

// Document is the fully-traced result of one image, ready for svgdoc.Write.
type Document struct {
	Width, Height int
	Shapes        []svgdoc.RegionShape
}

// Grid runs C2-C4 over an already-decoded pixel source and returns the
// traced document.
func Grid(g *raster.Grid, opts Options) *Document {
	regions := region.Label(g)
	edgeSets := boundary.Extract(regions, opts.Workers)

	shapes := make([]svgdoc.RegionShape, len(regions))
	for i, r := range regions {
		subpaths := path.Join(edgeSets[i])
		shapes[i] = svgdoc.RegionShape{
			Color:    r.Color,
			HasAlpha: g.HasAlpha,
			MinX:     r.MinX,
			MinY:     r.MinY,
			Subpaths: subpaths,
		}
	}

	return &Document{Width: g.W, Height: g.H, Shapes: shapes}
}

// File runs the whole pipeline (C1-C5) for one input file and writes the
// resulting SVG to outPath. The write is atomic: it writes to a temp file
// in outPath's directory and renames it into place, so a failure never
// leaves a partial file at outPath (§7).
func File(inPath, outPath string, opts Options) error {
	if _, err := os.Stat(inPath); err != nil {
		return wrap(InvalidFilePath, "stat", err)
	}

	g, err := raster.Load(inPath)
	if err != nil {
		var uerr *raster.UnsupportedColorLayoutError
		if errors.As(err, &uerr) {
			return wrap(UnsupportedColorLayout, "decode", err)
		}
		return wrap(Decode, "decode", err)
	}

	doc := Grid(g, opts)

	if err := writeAtomic(outPath, doc); err != nil {
		return wrap(Io, "write", err)
	}
	return nil
}

func writeAtomic(outPath string, doc *Document) error {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, ".pixeltrace-*.svg.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := svgdoc.Write(tmp, doc.Width, doc.Height, doc.Shapes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, outPath)
}
