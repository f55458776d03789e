// Package raster presents a decoded raster image as a width x height grid of
// exact colors with an alpha-aware visibility predicate (C1 of the tracing
// pipeline). It accepts any format the process has registered an
// image.Decode handler for, and reduces the decoded pixels losslessly to
// RGB8 or RGBA8.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Color is a channel-exact RGBA8 color. Two colors are equal iff every
// channel matches exactly; there is no quantization or tolerance.
type Color struct {
	R, G, B, A uint8
}

// UnsupportedColorLayoutError reports a decoded color model this package
// cannot reduce losslessly to RGB8 or RGBA8 (for example 16-bit-per-channel
// PNG).
type UnsupportedColorLayoutError struct {
	GoType string
}

func (e *UnsupportedColorLayoutError) Error() string {
	return fmt.Sprintf("unsupported color layout: %s cannot be reduced to RGB8/RGBA8 losslessly", e.GoType)
}

// Grid is the pixel source: a decoded image exposed as width x height exact
// colors plus a visibility predicate. Coordinates are [0,W) x [0,H).
type Grid struct {
	W, H     int
	HasAlpha bool
	pix      []Color // row-major, index y*W+x
}

// New builds a Grid from a pixel function, for callers that already have
// pixel data in hand (synthetic fixtures, round-trip rasterization) rather
// than an encoded image to decode.
func New(w, h int, hasAlpha bool, at func(x, y int) Color) *Grid {
	g := &Grid{W: w, H: h, HasAlpha: hasAlpha, pix: make([]Color, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.pix[y*w+x] = at(x, y)
		}
	}
	return g
}

// At returns the exact color at (x, y). x and y must be in range.
func (g *Grid) At(x, y int) Color {
	return g.pix[y*g.W+x]
}

// Visible reports whether the pixel at (x, y) participates in region
// labeling: with alpha, only non-zero-alpha pixels are visible; without
// alpha, every pixel is visible.
func (g *Grid) Visible(x, y int) bool {
	if !g.HasAlpha {
		return true
	}
	return g.pix[y*g.W+x].A != 0
}

// Load opens path and decodes it into a Grid.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return g, nil
}

// Decode reads a registered raster format from r and reduces it to a Grid.
// The concrete decoded Go image type is switched on explicitly rather than
// routed through a generic color.Model.Convert, so gray and gray+alpha
// sources upconvert channel-preservingly and anything that would lose
// precision (16-bit channels) fails with *UnsupportedColorLayoutError
// instead of being silently truncated.
func Decode(r io.Reader) (*Grid, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return fromImage(img)
}

func fromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	g := &Grid{W: w, H: h, pix: make([]Color, w*h)}

	switch src := img.(type) {
	case *image.NRGBA:
		// Covers both true-color-with-alpha and gray-with-alpha PNGs: in the
		// latter case the decoder has already replicated gray into R=G=B.
		g.HasAlpha = true
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				o := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				g.pix[y*w+x] = Color{src.Pix[o], src.Pix[o+1], src.Pix[o+2], src.Pix[o+3]}
			}
		}
	case *image.RGBA:
		// Decoder output for true-color-without-alpha PNGs and similar: A is
		// always 0xff and the channels are not premultiplied in practice
		// because alpha is opaque.
		g.HasAlpha = false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				o := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				g.pix[y*w+x] = Color{src.Pix[o], src.Pix[o+1], src.Pix[o+2], 255}
			}
		}
	case *image.Gray:
		g.HasAlpha = false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				g.pix[y*w+x] = Color{v, v, v, 255}
			}
		}
	case *image.Paletted:
		g.HasAlpha = paletteHasAlpha(src.Palette)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				nc := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				g.pix[y*w+x] = Color{nc.R, nc.G, nc.B, nc.A}
			}
		}
	case *image.YCbCr:
		// JPEG's native representation; converting via its own color model is
		// an exact, deterministic formula, not an extra quantization step.
		g.HasAlpha = false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				nc := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				g.pix[y*w+x] = Color{nc.R, nc.G, nc.B, 255}
			}
		}
	default:
		return nil, &UnsupportedColorLayoutError{GoType: fmt.Sprintf("%T", img)}
	}

	return g, nil
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		_, _, _, a := c.RGBA()
		if a != 0xffff {
			return true
		}
	}
	return false
}
