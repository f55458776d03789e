package batch

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixeltrace/pixeltrace/pkg/convert"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestOutPathNoOutDir(t *testing.T) {
	got := OutPath("/a/b/image.png", "")
	want := "/a/b/image.svg"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestOutPathWithOutDir(t *testing.T) {
	got := OutPath("/a/b/image.png", "/out")
	want := filepath.Join("/out", "image.svg")
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestConvertOneWritesSVG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "red.png")
	writePNG(t, in, 1, 1, color.RGBA{255, 0, 0, 255})

	if err := ConvertOne(in, "", convert.Options{}); err != nil {
		t.Fatalf("ConvertOne: %v", err)
	}
	out := filepath.Join(dir, "red.svg")
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "rgb(255,0,0)") {
		t.Fatalf("output missing expected fill: %s", b)
	}
}

func TestConvertManyFailFast(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writePNG(t, good, 1, 1, color.RGBA{0, 255, 0, 255})
	bad := filepath.Join(dir, "missing.png")

	err := ConvertMany([]string{good, bad}, "", convert.Options{Workers: 2})
	if err == nil {
		t.Fatalf("expected an error from the missing file")
	}
}

func TestConvertDirectoryFindsPNGOnly(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 1, 1, color.RGBA{1, 2, 3, 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write notes.txt: %v", err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir sub: %v", err)
	}
	writePNG(t, filepath.Join(sub, "b.png"), 1, 1, color.RGBA{4, 5, 6, 255})

	if err := ConvertDirectory(dir, "", convert.Options{}); err != nil {
		t.Fatalf("ConvertDirectory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.svg")); err != nil {
		t.Fatalf("expected a.svg: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sub, "b.svg")); err != nil {
		t.Fatalf("expected sub/b.svg: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.svg")); err == nil {
		t.Fatalf("notes.txt should not have been converted")
	}
}
