package cli

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{10, 20, 30, 255})
	img.Set(1, 0, color.RGBA{10, 20, 30, 255})
	img.Set(0, 1, color.RGBA{40, 50, 60, 255})
	img.Set(1, 1, color.RGBA{40, 50, 60, 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestRunTraceDefaultCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "img.png")
	writeTestPNG(t, in)

	if code := Run([]string{in}); code != 0 {
		t.Fatalf("Run returned %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "img.svg")); err != nil {
		t.Fatalf("expected img.svg: %v", err)
	}
}

func TestRunTraceWithOutDirFlag(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	in := filepath.Join(dir, "img.png")
	writeTestPNG(t, in)

	if code := Run([]string{"trace", in, "-o", outDir}); code != 0 {
		t.Fatalf("Run returned %d", code)
	}
	if _, err := os.Stat(filepath.Join(outDir, "img.svg")); err != nil {
		t.Fatalf("expected out/img.svg: %v", err)
	}
}

func TestRunInfoReportsRegionsWithoutWritingSVG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "img.png")
	writeTestPNG(t, in)

	if code := Run([]string{"info", in}); code != 0 {
		t.Fatalf("Run returned %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "img.svg")); err == nil {
		t.Fatalf("info must not write an SVG")
	}
}

func TestRunMissingPathFails(t *testing.T) {
	if code := Run([]string{"/does/not/exist.png"}); code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
}

func TestRunNoArgsShowsUsage(t *testing.T) {
	if code := Run(nil); code == 0 {
		t.Fatalf("expected non-zero exit code for no arguments")
	}
}
