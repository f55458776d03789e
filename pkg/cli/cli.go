// Package cli is pixeltrace's subcommand dispatcher: trace (the default),
// info, preview, and update, described by a CommandSpec/ArgSpec table and
// dispatched through a single switch.
package cli

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/pixeltrace/pixeltrace/pkg/batch"
	"github.com/pixeltrace/pixeltrace/pkg/config"
	"github.com/pixeltrace/pixeltrace/pkg/convert"
	"github.com/pixeltrace/pixeltrace/pkg/raster"
	"github.com/pixeltrace/pixeltrace/pkg/region"
	"github.com/pixeltrace/pixeltrace/pkg/svgdoc"
)

// ArgSpec documents one positional or flag argument a subcommand accepts.
type ArgSpec struct {
	Name        string
	Type        string // "path", "string", "bool"
	Description string
}

// CommandSpec documents one subcommand for both dispatch and help text.
type CommandSpec struct {
	Name        string
	Description string
	Args        []ArgSpec
}

// Commands is the canonical subcommand table that usage() prints; Run's
// switch dispatches on the same names, spelled out as literal cases.
var Commands = []CommandSpec{
	{Name: "trace", Description: "trace a PNG (or directory of PNGs) into SVG", Args: []ArgSpec{
		{Name: "path", Type: "path", Description: "input file or directory"},
		{Name: "-o", Type: "path", Description: "output directory (optional)"},
	}},
	{Name: "info", Description: "report region/color counts without writing an SVG", Args: []ArgSpec{
		{Name: "path", Type: "path", Description: "input file"},
	}},
	{Name: "preview", Description: "trace then render the result inline in the terminal", Args: []ArgSpec{
		{Name: "path", Type: "path", Description: "input file"},
	}},
	{Name: "update", Description: "check GitHub Releases for a newer build", Args: nil},
}

func usage() {
	fmt.Println("pixeltrace <path> [-o outdir]   trace a PNG or directory (default command)")
	for _, c := range Commands {
		fmt.Printf("  %-8s %s\n", c.Name, c.Description)
	}
}

// Run dispatches argv (os.Args[1:]) to a subcommand and returns the process
// exit code: 0 on success, non-zero on the first error.
func Run(argv []string) int {
	if len(argv) == 0 {
		usage()
		return 1
	}

	cfg := config.Load()

	switch argv[0] {
	case "info":
		if len(argv) < 2 {
			fmt.Fprintln(os.Stderr, "info: missing path")
			return 1
		}
		return runInfo(argv[1])
	case "preview":
		if len(argv) < 2 {
			fmt.Fprintln(os.Stderr, "preview: missing path")
			return 1
		}
		return runPreview(argv[1])
	case "update":
		if err := CheckForUpdates(); err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			return 1
		}
		return 0
	case "trace":
		return runTrace(argv[1:], cfg)
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		// Bare `pixeltrace <path> [-o outdir]`: argv[0] is a file or
		// directory, not a known subcommand name (§4.6 expansion).
		return runTrace(argv, cfg)
	}
}

func runTrace(args []string, cfg config.Config) int {
	if len(args) == 0 {
		usage()
		return 1
	}
	path := args[0]
	outDir := cfg.OutDir
	for i := 1; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			outDir = args[i+1]
			i++
		}
	}

	opts := convert.Options{Workers: cfg.Workers}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: %v\n", err)
		return 1
	}

	if info.IsDir() {
		err = batch.ConvertDirectory(path, outDir, opts)
	} else {
		err = batch.ConvertOne(path, outDir, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: %v\n", err)
		return 1
	}

	if cfg.Preview && !info.IsDir() {
		if perr := previewFile(path); perr != nil {
			fmt.Fprintf(os.Stderr, "preview: %v\n", perr)
		}
	}
	return 0
}

func runInfo(path string) int {
	g, err := raster.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info: %v\n", err)
		return 1
	}
	regions := region.Label(g)
	colors := map[raster.Color]int{}
	for _, r := range regions {
		colors[r.Color]++
	}
	fmt.Printf("%s: %dx%d, %d region(s), %d color(s)\n", path, g.W, g.H, len(regions), len(colors))
	return 0
}

func runPreview(path string) int {
	if err := previewFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "preview: %v\n", err)
		return 1
	}
	return 0
}

// previewFile re-runs the tracing pipeline over path and renders the
// resulting geometry inline in the terminal (§4.6, §8 property 6): it
// rasterizes svgdoc's in-memory shapes rather than re-parsing emitted SVG
// text, since svgdoc is the one place that already knows how to walk them.
func previewFile(path string) error {
	g, err := raster.Load(path)
	if err != nil {
		return err
	}
	doc := convert.Grid(g, convert.Options{})
	rasterized := svgdoc.Rasterize(doc.Width, doc.Height, doc.Shapes)
	return PreviewImage(gridToImage(rasterized), "png")
}

func gridToImage(g *raster.Grid) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, g.W, g.H))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := g.At(x, y)
			a := c.A
			if !g.HasAlpha {
				a = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, a})
		}
	}
	return img
}
