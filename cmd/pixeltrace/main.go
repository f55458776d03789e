// Command pixeltrace converts raster images into lossless vector SVG
// documents by tracing the exact pixel-grid boundary of every
// monochromatic region.
package main

import (
	"os"

	"github.com/pixeltrace/pixeltrace/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
