// Package batch is the Batch Driver (C6): it enumerates input files, fans
// single-image conversions out across a worker pool, and places outputs
// according to the §4.6 output-path rule.
package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pixeltrace/pixeltrace/pkg/convert"
)

// poolSize is the process-wide worker-pool singleton (§5): sized once to
// runtime.NumCPU() on first use and reused by every subsequent ConvertMany
// call that doesn't supply its own override.
var (
	poolOnce sync.Once
	poolSize int
)

func workerCount(override int) int {
	if override > 0 {
		return override
	}
	poolOnce.Do(func() {
		poolSize = runtime.NumCPU()
		if poolSize < 1 {
			poolSize = 1
		}
	})
	return poolSize
}

// OutPath applies the §4.6 output-path rule: "{outDir}/{stem}.svg" when
// outDir is non-empty, otherwise inPath with its extension replaced by
// ".svg". outDir is never created by this package.
func OutPath(inPath, outDir string) string {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if outDir != "" {
		return filepath.Join(outDir, stem+".svg")
	}
	return strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".svg"
}

// ConvertOne runs the full C1-C5 pipeline for one input file and writes
// "{stem}.svg" next to it, or into outDir when non-empty.
func ConvertOne(inPath, outDir string, opts convert.Options) error {
	return convert.File(inPath, OutPath(inPath, outDir), opts)
}

// ConvertMany fans paths out across the worker pool (§5) and fails fast:
// dispatch stops as soon as one worker reports an error, workers already
// running a file finish it but their results are discarded, and the first
// observed error is returned to the caller.
func ConvertMany(paths []string, outDir string, opts convert.Options) error {
	if len(paths) == 0 {
		return nil
	}

	workers := workerCount(opts.Workers)
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case p, ok := <-jobs:
					if !ok {
						return
					}
					if err := ConvertOne(p, outDir, opts); err != nil {
						select {
						case errCh <- fmt.Errorf("%s: %w", p, err):
						default:
						}
						stop()
						return
					}
				}
			}
		}()
	}

dispatch:
	for _, p := range paths {
		select {
		case <-done:
			break dispatch
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// ConvertDirectory recursively enumerates dir for files whose extension
// (case-sensitive, lowercase) equals "png" and runs ConvertMany over them.
func ConvertDirectory(dir, outDir string, opts convert.Options) error {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) == ".png" {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	return ConvertMany(paths, outDir, opts)
}
