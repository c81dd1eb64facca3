// Package source loads PieScript source (.luck) and compiled (.lucky)
// files from disk, fanning the independent reads of an include set out
// across goroutines before the (strictly single-threaded) dependency
// solver and compiler ever see them.
package source

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Loader reads source and compiled artifact bytes by filename.
type Loader interface {
	// LoadText reads one .luck source file.
	LoadText(filename string) (string, error)
	// LoadBinary reads one .lucky compiled artifact.
	LoadBinary(filename string) ([]byte, error)
}

// DefaultLoader reads from the local filesystem.
type DefaultLoader struct{}

// LoadText reads filename with os.ReadFile: source files are small
// enough that mapping them would only add a syscall for no benefit.
func (DefaultLoader) LoadText(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.Wrapf(err, "load source %q", filename)
	}
	return string(data), nil
}

// LoadBinary reads filename via mmapReadFile, falling back to
// os.ReadFile when the path can't be mapped (e.g. it is a pipe or the
// platform has no mmap support) — see mmap.go.
func (DefaultLoader) LoadBinary(filename string) ([]byte, error) {
	data, err := mmapReadFile(filename)
	if err == nil {
		return data, nil
	}
	data, ferr := os.ReadFile(filename)
	if ferr != nil {
		return nil, errors.Wrapf(ferr, "load binary %q (mmap failed: %v; fallback read also failed)", filename, err)
	}
	return data, nil
}

// LoadAll reads every named .luck source file concurrently: a host
// compiling a project's dependency graph typically already knows the
// full include set's filenames (gathered by one pass of the parser)
// before any of them need to be solved or compiled, and those reads
// are independent of each other, so fanning them out shortens wall
// time on a cold page cache. The dependency solver and compiler that
// consume the result run single-threaded, same as spec.md §5 requires;
// this concurrency never reaches past the initial read.
func LoadAll(loader Loader, filenames []string) (map[string]string, error) {
	results := make(map[string]string, len(filenames))
	if len(filenames) == 0 {
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))

	texts := make([]string, len(filenames))
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			text, err := loader.LoadText(filename)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, filename := range filenames {
		results[filename] = texts[i]
	}
	return results, nil
}
