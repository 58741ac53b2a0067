package service

import (
	"context"
	"fmt"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/parser"
	"golang.org/x/sync/errgroup"
)

// fileTask processes the i-th path with a parser owned by its goroutine.
// A returned error cancels the remaining tasks.
type fileTask func(ctx context.Context, p *parser.Parser, i int, path string) error

// runPerFile runs task for each path with at most workers in flight,
// advancing progress once per path
func runPerFile(ctx context.Context, paths []string, workers int, progress domain.ProgressManager, task fileTask) error {
	if len(paths) == 0 {
		return nil
	}

	progress.Initialize(len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(workers))
	for i, path := range paths {
		g.Go(func() error {
			defer progress.Increment()
			if err := gctx.Err(); err != nil {
				return err
			}
			// tree-sitter parsers are not safe for concurrent use
			return task(gctx, parser.New(), i, path)
		})
	}

	if err := g.Wait(); err != nil {
		progress.Complete(false)
		return fmt.Errorf("analysis cancelled: %w", err)
	}
	progress.Complete(true)
	return nil
}
