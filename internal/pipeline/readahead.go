package pipeline

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"
)

// runOrdered pulls items from next until io.EOF and hands them to consume in
// order. With depth > 0, next runs on its own goroutine feeding a channel of
// that capacity; consume always runs on the calling goroutine's group member
// and never concurrently with itself.
func runOrdered[T any](ctx context.Context, depth int, next func() (T, error), consume func(T) error) error {
	if depth <= 0 {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := consume(item); err != nil {
				return err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan T, depth)

	g.Go(func() error {
		defer close(items)
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case items <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for item := range items {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := consume(item); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
