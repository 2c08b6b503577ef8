package store

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Copy migrates the named collections from src to dst, one goroutine per
// collection. Records keep their data and relative order; versions and
// timestamps restart at the destination, since they are backend bookkeeping
// rather than document state. Records that already exist at the destination
// are overwritten.
func Copy(ctx context.Context, src, dst Store, collections ...string) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, collection := range collections {
		g.Go(func() error {
			recs, err := src.List(ctx, collection)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				if err := upsert(ctx, dst, collection, rec); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func upsert(ctx context.Context, dst Store, collection string, rec *Record) error {
	in := rec.Clone()
	in.Version = 0 // unconditional write at the destination

	if _, err := dst.Insert(ctx, collection, in); err == nil || !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	_, err := dst.Update(ctx, collection, in)
	return err
}
