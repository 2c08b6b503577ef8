//go:build integration

package store_test

import (
	"context"

	"github.com/dmitrymomot/vellum/pkg/store"
)

// scopedStore prefixes collection names, so contract runs against shared
// infrastructure never collide across tests or CI jobs.
type scopedStore struct {
	store.Store
	scope string
}

func (s *scopedStore) Get(ctx context.Context, collection, key string) (*store.Record, error) {
	return s.Store.Get(ctx, s.scope+collection, key)
}

func (s *scopedStore) Insert(ctx context.Context, collection string, rec *store.Record) (*store.Record, error) {
	return s.Store.Insert(ctx, s.scope+collection, rec)
}

func (s *scopedStore) Update(ctx context.Context, collection string, rec *store.Record) (*store.Record, error) {
	return s.Store.Update(ctx, s.scope+collection, rec)
}

func (s *scopedStore) Delete(ctx context.Context, collection, key string) error {
	return s.Store.Delete(ctx, s.scope+collection, key)
}

func (s *scopedStore) List(ctx context.Context, collection string) ([]*store.Record, error) {
	return s.Store.List(ctx, s.scope+collection)
}

func (s *scopedStore) Increment(ctx context.Context, collection, key, field string, delta float64) (float64, error) {
	inc, ok := s.Store.(store.Incrementer)
	if !ok {
		return 0, store.ErrNotFound
	}
	return inc.Increment(ctx, s.scope+collection, key, field, delta)
}

func (s *scopedStore) Ping(ctx context.Context) error {
	p, ok := s.Store.(store.Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}
