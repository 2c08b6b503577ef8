package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vellum/pkg/store"
)

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("open store is healthy", func(t *testing.T) {
		t.Parallel()

		s := store.NewMemory()
		defer s.Close()

		require.NoError(t, store.Healthcheck(s)(ctx))
	})

	t.Run("closed memory store is unhealthy", func(t *testing.T) {
		t.Parallel()

		s := store.NewMemory()
		require.NoError(t, s.Close())

		require.ErrorIs(t, store.Healthcheck(s)(ctx), store.ErrClosed)
	})

	t.Run("closed file store is unhealthy", func(t *testing.T) {
		t.Parallel()

		s, err := store.NewFile(t.TempDir() + "/data.json")
		require.NoError(t, err)
		require.NoError(t, s.Close())

		require.ErrorIs(t, store.Healthcheck(s)(ctx), store.ErrClosed)
	})
}
