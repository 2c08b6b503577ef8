package main

import (
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var exportCmd = &cobra.Command{
	Use:   "export <collection>...",
	Short: "Dump whole collections",
	Long:  "Dump one or more collections as a single document keyed by collection name, loading collections concurrently.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var mu sync.Mutex
	out := make(map[string][]recordView, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, collection := range args {
		g.Go(func() error {
			recs, err := s.List(ctx, collection)
			if err != nil {
				return err
			}
			views := make([]recordView, len(recs))
			for i, rec := range recs {
				views[i] = viewOf(rec)
			}

			mu.Lock()
			out[collection] = views
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return write(cmd.OutOrStdout(), out)
}
