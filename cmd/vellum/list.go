package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/vellum/pkg/store"
)

var listQuery string

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List documents in a collection",
	Long:  "List documents in a collection, optionally filtered by an expression, e.g. vellum list contacts --query 'visits > 10'.",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter expression")
}

func runList(cmd *cobra.Command, args []string) error {
	var q *store.Query
	if listQuery != "" {
		var err error
		if q, err = store.NewQuery(listQuery); err != nil {
			return err
		}
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	recs, err := store.Find(cmd.Context(), s, args[0], q)
	if err != nil {
		return err
	}

	views := make([]recordView, len(recs))
	for i, rec := range recs {
		views[i] = viewOf(rec)
	}
	return write(cmd.OutOrStdout(), views)
}
