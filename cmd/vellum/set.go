package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/vellum/pkg/store"
)

var setCmd = &cobra.Command{
	Use:   "set <collection> <key> <json>",
	Short: "Create or replace a document",
	Long:  "Create or replace a document from a JSON object, e.g. vellum set contacts larry '{\"name\":\"Larry\"}'.",
	Args:  cobra.ExactArgs(3),
	RunE:  runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	collection, key := args[0], args[1]

	var data map[string]any
	if err := json.Unmarshal([]byte(args[2]), &data); err != nil {
		return fmt.Errorf("invalid document JSON: %w", err)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	rec := &store.Record{Key: key, Data: data}

	stored, err := s.Insert(ctx, collection, rec)
	if errors.Is(err, store.ErrAlreadyExists) {
		stored, err = s.Update(ctx, collection, rec)
	}
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), viewOf(stored))
}
