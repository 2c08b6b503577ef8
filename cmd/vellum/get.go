package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <collection> <key>",
	Short: "Print a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	rec, err := s.Get(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), viewOf(rec))
}
