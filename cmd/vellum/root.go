package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/vellum/pkg/store"
)

var (
	storePath    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:           "vellum",
	Short:         "Vellum document store CLI",
	Long:          "Vellum stores schemaless documents in collections. This CLI operates on the JSON file backend.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "vellum.json", "path to the store file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "output format: json or yaml")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
}

func openStore() (*store.File, error) {
	s, err := store.NewFile(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", storePath, err)
	}
	return s, nil
}

// write renders a value in the selected output format.
func write(w io.Writer, v any) error {
	switch outputFormat {
	case "yaml":
		return yaml.NewEncoder(w).Encode(v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

// recordView is the CLI-facing shape of a record.
type recordView struct {
	Key     string         `json:"key" yaml:"key"`
	Version int64          `json:"version" yaml:"version"`
	Data    map[string]any `json:"data" yaml:"data"`
}

func viewOf(rec *store.Record) recordView {
	return recordView{Key: rec.Key, Version: rec.Version, Data: rec.Data}
}
