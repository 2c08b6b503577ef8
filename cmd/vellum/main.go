// Command vellum is a small document-store CLI over the JSON file backend.
// Build with: go build -o bin/vellum ./cmd/vellum
// Usage: vellum <command> [options]
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
