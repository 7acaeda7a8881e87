// Package main provides the entry point for the qdex server and admin CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/qdex/cmd/qdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
