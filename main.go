// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Driftwatch.
//
// Usage:
//
//	go run . [flags]
//	./driftwatch [flags]
//
// This launches the Driftwatch CLI. See --help for options.
package main

import (
	"log"
	"os"

	"github.com/pelagios/driftwatch/ui/cli"
)

// main is the entrypoint for the Driftwatch CLI.
func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("Driftwatch CLI error: %v", err)
		os.Exit(1)
	}
}
