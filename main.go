// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for wp-deploy.
//
// Usage:
//
//	go run . [flags]
//	./wp-deploy [flags]
//
// Running without a subcommand launches the interactive TUI.
// See --help for options.
package main

import (
	"log"
	"os"

	"github.com/toeirei/wp-deploy/ui/cli"
)

// main is the entrypoint for the wp-deploy CLI.
func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("wp-deploy error: %v", err)
		os.Exit(1)
	}
}
