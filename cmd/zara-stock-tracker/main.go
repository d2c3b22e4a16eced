// Package main is the entry point for the zara-stock-tracker server.
package main

import (
	"os"

	"github.com/donaldgifford/zara-stock-tracker/cmd/zara-stock-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
