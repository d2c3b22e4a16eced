// Package main is the entry point for the zst CLI client.
package main

import (
	"github.com/donaldgifford/zara-stock-tracker/cmd/zst/cmd"
)

func main() {
	cmd.Execute()
}
