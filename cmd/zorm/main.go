// Package main is the entry point for the zorm CLI.
package main

import (
	"fmt"
	"os"

	"github.com/satishbabariya/zorm/cmd/zorm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
