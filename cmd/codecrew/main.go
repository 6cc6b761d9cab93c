// Package main provides the entry point for the codecrew CLI.
package main

import (
	"fmt"
	"os"

	"github.com/codecrew-ai/codecrew/cmd/codecrew/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
