package main

import (
	"fmt"
	"os"

	"github.com/davprov/davprov/cmd/davprov/commands"
	"github.com/davprov/davprov/internal/cli/prompt"
)

func main() {
	if err := commands.Execute(); err != nil {
		if prompt.IsAborted(err) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
