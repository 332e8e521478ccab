// Package main is the entry point for lspctl, a thin demo CLI exercising
// the lspclient library against a real language server. It is a sample
// consumer, not part of the library surface.
package main

import (
	"fmt"
	"os"

	"github.com/brianly1003/lspclient/cmd/lspctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
