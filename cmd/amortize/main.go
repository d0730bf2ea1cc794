// Package main is the entry point for the amortize CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/beancount-amortize/cmd/amortize/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
