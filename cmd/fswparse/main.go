// Package main is the entry point for the fswparse CLI tool.
package main

import (
	"github.com/flightsw/fswparse/internal/cmd"
)

func main() {
	cmd.Execute()
}
