package main

import (
	"os"

	"github.com/angara-lang/angarac/cmd/angarac/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
