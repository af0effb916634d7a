package main

import (
	"os"

	"github.com/abelzeko/soilism/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
