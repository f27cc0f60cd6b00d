package main

import (
	"os"

	"github.com/campuson/campuson-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
