package main

import (
	"os"

	"github.com/cscx-ai/draftd/internal/infrastructure/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
