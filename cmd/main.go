package main

import (
	"os"

	"ai-ops-scorecard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
