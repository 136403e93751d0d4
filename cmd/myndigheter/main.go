package main

import (
	"os"

	"github.com/Ramsey-B/myndigheter/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
