package main

import (
	"os"

	"github.com/romangod6/sitemapgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
