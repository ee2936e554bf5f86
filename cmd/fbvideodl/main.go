package main

import (
	"os"

	"fbvideodl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
