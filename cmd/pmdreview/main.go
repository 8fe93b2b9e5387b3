package main

import (
	"os"

	"github.com/dshills/pmdreview/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
