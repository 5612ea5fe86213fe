package main

import (
	"os"

	"github.com/goodnatureofminers/cveledger-backend/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
