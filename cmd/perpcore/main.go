package main

import (
	"os"

	"github.com/tradeforge/perpcore/cmd/perpcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
