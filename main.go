package main

import (
	"os"

	"github.com/kihon/kuiz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
