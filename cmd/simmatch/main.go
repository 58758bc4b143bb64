package main

import (
	"os"

	"microsim-matcher/cmd/simmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
