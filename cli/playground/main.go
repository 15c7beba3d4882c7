package main

import (
	"os"

	playgroundcmder "github.com/papercomputeco/playground/cmd/playground"
)

func main() {
	cmd := playgroundcmder.NewPlaygroundCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
