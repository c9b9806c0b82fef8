package main

import (
	"os"

	"github.com/bianoble/ldh/cmd/ldh/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
