package main

import (
	"os"

	"github.com/draftmate/draftmate/cmd/draftmate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
