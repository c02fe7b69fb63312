package main

import (
	"os"

	"crew-portal/cmd/portal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
