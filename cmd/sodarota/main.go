package main

import (
	"os"

	"github.com/mmynk/sodarota/cmd/sodarota/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
