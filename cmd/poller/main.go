package main

import (
	"os"

	"github.com/kjstillabower/mountain-weather-poller/cmd/poller/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
