package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to settings file (JSON or YAML)")
	flag.Parse()

	settings, err := config.Resolve(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
