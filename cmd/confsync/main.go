package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/confsync/internal/adapters/driving/cli"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = ""

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cli.SetVersion(Version)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
