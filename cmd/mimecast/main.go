package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/mimecast-cli/internal/cli"
	"github.com/custodia-labs/mimecast-cli/internal/config"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	// Pick up MIMECAST_CLIENT_ID / MIMECAST_CLIENT_SECRET from a local
	// .env file if one exists; the environment itself wins.
	_ = godotenv.Load()

	configStore, err := config.NewStore("")
	if err != nil {
		log.Printf("failed to create config store: %v", err)
		return 1
	}
	cli.SetConfigStore(configStore)

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
