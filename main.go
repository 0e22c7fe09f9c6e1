package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"flipswap/cmd"
	"flipswap/pkg/logging"
)

func main() {
	// .env is optional; config falls back to the real environment
	_ = godotenv.Load()

	logging.Setup()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
