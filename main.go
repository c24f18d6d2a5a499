package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"mon-launch/cmd"
)

func main() {
	// A .env file is optional; environment variables win either way.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
