package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"quiz-vault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
