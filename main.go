package main

import (
	"github.com/autoapply/autoapply/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cmd.Execute()
}
