package main

import (
	"os"

	"github.com/bookworm-labs/bookshelf-cli/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
