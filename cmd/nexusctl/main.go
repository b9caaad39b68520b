package main

import (
	"os"

	"nexusctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
