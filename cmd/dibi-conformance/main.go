package main

import (
	"os"

	"github.com/orbnauticus/dibi-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
