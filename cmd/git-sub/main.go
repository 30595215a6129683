package main

import (
	"os"

	"github.com/PaddyThePaddy/git-sub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
