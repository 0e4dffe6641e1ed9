package main

import (
	"context"
	"os"

	"RfpIntel/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.Options{}).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
