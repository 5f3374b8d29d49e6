// Command agiler runs the event-sourced write model.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sdbip/agiler-write-model/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
