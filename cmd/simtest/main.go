// Command simtest runs building control tests against a simulated building.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/simtest/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "simtest:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
