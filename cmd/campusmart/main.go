// Command campusmart runs the CampusMart point of sale.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/campusmart/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
