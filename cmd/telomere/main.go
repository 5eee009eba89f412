// Command telomere records, reshapes and plays back tapped rhythms.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/telomere/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
