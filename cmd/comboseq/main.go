// Command comboseq validates, runs, serves and replays input sequence assets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/comboseq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
