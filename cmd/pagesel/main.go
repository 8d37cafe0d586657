// Command pagesel seeds, serves and inspects a selectable record collection.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pagesel/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
