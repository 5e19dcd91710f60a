// Command mibagent runs and queries the management-object agent.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mibagent/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
