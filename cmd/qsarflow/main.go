// Command qsarflow is the command-line entry point for the ingestion
// pipeline.
package main

import (
	"os"

	"github.com/turtacn/qsarflow/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
