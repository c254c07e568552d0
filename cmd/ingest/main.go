// Command ingest loads the places and people CSV files into the configured
// database.
package main

import (
	"census/internal/cli"
	"census/internal/pipeline"

	// register all store backends with the factory.
	// config selects which one to use, but all must be linked in.
	_ "census/internal/store/all"
)

func main() {
	cli.Main("ingest", pipeline.RunIngest)
}
