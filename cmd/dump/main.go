// Command dump writes the raw contents of the places and people tables as
// JSON arrays, followed by the population summary.
package main

import (
	"census/internal/cli"
	"census/internal/pipeline"

	_ "census/internal/store/all"
)

func main() {
	cli.Main("dump", pipeline.RunDump)
}
