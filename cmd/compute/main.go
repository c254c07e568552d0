// Command compute runs the population-by-country aggregate and writes the
// summary JSON artifact.
package main

import (
	"census/internal/cli"
	"census/internal/pipeline"

	_ "census/internal/store/all"
)

func main() {
	cli.Main("compute", pipeline.RunCompute)
}
