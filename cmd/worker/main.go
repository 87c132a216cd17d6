// Command worker is the detection-job worker process: a "run" subcommand
// drives one background_jobs row through HandleDetectConnections, and a
// "reindex" subcommand is the operational entry point for the vector index
// maintenance knob (§12 "vector index management"). Mirrors the teacher's
// example/ wiring style, structured as a small cobra CLI.
package main

import (
	"fmt"
	"os"

	"github.com/motifkb/connectengine/cmd/worker/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
