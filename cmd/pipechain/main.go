package main

import (
	"os"

	"github.com/GriffinCanCode/pipechain/internal/app"
	"github.com/GriffinCanCode/pipechain/internal/worker"
)

func main() {
	// Workers are this same binary, re-executed by the supervisor.
	if worker.IsWorker() {
		os.Exit(worker.Main())
	}

	os.Exit(app.Main(os.Args, os.Stdout, os.Stderr))
}
