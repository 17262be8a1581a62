// Package app runs one pipechain invocation from command line to exit code.
//
// Main is the only place a supervisor-side error is handled: it parses the
// arguments, loads configuration, builds the logger and the per-run metrics,
// then hands off to Runner.Run, which opens the source, builds and runs the
// pipeline and tears it down exactly once.
//
// Exit Codes:
//   - 0: every byte of the source reached stdout
//   - 1: any runtime failure (the cause is printed on stderr)
//   - 2: the command line was rejected
//
// Example Usage:
//
//	os.Exit(app.Main(os.Args, os.Stdout, os.Stderr))
package app
