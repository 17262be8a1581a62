// Package cli parses the command line of pipechain.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
)

// MaxStages is the largest chain pipechain builds.
const MaxStages = 10

// Args is a validated command line.
type Args struct {
	Prog   string
	Stages int
	Source string
}

// UsageError is a rejected command line. Line is what to show the user.
type UsageError struct {
	Line   string
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// UsageLine returns the one-line synopsis for prog.
func UsageLine(prog string) string {
	return fmt.Sprintf("Usage: %s <stage-count> <source-path>", prog)
}

// Parse validates argv, including the program name in argv[0].
func Parse(argv []string) (Args, error) {
	prog := "pipechain"
	if len(argv) > 0 && argv[0] != "" {
		prog = filepath.Base(argv[0])
	}

	if len(argv) != 3 {
		return Args{}, usage(prog, fmt.Sprintf("expected 2 arguments, got %d", max(len(argv)-1, 0)))
	}

	n, err := strconv.ParseInt(argv[1], 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return Args{}, usage(prog, fmt.Sprintf("stage count %q out of range", argv[1]))
		}
		return Args{}, usage(prog, fmt.Sprintf("stage count %q is not a number", argv[1]))
	}
	if n <= 0 || n > MaxStages {
		return Args{}, usage(prog, fmt.Sprintf("stage count must be between 1 and %d, got %d", MaxStages, n))
	}
	if argv[2] == "" {
		return Args{}, usage(prog, "source path is empty")
	}

	return Args{Prog: prog, Stages: int(n), Source: argv[2]}, nil
}

func usage(prog, reason string) error {
	return failure.New(failure.Usage, "parse arguments", &UsageError{Line: UsageLine(prog), Reason: reason})
}
