package worker

import (
	"errors"

	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"golang.org/x/sys/unix"
)

// State represents the relay state.
type State int

const (
	Relaying State = iota
	Draining
	Done
	Failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Relaying:
		return "relaying"
	case Draining:
		return "draining"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// TransferFunc moves up to n bytes from in to out and returns how many moved.
// Zero bytes with a nil error means the input reached end of stream.
type TransferFunc func(in, out, n int) (int, error)

// Splice moves bytes between descriptors without copying them through user
// space. At least one side must be a pipe.
func Splice(in, out, n int) (int, error) {
	moved, err := unix.Splice(in, nil, out, nil, n, unix.SPLICE_F_MOVE)
	if err != nil {
		return 0, err
	}
	return int(moved), nil
}

// Relay copies one stage's input to its output until end of stream.
type Relay struct {
	stage    int
	in       int
	out      int
	chunk    int
	transfer TransferFunc
	close    func(fd int) error

	state State
	moved int64
}

// NewRelay creates a relay between two descriptors it takes ownership of.
func NewRelay(stage, in, out, chunk int) *Relay {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Relay{
		stage:    stage,
		in:       in,
		out:      out,
		chunk:    chunk,
		transfer: Splice,
		close:    unix.Close,
		state:    Relaying,
	}
}

// State returns the current state.
func (r *Relay) State() State {
	return r.state
}

// Moved returns the number of bytes relayed so far.
func (r *Relay) Moved() int64 {
	return r.moved
}

// Run transfers until the input is exhausted, then closes the output before
// the input so the downstream reader observes end of stream.
func (r *Relay) Run() error {
	for r.state == Relaying {
		n, err := r.transfer(r.in, r.out, r.chunk)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			r.state = Failed
			return failure.Stage(failure.IO, r.stage, "splice", err)
		case n == 0:
			r.state = Draining
		default:
			r.moved += int64(n)
		}
	}

	errOut := r.close(r.out)
	errIn := r.close(r.in)
	if errOut != nil {
		r.state = Failed
		return failure.Stage(failure.IO, r.stage, "close output", errOut)
	}
	if errIn != nil {
		r.state = Failed
		return failure.Stage(failure.IO, r.stage, "close input", errIn)
	}

	r.state = Done
	return nil
}
