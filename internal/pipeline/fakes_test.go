package pipeline

import (
	"bytes"
	"errors"
	"io"

	"github.com/GriffinCanCode/pipechain/internal/ring"
)

// fakeEndpoint is an in-memory Endpoint.
type fakeEndpoint struct {
	fd int

	// Read side
	src  []byte
	eof  bool
	gate func() bool
	err  error

	// Write side
	sink     bytes.Buffer
	blocked  bool
	maxWrite int

	reads  int
	writes int
	closed bool
}

func (f *fakeEndpoint) Fd() int {
	return f.fd
}

func (f *fakeEndpoint) Read(p []byte) (int, error) {
	f.reads++
	if f.closed {
		return 0, errors.New("read on closed endpoint")
	}
	if f.err != nil {
		return 0, f.err
	}
	if f.gate != nil && !f.gate() {
		return 0, ErrWouldBlock
	}
	if len(f.src) == 0 {
		if f.eof {
			return 0, io.EOF
		}
		return 0, ErrWouldBlock
	}
	n := copy(p, f.src)
	f.src = f.src[n:]
	return n, nil
}

func (f *fakeEndpoint) Write(p []byte) (int, error) {
	f.writes++
	if f.closed {
		return 0, errors.New("write on closed endpoint")
	}
	if f.err != nil {
		return 0, f.err
	}
	if f.blocked {
		return 0, ErrWouldBlock
	}
	if f.maxWrite > 0 && len(p) > f.maxWrite {
		p = p[:f.maxWrite]
	}
	return f.sink.Write(p)
}

func (f *fakeEndpoint) Close() error {
	f.closed = true
	return nil
}

// fakePoller marks every interest ready and records what it was asked.
type fakePoller struct {
	calls [][]Interest
	errs  []error
}

func (f *fakePoller) Wait(interests []Interest) error {
	f.calls = append(f.calls, append([]Interest(nil), interests...))
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	for i := range interests {
		interests[i].Ready = true
	}
	return nil
}

func (f *fakePoller) last() []Interest {
	return f.calls[len(f.calls)-1]
}

func newFakeConn(stage, capacity int, in, out *fakeEndpoint, worker Process) *Conn {
	buf, err := ring.New(capacity)
	if err != nil {
		panic(err)
	}
	return &Conn{
		Stage:         stage,
		In:            in,
		Out:           out,
		Buf:           buf,
		Worker:        worker,
		SupervisorPID: 1,
	}
}
