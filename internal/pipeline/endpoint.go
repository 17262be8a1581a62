package pipeline

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by a non-blocking endpoint that cannot make
// progress right now.
var ErrWouldBlock = errors.New("operation would block")

// Endpoint is one end of a byte channel held by the supervisor.
//
// Read returns io.EOF once the peer has closed its end, and ErrWouldBlock
// when no data is available yet. Write returns ErrWouldBlock when the channel
// has no room.
type Endpoint interface {
	Fd() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// fdEndpoint is an Endpoint over a raw descriptor. It is kept off *os.File so
// the runtime poller never owns or re-modes it.
type fdEndpoint struct {
	fd int
	// shared is set for descriptors duplicated from a file the process keeps
	// using. O_NONBLOCK lives on the shared open file description, so it is
	// cleared again on close.
	shared bool
}

func (e *fdEndpoint) Fd() int {
	return e.fd
}

func (e *fdEndpoint) Read(p []byte) (int, error) {
	n, err := unix.Read(e.fd, p)
	switch {
	case err == unix.EAGAIN || err == unix.EINTR:
		return 0, ErrWouldBlock
	case err != nil:
		return 0, err
	case n == 0 && len(p) > 0:
		return 0, io.EOF
	}
	return n, nil
}

func (e *fdEndpoint) Write(p []byte) (int, error) {
	n, err := unix.Write(e.fd, p)
	switch {
	case err == unix.EAGAIN || err == unix.EINTR:
		return 0, ErrWouldBlock
	case err != nil:
		return 0, err
	}
	return n, nil
}

func (e *fdEndpoint) Close() error {
	if e.fd < 0 {
		return nil
	}
	if e.shared {
		_ = unix.SetNonblock(e.fd, false)
	}
	err := unix.Close(e.fd)
	e.fd = -1
	return err
}

func (e *fdEndpoint) setNonblock() error {
	return unix.SetNonblock(e.fd, true)
}

// Handle owns a descriptor until it is moved somewhere else. Moving a handle
// into a worker or an endpoint invalidates it, so a descriptor has exactly
// one owner at any time.
type Handle struct {
	fd int
}

func newHandle(fd int) *Handle {
	return &Handle{fd: fd}
}

// Valid reports whether the handle still owns a descriptor.
func (h *Handle) Valid() bool {
	return h != nil && h.fd >= 0
}

// File moves the descriptor into an *os.File, typically for handing to a
// worker through exec.Cmd.ExtraFiles.
func (h *Handle) File(name string) *os.File {
	f := os.NewFile(uintptr(h.fd), name)
	h.fd = -1
	return f
}

func (h *Handle) endpoint(shared bool) *fdEndpoint {
	e := &fdEndpoint{fd: h.fd, shared: shared}
	h.fd = -1
	return e
}

// Close releases the descriptor if the handle still owns one.
func (h *Handle) Close() error {
	if !h.Valid() {
		return nil
	}
	err := unix.Close(h.fd)
	h.fd = -1
	return err
}

// newPipe creates a close-on-exec channel and returns its read and write ends.
func newPipe() (r, w *Handle, err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return nil, nil, err
	}
	return newHandle(p[0]), newHandle(p[1]), nil
}

// dupHandle duplicates fd as a close-on-exec descriptor.
func dupHandle(fd int) (*Handle, error) {
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return newHandle(nfd), nil
}
