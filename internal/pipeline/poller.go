package pipeline

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrInterrupted is returned by a Poller whose wait was cut short by a signal.
var ErrInterrupted = errors.New("wait interrupted")

// Interest registers a descriptor for one direction of readiness. Ready is
// filled in by Poller.Wait.
type Interest struct {
	Fd    int
	Write bool
	Ready bool
}

// Poller blocks until at least one interest is ready.
type Poller interface {
	Wait(interests []Interest) error
}

// NewPoller returns a Poller backed by poll(2) with no timeout.
func NewPoller() Poller {
	return &pollPoller{}
}

type pollPoller struct {
	fds []unix.PollFd
}

func (p *pollPoller) Wait(interests []Interest) error {
	p.fds = p.fds[:0]
	for _, in := range interests {
		var events int16 = unix.POLLIN
		if in.Write {
			events = unix.POLLOUT
		}
		p.fds = append(p.fds, unix.PollFd{Fd: int32(in.Fd), Events: events})
	}

	if _, err := unix.Poll(p.fds, -1); err != nil {
		if err == unix.EINTR {
			return ErrInterrupted
		}
		return err
	}

	for i := range interests {
		revents := p.fds[i].Revents
		if revents&unix.POLLNVAL != 0 {
			return fmt.Errorf("descriptor %d is not open", interests[i].Fd)
		}
		// Hangup and error conditions count as ready: the next read or write
		// reports them.
		interests[i].Ready = revents != 0
	}
	return nil
}
