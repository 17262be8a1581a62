package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GriffinCanCode/pipechain/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrStalled        = errors.New("no endpoint to wait on while stages remain")
	ErrRetireOrder    = errors.New("stage drained before an earlier stage retired")
	ErrWorkerFailed   = errors.New("worker exited with failure")
	ErrBufferMisstate = errors.New("buffer state does not match registered interest")
)

// Supervisor multiplexes the endpoints of every live stage on a single
// goroutine. Stages retire strictly in chain order; frontier is the index of
// the oldest stage still live.
type Supervisor struct {
	conns    []*Conn
	poller   Poller
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	frontier int

	interests []Interest
	owners    []*Conn

	progress rate.Sometimes
	relayed  int64
}

// NewSupervisor creates a supervisor over conns, which must have their
// buffers allocated.
func NewSupervisor(conns []*Conn, poller Poller, logger *logging.Logger, metrics *monitoring.Metrics) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Supervisor{
		conns:    conns,
		poller:   poller,
		logger:   logger,
		metrics:  metrics,
		progress: rate.Sometimes{Interval: time.Second},
	}
}

// Frontier returns the number of stages retired so far.
func (s *Supervisor) Frontier() int {
	return s.frontier
}

// Run relays until every stage has retired or a fatal error occurs.
func (s *Supervisor) Run() error {
	for s.frontier < len(s.conns) {
		if err := s.step(); err != nil {
			s.metrics.RecordError(failure.KindOf(err).String())
			return err
		}
	}
	s.logger.Debug("all stages retired", zap.Int64("bytes", s.relayed))
	return nil
}

// step performs one multiplexer iteration: register interests, wait, do all
// reads, do all writes, then retire in order.
func (s *Supervisor) step() error {
	s.collect()
	if len(s.interests) == 0 {
		return failure.Stage(failure.Protocol, s.frontier, "wait", ErrStalled)
	}

	if err := s.poller.Wait(s.interests); err != nil {
		if errors.Is(err, ErrInterrupted) {
			s.metrics.IncPollInterrupts()
			s.logger.Debug("wait interrupted by signal")
			return nil
		}
		return failure.New(failure.IO, "wait", err)
	}
	s.metrics.IncPollWakeups()

	for i, in := range s.interests {
		if in.Ready && !in.Write {
			if err := s.read(s.owners[i]); err != nil {
				return err
			}
		}
	}
	for i, in := range s.interests {
		if in.Ready && in.Write {
			if err := s.write(s.owners[i]); err != nil {
				return err
			}
		}
	}

	s.progress.Do(func() {
		s.logger.Debug("relay progress",
			zap.Int("retired", s.frontier),
			zap.Int("stages", len(s.conns)),
			zap.Int64("bytes", s.relayed))
	})

	return s.retire()
}

// collect builds the interest set: a stage's input while its buffer has room,
// its output while its buffer holds data.
func (s *Supervisor) collect() {
	s.interests = s.interests[:0]
	s.owners = s.owners[:0]

	for _, c := range s.conns[s.frontier:] {
		if c.InOpen() && !c.Buf.Full() {
			s.interests = append(s.interests, Interest{Fd: c.In.Fd()})
			s.owners = append(s.owners, c)
		}
		if c.OutOpen() && !c.Buf.Empty() {
			s.interests = append(s.interests, Interest{Fd: c.Out.Fd(), Write: true})
			s.owners = append(s.owners, c)
		}
	}
}

func (s *Supervisor) read(c *Conn) error {
	window, err := c.Buf.Writable()
	if err != nil {
		return failure.Stage(failure.Protocol, c.Stage, "read", fmt.Errorf("%w: %v", ErrBufferMisstate, err))
	}

	n, err := c.In.Read(window)
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Stage(c.Stage).Debug("upstream closed")
		if err := c.closeIn(); err != nil {
			return failure.Stage(failure.IO, c.Stage, "close input", err)
		}
		return nil
	case errors.Is(err, ErrWouldBlock):
		return nil
	case err != nil:
		return failure.Stage(failure.IO, c.Stage, "read", err)
	}

	if err := c.Buf.CommitWrite(n); err != nil {
		return failure.Stage(failure.Protocol, c.Stage, "read", err)
	}
	s.metrics.RecordRead(c.Stage, n)
	s.metrics.SetBufferFill(c.Stage, c.Buf.Len())
	return nil
}

func (s *Supervisor) write(c *Conn) error {
	window, err := c.Buf.Readable()
	if err != nil {
		return failure.Stage(failure.Protocol, c.Stage, "write", fmt.Errorf("%w: %v", ErrBufferMisstate, err))
	}

	n, err := c.Out.Write(window)
	switch {
	case errors.Is(err, ErrWouldBlock):
		return nil
	case err != nil:
		return failure.Stage(failure.IO, c.Stage, "write", err)
	}

	if err := c.Buf.CommitRead(n); err != nil {
		return failure.Stage(failure.Protocol, c.Stage, "write", err)
	}
	s.relayed += int64(n)
	s.metrics.RecordWrite(c.Stage, n)
	s.metrics.SetBufferFill(c.Stage, c.Buf.Len())
	return nil
}

// retire scans live stages in order. A drained stage at the frontier is
// reaped and its output closed, which hands end of stream to the next stage.
// A drained stage past the frontier breaks the shutdown order.
func (s *Supervisor) retire() error {
	for i := s.frontier; i < len(s.conns); i++ {
		c := s.conns[i]
		if !c.drained() {
			continue
		}
		if i != s.frontier {
			return failure.Stage(failure.Protocol, i, "retire",
				fmt.Errorf("%w: stage %d still live", ErrRetireOrder, s.frontier))
		}

		if c.Worker != nil {
			if err := c.Worker.Wait(); err != nil {
				return failure.Stage(failure.IO, i, "reap worker", fmt.Errorf("%w: %v", ErrWorkerFailed, err))
			}
		}
		if err := c.closeOut(); err != nil {
			return failure.Stage(failure.IO, i, "close output", err)
		}

		c.retired = true
		s.frontier++
		s.metrics.IncStagesRetired()
		s.logger.Stage(i).Debug("stage retired")
	}
	return nil
}
