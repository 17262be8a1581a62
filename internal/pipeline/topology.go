package pipeline

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/GriffinCanCode/pipechain/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pipechain/internal/ring"
	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"github.com/GriffinCanCode/pipechain/internal/worker"
	"go.uber.org/zap"
)

// Options configures Build.
type Options struct {
	// Stages is the number of workers in the chain.
	Stages int
	// Source is read by the first stage. Build takes ownership of it and
	// closes it on every path.
	Source *os.File
	// Sink receives the output of the last stage. Defaults to os.Stdout.
	Sink *os.File
	// Stderr is inherited by every worker. Defaults to os.Stderr.
	Stderr *os.File
	// Executable is re-executed in worker mode. Defaults to os.Executable().
	Executable string
	// Sizing decides buffer capacities. Defaults to DefaultSizing().
	Sizing SizingPolicy
	// ChunkSize bounds a single worker transfer.
	ChunkSize int
	RunID     string
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	Poller    Poller
}

// Pipeline is a running chain of workers and the supervisor that relays
// between them.
type Pipeline struct {
	conns      []*Conn
	supervisor *Supervisor
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	closed     bool
}

// Build spawns the workers in stage order and wires their endpoints. On
// failure everything created so far is torn down before the error is
// returned.
func Build(opts Options) (*Pipeline, error) {
	source := opts.Source
	defer func() {
		if source != nil {
			source.Close()
		}
	}()

	if opts.Stages <= 0 {
		return nil, failure.New(failure.Usage, "build", fmt.Errorf("stage count must be positive, got %d", opts.Stages))
	}
	if source == nil {
		return nil, failure.New(failure.Resource, "build", errors.New("no source"))
	}
	if opts.Sink == nil {
		opts.Sink = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Sizing == nil {
		opts.Sizing = DefaultSizing()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = worker.DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Poller == nil {
		opts.Poller = NewPoller()
	}
	if opts.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, failure.New(failure.Resource, "locate executable", err)
		}
		opts.Executable = exe
	}

	p := &Pipeline{
		conns:   make([]*Conn, 0, opts.Stages),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	// next is the read end of the previous stage's downstream channel, to be
	// handed to the stage being spawned.
	var next *Handle
	defer func() {
		next.Close()
	}()

	supervisorPID := os.Getpid()
	for i := 0; i < opts.Stages; i++ {
		conn, downstream, err := p.spawn(opts, i, supervisorPID, &source, next)
		// No-op once the handle moved into the worker.
		next.Close()
		next = downstream
		if conn != nil {
			p.conns = append(p.conns, conn)
		}
		if err != nil {
			p.Close()
			return nil, err
		}
	}

	for _, c := range p.conns {
		if err := c.In.(*fdEndpoint).setNonblock(); err != nil {
			p.Close()
			return nil, failure.Stage(failure.Resource, c.Stage, "set non-blocking", err)
		}
		if err := c.Out.(*fdEndpoint).setNonblock(); err != nil {
			p.Close()
			return nil, failure.Stage(failure.Resource, c.Stage, "set non-blocking", err)
		}

		capacity := opts.Sizing.Capacity(c.Stage, opts.Stages)
		buf, err := ring.New(capacity)
		if err != nil {
			p.Close()
			return nil, failure.Stage(failure.Resource, c.Stage, "allocate buffer", err)
		}
		c.Buf = buf
		p.metrics.SetBufferCapacity(c.Stage, capacity)
	}

	p.supervisor = NewSupervisor(p.conns, opts.Poller, opts.Logger, opts.Metrics)
	return p, nil
}

// spawn creates the channels of one stage and starts its worker. It returns
// the conn (possibly partially built, for teardown) and the read end of the
// downstream channel for the next stage.
func (p *Pipeline) spawn(opts Options, stage, supervisorPID int, source **os.File, input *Handle) (*Conn, *Handle, error) {
	upR, upW, err := newPipe()
	if err != nil {
		return nil, nil, failure.Stage(failure.Resource, stage, "create upstream channel", err)
	}

	conn := &Conn{Stage: stage, SupervisorPID: supervisorPID, In: upR.endpoint(false)}

	var downstream *Handle
	if stage < opts.Stages-1 {
		downR, downW, err := newPipe()
		if err != nil {
			upW.Close()
			return conn, nil, failure.Stage(failure.Resource, stage, "create downstream channel", err)
		}
		conn.Out = downW.endpoint(false)
		downstream = downR
	} else {
		sink, err := dupHandle(int(opts.Sink.Fd()))
		if err != nil {
			upW.Close()
			return conn, nil, failure.Stage(failure.Resource, stage, "duplicate sink", err)
		}
		conn.Out = sink.endpoint(true)
	}

	var in *os.File
	if stage == 0 {
		in = *source
		*source = nil
	} else {
		in = input.File(fmt.Sprintf("stage-%d-in", stage))
	}
	out := upW.File(fmt.Sprintf("stage-%d-out", stage))

	desc := worker.Stage{
		Index:         stage,
		SupervisorPID: supervisorPID,
		ChunkSize:     opts.ChunkSize,
		RunID:         opts.RunID,
	}

	cmd := exec.Command(opts.Executable)
	cmd.Env = append(os.Environ(), desc.Environ()...)
	cmd.Stderr = opts.Stderr
	cmd.ExtraFiles = []*os.File{in, out}
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}

	err = cmd.Start()

	// The worker holds its own copies now.
	in.Close()
	out.Close()

	if err != nil {
		return conn, downstream, failure.Stage(failure.Resource, stage, "spawn worker", err)
	}

	conn.Worker = &execProcess{cmd: cmd}
	p.metrics.IncWorkersSpawned()
	p.logger.Stage(stage).Debug("worker spawned", zap.Int("pid", conn.Worker.Pid()))

	return conn, downstream, nil
}

// Conns returns the stage records in chain order.
func (p *Pipeline) Conns() []*Conn {
	return p.conns
}

// Run relays until every stage has retired.
func (p *Pipeline) Run() error {
	if p.closed {
		return failure.New(failure.Protocol, "run", errors.New("pipeline is closed"))
	}
	return p.supervisor.Run()
}

// Close tears the pipeline down: workers that have not retired are killed and
// reaped, every endpoint still open is closed and buffers are released. It is
// idempotent.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, c := range p.conns {
		if c.Worker != nil && !c.retired {
			_ = c.Worker.Kill()
			_ = c.Worker.Wait()
		}
		if err := c.closeIn(); err != nil {
			errs = append(errs, failure.Stage(failure.IO, c.Stage, "close input", err))
		}
		if err := c.closeOut(); err != nil {
			errs = append(errs, failure.Stage(failure.IO, c.Stage, "close output", err))
		}
		if c.Buf != nil {
			c.Buf.Reset()
			c.Buf = nil
		}
	}
	return errors.Join(errs...)
}
