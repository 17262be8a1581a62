package pipeline

import (
	"github.com/GriffinCanCode/pipechain/internal/ring"
)

// Conn is the supervisor's record of one stage. In receives what the stage's
// worker writes, Out carries it to the next stage (or the sink for the last
// one), and Buf decouples the two.
type Conn struct {
	Stage         int
	In            Endpoint
	Out           Endpoint
	Buf           *ring.Buffer
	Worker        Process
	SupervisorPID int

	inClosed  bool
	outClosed bool
	retired   bool
}

// InOpen reports whether the upstream endpoint is still open.
func (c *Conn) InOpen() bool {
	return c.In != nil && !c.inClosed
}

// OutOpen reports whether the downstream endpoint is still open.
func (c *Conn) OutOpen() bool {
	return c.Out != nil && !c.outClosed
}

// Retired reports whether the stage was drained and its worker reaped.
func (c *Conn) Retired() bool {
	return c.retired
}

// drained reports whether the stage may be retired: upstream hit end of
// stream and nothing is left to forward.
func (c *Conn) drained() bool {
	return !c.InOpen() && (c.Buf == nil || c.Buf.Empty())
}

func (c *Conn) closeIn() error {
	if !c.InOpen() {
		return nil
	}
	c.inClosed = true
	return c.In.Close()
}

func (c *Conn) closeOut() error {
	if !c.OutOpen() {
		return nil
	}
	c.outClosed = true
	return c.Out.Close()
}
