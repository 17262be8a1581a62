package pipeline

import (
	"os/exec"
)

// Process is a spawned worker as seen by the supervisor.
type Process interface {
	Pid() int
	// Wait reaps the worker. It is safe to call more than once.
	Wait() error
	Kill() error
}

type execProcess struct {
	cmd    *exec.Cmd
	waited bool
	err    error
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	if !p.waited {
		p.err = p.cmd.Wait()
		p.waited = true
	}
	return p.err
}

func (p *execProcess) Kill() error {
	if p.waited || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
