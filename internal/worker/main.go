package worker

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/pipechain/internal/infrastructure/config"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"go.uber.org/zap"
)

// Main runs the current process as a stage worker and returns its exit code.
func Main() int {
	st, err := LoadStage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipechain worker: %v\n", err)
		return 1
	}

	cfg := config.LoadOrDefault()
	base, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		base = logging.NewNop()
	}
	log := base.Run(st.RunID).Stage(st.Index)
	defer log.Sync()

	if err := CheckSupervisor(st.SupervisorPID, os.Getppid); err != nil {
		log.Error("supervisor lost", zap.Error(err))
		fmt.Fprintf(os.Stderr, "pipechain worker: %v\n", err)
		return 1
	}

	relay := NewRelay(st.Index, InputFd, OutputFd, st.ChunkSize)
	log.Debug("relay started", zap.Int("pid", os.Getpid()), zap.Int("chunk_size", st.ChunkSize))

	if err := relay.Run(); err != nil {
		log.Error("relay failed", zap.Error(err), zap.Int64("bytes", relay.Moved()))
		fmt.Fprintf(os.Stderr, "pipechain worker: %v\n", err)
		return 1
	}

	log.Debug("relay finished", zap.Int64("bytes", relay.Moved()))
	return 0
}

// CheckSupervisor fails when the process that spawned this worker is no
// longer its parent. A worker is reparented once its supervisor dies, which
// can happen before the parent-death signal is armed.
func CheckSupervisor(want int, getppid func() int) error {
	if got := getppid(); got != want {
		return failure.New(failure.SupervisorLost, "check supervisor",
			fmt.Errorf("old ppid %d, new ppid %d", want, got))
	}
	return nil
}
