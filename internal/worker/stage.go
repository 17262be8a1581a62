package worker

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable that describes a worker's stage.
const EnvPrefix = "PIPECHAIN_STAGE"

// Descriptor numbers the endpoints arrive on in a worker process.
const (
	InputFd  = 3
	OutputFd = 4
)

// DefaultChunkSize is the largest transfer a relay asks for at once.
const DefaultChunkSize = 64 << 10

// Stage describes what a worker process runs. The supervisor passes it
// through the environment of the re-executed binary.
type Stage struct {
	Index         int    `envconfig:"INDEX" required:"true"`
	SupervisorPID int    `envconfig:"SUPERVISOR_PID" required:"true"`
	ChunkSize     int    `envconfig:"CHUNK_SIZE"`
	RunID         string `envconfig:"RUN_ID"`
}

// IsWorker reports whether the current process was started as a stage worker.
func IsWorker() bool {
	_, ok := os.LookupEnv(EnvPrefix + "_INDEX")
	return ok
}

// LoadStage reads the stage description from the environment.
func LoadStage() (Stage, error) {
	var st Stage
	if err := envconfig.Process(EnvPrefix, &st); err != nil {
		return Stage{}, fmt.Errorf("failed to load stage: %w", err)
	}
	if st.Index < 0 {
		return Stage{}, fmt.Errorf("invalid stage index %d", st.Index)
	}
	if st.ChunkSize <= 0 {
		st.ChunkSize = DefaultChunkSize
	}
	return st, nil
}

// Environ renders the stage as environment entries for a child process.
func (s Stage) Environ() []string {
	return []string{
		fmt.Sprintf("%s_INDEX=%d", EnvPrefix, s.Index),
		fmt.Sprintf("%s_SUPERVISOR_PID=%d", EnvPrefix, s.SupervisorPID),
		fmt.Sprintf("%s_CHUNK_SIZE=%d", EnvPrefix, s.ChunkSize),
		fmt.Sprintf("%s_RUN_ID=%s", EnvPrefix, s.RunID),
	}
}
