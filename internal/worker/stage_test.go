package worker

import (
	"errors"
	"strings"
	"testing"

	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWorker(t *testing.T) {
	assert.False(t, IsWorker())

	t.Setenv("PIPECHAIN_STAGE_INDEX", "0")
	assert.True(t, IsWorker())
}

func TestLoadStage(t *testing.T) {
	t.Setenv("PIPECHAIN_STAGE_INDEX", "3")
	t.Setenv("PIPECHAIN_STAGE_SUPERVISOR_PID", "4242")
	t.Setenv("PIPECHAIN_STAGE_CHUNK_SIZE", "1024")
	t.Setenv("PIPECHAIN_STAGE_RUN_ID", "run_01ARZ3NDEKTSV4RRFFQ69G5FAV")

	st, err := LoadStage()
	require.NoError(t, err)

	assert.Equal(t, Stage{
		Index:         3,
		SupervisorPID: 4242,
		ChunkSize:     1024,
		RunID:         "run_01ARZ3NDEKTSV4RRFFQ69G5FAV",
	}, st)
}

func TestLoadStageDefaultsChunkSize(t *testing.T) {
	t.Setenv("PIPECHAIN_STAGE_INDEX", "0")
	t.Setenv("PIPECHAIN_STAGE_SUPERVISOR_PID", "1")

	st, err := LoadStage()
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, st.ChunkSize)
}

func TestLoadStageErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing supervisor pid",
			env:  map[string]string{"PIPECHAIN_STAGE_INDEX": "0"},
		},
		{
			name: "malformed index",
			env: map[string]string{
				"PIPECHAIN_STAGE_INDEX":          "first",
				"PIPECHAIN_STAGE_SUPERVISOR_PID": "1",
			},
		},
		{
			name: "negative index",
			env: map[string]string{
				"PIPECHAIN_STAGE_INDEX":          "-1",
				"PIPECHAIN_STAGE_SUPERVISOR_PID": "1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadStage()
			assert.Error(t, err)
		})
	}
}

func TestEnvironRoundTrip(t *testing.T) {
	want := Stage{Index: 7, SupervisorPID: 99, ChunkSize: 512, RunID: "run_x"}

	for _, kv := range want.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		require.True(t, ok)
		require.True(t, strings.HasPrefix(k, EnvPrefix+"_"))
		t.Setenv(k, v)
	}

	got, err := LoadStage()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCheckSupervisor(t *testing.T) {
	assert.NoError(t, CheckSupervisor(100, func() int { return 100 }))

	err := CheckSupervisor(100, func() int { return 1 })
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.SupervisorLost))
	assert.Contains(t, err.Error(), "old ppid 100, new ppid 1")
}
