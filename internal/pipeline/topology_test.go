package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/pipechain/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"github.com/GriffinCanCode/pipechain/internal/testutil"
	"github.com/GriffinCanCode/pipechain/internal/worker"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain lets the test binary stand in for the worker executable.
func TestMain(m *testing.M) {
	if worker.IsWorker() {
		os.Exit(worker.Main())
	}
	os.Exit(m.Run())
}

func TestBuildAndRun(t *testing.T) {
	data := testutil.RandomBytes(200<<10, 7)

	sink := testutil.CreateFile(t, "sink")
	metrics := monitoring.NewMetrics()

	p, err := Build(Options{
		Stages:    3,
		Source:    testutil.OpenSource(t, data),
		Sink:      sink,
		Sizing:    Uniform{Unit: 4096, Factor: 1, Max: 4096},
		ChunkSize: 1000,
		Metrics:   metrics,
	})
	require.NoError(t, err)
	defer p.Close()

	require.Len(t, p.Conns(), 3)
	for i, c := range p.Conns() {
		assert.Equal(t, i, c.Stage)
		assert.Equal(t, os.Getpid(), c.SupervisorPID)
		assert.Equal(t, 4096, c.Buf.Cap())
		assert.Greater(t, c.Worker.Pid(), 0)
	}

	require.NoError(t, p.Run())
	assert.True(t, bytes.Equal(data, testutil.ReadFile(t, sink)), "sink differs from source")

	for _, c := range p.Conns() {
		assert.True(t, c.Retired())
	}
	assert.Equal(t, 3.0, promtest.ToFloat64(metrics.WorkersSpawned))
	assert.Equal(t, 3.0, promtest.ToFloat64(metrics.StagesRetired))
	assert.NoError(t, p.Close())
}

func TestBuildAndRunEmptySource(t *testing.T) {
	sink := testutil.CreateFile(t, "sink")

	p, err := Build(Options{Stages: 2, Source: testutil.OpenSource(t, nil), Sink: sink})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Run())
	assert.Empty(t, testutil.ReadFile(t, sink))
}

func TestBuildFailsOnMissingExecutable(t *testing.T) {
	source := testutil.OpenSource(t, []byte("data"))

	_, err := Build(Options{
		Stages:     2,
		Source:     source,
		Sink:       testutil.CreateFile(t, "sink"),
		Executable: filepath.Join(t.TempDir(), "missing"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.Resource))

	// Build owns the source and closed it.
	_, err = source.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, os.ErrClosed))
}

func TestBuildRejectsBadOptions(t *testing.T) {
	_, err := Build(Options{Stages: 0, Source: testutil.OpenSource(t, nil)})
	assert.True(t, errors.Is(err, failure.Usage))

	_, err = Build(Options{Stages: 1})
	assert.True(t, errors.Is(err, failure.Resource))
}

func TestCloseKillsLiveWorkers(t *testing.T) {
	// The source is a pipe nobody writes to, so workers never finish.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	p, err := Build(Options{Stages: 2, Source: r, Sink: testutil.CreateFile(t, "sink")})
	require.NoError(t, err)

	require.NoError(t, p.Close())
	for _, c := range p.Conns() {
		assert.False(t, c.InOpen())
		assert.False(t, c.OutOpen())
		assert.Nil(t, c.Buf)
	}
	assert.NoError(t, p.Close())

	err = p.Run()
	assert.True(t, errors.Is(err, failure.Protocol))
}
