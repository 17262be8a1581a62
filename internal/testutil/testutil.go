// Package testutil provides testing utilities and helpers for pipechain tests.
package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProcess is a mock implementation of a supervised worker process.
type MockProcess struct {
	mock.Mock
}

// Pid mocks the Pid method.
func (m *MockProcess) Pid() int {
	return m.Called().Int(0)
}

// Wait mocks the Wait method.
func (m *MockProcess) Wait() error {
	return m.Called().Error(0)
}

// Kill mocks the Kill method.
func (m *MockProcess) Kill() error {
	return m.Called().Error(0)
}

// NewMockProcess creates a mock process that exits successfully once reaped.
func NewMockProcess(t *testing.T, pid int) *MockProcess {
	t.Helper()
	m := new(MockProcess)

	m.On("Pid").Return(pid).Maybe()
	m.On("Wait").Return(nil).Maybe()
	m.On("Kill").Return(nil).Maybe()

	return m
}

// RandomBytes returns n reproducible pseudo-random bytes.
func RandomBytes(n int, seed int64) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	return data
}

// WriteSource writes data to a fresh file in a test directory and returns its
// path.
func WriteSource(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// OpenSource writes data like WriteSource and opens it for reading. The
// caller owns the returned file.
func OpenSource(t *testing.T, data []byte) *os.File {
	t.Helper()

	f, err := os.Open(WriteSource(t, data))
	require.NoError(t, err)
	return f
}

// CreateFile creates an empty file in a test directory, closed on cleanup.
func CreateFile(t *testing.T, name string) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// ReadFile returns the current contents of f as written so far.
func ReadFile(t *testing.T, f *os.File) []byte {
	t.Helper()

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}
