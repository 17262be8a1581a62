// Package id provides identifier generation for pipeline runs.
//
// Identifiers are prefixed ULIDs:
//   - Lexicographic sortability: runs sort by start time in log aggregators
//   - Prefixed types: "run_01J..." is recognisable in a wall of stderr
//   - Type safety: RunID cannot be confused with an arbitrary string
//
// A run id is generated once by the supervisor and handed to every worker it
// spawns, so all log lines of one invocation share it.
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one invocation of the pipeline, supervisor and workers alike.
type RunID string

// RunPrefix is the prefix of every RunID.
const RunPrefix = "run"

var ErrMalformed = errors.New("id: malformed identifier")

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRunID generates a new run ID
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}

func (id RunID) String() string { return string(id) }

// ParseRunID validates a run id received from the environment.
func ParseRunID(s string) (RunID, error) {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || prefix != RunPrefix || !IsValid(rest) {
		return "", fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return RunID(s), nil
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time of a run id.
func (id RunID) Timestamp() (time.Time, error) {
	_, rest, ok := strings.Cut(string(id), "_")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
