package failure

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := Stage(IO, 2, "read upstream", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, IO))
	assert.False(t, errors.Is(err, Protocol))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, IO, KindOf(fmt.Errorf("wrapped: %w", err)))
}

func TestKindOfPlainErrors(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
	assert.Equal(t, Usage, KindOf(Usage))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with stage",
			err:  Stage(Protocol, 3, "retire out of order", nil),
			want: "protocol error: stage 3: retire out of order",
		},
		{
			name: "without stage",
			err:  New(Resource, "create channel", errors.New("too many open files")),
			want: "resource error: create channel: too many open files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "supervisor_lost", SupervisorLost.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
