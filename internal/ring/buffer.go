package ring

import (
	"errors"
	"fmt"
)

var (
	ErrCapacity = errors.New("ring: capacity must be positive")
	ErrFull     = errors.New("ring: buffer is full")
	ErrEmpty    = errors.New("ring: buffer is empty")
	ErrOverflow = errors.New("ring: commit exceeds window")
)

// Buffer is a fixed-capacity circular byte buffer.
//
// w is the fill cursor: the next byte received from upstream lands there.
// r is the drain cursor: the next byte sent downstream is taken from there.
// Buffer is not safe for concurrent use; the supervisor is its only user.
type Buffer struct {
	data []byte
	r    int
	w    int
	full bool
}

// New allocates a ring of the given capacity. The capacity never changes.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	return &Buffer{data: make([]byte, capacity)}, nil
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Full reports whether no byte can be accepted from upstream.
func (b *Buffer) Full() bool {
	return b.full
}

// Empty reports whether there is nothing to send downstream.
func (b *Buffer) Empty() bool {
	return !b.full && b.r == b.w
}

// Len returns the number of outstanding bytes.
func (b *Buffer) Len() int {
	switch {
	case b.full:
		return len(b.data)
	case b.w >= b.r:
		return b.w - b.r
	default:
		return len(b.data) - b.r + b.w
	}
}

// Free returns the number of bytes that can still be accepted.
func (b *Buffer) Free() int {
	return len(b.data) - b.Len()
}

// WritableWindow returns the offset and length of the largest contiguous run
// that can receive new bytes without wrapping. The run up to the end of the
// storage is preferred; the wrapped part becomes available after the cursor
// has advanced onto index zero.
func (b *Buffer) WritableWindow() (off, n int, err error) {
	if b.full {
		return 0, 0, ErrFull
	}
	if b.w >= b.r {
		return b.w, len(b.data) - b.w, nil
	}
	return b.w, b.r - b.w, nil
}

// Writable returns the writable window as a slice of the backing storage.
func (b *Buffer) Writable() ([]byte, error) {
	off, n, err := b.WritableWindow()
	if err != nil {
		return nil, err
	}
	return b.data[off : off+n], nil
}

// CommitWrite records that n bytes were stored into the writable window.
func (b *Buffer) CommitWrite(n int) error {
	if n == 0 {
		return nil
	}
	_, max, err := b.WritableWindow()
	if err != nil {
		return err
	}
	if n < 0 || n > max {
		return fmt.Errorf("%w: write %d of %d", ErrOverflow, n, max)
	}

	b.w = (b.w + n) % len(b.data)
	if b.w == b.r {
		b.full = true
	}
	return nil
}

// ReadableWindow returns the offset and length of the largest contiguous run
// of outstanding bytes, in FIFO order, that does not wrap.
func (b *Buffer) ReadableWindow() (off, n int, err error) {
	if b.Empty() {
		return 0, 0, ErrEmpty
	}
	if b.r < b.w {
		return b.r, b.w - b.r, nil
	}
	return b.r, len(b.data) - b.r, nil
}

// Readable returns the readable window as a slice of the backing storage.
func (b *Buffer) Readable() ([]byte, error) {
	off, n, err := b.ReadableWindow()
	if err != nil {
		return nil, err
	}
	return b.data[off : off+n], nil
}

// CommitRead records that n bytes were sent from the readable window.
func (b *Buffer) CommitRead(n int) error {
	if n == 0 {
		return nil
	}
	_, max, err := b.ReadableWindow()
	if err != nil {
		return err
	}
	if n < 0 || n > max {
		return fmt.Errorf("%w: read %d of %d", ErrOverflow, n, max)
	}

	b.r = (b.r + n) % len(b.data)
	b.full = false
	return nil
}

// Reset discards every outstanding byte.
func (b *Buffer) Reset() {
	b.r, b.w, b.full = 0, 0, false
}
