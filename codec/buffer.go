// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package codec

import (
	"errors"
)

// ErrBufferOverflow is returned when an encode does not fit the
// destination buffer. Key buffers surface it to the caller; value buffers
// recover by reallocating.
var ErrBufferOverflow = errors.New("codec: BufferOverflow")

// IsOverflow reports whether err is a buffer overflow.
func IsOverflow(err error) bool {
	return errors.Is(err, ErrBufferOverflow)
}

// Buffer is a byte buffer with a capacity fixed at creation. Reset clears
// the input view before an encode; Bytes is the output view over the
// filled region.
type Buffer struct {
	b []byte
	n int
}

// NewBuffer creates a buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{b: make([]byte, capacity)}
}

// Reset clears the input view.
func (b *Buffer) Reset() { b.n = 0 }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.b) }

// Len returns the filled length.
func (b *Buffer) Len() int { return b.n }

// Bytes returns the output view. It is invalidated by the next Reset.
func (b *Buffer) Bytes() []byte { return b.b[:b.n] }

// Write appends p, failing with ErrBufferOverflow when p does not fit.
func (b *Buffer) Write(p []byte) error {
	if b.n+len(p) > len(b.b) {
		return ErrBufferOverflow
	}
	b.n += copy(b.b[b.n:], p)
	return nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	if b.n+1 > len(b.b) {
		return ErrBufferOverflow
	}
	b.b[b.n] = c
	b.n++
	return nil
}
