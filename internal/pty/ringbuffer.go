package pty

// RingBuffer keeps the most recent bytes written to it. It is not safe for
// concurrent use.
type RingBuffer struct {
	data  []byte
	size  int
	write int
	full  bool
}

// NewRingBuffer creates a new ring buffer with the given size
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		panic("pty: ring buffer size must be positive")
	}
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write implements io.Writer. It never fails; older bytes are overwritten.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= rb.size {
		copy(rb.data, p[n-rb.size:])
		rb.write = 0
		rb.full = true
		return n, nil
	}

	first := copy(rb.data[rb.write:], p)
	if first < n {
		copy(rb.data, p[first:])
	}
	next := rb.write + n
	if next >= rb.size {
		rb.full = true
	}
	rb.write = next % rb.size
	return n, nil
}

// Len returns the number of bytes held.
func (rb *RingBuffer) Len() int {
	if rb.full {
		return rb.size
	}
	return rb.write
}

// Bytes returns a copy of the buffer contents, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	if !rb.full {
		return append([]byte(nil), rb.data[:rb.write]...)
	}
	out := make([]byte, 0, rb.size)
	out = append(out, rb.data[rb.write:]...)
	return append(out, rb.data[:rb.write]...)
}

// String returns the buffer contents as a string
func (rb *RingBuffer) String() string {
	return string(rb.Bytes())
}

// Reset empties the buffer.
func (rb *RingBuffer) Reset() {
	rb.write = 0
	rb.full = false
}
