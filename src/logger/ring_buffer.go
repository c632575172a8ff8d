package logger

import "sync"

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of log lines.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []string
	capacity int
	index    int // Next write position
	size     int // Current number of elements
	mu       sync.Mutex
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 500
	}

	return &RingBuffer{
		data:     make([]string, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a line, overwriting the oldest one when full
func (rb *RingBuffer) Append(line string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.index] = line
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n latest lines, oldest first
func (rb *RingBuffer) GetLatest(n int) []string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size == 0 || n <= 0 {
		return []string{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]string, count)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) Size() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}
