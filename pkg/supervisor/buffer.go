package supervisor

import "sync"

// outputBuffer keeps a bounded tail of the child's output in memory for
// quick status display without touching the log file.
type outputBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newOutputBuffer(max int) *outputBuffer {
	return &outputBuffer{max: max}
}

// WriteLine appends one output line, trimming the front of the buffer
// when it grows past the budget.
func (b *outputBuffer) WriteLine(line []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, line...)
	b.buf = append(b.buf, '\n')
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
}

// Reset clears the buffer for a fresh launch.
func (b *outputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = nil
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
