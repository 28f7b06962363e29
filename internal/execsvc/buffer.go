package execsvc

import "sync"

// syncBuffer accumulates combined stdout/stderr from a child process.
// Background and yielded executions read it concurrently with the
// goroutine still writing into it, so every access is mutex-guarded.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
