// Package pool provides memory management optimizations.
// Part reads reuse fixed-size buffers to avoid allocating a part-sized slice
// for every upload attempt.
package pool

import (
	"sync"
)

// BufferPool manages reusable part-sized buffers.
type BufferPool struct {
	size int64
	pool *sync.Pool
}

// New creates a buffer pool whose pooled buffers hold size bytes, typically
// the configured part size.
func New(size int64) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Get returns a buffer of exactly n bytes. Requests up to the pool's buffer
// size are served from the pool; larger ones are allocated fresh.
// The caller is responsible for calling Put to return the buffer to the pool.
func (bp *BufferPool) Get(n int64) []byte {
	if n > bp.size {
		return make([]byte, n)
	}
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:n]
}

// Put returns a buffer to the pool. Buffers not sized by this pool are
// dropped. The buffer should not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	if int64(cap(buf)) != bp.size {
		return
	}
	buf = buf[:cap(buf)]
	bp.pool.Put(&buf)
}
