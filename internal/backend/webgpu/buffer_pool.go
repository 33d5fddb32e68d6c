//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledBuffers bounds how many idle buffers the pool may hold.
const maxPooledBuffers = 32

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool reuses GPU buffers across kernel dispatches.
//
// Pooling runs the same configuration over and over, so result buffers
// of identical size recur constantly; reusing them avoids an
// allocation round-trip per dispatch.
type BufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	idle []*pooledBuffer

	hits   uint64
	misses uint64
}

// NewBufferPool creates a buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		idle:   make([]*pooledBuffer, 0, maxPooledBuffers),
	}
}

// Acquire returns a buffer of at least the requested size with the
// requested usage, reusing an idle one when possible.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	for i, pb := range p.idle {
		if pb.size >= size && pb.usage&usage == usage {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			p.hits++
			p.mu.Unlock()
			return pb.buffer
		}
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Recycle returns a buffer to the pool. If the pool is full the buffer
// is released instead.
func (p *BufferPool) Recycle(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	if len(p.idle) >= maxPooledBuffers {
		p.mu.Unlock()
		buffer.Release()
		return
	}
	p.idle = append(p.idle, &pooledBuffer{buffer: buffer, size: size, usage: usage})
	p.mu.Unlock()
}

// Stats returns pool hit and miss counts.
func (p *BufferPool) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

// Clear releases all idle buffers.
// Called when the backend is released.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pb := range p.idle {
		pb.buffer.Release()
	}
	p.idle = p.idle[:0]
}
