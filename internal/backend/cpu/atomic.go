package cpu

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// Gradient scatter in the backward kernel accumulates into shared
// locations from concurrent units. Go has no atomic float add, so the
// accumulation loops compare-and-swap on the float's bit pattern. The
// resulting sum is order-independent up to floating-point rounding,
// which is the contract: addition order across overlapping regions is
// unspecified.

// float32Bits reinterprets a float32 slice as its raw bit patterns.
func float32Bits(data []float32) []uint32 {
	//nolint:gosec // zero-copy view over the same buffer, same element count
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data))
}

// float64Bits reinterprets a float64 slice as its raw bit patterns.
func float64Bits(data []float64) []uint64 {
	//nolint:gosec // zero-copy view over the same buffer, same element count
	return unsafe.Slice((*uint64)(unsafe.Pointer(&data[0])), len(data))
}

// atomicAddFloat32 atomically adds delta to the float stored at bits[i].
func atomicAddFloat32(bits []uint32, i int, delta float32) {
	for {
		old := atomic.LoadUint32(&bits[i])
		updated := math.Float32bits(math.Float32frombits(old) + delta)
		if atomic.CompareAndSwapUint32(&bits[i], old, updated) {
			return
		}
	}
}

// atomicAddFloat64 atomically adds delta to the float stored at bits[i].
func atomicAddFloat64(bits []uint64, i int, delta float64) {
	for {
		old := atomic.LoadUint64(&bits[i])
		updated := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(&bits[i], old, updated) {
			return
		}
	}
}
