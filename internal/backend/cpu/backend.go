// Package cpu implements the reference CPU backend for PS-ROI pooling.
package cpu

import (
	"fmt"

	"github.com/born-ml/psroi/internal/parallel"
	"github.com/born-ml/psroi/internal/tensor"
)

// CPUBackend implements PS-ROI pooling on CPU with goroutine-parallel kernels.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// SetParallelism overrides the kernel dispatch configuration.
// Useful for forcing sequential execution in tests and benchmarks.
func (cpu *CPUBackend) SetParallelism(cfg parallel.Config) {
	cpu.par = cfg
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition for same-shape tensors.
// Used by the gradient tape to accumulate gradients.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("add: shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("add: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		out, x, y := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		for i := range out {
			out[i] = x[i] + y[i]
		}
	case tensor.Float64:
		out, x, y := result.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		for i := range out {
			out[i] = x[i] + y[i]
		}
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}

	return result
}
