// Package autodiff implements automatic differentiation for the PS-ROI
// pooling operator using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, WebGPU) and
// records operations in a GradientTape during the forward pass. The
// PS-ROI pooling operation snapshots its channel mapping and region
// geometry into a single-use saved state, which the tape consumes when
// gradients are requested.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	output, _ := pool.Forward(x, rois)
//	grads := autodiff.Backward(output, backend)
//	gradX := grads[x.Raw()]
package autodiff

import (
	"fmt"

	"github.com/born-ml/psroi/internal/autodiff/ops"
	"github.com/born-ml/psroi/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds gradient tracking.
// It implements the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// PSROIPoolForward runs the pooling kernel and records the operation,
// snapshotting the channel mapping for the paired backward call.
func (b *AutodiffBackend[B]) PSROIPoolForward(input, rois *tensor.RawTensor, outH, outW int, spatialScale float64, groupSize int) (*tensor.RawTensor, *tensor.RawTensor) {
	output, mapping := b.inner.PSROIPoolForward(input, rois, outH, outW, spatialScale, groupSize)

	if b.tape.IsRecording() {
		op := ops.NewPSROIPoolOp(input, rois, output, mapping, outH, outW, spatialScale, groupSize)
		b.tape.Record(op)
	}

	return output, mapping
}

// PSROIPoolBackward delegates to the wrapped backend.
// Backward computations are never themselves recorded.
func (b *AutodiffBackend[B]) PSROIPoolBackward(gradOutput, rois, mapping *tensor.RawTensor, inputShape tensor.Shape, outH, outW int, spatialScale float64, groupSize, outDim int) *tensor.RawTensor {
	return b.inner.PSROIPoolBackward(gradOutput, rois, mapping, inputShape, outH, outW, spatialScale, groupSize, outDim)
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}

	return result
}

// BackwardCapable is satisfied by backends that expose a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a tensor using the backend's tape,
// seeding the output gradient with ones.
//
// Returns a map from RawTensor to its gradient.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := outputGrad.AsFloat32()
		for i := range data {
			data[i] = 1.0
		}
	case tensor.Float64:
		data := outputGrad.AsFloat64()
		for i := range data {
			data[i] = 1.0
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s", t.DType()))
	}

	return tape.Backward(outputGrad, backend)
}
