package ops

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/psroi/internal/tensor"
)

// PSROIPoolOp is the saved forward state connecting one PS-ROI pooling
// forward call to its paired backward call.
//
// It snapshots everything backward needs to replay the forward
// geometry: the rois, the recorded channel mapping, the input feature
// map shape, the spatial scale and the pooled grid parameters. The
// snapshot is immutable and single-use: exactly one backward call may
// consume it, and a second consumption panics. Each forward call
// produces its own independent state, so states are never shared
// between concurrent forward passes.
type PSROIPoolOp struct {
	input   *tensor.RawTensor
	rois    *tensor.RawTensor
	output  *tensor.RawTensor
	mapping *tensor.RawTensor

	inputShape   tensor.Shape
	outH, outW   int
	spatialScale float64
	groupSize    int
	outDim       int

	consumed atomic.Bool
}

// NewPSROIPoolOp records a PS-ROI pooling operation.
// mapping is the channel-mapping tensor produced by the forward kernel.
func NewPSROIPoolOp(input, rois, output, mapping *tensor.RawTensor, outH, outW int, spatialScale float64, groupSize int) *PSROIPoolOp {
	outputShape := output.Shape()
	return &PSROIPoolOp{
		input:        input,
		rois:         rois,
		output:       output,
		mapping:      mapping,
		inputShape:   input.Shape().Clone(),
		outH:         outH,
		outW:         outW,
		spatialScale: spatialScale,
		groupSize:    groupSize,
		outDim:       outputShape[1],
	}
}

// Inputs returns the input tensors: the feature map and the rois.
func (op *PSROIPoolOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.rois}
}

// Output returns the pooled output tensor.
func (op *PSROIPoolOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to the input feature map.
//
// A nil output gradient is a defined no-op: downstream requested no
// gradient, so a zero gradient is returned without running the kernel.
// The rois slot always receives nil; gradients with respect to
// regions are not computed.
func (op *PSROIPoolOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if op.consumed.Swap(true) {
		panic("psroipool: saved forward state already consumed by a backward call")
	}

	if outputGrad == nil {
		zero, err := tensor.NewRaw(op.inputShape, op.input.DType(), backend.Device())
		if err != nil {
			panic(fmt.Sprintf("psroipool: failed to create zero gradient: %v", err))
		}
		return []*tensor.RawTensor{zero, nil}
	}

	gradInput := backend.PSROIPoolBackward(outputGrad, op.rois, op.mapping,
		op.inputShape, op.outH, op.outW, op.spatialScale, op.groupSize, op.outDim)

	return []*tensor.RawTensor{gradInput, nil}
}
