package ops

import "github.com/born-ml/psroi/internal/tensor"

// AddOp records an element-wise addition.
//
// The gradient of a+b flows unchanged to both operands.
type AddOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates a new addition operation.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

// Inputs returns the two operands.
func (op *AddOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the sum tensor.
func (op *AddOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward passes the output gradient through to both operands.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad, outputGrad}
}
