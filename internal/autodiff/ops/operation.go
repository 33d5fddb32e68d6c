// Package ops defines the differentiable operations recorded by the
// gradient tape.
//
// Each operation snapshots whatever forward-pass state its backward
// pass needs and computes input gradients from an output gradient.
package ops

import "github.com/born-ml/psroi/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// It records its inputs and output during the forward pass and computes
// input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input tensor; a nil entry means no
	// gradient is propagated to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
