// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation for
// the pooling operator.
//
// It wraps any backend with a gradient tape: forward pooling calls are
// recorded together with their saved state, and Backward replays the
// tape in reverse to produce feature-map gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	out, _ := pool.Forward(features, rois)
//	grads := autodiff.Backward(out, backend)
package autodiff

import (
	"github.com/born-ml/psroi/internal/autodiff"
	"github.com/born-ml/psroi/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is satisfied by backends that expose a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients for a tensor using the backend's tape,
// seeding the output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
