// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for PS-ROI pooling.
//
// The CPU backend parallelizes the pooling kernels across a goroutine
// pool and uses atomic accumulation in the backward pass, so results
// do not depend on scheduling order beyond floating-point rounding.
//
// Example:
//
//	backend := cpu.New()
//	features := tensor.Randn[float32](tensor.Shape{1, 18, 64, 64}, backend)
package cpu

import (
	internalcpu "github.com/born-ml/psroi/internal/backend/cpu"
	"github.com/born-ml/psroi/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
