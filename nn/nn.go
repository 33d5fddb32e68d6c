// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public layer API of the PS-ROI pooling
// operator.
//
// Example:
//
//	backend := cpu.New()
//	cfg, err := nn.NewPoolConfig(7, 7, 1.0/16, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pool := nn.NewPSROIPool2D(cfg, backend)
//	out, err := pool.Forward(features, rois)
package nn

import (
	"github.com/born-ml/psroi/internal/nn"
	"github.com/born-ml/psroi/internal/tensor"
)

// PoolConfig holds the validated configuration of a pooling layer.
type PoolConfig = nn.PoolConfig

// NewPoolConfig validates and returns a pooling configuration.
// A zero groupSize defaults to the pooled grid size, which requires a
// square grid.
func NewPoolConfig(outH, outW int, spatialScale float64, groupSize int) (PoolConfig, error) {
	return nn.NewPoolConfig(outH, outW, spatialScale, groupSize)
}

// PSROIPool2D is a position-sensitive ROI pooling layer.
type PSROIPool2D[B tensor.Backend] = nn.PSROIPool2D[B]

// NewPSROIPool2D creates a PS-ROI pooling layer.
//
// Example:
//
//	cfg, _ := nn.NewPoolConfig(3, 3, 1.0/16, 0)
//	pool := nn.NewPSROIPool2D(cfg, backend)
func NewPSROIPool2D[B tensor.Backend](cfg PoolConfig, backend B) *PSROIPool2D[B] {
	return nn.NewPSROIPool2D(cfg, backend)
}

// Warmup runs one synthetic forward pass through the layer to prime
// backend kernel caches.
func Warmup[B tensor.Backend](layer *PSROIPool2D[B]) error {
	return nn.Warmup(layer)
}

// Parameter represents a trainable parameter attached to a layer.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// ConfigError reports an invalid layer configuration value.
type ConfigError = nn.ConfigError

// ShapeError reports a tensor whose shape is incompatible with the
// operation it was passed to.
type ShapeError = nn.ShapeError
