package nn

import (
	"fmt"
	"math"
)

// PoolConfig holds the immutable configuration of a PS-ROI pooling
// layer.
//
// The pooled grid is OutH x OutW bins per region. GroupSize controls
// the position-sensitive channel grouping: the input channel count must
// be outDim * GroupSize², and each pooled bin reads from its own group
// of channels.
//
// Construct with NewPoolConfig, which validates the fields once so the
// hot path never has to.
type PoolConfig struct {
	OutH         int     // pooled grid height (bins)
	OutW         int     // pooled grid width (bins)
	SpatialScale float64 // region coordinates -> feature map coordinates
	GroupSize    int     // position-sensitive group grid size
}

// NewPoolConfig validates and returns a pooling configuration.
//
// A zero groupSize defaults to the pooled grid size, which requires a
// square grid (outH == outW). All other fields must be explicitly
// positive.
func NewPoolConfig(outH, outW int, spatialScale float64, groupSize int) (PoolConfig, error) {
	if outH <= 0 {
		return PoolConfig{}, &ConfigError{Field: "out_h", Value: outH, Reason: "must be positive"}
	}
	if outW <= 0 {
		return PoolConfig{}, &ConfigError{Field: "out_w", Value: outW, Reason: "must be positive"}
	}
	if spatialScale <= 0 || math.IsInf(spatialScale, 0) || math.IsNaN(spatialScale) {
		return PoolConfig{}, &ConfigError{Field: "spatial_scale", Value: spatialScale, Reason: "must be positive and finite"}
	}
	if groupSize < 0 {
		return PoolConfig{}, &ConfigError{Field: "group_size", Value: groupSize, Reason: "must be non-negative"}
	}
	if groupSize == 0 {
		if outH != outW {
			return PoolConfig{}, &ConfigError{
				Field:  "group_size",
				Value:  groupSize,
				Reason: "defaulting requires a square pooled grid (out_h == out_w)",
			}
		}
		groupSize = outH
	}

	return PoolConfig{
		OutH:         outH,
		OutW:         outW,
		SpatialScale: spatialScale,
		GroupSize:    groupSize,
	}, nil
}

// OutDim returns the number of output channels for the given input
// channel count. The input channel count must be divisible by
// GroupSize².
func (c PoolConfig) OutDim(channels int) (int, error) {
	group := c.GroupSize * c.GroupSize
	if channels%group != 0 {
		return 0, &ShapeError{
			Op:     "psroipool",
			Want:   "channel count divisible by group_size²",
			Got:    fmt.Sprintf("C = %d", channels),
			Detail: fmt.Sprintf("group_size² = %d", group),
		}
	}
	return channels / group, nil
}
