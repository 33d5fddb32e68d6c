// Package nn implements the neural network layer surface of the
// position-sensitive ROI pooling operator.
//
// The package wraps the raw backend kernels in a validated, typed
// layer:
//   - PoolConfig: validated pooling configuration
//   - PSROIPool2D: the pooling layer itself
//   - Warmup: primes backend kernel caches before serving
//
// Shape problems at this boundary come back as typed errors
// (ConfigError, ShapeError) rather than panics; the backends below
// panic only on contract violations this layer already screens out.
package nn

import (
	"fmt"

	"github.com/born-ml/psroi/internal/tensor"
)

// PSROIPool2D is a position-sensitive ROI pooling layer.
//
// For each region of interest it produces an OutH x OutW grid of bins,
// where bin (ph, pw) of output channel c averages the input over the
// bin's spatial window, reading from the input channel dedicated to
// that (ph, pw, c) combination. The layer has no trainable parameters.
//
// Input shapes:
//
//	features: [batch, outDim*groupSize², H, W]
//	rois:     [R, 5] rows of (batch_index, x0, y0, x1, y1)
//
// Output shape: [R, outDim, OutH, OutW]
//
// Example:
//
//	cfg, _ := nn.NewPoolConfig(3, 3, 1.0/16, 0)
//	pool := nn.NewPSROIPool2D(cfg, backend)
//	out, err := pool.Forward(features, rois)
type PSROIPool2D[B tensor.Backend] struct {
	cfg     PoolConfig
	backend B
}

// NewPSROIPool2D creates a PS-ROI pooling layer from a validated
// configuration.
func NewPSROIPool2D[B tensor.Backend](cfg PoolConfig, backend B) *PSROIPool2D[B] {
	return &PSROIPool2D[B]{cfg: cfg, backend: backend}
}

// Config returns the layer configuration.
func (p *PSROIPool2D[B]) Config() PoolConfig {
	return p.cfg
}

// Forward pools each region of the feature map into a position-
// sensitive grid.
//
// Returns a ShapeError when the feature map is not 4D, the rois tensor
// is not [R, 5], the dtypes differ, or the channel count is not
// divisible by groupSize².
func (p *PSROIPool2D[B]) Forward(features, rois *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if err := p.validate(features.Raw(), rois.Raw()); err != nil {
		return nil, err
	}

	out, _ := p.backend.PSROIPoolForward(features.Raw(), rois.Raw(),
		p.cfg.OutH, p.cfg.OutW, p.cfg.SpatialScale, p.cfg.GroupSize)
	return tensor.New[float32](out, p.backend), nil
}

func (p *PSROIPool2D[B]) validate(features, rois *tensor.RawTensor) error {
	fs := features.Shape()
	if len(fs) != 4 {
		return &ShapeError{
			Op:   "psroipool.forward",
			Want: "4D feature map [N, C, H, W]",
			Got:  fmt.Sprintf("%dD tensor %v", len(fs), fs),
		}
	}

	rs := rois.Shape()
	if len(rs) != 2 || rs[1] != 5 {
		return &ShapeError{
			Op:   "psroipool.forward",
			Want: "rois [R, 5] with rows (batch, x0, y0, x1, y1)",
			Got:  fmt.Sprintf("%v", rs),
		}
	}

	if features.DType() != rois.DType() {
		return &ShapeError{
			Op:     "psroipool.forward",
			Want:   "matching dtypes",
			Got:    fmt.Sprintf("features %s, rois %s", features.DType(), rois.DType()),
			Detail: "feature map and rois must share a dtype",
		}
	}

	if _, err := p.cfg.OutDim(fs[1]); err != nil {
		return err
	}
	return nil
}

// Parameters returns an empty slice; the layer is parameter-free.
func (p *PSROIPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a human-readable description of the layer.
func (p *PSROIPool2D[B]) String() string {
	return fmt.Sprintf("PSROIPool2D(out=%dx%d, scale=%g, group=%d)",
		p.cfg.OutH, p.cfg.OutW, p.cfg.SpatialScale, p.cfg.GroupSize)
}
