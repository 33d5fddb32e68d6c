package nn

import (
	"fmt"

	"github.com/born-ml/psroi/internal/tensor"
)

// Warmup runs one synthetic forward and backward pass through the
// layer's backend.
//
// Backends that compile kernels lazily (the WebGPU backend builds its
// compute pipelines on first use) pay that cost on the first real
// request otherwise. Call Warmup once after constructing the layer,
// before enabling gradient recording, to move the compilation out of
// the serving path. On the CPU backend this is a cheap no-op in
// practice.
func Warmup[B tensor.Backend](layer *PSROIPool2D[B]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("psroi: warmup: %v", r)
		}
	}()

	cfg := layer.Config()
	group := cfg.GroupSize

	h := 2 * group
	w := 2 * group
	features := tensor.Ones[float32](tensor.Shape{1, group * group, h, w}, layer.backend)

	rois, err := tensor.FromSlice(
		[]float32{0, 0, 0, float32(w) / float32(cfg.SpatialScale), float32(h) / float32(cfg.SpatialScale)},
		tensor.Shape{1, 5}, layer.backend)
	if err != nil {
		return fmt.Errorf("psroi: warmup rois: %w", err)
	}

	output, mapping := layer.backend.PSROIPoolForward(features.Raw(), rois.Raw(),
		cfg.OutH, cfg.OutW, cfg.SpatialScale, group)

	gradOut := tensor.Ones[float32](output.Shape(), layer.backend)
	layer.backend.PSROIPoolBackward(gradOut.Raw(), rois.Raw(), mapping,
		features.Shape(), cfg.OutH, cfg.OutW, cfg.SpatialScale, group, output.Shape()[1])
	return nil
}
