package cpu

import (
	"fmt"

	"github.com/born-ml/psroi/internal/parallel"
	"github.com/born-ml/psroi/internal/tensor"
)

// PSROIPoolBackward scatters output gradients back into a gradient for
// the input feature map.
//
// For every output-gradient element the same region scaling, bin window
// and source channel as in the forward pass are reproduced (the channel
// from the saved mapping, the window from the saved rois), and
// grad/bin_area is added to every pixel of the window. Regions may
// overlap, so concurrent units can target the same input location; the
// accumulation is an atomic add, making the sum independent of unit
// execution order up to floating-point rounding.
//
// Gradients with respect to rois and pooling configuration are not
// computed.
func (cpu *CPUBackend) PSROIPoolBackward(gradOutput, rois, mapping *tensor.RawTensor, inputShape tensor.Shape, outH, outW int, spatialScale float64, groupSize, outDim int) *tensor.RawTensor {
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("psroipool backward: expected 4D input shape, got %v", inputShape))
	}
	gradShape := gradOutput.Shape()
	if len(gradShape) != 4 || gradShape[1] != outDim || gradShape[2] != outH || gradShape[3] != outW {
		panic(fmt.Sprintf("psroipool backward: grad output shape %v does not match pooled geometry [N %d %d %d]",
			gradShape, outDim, outH, outW))
	}
	if mapping.NumElements() != gradOutput.NumElements() {
		panic(fmt.Sprintf("psroipool backward: channel mapping length %d != grad output elements %d",
			mapping.NumElements(), gradOutput.NumElements()))
	}

	gradInput, err := tensor.NewRaw(inputShape, gradOutput.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("psroipool backward: failed to create gradient tensor: %v", err))
	}

	switch gradOutput.DType() {
	case tensor.Float32:
		psroiPoolBackwardFloat32(gradInput, gradOutput, rois, mapping, outH, outW, spatialScale, outDim, cpu.par)
	case tensor.Float64:
		psroiPoolBackwardFloat64(gradInput, gradOutput, rois, mapping, outH, outW, spatialScale, outDim, cpu.par)
	default:
		panic(fmt.Sprintf("psroipool backward: unsupported dtype %s", gradOutput.DType()))
	}

	return gradInput
}

func psroiPoolBackwardFloat32(gradInput, gradOutput, rois, mapping *tensor.RawTensor, outH, outW int, scale float64, outDim int, cfg parallel.Config) {
	inputShape := gradInput.Shape()
	c, h, w := inputShape[1], inputShape[2], inputShape[3]

	gradIn := float32Bits(gradInput.AsFloat32())
	gradOut := gradOutput.AsFloat32()
	roiData := rois.AsFloat32()
	channels := mapping.AsInt32()

	parallel.For(len(gradOut), func(i int) {
		n, _, ph, pw := decomposeIndex(i, outDim, outH, outW)
		roi := roiData[n*5 : n*5+5]

		win := computeBinWindow(int(roi[0]),
			float64(roi[1]), float64(roi[2]), float64(roi[3]), float64(roi[4]),
			scale, ph, pw, outH, outW, h, w)
		if win.empty() {
			return
		}

		delta := gradOut[i] / float32(win.area())
		base := (win.batch*c+int(channels[i]))*h*w
		for y := win.hstart; y < win.hend; y++ {
			rowBase := base + y*w
			for x := win.wstart; x < win.wend; x++ {
				atomicAddFloat32(gradIn, rowBase+x, delta)
			}
		}
	}, cfg)
}

func psroiPoolBackwardFloat64(gradInput, gradOutput, rois, mapping *tensor.RawTensor, outH, outW int, scale float64, outDim int, cfg parallel.Config) {
	inputShape := gradInput.Shape()
	c, h, w := inputShape[1], inputShape[2], inputShape[3]

	gradIn := float64Bits(gradInput.AsFloat64())
	gradOut := gradOutput.AsFloat64()
	roiData := rois.AsFloat64()
	channels := mapping.AsInt32()

	parallel.For(len(gradOut), func(i int) {
		n, _, ph, pw := decomposeIndex(i, outDim, outH, outW)
		roi := roiData[n*5 : n*5+5]

		win := computeBinWindow(int(roi[0]), roi[1], roi[2], roi[3], roi[4],
			scale, ph, pw, outH, outW, h, w)
		if win.empty() {
			return
		}

		delta := gradOut[i] / float64(win.area())
		base := (win.batch*c+int(channels[i]))*h*w
		for y := win.hstart; y < win.hend; y++ {
			rowBase := base + y*w
			for x := win.wstart; x < win.wend; x++ {
				atomicAddFloat64(gradIn, rowBase+x, delta)
			}
		}
	}, cfg)
}
