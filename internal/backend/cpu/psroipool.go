package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/psroi/internal/parallel"
	"github.com/born-ml/psroi/internal/tensor"
)

// binWindow is one clipped pooling window in feature-map pixel space.
type binWindow struct {
	batch  int
	hstart int
	hend   int
	wstart int
	wend   int
}

// empty reports whether the window covers no pixels.
func (w binWindow) empty() bool {
	return w.hstart >= w.hend || w.wstart >= w.wend
}

// area returns the number of pixels in the window.
func (w binWindow) area() int {
	return (w.hend - w.hstart) * (w.wend - w.wstart)
}

// computeBinWindow maps bin (ph, pw) of a region onto the feature map.
//
// Region corners are scaled into feature-map space with round(), the
// region is forced to at least 1x1 pixel, and the bin boundaries use
// floor for the start and ceil for the end before clipping to
// [0,H]x[0,W]. The asymmetric floor/ceil rounding is intentional and
// kept for numerical compatibility with the reference kernels.
func computeBinWindow(batch int, x0, y0, x1, y1, scale float64, ph, pw, outH, outW, h, w int) binWindow {
	rsW := math.Round(x0 * scale)
	rsH := math.Round(y0 * scale)
	reW := math.Round(x1 * scale)
	reH := math.Round(y1 * scale)

	roiW := math.Max(reW-rsW, 1)
	roiH := math.Max(reH-rsH, 1)
	binW := roiW / float64(outW)
	binH := roiH / float64(outH)

	return binWindow{
		batch:  batch,
		hstart: clampInt(int(math.Floor(rsH+float64(ph)*binH)), 0, h),
		hend:   clampInt(int(math.Ceil(rsH+float64(ph+1)*binH)), 0, h),
		wstart: clampInt(int(math.Floor(rsW+float64(pw)*binW)), 0, w),
		wend:   clampInt(int(math.Ceil(rsW+float64(pw+1)*binW)), 0, w),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sourceChannel selects the position-sensitive input channel for bin
// (ph, pw) of output channel cOut. The bin position is first mapped
// into the groupSize x groupSize channel grid, so pooled grids finer
// or coarser than the group grid still index in range. When the two
// grids coincide this is (ph*groupSize+pw)*outDim + cOut, and with
// groupSize 1 it collapses to cOut.
func sourceChannel(ph, pw, cOut, outH, outW, groupSize, outDim int) int {
	gh := ph * groupSize / outH
	gw := pw * groupSize / outW
	return (gh*groupSize+gw)*outDim + cOut
}

// decomposeIndex splits a flat output-element index into its
// (n, cOut, ph, pw) coordinates, matching the launch partitioning of
// the pooled [N, outDim, outH, outW] index space.
func decomposeIndex(i, outDim, outH, outW int) (n, cOut, ph, pw int) {
	pw = i % outW
	ph = (i / outW) % outH
	cOut = (i / (outW * outH)) % outDim
	n = i / (outW * outH * outDim)
	return n, cOut, ph, pw
}

// PSROIPoolForward pools each region of input into a position-sensitive
// [N, outDim, outH, outW] summary.
//
// Every output element is computed by exactly one dispatch unit from
// read-only inputs, so the forward pass is bit-deterministic. As a side
// effect the source channel of each output element is recorded in the
// returned Int32 mapping tensor for the paired backward call.
func (cpu *CPUBackend) PSROIPoolForward(input, rois *tensor.RawTensor, outH, outW int, spatialScale float64, groupSize int) (*tensor.RawTensor, *tensor.RawTensor) {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("psroipool: expected 4D input [B,C,H,W], got %dD", len(inputShape)))
	}
	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		panic(fmt.Sprintf("psroipool: expected rois shape [N,5], got %v", roisShape))
	}
	if rois.DType() != input.DType() {
		panic(fmt.Sprintf("psroipool: rois dtype %s != input dtype %s", rois.DType(), input.DType()))
	}
	if outH <= 0 || outW <= 0 || groupSize <= 0 {
		panic(fmt.Sprintf("psroipool: invalid pooled geometry outH=%d outW=%d groupSize=%d", outH, outW, groupSize))
	}

	c := inputShape[1]
	if c%(groupSize*groupSize) != 0 {
		panic(fmt.Sprintf("psroipool: channel count %d not divisible by group_size² = %d", c, groupSize*groupSize))
	}
	outDim := c / (groupSize * groupSize)
	numRois := roisShape[0]

	output, err := tensor.NewRaw(tensor.Shape{numRois, outDim, outH, outW}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("psroipool: failed to create output: %v", err))
	}
	mapping, err := tensor.NewRaw(tensor.Shape{output.NumElements()}, tensor.Int32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("psroipool: failed to create channel mapping: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		psroiPoolForwardFloat32(output, mapping, input, rois, outH, outW, spatialScale, groupSize, outDim, cpu.par)
	case tensor.Float64:
		psroiPoolForwardFloat64(output, mapping, input, rois, outH, outW, spatialScale, groupSize, outDim, cpu.par)
	default:
		panic(fmt.Sprintf("psroipool: unsupported dtype %s", input.DType()))
	}

	return output, mapping
}

func psroiPoolForwardFloat32(output, mapping, input, rois *tensor.RawTensor, outH, outW int, scale float64, groupSize, outDim int, cfg parallel.Config) {
	inputShape := input.Shape()
	c, h, w := inputShape[1], inputShape[2], inputShape[3]

	in := input.AsFloat32()
	roiData := rois.AsFloat32()
	out := output.AsFloat32()
	channels := mapping.AsInt32()

	parallel.For(len(out), func(i int) {
		n, cOut, ph, pw := decomposeIndex(i, outDim, outH, outW)
		roi := roiData[n*5 : n*5+5]

		win := computeBinWindow(int(roi[0]),
			float64(roi[1]), float64(roi[2]), float64(roi[3]), float64(roi[4]),
			scale, ph, pw, outH, outW, h, w)
		cSrc := sourceChannel(ph, pw, cOut, outH, outW, groupSize, outDim)
		channels[i] = int32(cSrc)

		// Empty bins pool to zero but still record their source channel.
		if win.empty() {
			out[i] = 0
			return
		}

		plane := in[(win.batch*c+cSrc)*h*w : (win.batch*c+cSrc+1)*h*w]
		var sum float32
		for y := win.hstart; y < win.hend; y++ {
			row := plane[y*w : y*w+w]
			for x := win.wstart; x < win.wend; x++ {
				sum += row[x]
			}
		}
		out[i] = sum / float32(win.area())
	}, cfg)
}

func psroiPoolForwardFloat64(output, mapping, input, rois *tensor.RawTensor, outH, outW int, scale float64, groupSize, outDim int, cfg parallel.Config) {
	inputShape := input.Shape()
	c, h, w := inputShape[1], inputShape[2], inputShape[3]

	in := input.AsFloat64()
	roiData := rois.AsFloat64()
	out := output.AsFloat64()
	channels := mapping.AsInt32()

	parallel.For(len(out), func(i int) {
		n, cOut, ph, pw := decomposeIndex(i, outDim, outH, outW)
		roi := roiData[n*5 : n*5+5]

		win := computeBinWindow(int(roi[0]), roi[1], roi[2], roi[3], roi[4],
			scale, ph, pw, outH, outW, h, w)
		cSrc := sourceChannel(ph, pw, cOut, outH, outW, groupSize, outDim)
		channels[i] = int32(cSrc)

		if win.empty() {
			out[i] = 0
			return
		}

		plane := in[(win.batch*c+cSrc)*h*w : (win.batch*c+cSrc+1)*h*w]
		var sum float64
		for y := win.hstart; y < win.hend; y++ {
			row := plane[y*w : y*w+w]
			for x := win.wstart; x < win.wend; x++ {
				sum += row[x]
			}
		}
		out[i] = sum / float64(win.area())
	}, cfg)
}
