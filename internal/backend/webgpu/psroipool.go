//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/psroi/internal/tensor"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

func putF32(buf []byte, off int, v float64) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(float32(v)))
}

func putU32(buf []byte, off, v int) {
	//nolint:gosec // G115: shape dimensions and counts are non-negative
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v))
}

// PSROIPoolForward pools each region of input into a position-sensitive
// [N, outDim, outH, outW] summary on the GPU.
//
// One shader invocation computes one output element from read-only
// buffers, so the pass is deterministic. The Int32 channel mapping is
// derived on the host; it depends only on the index decomposition, not
// on the feature values.
func (b *Backend) PSROIPoolForward(input, rois *tensor.RawTensor, outH, outW int, spatialScale float64, groupSize int) (*tensor.RawTensor, *tensor.RawTensor) {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("psroipool: expected 4D input [B,C,H,W], got %dD", len(inputShape)))
	}
	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		panic(fmt.Sprintf("psroipool: expected rois shape [N,5], got %v", roisShape))
	}
	if input.DType() != tensor.Float32 || rois.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: only float32 is supported, got input %s, rois %s", input.DType(), rois.DType()))
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

	output, err := tensor.NewRaw(tensor.Shape{numRois, outDim, outH, outW}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("psroipool: failed to create output: %v", err))
	}
	mapping, err := tensor.NewRaw(tensor.Shape{output.NumElements()}, tensor.Int32, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("psroipool: failed to create channel mapping: %v", err))
	}

	channels := mapping.AsInt32()
	for i := range channels {
		pw := i % outW
		ph := (i / outW) % outH
		cOut := (i / (outW * outH)) % outDim
		gh := ph * groupSize / outH
		gw := pw * groupSize / outW
		channels[i] = int32((gh*groupSize+gw)*outDim + cOut)
	}

	total := output.NumElements()

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()
	bufferRois := b.createBuffer(rois.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferRois.Release()

	resultSize := uint64(output.ByteSize())
	bufferResult := b.bufferPool.Acquire(resultSize, storageUsage)
	defer b.bufferPool.Recycle(bufferResult, resultSize, storageUsage)

	params := make([]byte, 48)
	putU32(params, 0, total)
	putU32(params, 4, c)
	putU32(params, 8, inputShape[2])
	putU32(params, 12, inputShape[3])
	putU32(params, 16, outDim)
	putU32(params, 20, outH)
	putU32(params, 24, outW)
	putU32(params, 28, groupSize)
	putF32(params, 32, spatialScale)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((total + workgroupSize - 1) / workgroupSize)
	b.dispatch("psroi_forward", psroiForwardShader, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferRois, 0, uint64(rois.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, uint64(len(params))),
	}, workgroups)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		panic(fmt.Sprintf("psroipool: failed to read output: %v", err))
	}
	copy(output.Data(), resultData)

	return output, mapping
}

// PSROIPoolBackward computes the input-feature gradient on the GPU.
//
// The kernel is a gather: one invocation per input element scans the
// regions and accumulates every bin-window contribution covering that
// element (WGSL has no atomic float add, so the CPU backend's scatter
// with atomics is not expressible here). The contribution order is
// fixed, so the result is deterministic. The saved channel mapping is
// recomputed from the index decomposition on the GPU and is not
// uploaded.
func (b *Backend) PSROIPoolBackward(gradOutput, rois, mapping *tensor.RawTensor, inputShape tensor.Shape, outH, outW int, spatialScale float64, groupSize, outDim int) *tensor.RawTensor {
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
	if gradOutput.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: only float32 is supported, got %s", gradOutput.DType()))
	}

	gradInput, err := tensor.NewRaw(inputShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("psroipool backward: failed to create gradient tensor: %v", err))
	}

	total := gradInput.NumElements()
	numRois := gradShape[0]

	bufferGrad := b.createBuffer(gradOutput.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferGrad.Release()
	bufferRois := b.createBuffer(rois.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferRois.Release()

	resultSize := uint64(gradInput.ByteSize())
	bufferResult := b.bufferPool.Acquire(resultSize, storageUsage)
	defer b.bufferPool.Recycle(bufferResult, resultSize, storageUsage)

	params := make([]byte, 48)
	putU32(params, 0, total)
	putU32(params, 4, numRois)
	putU32(params, 8, inputShape[1])
	putU32(params, 12, inputShape[2])
	putU32(params, 16, inputShape[3])
	putU32(params, 20, outDim)
	putU32(params, 24, outH)
	putU32(params, 28, outW)
	putU32(params, 32, groupSize)
	putF32(params, 36, spatialScale)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((total + workgroupSize - 1) / workgroupSize)
	b.dispatch("psroi_backward", psroiBackwardShader, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferGrad, 0, uint64(gradOutput.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferRois, 0, uint64(rois.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, uint64(len(params))),
	}, workgroups)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		panic(fmt.Sprintf("psroipool backward: failed to read gradient: %v", err))
	}
	copy(gradInput.Data(), resultData)

	return gradInput
}

// Add performs element-wise addition of two same-shape tensors on the
// GPU. Used for gradient accumulation.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !x.Shape().Equal(y.Shape()) {
		panic(fmt.Sprintf("add: shape mismatch %v vs %v", x.Shape(), y.Shape()))
	}
	if x.DType() != tensor.Float32 || y.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: only float32 is supported, got %s and %s", x.DType(), y.DType()))
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result: %v", err))
	}

	bufferA := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()
	bufferB := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferB.Release()

	resultSize := uint64(result.ByteSize())
	bufferResult := b.bufferPool.Acquire(resultSize, storageUsage)
	defer b.bufferPool.Recycle(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	putU32(params, 0, x.NumElements())
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((x.NumElements() + workgroupSize - 1) / workgroupSize)
	b.dispatch("add", addShader, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(x.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferB, 0, uint64(y.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, uint64(len(params))),
	}, workgroups)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		panic(fmt.Sprintf("add: failed to read result: %v", err))
	}
	copy(result.Data(), resultData)

	return result
}
