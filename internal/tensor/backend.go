package tensor

// Backend defines the interface that compute backends must implement
// for PS-ROI pooling.
//
// Implementations:
//   - CPU: pure Go with goroutine-parallel kernels
//   - WebGPU: WGSL compute shaders via go-webgpu
type Backend interface {
	// PSROIPoolForward pools every region of input into a fixed-size
	// position-sensitive summary.
	//
	// input: [B, C, H, W] feature map, read-only for the call.
	// rois: [N, 5] rows of (batch_index, x_min, y_min, x_max, y_max) in the
	// coordinate space implied by spatialScale.
	//
	// Returns the pooled output [N, outDim, outH, outW] with
	// outDim = C / groupSize², and an Int32 mapping tensor of length
	// N*outDim*outH*outW recording the source channel pooled for each
	// output element. The mapping is consumed by the single paired
	// PSROIPoolBackward call.
	PSROIPoolForward(input, rois *RawTensor, outH, outW int, spatialScale float64, groupSize int) (output, mapping *RawTensor)

	// PSROIPoolBackward scatters output gradients back into a zero-initialized
	// gradient for the input feature map, distributing each output-gradient
	// element uniformly over its forward pooling window at the channel
	// recorded in mapping. Gradients w.r.t. rois are not computed.
	PSROIPoolBackward(gradOutput, rois, mapping *RawTensor, inputShape Shape, outH, outW int, spatialScale float64, groupSize, outDim int) *RawTensor

	// Add performs element-wise addition. Used by the gradient tape to
	// accumulate gradients when a tensor feeds multiple operations.
	Add(a, b *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
