package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/psroi/internal/autodiff"
	"github.com/born-ml/psroi/internal/backend/cpu"
	"github.com/born-ml/psroi/internal/tensor"
)

func pooledForward(t *testing.T, backend *autodiff.AutodiffBackend[*cpu.CPUBackend]) (x, rois *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]], out *tensor.RawTensor) {
	t.Helper()

	x = tensor.Randn[float32](tensor.Shape{1, 4, 4, 4}, backend)
	rois, err := tensor.FromSlice([]float32{0, 0, 0, 4, 4}, tensor.Shape{1, 5}, backend)
	require.NoError(t, err)

	out, _ = backend.PSROIPoolForward(x.Raw(), rois.Raw(), 2, 2, 1.0, 2)
	return x, rois, out
}

func TestTapeRecordsPSROIPool(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	pooledForward(t, backend)

	assert.Equal(t, 1, backend.Tape().NumOps())
}

func TestTapeNotRecordingByDefault(t *testing.T) {
	backend := autodiff.New(cpu.New())

	pooledForward(t, backend)

	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestBackwardProducesInputGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, rois, outRaw := pooledForward(t, backend)
	out := tensor.New[float32](outRaw, backend)

	grads := autodiff.Backward(out, backend)

	gradX, ok := grads[x.Raw()]
	require.True(t, ok, "input feature map received no gradient")
	assert.True(t, gradX.Shape().Equal(x.Shape()), "gradient shape %v != input shape %v", gradX.Shape(), x.Shape())

	// Regions receive no gradient, permanently.
	_, ok = grads[rois.Raw()]
	assert.False(t, ok, "rois must not receive a gradient")
}

func TestSavedStateSingleUse(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	_, _, outRaw := pooledForward(t, backend)
	out := tensor.New[float32](outRaw, backend)

	autodiff.Backward(out, backend)

	assert.Panics(t, func() {
		autodiff.Backward(out, backend)
	}, "second backward over the same saved state must panic")
}

func TestBackwardWithoutRecordingPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())

	_, _, outRaw := pooledForward(t, backend)
	out := tensor.New[float32](outRaw, backend)

	assert.Panics(t, func() {
		autodiff.Backward(out, backend)
	})
}

func TestAddGradientFlowsToBothOperands(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	sum := tensor.New[float32](backend.Add(a.Raw(), b.Raw()), backend)
	grads := autodiff.Backward(sum, backend)

	require.Contains(t, grads, a.Raw())
	require.Contains(t, grads, b.Raw())
	assert.Equal(t, []float32{1, 1}, grads[a.Raw()].AsFloat32())
	assert.Equal(t, []float32{1, 1}, grads[b.Raw()].AsFloat32())
}
