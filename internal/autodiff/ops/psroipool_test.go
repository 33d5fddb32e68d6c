package ops_test

import (
	"testing"

	"github.com/born-ml/psroi/internal/autodiff/ops"
	"github.com/born-ml/psroi/internal/backend/cpu"
	"github.com/born-ml/psroi/internal/tensor"
)

func recordedOp(t *testing.T, backend *cpu.CPUBackend) *ops.PSROIPoolOp {
	t.Helper()

	input, err := tensor.NewRaw(tensor.Shape{1, 4, 4, 4}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	for i, data := 0, input.AsFloat32(); i < len(data); i++ {
		data[i] = float32(i)
	}

	rois, err := tensor.NewRaw(tensor.Shape{1, 5}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(rois.AsFloat32(), []float32{0, 0, 0, 4, 4})

	output, mapping := backend.PSROIPoolForward(input, rois, 2, 2, 1.0, 2)
	return ops.NewPSROIPoolOp(input, rois, output, mapping, 2, 2, 1.0, 2)
}

func TestNilOutputGradReturnsZeros(t *testing.T) {
	backend := cpu.New()
	op := recordedOp(t, backend)

	grads := op.Backward(nil, backend)
	if len(grads) != 2 {
		t.Fatalf("expected 2 gradient slots, got %d", len(grads))
	}
	if grads[1] != nil {
		t.Error("rois gradient slot must be nil")
	}

	gradInput := grads[0]
	if !gradInput.Shape().Equal(tensor.Shape{1, 4, 4, 4}) {
		t.Fatalf("gradient shape = %v, want input shape", gradInput.Shape())
	}
	for i, v := range gradInput.AsFloat32() {
		if v != 0 {
			t.Fatalf("gradient[%d] = %v, want 0 (nil upstream gradient)", i, v)
		}
	}
}

func TestNilOutputGradConsumesState(t *testing.T) {
	backend := cpu.New()
	op := recordedOp(t, backend)

	op.Backward(nil, backend)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second backward over consumed state")
		}
	}()
	op.Backward(nil, backend)
}

func TestInputsAndOutput(t *testing.T) {
	backend := cpu.New()
	op := recordedOp(t, backend)

	if len(op.Inputs()) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(op.Inputs()))
	}
	if op.Output() == nil {
		t.Fatal("output must not be nil")
	}
	if !op.Output().Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Errorf("output shape = %v, want [1 1 2 2]", op.Output().Shape())
	}
}
