package cpu

import (
	"testing"

	"github.com/born-ml/psroi/internal/tensor"
)

func TestAdd(t *testing.T) {
	backend := New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	b, err := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	result := backend.Add(a.Raw(), b.Raw())

	want := []float32{11, 22, 33, 44}
	for i, v := range result.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestAddShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Add accepted mismatched shapes")
		}
	}()

	backend := New()
	a, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	backend.Add(a, b)
}

func TestBackendMetadata(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Name = %q, want CPU", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device = %v, want CPU", backend.Device())
	}
}
