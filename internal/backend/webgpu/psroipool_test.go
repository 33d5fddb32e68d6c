//go:build windows

package webgpu

import (
	"testing"

	"github.com/born-ml/psroi/internal/backend/cpu"
	"github.com/born-ml/psroi/internal/tensor"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	t.Cleanup(backend.Release)
	return backend
}

func gpuTensor(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func compareSlices(t *testing.T, expected, actual []float32, tolerance float32) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("length mismatch: expected %d, got %d", len(expected), len(actual))
	}
	for i := range expected {
		diff := expected[i] - actual[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("value mismatch at index %d: expected %f, got %f", i, expected[i], actual[i])
		}
	}
}

// rampInput fills channel c with the constant c+1.
func rampInput(t *testing.T, shape tensor.Shape, device tensor.Device) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, device)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	data := raw.AsFloat32()
	plane := shape[2] * shape[3]
	for i := range data {
		data[i] = float32((i/plane)%shape[1]) + 1
	}
	return raw
}

func TestPSROIPoolForwardGPU(t *testing.T) {
	backend := newTestBackend(t)

	input := rampInput(t, tensor.Shape{1, 4, 4, 4}, tensor.WebGPU)
	rois := gpuTensor(t, tensor.Shape{1, 5}, []float32{0, 0, 0, 4, 4})

	output, mapping := backend.PSROIPoolForward(input, rois, 2, 2, 1.0, 2)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("output shape = %v, want [1 1 2 2]", output.Shape())
	}
	compareSlices(t, []float32{1, 2, 3, 4}, output.AsFloat32(), 1e-6)

	wantMapping := []int32{0, 1, 2, 3}
	for i, c := range mapping.AsInt32() {
		if c != wantMapping[i] {
			t.Errorf("mapping[%d] = %d, want %d", i, c, wantMapping[i])
		}
	}
}

// TestPSROIPoolForwardMatchesCPU cross-checks the GPU kernel against
// the CPU reference on a non-trivial configuration.
func TestPSROIPoolForwardMatchesCPU(t *testing.T) {
	backend := newTestBackend(t)
	ref := cpu.New()

	shape := tensor.Shape{2, 18, 7, 9}
	input := rampInput(t, shape, tensor.WebGPU)
	data := input.AsFloat32()
	for i := range data {
		data[i] = float32(i%37)*0.25 - 2
	}

	roisData := []float32{
		0, 0, 0, 9, 7,
		1, 2, 1, 8, 6,
		0, 3, 3, 4, 4,
	}
	rois := gpuTensor(t, tensor.Shape{3, 5}, roisData)

	cpuInput := input.Clone()
	cpuRois := rois.Clone()

	gpuOut, gpuMap := backend.PSROIPoolForward(input, rois, 3, 3, 0.5, 3)
	cpuOut, cpuMap := ref.PSROIPoolForward(cpuInput, cpuRois, 3, 3, 0.5, 3)

	compareSlices(t, cpuOut.AsFloat32(), gpuOut.AsFloat32(), 1e-5)
	for i, c := range gpuMap.AsInt32() {
		if c != cpuMap.AsInt32()[i] {
			t.Fatalf("mapping[%d] = %d, want %d", i, c, cpuMap.AsInt32()[i])
		}
	}
}

func TestPSROIPoolBackwardGPU(t *testing.T) {
	backend := newTestBackend(t)

	input := rampInput(t, tensor.Shape{1, 4, 4, 4}, tensor.WebGPU)
	// Two overlapping regions sharing pixel (1,1).
	rois := gpuTensor(t, tensor.Shape{2, 5}, []float32{
		0, 0, 0, 2, 2,
		0, 1, 1, 3, 3,
	})

	output, mapping := backend.PSROIPoolForward(input, rois, 1, 1, 1.0, 1)

	gradOut, err := tensor.NewRaw(output.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatal(err)
	}
	for i, g := 0, gradOut.AsFloat32(); i < len(g); i++ {
		g[i] = 1
	}

	gradIn := backend.PSROIPoolBackward(gradOut, rois, mapping, input.Shape(), 1, 1, 1.0, 1, 4)

	if !gradIn.Shape().Equal(input.Shape()) {
		t.Fatalf("gradient shape = %v, want %v", gradIn.Shape(), input.Shape())
	}

	// Each region spreads 1/4 over its 2x2 window in every channel;
	// pixel (1,1) is in both windows.
	g := gradIn.AsFloat32()
	for c := 0; c < 4; c++ {
		idx := (c*4+1)*4 + 1
		if diff := g[idx] - 0.5; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("channel %d shared pixel gradient = %f, want 0.5", c, g[idx])
		}
	}
}

// TestPSROIPoolBackwardMatchesCPU cross-checks the GPU gather kernel
// against the CPU scatter kernel.
func TestPSROIPoolBackwardMatchesCPU(t *testing.T) {
	backend := newTestBackend(t)
	ref := cpu.New()

	shape := tensor.Shape{1, 9, 6, 6}
	input := rampInput(t, shape, tensor.WebGPU)
	rois := gpuTensor(t, tensor.Shape{2, 5}, []float32{
		0, 0, 0, 6, 6,
		0, 1, 2, 5, 5,
	})

	output, mapping := backend.PSROIPoolForward(input, rois, 3, 3, 1.0, 3)

	gradOut, err := tensor.NewRaw(output.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatal(err)
	}
	for i, g := 0, gradOut.AsFloat32(); i < len(g); i++ {
		g[i] = float32(i%5) + 0.5
	}

	gpuGrad := backend.PSROIPoolBackward(gradOut, rois, mapping, shape, 3, 3, 1.0, 3, 1)
	cpuGrad := ref.PSROIPoolBackward(gradOut.Clone(), rois.Clone(), mapping.Clone(), shape, 3, 3, 1.0, 3, 1)

	compareSlices(t, cpuGrad.AsFloat32(), gpuGrad.AsFloat32(), 1e-5)
}

// A pooled grid finer than the group grid makes several bins read, and
// scatter into, the same channel. Cross-check both passes against the
// CPU reference in that configuration.
func TestPSROIPoolGridFinerThanGroupMatchesCPU(t *testing.T) {
	backend := newTestBackend(t)
	ref := cpu.New()

	shape := tensor.Shape{1, 4, 8, 8}
	input := rampInput(t, shape, tensor.WebGPU)
	data := input.AsFloat32()
	for i := range data {
		data[i] = float32(i%11)*0.5 - 1
	}
	rois := gpuTensor(t, tensor.Shape{2, 5}, []float32{
		0, 0, 0, 8, 8,
		0, 2, 1, 7, 6,
	})

	gpuOut, gpuMap := backend.PSROIPoolForward(input, rois, 4, 4, 1.0, 2)
	cpuOut, cpuMap := ref.PSROIPoolForward(input.Clone(), rois.Clone(), 4, 4, 1.0, 2)

	compareSlices(t, cpuOut.AsFloat32(), gpuOut.AsFloat32(), 1e-5)
	for i, c := range gpuMap.AsInt32() {
		if c != cpuMap.AsInt32()[i] {
			t.Fatalf("mapping[%d] = %d, want %d", i, c, cpuMap.AsInt32()[i])
		}
	}

	gradOut, err := tensor.NewRaw(gpuOut.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatal(err)
	}
	for i, g := 0, gradOut.AsFloat32(); i < len(g); i++ {
		g[i] = float32(i%7) * 0.25
	}

	gpuGrad := backend.PSROIPoolBackward(gradOut, rois, gpuMap, shape, 4, 4, 1.0, 2, 1)
	cpuGrad := ref.PSROIPoolBackward(gradOut.Clone(), rois.Clone(), cpuMap, shape, 4, 4, 1.0, 2, 1)

	compareSlices(t, cpuGrad.AsFloat32(), gpuGrad.AsFloat32(), 1e-5)
}

func TestAddGPU(t *testing.T) {
	backend := newTestBackend(t)

	a := gpuTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := gpuTensor(t, tensor.Shape{2, 3}, []float32{10, 20, 30, 40, 50, 60})

	result := backend.Add(a, b)
	compareSlices(t, []float32{11, 22, 33, 44, 55, 66}, result.AsFloat32(), 0)
}

func TestBufferPoolReuse(t *testing.T) {
	backend := newTestBackend(t)

	a := gpuTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := gpuTensor(t, tensor.Shape{4}, []float32{5, 6, 7, 8})

	backend.Add(a, b)
	backend.Add(a, b)

	hits, _ := backend.bufferPool.Stats()
	if hits == 0 {
		t.Error("expected the second dispatch to reuse a pooled result buffer")
	}
}
