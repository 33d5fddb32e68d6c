package tensor

import "fmt"

// MockBackend is a minimal Backend implementation for unit tests that
// only need tensor plumbing, not real pooling kernels.
type MockBackend struct{}

// NewMock creates a new mock backend.
func NewMock() *MockBackend {
	return &MockBackend{}
}

// PSROIPoolForward is not supported by the mock backend.
func (m *MockBackend) PSROIPoolForward(_, _ *RawTensor, _, _ int, _ float64, _ int) (*RawTensor, *RawTensor) {
	panic("mock: PSROIPoolForward not implemented")
}

// PSROIPoolBackward is not supported by the mock backend.
func (m *MockBackend) PSROIPoolBackward(_, _, _ *RawTensor, _ Shape, _, _ int, _ float64, _, _ int) *RawTensor {
	panic("mock: PSROIPoolBackward not implemented")
}

// Add performs element-wise addition for same-shape float tensors.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("mock: add shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}
	result, err := NewRaw(a.Shape(), a.DType(), m.Device())
	if err != nil {
		panic(fmt.Sprintf("mock: add: %v", err))
	}
	switch a.DType() {
	case Float32:
		out, x, y := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		for i := range out {
			out[i] = x[i] + y[i]
		}
	case Float64:
		out, x, y := result.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		for i := range out {
			out[i] = x[i] + y[i]
		}
	default:
		panic(fmt.Sprintf("mock: add: unsupported dtype %s", a.DType()))
	}
	return result
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "Mock"
}

// Device returns the compute device.
func (m *MockBackend) Device() Device {
	return CPU
}
