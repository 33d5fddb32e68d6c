package tensor

import "testing"

func TestFromSlice(t *testing.T) {
	backend := NewMock()

	data := []float32{1, 2, 3, 4, 5, 6}
	tt, err := FromSlice(data, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if !tt.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", tt.Shape())
	}
	if tt.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %f, want 6", tt.At(1, 2))
	}

	// The tensor owns a copy of the slice.
	data[0] = 100
	if tt.At(0, 0) != 1 {
		t.Error("FromSlice aliases the caller's slice")
	}
}

func TestFromSliceLengthMismatch(t *testing.T) {
	backend := NewMock()
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, backend); err == nil {
		t.Error("FromSlice accepted mismatched length")
	}
}

func TestAtSetRoundTrip(t *testing.T) {
	backend := NewMock()
	tt := Zeros[float64](Shape{2, 2, 2}, backend)
	tt.Set(2.5, 1, 0, 1)
	if got := tt.At(1, 0, 1); got != 2.5 {
		t.Errorf("At after Set = %f, want 2.5", got)
	}
}

func TestAtOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("At with out-of-range index did not panic")
		}
	}()
	backend := NewMock()
	Zeros[float32](Shape{2, 2}, backend).At(2, 0)
}

func TestCreationHelpers(t *testing.T) {
	backend := NewMock()

	ones := Ones[float32](Shape{3}, backend)
	for i, v := range ones.Data() {
		if v != 1 {
			t.Fatalf("Ones element %d = %f", i, v)
		}
	}

	full := Full[float64](Shape{2, 2}, 3.25, backend)
	for i, v := range full.Data() {
		if v != 3.25 {
			t.Fatalf("Full element %d = %f", i, v)
		}
	}

	randn := Randn[float32](Shape{64}, backend)
	allZero := true
	for _, v := range randn.Data() {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("Randn produced all zeros")
	}
}

func TestTensorCloneDeep(t *testing.T) {
	backend := NewMock()
	a := Full[float32](Shape{2}, 1.0, backend)
	b := a.Clone()
	b.Set(5.0, 0)
	if a.At(0) != 1.0 {
		t.Error("Clone shares memory with original")
	}
}
