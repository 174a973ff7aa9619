package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/parallel"
	"github.com/born-ml/autograd/internal/tensor"
)

// Helper to create a float64 raw tensor from values.
func raw(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, shape, tensor.Float64)
	require.NoError(t, err)
	return r
}

// Helper to build 0, 1, 2, ... for a shape.
func arange(t *testing.T, shape ...int) *tensor.RawTensor {
	t.Helper()
	n := tensor.Shape(shape).NumElements()
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return raw(t, data, shape...)
}

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.True(t, backend.useGEMM)
	assert.False(t, New(WithoutGEMM()).useGEMM)

	var _ tensor.Backend = backend
}

func TestCPUBackend_Map(t *testing.T) {
	backend := New()
	x := raw(t, []float64{1, 4, 9}, 3)

	result, err := backend.Map(x, tensor.Float64, math.Sqrt)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, result.Values())
	assert.Equal(t, []float64{1, 4, 9}, x.Values(), "input must not be mutated")

	// Results are rounded to the requested type.
	third, err := backend.Map(x, tensor.Float32, func(v float64) float64 { return v / 3 })
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, third.DType())
	assert.Equal(t, float64(float32(1.0/3)), third.Values()[0])
}

func TestCPUBackend_Zip(t *testing.T) {
	backend := New()
	add := func(a, b float64) float64 { return a + b }

	t.Run("SameShape", func(t *testing.T) {
		a := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
		b := raw(t, []float64{10, 11, 12, 13, 14, 15}, 2, 3)
		result, err := backend.Zip(a, b, tensor.Float64, add)
		require.NoError(t, err)
		assert.Equal(t, []float64{11, 13, 15, 17, 19, 21}, result.Values())
	})

	t.Run("Broadcast", func(t *testing.T) {
		// (3, 1) + (1, 4) → (3, 4)
		a := raw(t, []float64{0, 10, 20}, 3, 1)
		b := raw(t, []float64{1, 2, 3, 4}, 1, 4)
		result, err := backend.Zip(a, b, tensor.Float64, add)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{3, 4}, result.Shape())
		assert.Equal(t, []float64{1, 2, 3, 4, 11, 12, 13, 14, 21, 22, 23, 24}, result.Values())
	})

	t.Run("ScalarOperand", func(t *testing.T) {
		a := raw(t, []float64{1, 2}, 2)
		result, err := backend.Zip(a, tensor.Scalar(5, tensor.Float64), tensor.Float64, add)
		require.NoError(t, err)
		assert.Equal(t, []float64{6, 7}, result.Values())
	})

	t.Run("Incompatible", func(t *testing.T) {
		_, err := backend.Zip(arange(t, 3, 4), arange(t, 3, 5), tensor.Float64, add)
		assert.ErrorIs(t, err, tensor.ErrShape)
	})

	t.Run("Released", func(t *testing.T) {
		a := arange(t, 2)
		a.Release()
		_, err := backend.Zip(a, arange(t, 2), tensor.Float64, add)
		assert.ErrorIs(t, err, tensor.ErrUseAfterFree)
	})
}

func TestCPUBackend_BroadcastTo(t *testing.T) {
	backend := New()
	x := raw(t, []float64{1, 2, 3}, 3)

	result, err := backend.BroadcastTo(x, tensor.Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, result.Values())

	_, err = backend.BroadcastTo(arange(t, 2, 3), tensor.Shape{3})
	assert.ErrorIs(t, err, tensor.ErrShape, "broadcast only ever grows")
}

func TestCPUBackend_SumTo(t *testing.T) {
	backend := New()
	x := arange(t, 2, 3) // [[0 1 2] [3 4 5]]

	tests := []struct {
		name  string
		shape tensor.Shape
		want  []float64
	}{
		{"Identity", tensor.Shape{2, 3}, []float64{0, 1, 2, 3, 4, 5}},
		{"LeadingAxis", tensor.Shape{3}, []float64{3, 5, 7}},
		{"KeptRow", tensor.Shape{1, 3}, []float64{3, 5, 7}},
		{"KeptColumn", tensor.Shape{2, 1}, []float64{3, 12}},
		{"Scalar", tensor.Shape{}, []float64{15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := backend.SumTo(x, tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, result.Shape())
			assert.Equal(t, tt.want, result.Values())
		})
	}

	_, err := backend.SumTo(x, tensor.Shape{2})
	assert.ErrorIs(t, err, tensor.ErrShape)
}

// TestCPUBackend_Parallel checks that splitting kernels across goroutines
// does not change results.
func TestCPUBackend_Parallel(t *testing.T) {
	split := New(WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 3}))
	serial := New(WithParallel(parallel.Sequential()))

	x := arange(t, 5, 7)
	square := func(v float64) float64 { return v*v - 1 }
	got, err := split.Map(x, tensor.Float32, square)
	require.NoError(t, err)
	want, err := serial.Map(x, tensor.Float32, square)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())

	// 3 batches of 16x16x16 clear the GEMM work threshold.
	a := arange(t, 3, 16, 16)
	b := arange(t, 3, 16, 16)
	got = einsum(t, split, "bij,bjk->bik", a, b)
	want = einsum(t, New(WithoutGEMM(), WithParallel(parallel.Sequential())), "bij,bjk->bik", a, b)
	assert.Equal(t, want.Data(), got.Data())
}
