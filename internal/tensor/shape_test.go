package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Basics(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
	assert.Equal(t, "()", Shape{}.String())
	assert.Equal(t, "(3,)", Shape{3}.String())
	assert.Equal(t, "(2, 3)", Shape{2, 3}.String())

	assert.NoError(t, Shape{1, 2}.Validate())
	assert.ErrorIs(t, Shape{2, 0}.Validate(), ErrShape)
	assert.ErrorIs(t, Shape{-1}.Validate(), ErrShape)

	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
	assert.False(t, s.Equal(c))
	assert.True(t, s.Equal(Shape{2, 3}))
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{3, 1}, Shape{1, 4}, Shape{3, 4}, true},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false},
		{Shape{}, Shape{2, 2}, Shape{2, 2}, true},
		{Shape{4}, Shape{2, 1}, Shape{2, 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"x"+tt.b.String(), func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}

	_, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5})
	assert.ErrorIs(t, err, ErrShape)
}

func TestNormalizeAxes(t *testing.T) {
	axes, err := NormalizeAxes(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, axes)

	axes, err = NormalizeAxes([]int{-1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, axes)

	_, err = NormalizeAxes([]int{3}, 3)
	assert.ErrorIs(t, err, ErrShape)
	_, err = NormalizeAxes([]int{-4}, 3)
	assert.ErrorIs(t, err, ErrShape)
	_, err = NormalizeAxes([]int{1, -2}, 3)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReducedShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, Shape{2, 4}, ReducedShape(s, []int{1}, false))
	assert.Equal(t, Shape{2, 1, 4}, ReducedShape(s, []int{1}, true))
	assert.Equal(t, Shape{}, ReducedShape(s, []int{0, 1, 2}, false))
}

func TestDataType(t *testing.T) {
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.False(t, DataType(7).Valid())

	for _, dt := range []DataType{Float16, Float32, Float64} {
		parsed, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}
	_, err := ParseDataType("int8")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, Float64, Promote(Float32, Float64, Float16))
	assert.Equal(t, Float32, Promote(Float16, Float32))
	assert.Equal(t, Float16, Promote(Float16))

	// float16 has an 11-bit significand: 2049 is not representable.
	assert.Equal(t, 2048.0, Float16.Round(2049))
	assert.Equal(t, 2049.0, Float32.Round(2049))
	assert.Equal(t, 0.1, Float64.Round(0.1))

	_, err = NewRaw(Shape{1}, DataType(7))
	assert.ErrorIs(t, err, ErrValidation)
}
