// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/backend/cpu"
	"github.com/born-ml/autograd/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = cpu.New()
}

// TestRawTensorAPI verifies the RawTensor alias exposes the expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.FromSlice([]float64{1, 2.5, 1.0 / 3}, tensor.Shape{3}, tensor.Float32)
	require.NoError(t, err)
	assert.True(t, raw.Shape().Equal(tensor.Shape{3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, float64(float32(1.0/3)), raw.Data()[2])

	alias, err := raw.Reshape(tensor.Shape{1, 3})
	require.NoError(t, err)
	assert.True(t, alias.SharesBuffer(raw))
	assert.False(t, raw.Release(), "alias keeps the buffer")
	assert.True(t, errors.Is(raw.Check(), tensor.ErrUseAfterFree))
	assert.NoError(t, alias.Check())
}

func TestParseHelpers(t *testing.T) {
	dt, err := tensor.ParseDataType("float16")
	require.NoError(t, err)
	assert.Equal(t, tensor.Float16, dt)
	_, err = tensor.ParseDataType("int8")
	assert.True(t, errors.Is(err, tensor.ErrValidation))

	spec, err := tensor.ParseSubscripts("ij,jk->ik", 2)
	require.NoError(t, err)
	assert.Equal(t, "ij,jk->ik", spec.String())

	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{4})
	require.NoError(t, err)
	assert.True(t, broadcast)
	assert.Equal(t, tensor.Shape{3, 4}, shape)
}
