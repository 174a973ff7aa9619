// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/backend/cpu"
	"github.com/born-ml/autograd/tensor"
)

func TestParallelMatchesSequential(t *testing.T) {
	data := make([]float64, 4096)
	for i := range data {
		data[i] = float64(i%17) - 8
	}
	x, err := tensor.FromSlice(data, tensor.Shape{64, 64}, tensor.Float64)
	require.NoError(t, err)

	cfg := cpu.DefaultParallelConfig()
	cfg.NumWorkers = 4
	cfg.MinChunkSize = 64
	par := cpu.New(cpu.WithParallel(cfg))
	seq := cpu.New(cpu.WithParallel(cpu.SequentialConfig()))

	square := func(v float64) float64 { return v * v }
	a, err := par.Map(x, tensor.Float64, square)
	require.NoError(t, err)
	b, err := seq.Map(x, tensor.Float64, square)
	require.NoError(t, err)
	assert.Equal(t, b.Values(), a.Values())
}
