// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/autograd/internal/backend/cpu"
	"github.com/born-ml/autograd/internal/parallel"
	"github.com/born-ml/autograd/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Option configures a Backend.
type Option = internalcpu.Option

// ParallelConfig controls how elementwise kernels and batched matrix
// multiplies are split across goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	ctx := autodiff.NewContext(autodiff.WithBackend(cpu.New()))
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithoutGEMM disables the gonum matrix-multiply path, so every contraction
// runs through the generic loop kernel.
func WithoutGEMM() Option {
	return internalcpu.WithoutGEMM()
}

// WithParallel sets the worker configuration. Use SequentialConfig to keep
// every kernel on the calling goroutine.
func WithParallel(cfg ParallelConfig) Option {
	return internalcpu.WithParallel(cfg)
}

// DefaultParallelConfig returns the configuration New uses.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig returns a configuration that disables parallelism.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}
