// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"github.com/born-ml/autograd/internal/parallel"
	"github.com/born-ml/autograd/internal/tensor"
)

// CPUBackend implements tensor.Backend on the CPU.
type CPUBackend struct {
	// useGEMM routes eligible two-operand contractions through gonum.
	useGEMM bool

	// parallel splits elementwise kernels and GEMM batches across goroutines.
	parallel parallel.Config
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithoutGEMM forces every contraction through the generic loop kernel.
func WithoutGEMM() Option {
	return func(cpu *CPUBackend) {
		cpu.useGEMM = false
	}
}

// WithParallel sets how kernels are split across goroutines. Use
// parallel.Sequential() to keep every kernel on the calling goroutine.
func WithParallel(cfg parallel.Config) Option {
	return func(cpu *CPUBackend) {
		cpu.parallel = cfg
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{useGEMM: true, parallel: parallel.DefaultConfig()}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Map applies fn to every element of x.
func (cpu *CPUBackend) Map(x *tensor.RawTensor, dtype tensor.DataType, fn func(float64) float64) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	result, err := tensor.NewRaw(x.Shape(), dtype)
	if err != nil {
		return nil, err
	}
	src, dst := x.Data(), result.Data()
	parallel.ForRange(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = dtype.Round(fn(src[i]))
		}
	}, cpu.parallel)
	return result, nil
}

// Zip applies fn to the broadcast pairs of a and b.
func (cpu *CPUBackend) Zip(a, b *tensor.RawTensor, dtype tensor.DataType, fn func(a, b float64) float64) (*tensor.RawTensor, error) {
	if err := tensor.CheckAll(a, b); err != nil {
		return nil, err
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	result, err := tensor.NewRaw(outShape, dtype)
	if err != nil {
		return nil, err
	}
	aData, bData, dst := a.Data(), b.Data(), result.Data()

	if !needsBroadcast {
		// Fast path: same shape
		for i := range dst {
			dst[i] = dtype.Round(fn(aData[i], bData[i]))
		}
		return result, nil
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(a.Shape(), outShape)
	bStrides := computeBroadcastStridesForShape(b.Shape(), outShape)
	for i := range dst {
		ai := computeFlatIndex(i, outStrides, aStrides)
		bi := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = dtype.Round(fn(aData[ai], bData[bi]))
	}
	return result, nil
}
