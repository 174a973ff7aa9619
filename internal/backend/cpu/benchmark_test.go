package cpu

import (
	"fmt"
	"testing"

	"github.com/born-ml/autograd/internal/tensor"
)

func benchOperand(b *testing.B, shape ...int) *tensor.RawTensor {
	b.Helper()
	n := tensor.Shape(shape).NumElements()
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i%17) / 17
	}
	r, err := tensor.FromSlice(data, shape, tensor.Float32)
	if err != nil {
		b.Fatal(err)
	}
	return r
}

// BenchmarkEinsum compares the GEMM path with the generic loop kernel.
func BenchmarkEinsum(b *testing.B) {
	cases := []struct {
		spec   string
		shapes [][]int
	}{
		{"ij,jk->ik", [][]int{{64, 64}, {64, 64}}},
		{"bij,bjk->bik", [][]int{{8, 32, 32}, {8, 32, 32}}},
		{"bhqd,bhkd->bhqk", [][]int{{2, 4, 16, 8}, {2, 4, 16, 8}}},
	}
	for _, tc := range cases {
		operands := make([]*tensor.RawTensor, len(tc.shapes))
		shapes := make([]tensor.Shape, len(tc.shapes))
		for i, shape := range tc.shapes {
			operands[i] = benchOperand(b, shape...)
			shapes[i] = shape
		}
		spec, err := tensor.ParseSubscripts(tc.spec, len(operands))
		if err != nil {
			b.Fatal(err)
		}
		sizes, err := spec.Sizes(shapes)
		if err != nil {
			b.Fatal(err)
		}
		for _, backend := range []*CPUBackend{New(), New(WithoutGEMM())} {
			name := "gemm"
			if !backend.useGEMM {
				name = "loop"
			}
			b.Run(fmt.Sprintf("%s/%s", tc.spec, name), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := backend.Einsum(spec, sizes, tensor.Float32, operands...); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkBroadcastSum(b *testing.B) {
	backend := New()
	x := benchOperand(b, 1, 256)

	b.Run("BroadcastTo", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = backend.BroadcastTo(x, tensor.Shape{256, 256})
		}
	})

	big, _ := backend.BroadcastTo(x, tensor.Shape{256, 256})
	b.Run("SumTo", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = backend.SumTo(big, tensor.Shape{1, 256})
		}
	})
}
