package tensor

import "testing"

func BenchmarkShapeOperations(b *testing.B) {
	shape1 := Shape{100, 1, 100}
	shape2 := Shape{100, 100}

	b.Run("NumElements", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape1.NumElements()
		}
	})

	b.Run("ComputeStrides", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape1.ComputeStrides()
		}
	})

	b.Run("BroadcastShapes", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = BroadcastShapes(shape1, shape2)
		}
	})

	b.Run("Validate", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape1.Validate()
		}
	})
}

func BenchmarkParseSubscripts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := ParseSubscripts("bhqd,bhkd->bhqk", 2); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDataTypeRound(b *testing.B) {
	data := make([]float64, 10_000)
	for i := range data {
		data[i] = float64(i) / 3
	}
	for _, dt := range []DataType{Float16, Float32, Float64} {
		b.Run(dt.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				dt.RoundSlice(data)
			}
		})
	}
}
