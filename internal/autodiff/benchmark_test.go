package autodiff_test

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/autograd/internal/autodiff"
)

// BenchmarkMLPStep measures one forward and backward pass of a small
// two-layer network.
func BenchmarkMLPStep(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	ctx := autodiff.NewContext()
	x := param(ctx, rng, 0.1, 1, true, 32, 64)
	w1 := param(ctx, rng, 0.1, 1, true, 64, 128)
	b1 := param(ctx, rng, 0.1, 1, true, 128)
	w2 := param(ctx, rng, 0.1, 1, true, 128, 10)
	check := func(err error) {
		if err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var loss *autodiff.Tensor
		check(autodiff.Catch(func() {
			loss = x.MatMul(w1).Add(b1).GeLU().MatMul(w2).Pow(2).Mean()
		}))
		check(loss.Backward())
		ctx.ZeroGrad(x, w1, b1, w2)
	}
}

// BenchmarkForwardNoGrad measures the same forward pass without recording.
func BenchmarkForwardNoGrad(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	ctx := autodiff.NewContext(autodiff.WithRecordingEnabled(false))
	x := param(ctx, rng, 0.1, 1, true, 32, 64)
	w := param(ctx, rng, 0.1, 1, true, 64, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := autodiff.Catch(func() { _ = x.MatMul(w).Tanh().Sum() }); err != nil {
			b.Fatal(err)
		}
	}
}
