package autodiff_test

import (
	"errors"
	"math"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/tensor"
)

func TestBroadcastRoundTrip(t *testing.T) {
	ctx := newContext()
	a := must.M1(ctx.Parameter([]float64{1, 2, 3}, tensor.Shape{3, 1}))
	b := must.M1(ctx.Parameter([]float64{10, 20, 30, 40}, tensor.Shape{1, 4}))

	c := must.M1(autodiff.Mul(a, b))
	require.Equal(t, tensor.Shape{3, 4}, c.Shape())

	seed := make([]float64, 12)
	for i := range seed {
		seed[i] = 1
	}
	require.NoError(t, c.BackwardWithSeed(seed))

	require.Equal(t, tensor.Shape{3, 1}, a.Grad().Shape())
	require.Equal(t, tensor.Shape{1, 4}, b.Grad().Shape())
	assert.Equal(t, []float64{100, 100, 100}, a.GradData())
	assert.Equal(t, []float64{6, 6, 6, 6}, b.GradData())
}

func TestSumAxisBackward(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))

	s := must.M1(autodiff.Sum(x, 1))
	require.Equal(t, tensor.Shape{2}, s.Shape())
	assert.Equal(t, []float64{6, 15}, s.Value())

	require.NoError(t, s.BackwardWithSeed([]float64{1, 1}))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, x.GradData())
}

// The contraction gradients are the matrix product identities
// dA = G·Bᵀ and dB = Aᵀ·G.
func TestMatMulTransposeIdentities(t *testing.T) {
	ctx := newContext()
	a := must.M1(ctx.Parameter([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))
	b := must.M1(ctx.Parameter([]float64{
		1, 0, -1, 2,
		0.5, 1, 1, 0,
		-2, 1, 0, 1,
	}, tensor.Shape{3, 4}))
	seed := []float64{1, 2, 0, -1, 0.5, 0, 1, 3}

	c := must.M1(autodiff.MatMul(a, b))
	require.Equal(t, tensor.Shape{2, 4}, c.Shape())
	require.NoError(t, c.BackwardWithSeed(seed))

	restore := ctx.WithRecording(false)
	defer restore()
	g := must.M1(ctx.FromSlice(seed, tensor.Shape{2, 4}))
	wantA := must.M1(autodiff.MatMul(g, must.M1(autodiff.Transpose(b))))
	wantB := must.M1(autodiff.MatMul(must.M1(autodiff.Transpose(a)), g))
	assert.InDeltaSlice(t, wantA.Value(), a.GradData(), 1e-12)
	assert.InDeltaSlice(t, wantB.Value(), b.GradData(), 1e-12)

	// Row 0 of dA: g[0]·B[0], g[0]·B[1], g[0]·B[2] with g[0] = (1, 2, 0, -1).
	assert.InDeltaSlice(t, []float64{-1, 2.5, -1}, a.GradData()[:3], 1e-12)
}

// A tensor used along two paths receives the sum of both contributions.
func TestAdditivityOverSharedSubgraphs(t *testing.T) {
	values := []float64{0.5, -1, 2}
	pathSquare := func(x *autodiff.Tensor) *autodiff.Tensor { return x.Mul(x).Sum() }
	pathExp := func(x *autodiff.Tensor) *autodiff.Tensor { return x.Exp().Sum() }

	gradOf := func(paths ...func(*autodiff.Tensor) *autodiff.Tensor) []float64 {
		ctx := newContext()
		x := must.M1(ctx.Parameter(values, tensor.Shape{3}))
		var root *autodiff.Tensor
		require.NoError(t, autodiff.Catch(func() {
			for _, path := range paths {
				if root == nil {
					root = path(x)
				} else {
					root = root.Add(path(x))
				}
			}
		}))
		require.NoError(t, root.Backward())
		return x.GradData()
	}

	square := gradOf(pathSquare)
	exp := gradOf(pathExp)
	both := gradOf(pathSquare, pathExp)
	for i, v := range values {
		assert.InDelta(t, 2*v, square[i], 1e-12)
		assert.InDelta(t, math.Exp(v), exp[i], 1e-12)
		assert.InDelta(t, square[i]+exp[i], both[i], 1e-12)
	}
}

func TestDiamondGraphVisitsEachNodeOnce(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{3}, tensor.Shape{}))
	// y = x², z = y + y, w = z * y = 2y² = 2x⁴ → dw/dx = 8x³.
	y := x.Mul(x)
	z := y.Add(y)
	w := z.Mul(y)
	require.NoError(t, w.Backward())
	assert.Equal(t, []float64{216}, x.GradData())
}

func TestBackwardAccumulatesAndZeroGrad(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2}, tensor.Shape{2}))
	loss := x.MulScalar(3).Sum()

	require.NoError(t, loss.Backward())
	assert.Equal(t, []float64{3, 3}, x.GradData())
	require.NoError(t, loss.Backward())
	assert.Equal(t, []float64{6, 6}, x.GradData(), "re-invocation accumulates")

	x.ZeroGrad()
	assert.Nil(t, x.Grad())
	x.ZeroGrad()
	assert.Nil(t, x.Grad(), "zero grad is idempotent")

	require.NoError(t, loss.Backward())
	assert.Equal(t, []float64{3, 3}, x.GradData())
	ctx.ZeroGrad(x, loss)
	assert.Nil(t, x.GradData())
}

func TestOnlyTrainableLeavesOwnGradients(t *testing.T) {
	ctx := newContext()
	w := must.M1(ctx.Parameter([]float64{2}, tensor.Shape{1}))
	c := must.M1(ctx.FromSlice([]float64{5}, tensor.Shape{1}))
	h := w.Mul(c)
	loss := h.Sum()
	require.NoError(t, loss.Backward())

	assert.Equal(t, []float64{5}, w.GradData())
	assert.Nil(t, c.Grad())
	assert.Nil(t, h.Grad(), "intermediate gradients are not kept")
	assert.Nil(t, loss.Grad())

	assert.ErrorIs(t, h.SetTrainable(true), autodiff.ErrValidation)
	require.NoError(t, w.SetTrainable(false))
	assert.Nil(t, w.Grad())
}

func TestRecordingRule(t *testing.T) {
	ctx := newContext()
	c := must.M1(ctx.FromSlice([]float64{1, 2}, tensor.Shape{2}))
	w := must.M1(ctx.Parameter([]float64{3, 4}, tensor.Shape{2}))

	constant := c.Exp()
	assert.True(t, constant.IsLeaf(), "no operand requires a gradient")
	assert.False(t, constant.RequiresGrad())

	recorded := c.Mul(w)
	require.NotNil(t, recorded.Record())
	assert.Equal(t, autodiff.Binary, recorded.Record().Kind())
	assert.Equal(t, "mul", recorded.Record().Name())
	assert.Equal(t, []*autodiff.Tensor{c, w}, recorded.Record().Operands())

	sum := recorded.Sum()
	assert.Equal(t, autodiff.Reduce, sum.Record().Kind())
	assert.Equal(t, autodiff.Contraction, must.M1(autodiff.Einsum("i,i->", c, w)).Record().Kind())
	assert.Equal(t, "ab->ba", must.M1(autodiff.Transpose(must.M1(autodiff.Reshape(w, 1, 2)))).Record().Name())
	assert.Equal(t, autodiff.View, must.M1(autodiff.Reshape(w, 2, 1)).Record().Kind())
	assert.Equal(t, autodiff.Unary, w.ReLU().Record().Kind())
}

func TestContextScoping(t *testing.T) {
	ctx := newContext()
	w := must.M1(ctx.Parameter([]float64{1, 2, 3}, tensor.Shape{3}))

	var loss *autodiff.Tensor
	require.NoError(t, ctx.NoGrad(func() error {
		assert.False(t, ctx.IsRecording())
		return autodiff.Catch(func() {
			loss = w.Mul(w).Exp().Sum()
		})
	}))
	assert.True(t, ctx.IsRecording())
	assert.Nil(t, loss.Record())
	assert.True(t, loss.IsLeaf())

	require.NoError(t, loss.Backward())
	assert.Nil(t, w.Grad(), "backward through an unrecorded computation has no effect")
}

func TestContextScopesNestAndRestore(t *testing.T) {
	ctx := newContext()
	require.True(t, ctx.IsRecording())

	outer := ctx.WithRecording(false)
	inner := ctx.WithRecording(true)
	assert.True(t, ctx.IsRecording())
	inner()
	assert.False(t, ctx.IsRecording())
	inner()
	assert.False(t, ctx.IsRecording(), "restore is idempotent")
	outer()
	assert.True(t, ctx.IsRecording())

	// Restored on error.
	errBoom := errors.New("boom")
	err := ctx.NoGrad(func() error {
		return ctx.EnableGrad(func() error {
			assert.True(t, ctx.IsRecording())
			return errBoom
		})
	})
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, ctx.IsRecording())

	// Restored on panic.
	assert.Panics(t, func() {
		_ = ctx.NoGrad(func() error { panic("boom") })
	})
	assert.True(t, ctx.IsRecording())

	off := autodiff.NewContext(autodiff.WithRecordingEnabled(false))
	assert.False(t, off.IsRecording())
	_ = off.EnableGrad(func() error {
		assert.True(t, off.IsRecording())
		return nil
	})
	assert.False(t, off.IsRecording())
}

func TestBackwardShapeErrors(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2}, tensor.Shape{2}))
	y := x.Exp()

	assert.ErrorIs(t, y.Backward(), autodiff.ErrShape)
	assert.ErrorIs(t, y.BackwardWithSeed([]float64{1}), autodiff.ErrShape)
	seed := must.M1(tensor.FromSlice([]float64{1, 1}, tensor.Shape{1, 2}, tensor.Float64))
	assert.ErrorIs(t, y.BackwardWithGrad(seed), autodiff.ErrShape)

	require.NoError(t, y.BackwardWithGrad(must.M1(tensor.FromSlice([]float64{1, 0}, tensor.Shape{2}, tensor.Float64))))
	assert.InDeltaSlice(t, []float64{math.E, 0}, x.GradData(), 1e-12)

	// One element of any rank is a valid root.
	z := must.M1(ctx.Parameter([]float64{4}, tensor.Shape{1, 1}))
	require.NoError(t, z.Sqrt().Backward())
	assert.Equal(t, []float64{0.25}, z.GradData())
}

func TestSplitBackwardPadsZeros(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{
		0, 1, 2, 3, 4, 5,
		6, 7, 8, 9, 10, 11,
	}, tensor.Shape{2, 6}))

	parts := x.Split(3, 1)
	require.Len(t, parts, 3)
	assert.Equal(t, []float64{2, 3, 8, 9}, parts[1].Value())

	require.NoError(t, parts[0].Sum().Backward())
	assert.Equal(t, []float64{
		1, 1, 0, 0, 0, 0,
		1, 1, 0, 0, 0, 0,
	}, x.GradData())

	_, err := autodiff.Split(x, 4, 1)
	assert.ErrorIs(t, err, autodiff.ErrShape)
	_, err = autodiff.Split(x, 2, 2)
	assert.ErrorIs(t, err, autodiff.ErrShape)
}

// One step of linear regression: pred = slope*x + intercept, loss = (pred-y)².
func TestLinearRegressionGradients(t *testing.T) {
	ctx := newContext()
	slope := must.M1(ctx.Parameter([]float64{0.02}, tensor.Shape{}))
	intercept := must.M1(ctx.Parameter([]float64{0.01}, tensor.Shape{}))
	x := must.M1(ctx.Scalar(1))
	y := must.M1(ctx.Scalar(3))

	loss := slope.Mul(x).Add(intercept).Sub(y).Pow(2).Mean()
	assert.InDelta(t, 8.8209, must.M1(loss.Item()), 1e-12)

	require.NoError(t, loss.Backward())
	assert.InDelta(t, -5.94, slope.GradData()[0], 1e-12)
	assert.InDelta(t, -5.94, intercept.GradData()[0], 1e-12)
}

func TestMaxRoutesToFirstOccurrence(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{
		1, 5, 5,
		7, 2, 7,
	}, tensor.Shape{2, 3}))

	m := x.Max(1)
	assert.Equal(t, []float64{5, 7}, m.Value())
	require.NoError(t, m.BackwardWithSeed([]float64{1, 2}))
	assert.Equal(t, []float64{0, 1, 0, 2, 0, 0}, x.GradData())

	// Ties of the elementwise forms go to the first operand.
	ctx2 := newContext()
	a := must.M1(ctx2.Parameter([]float64{1, 2}, tensor.Shape{2}))
	b := must.M1(ctx2.Parameter([]float64{1, 3}, tensor.Shape{2}))
	require.NoError(t, a.Maximum(b).Sum().Backward())
	assert.Equal(t, []float64{1, 0}, a.GradData())
	assert.Equal(t, []float64{0, 1}, b.GradData())
}

func TestDomainAndSentinels(t *testing.T) {
	ctx := newContext()
	neg := must.M1(ctx.Parameter([]float64{1, -1}, tensor.Shape{2}))
	_, err := autodiff.Log(neg)
	assert.ErrorIs(t, err, autodiff.ErrDomain)
	_, err = autodiff.Sqrt(neg)
	assert.ErrorIs(t, err, autodiff.ErrDomain)
	_, err = autodiff.Pow(neg, 0.5)
	assert.ErrorIs(t, err, autodiff.ErrDomain)
	cube := must.M1(autodiff.Pow(neg, 3))
	assert.Equal(t, []float64{1, -1}, cube.Value())

	zero := must.M1(ctx.Parameter([]float64{0}, tensor.Shape{}))
	l := must.M1(autodiff.Log(zero))
	assert.True(t, math.IsInf(l.Value()[0], -1))
	require.NoError(t, l.Backward())
	assert.True(t, math.IsInf(zero.GradData()[0], 1))

	zero.ZeroGrad()
	require.NoError(t, zero.ReLU().Backward())
	assert.Equal(t, []float64{0}, zero.GradData())
	zero.ZeroGrad()
	require.NoError(t, zero.Abs().Backward())
	assert.Equal(t, []float64{0}, zero.GradData())
}

func TestUseAfterFree(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}))
	alias := must.M1(x.Detached())
	y := x.Exp()

	assert.False(t, x.Release(), "alias keeps the storage")
	_, err := autodiff.Exp(x)
	assert.ErrorIs(t, err, autodiff.ErrUseAfterFree)
	assert.Error(t, autodiff.Catch(func() { x.Add(alias) }))

	// The alias stays readable.
	assert.Equal(t, []float64{1, 2, 3, 4}, alias.Value())

	// y's backward needs x's data.
	assert.ErrorIs(t, y.Sum().Backward(), autodiff.ErrUseAfterFree)

	assert.True(t, alias.Release())
	assert.ErrorIs(t, alias.SetData([]float64{0, 0, 0, 0}), autodiff.ErrUseAfterFree)
	_, err = alias.Item()
	assert.ErrorIs(t, err, autodiff.ErrUseAfterFree)
}

// A reshape is its own node: gradient from the alias reaches the owner once.
func TestReshapeAliasGradientFlowsOnce(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))
	y := x.Reshape(3, 2)
	assert.True(t, y.Raw().SharesBuffer(x.Raw()))

	loss := y.Mul(y).Sum().Add(x.Sum())
	require.NoError(t, loss.Backward())
	assert.Equal(t, []float64{3, 5, 7, 9, 11, 13}, x.GradData())

	_, err := autodiff.Reshape(x, 4, -1)
	assert.ErrorIs(t, err, autodiff.ErrShape)
	_, err = autodiff.Reshape(x, -1, -1)
	assert.ErrorIs(t, err, autodiff.ErrValidation)
}

func TestEinsumValidation(t *testing.T) {
	ctx := newContext()
	a := must.M1(ctx.Parameter([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))
	b := must.M1(ctx.Parameter([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))

	for _, spec := range []string{"ij->ik", "ij,jk->iik", "ijk,jk->ik", "ij", "ij;jk->ik"} {
		_, err := autodiff.Einsum(spec, a, b)
		assert.ErrorIsf(t, err, autodiff.ErrValidation, "spec %q", spec)
	}
	_, err := autodiff.Einsum("ij,jk->ik", a, b)
	assert.ErrorIs(t, err, autodiff.ErrShape)
	_, err = autodiff.MatMul(a, b)
	assert.ErrorIs(t, err, autodiff.ErrShape)
	_, err = autodiff.Transpose(a, 0, 0)
	assert.ErrorIs(t, err, autodiff.ErrValidation)
}

func TestOperandsFromDifferentContexts(t *testing.T) {
	a := must.M1(newContext().Parameter([]float64{1}, tensor.Shape{1}))
	b := must.M1(newContext().Parameter([]float64{1}, tensor.Shape{1}))
	_, err := autodiff.Add(a, b)
	assert.ErrorIs(t, err, autodiff.ErrValidation)
	_, err = autodiff.Add(a, nil)
	assert.ErrorIs(t, err, autodiff.ErrValidation)
}

func TestDTypes(t *testing.T) {
	ctx := autodiff.NewContext()
	assert.Equal(t, tensor.Float32, ctx.DType())

	a := must.M1(ctx.FromSlice([]float64{0.1}, tensor.Shape{1}))
	assert.Equal(t, float64(float32(0.1)), a.Value()[0])
	b := must.M1(ctx.FromSlice([]float64{0.1}, tensor.Shape{1}, autodiff.OfDType(tensor.Float64)))
	sum := must.M1(autodiff.Add(a, b))
	assert.Equal(t, tensor.Float64, sum.DType(), "results take the most precise operand type")

	h := must.M1(ctx.Parameter([]float64{2049}, tensor.Shape{1}, autodiff.OfDType(tensor.Float16), autodiff.Named("h")))
	assert.Equal(t, 2048.0, h.Value()[0])
	assert.Equal(t, "h", h.Name())
	require.NoError(t, h.MulScalar(1.0/3).Sum().Backward())
	assert.Equal(t, tensor.Float16, h.Grad().DType())
	assert.InDelta(t, 1.0/3, h.GradData()[0], 1e-3)
}

func TestFluentCatch(t *testing.T) {
	ctx := newContext()
	a := must.M1(ctx.Parameter([]float64{1, 2, 3}, tensor.Shape{3}))
	b := must.M1(ctx.Parameter([]float64{1, 2}, tensor.Shape{2}))

	err := autodiff.Catch(func() {
		a.Add(b)
	})
	assert.ErrorIs(t, err, autodiff.ErrShape)

	assert.NoError(t, autodiff.Catch(func() { a.Exp().Sum() }))
	assert.Panics(t, func() { _ = autodiff.Catch(func() { panic("not an error") }) })
}

func TestTensorAccessors(t *testing.T) {
	ctx := newContext()
	x := must.M1(ctx.Parameter([]float64{1, 2}, tensor.Shape{2}, autodiff.Named("w")))
	assert.Equal(t, 2, x.NumElements())
	assert.Same(t, ctx, x.Context())
	assert.NotEqual(t, x.ID(), must.M1(ctx.Zeros(tensor.Shape{2})).ID())
	assert.Equal(t, "Tensor(w param float64(2,))", x.String())

	_, err := x.Item()
	assert.ErrorIs(t, err, autodiff.ErrShape)
	require.NoError(t, x.SetData([]float64{5, 6}))
	assert.Equal(t, []float64{5, 6}, x.Value())
	assert.ErrorIs(t, x.SetData([]float64{1}), autodiff.ErrShape)

	ones := must.M1(ctx.Ones(tensor.Shape{2, 2}))
	assert.Equal(t, []float64{1, 1, 1, 1}, ones.Value())
	full := must.M1(ctx.Full(tensor.Shape{2}, 7))
	assert.Equal(t, []float64{7, 7}, full.Value())

	raw := must.M1(tensor.FromSlice([]float64{1}, tensor.Shape{1}, tensor.Float64))
	wrapped := must.M1(ctx.FromRaw(raw, true))
	assert.True(t, wrapped.Trainable())
	assert.Same(t, raw, wrapped.Raw())
	raw.Release()
	_, err = ctx.FromRaw(raw, false)
	assert.ErrorIs(t, err, autodiff.ErrUseAfterFree)
}
