// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go kernels (no CGO)
//   - NumPy-compatible broadcasting and its inverse reduction
//   - Einsum contractions, with two-operand products dispatched to gonum
//   - Float16, Float32 and Float64 rounding of every result
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/autograd/autodiff"
//	    "github.com/born-ml/autograd/backend/cpu"
//	)
//
//	func main() {
//	    ctx := autodiff.NewContext(autodiff.WithBackend(cpu.New()))
//	    w, _ := ctx.Parameter([]float64{1, 2, 3, 4}, []int{2, 2})
//	    loss := w.MatMul(w).Sum()
//	    _ = loss.Backward()
//	}
package cpu
