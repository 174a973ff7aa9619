// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms that update trainable
// tensors from their accumulated gradients.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - ConstantLR and StepLR learning rate schedules
//   - Optimizer and Scheduler interfaces for custom implementations
//
// Parameters that did not receive a gradient during the last backward pass
// are left untouched by Step.
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// Either accepts a Scheduler in place of a fixed LR:
//
//	optim.SGDConfig{Schedule: optim.StepLR{Base: 0.1, Gamma: 0.5, StepSize: 100}}
//
// # Training Loop Pattern
//
//	for range numEpochs {
//	    // 1. Zero gradients
//	    optimizer.ZeroGrad()
//
//	    // 2. Forward pass
//	    var loss *autodiff.Tensor
//	    if err := autodiff.Catch(func() {
//	        loss = x.MatMul(w).Add(b).Sub(y).Pow(2).Mean()
//	    }); err != nil {
//	        return err
//	    }
//
//	    // 3. Backward pass
//	    if err := loss.Backward(); err != nil {
//	        return err
//	    }
//
//	    // 4. Update parameters
//	    if err := optimizer.Step(); err != nil {
//	        return err
//	    }
//	}
package optim
