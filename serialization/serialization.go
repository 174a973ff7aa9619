// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization saves and loads named tensors in the SafeTensors
// format used across the ML ecosystem.
//
// Example:
//
//	err := serialization.Save("model.safetensors", map[string]*autodiff.Tensor{
//	    "w": w,
//	}, map[string]string{"epoch": "3"})
//
//	tensors, metadata, err := serialization.Load("model.safetensors", ctx, true)
package serialization

import (
	"github.com/born-ml/autograd/autodiff"
	"github.com/born-ml/autograd/internal/serialization"
)

// File is a memory-mapped SafeTensors file.
type File = serialization.File

// TensorInfo describes one tensor in a file header.
type TensorInfo = serialization.TensorInfo

// ValidationError describes why a file was rejected.
type ValidationError = serialization.ValidationError

// Validation errors, matched with errors.Is.
var (
	ErrChecksumMismatch  = serialization.ErrChecksumMismatch
	ErrOffsetOverlap     = serialization.ErrOffsetOverlap
	ErrOutOfBounds       = serialization.ErrOutOfBounds
	ErrNegativeOffset    = serialization.ErrNegativeOffset
	ErrSizeMismatch      = serialization.ErrSizeMismatch
	ErrTooManyTensors    = serialization.ErrTooManyTensors
	ErrTensorNameTooLong = serialization.ErrTensorNameTooLong
	ErrInvalidTensorName = serialization.ErrInvalidTensorName
	ErrHeaderTooLarge    = serialization.ErrHeaderTooLarge
	ErrInvalidHeader     = serialization.ErrInvalidHeader
	ErrUnsupportedDType  = serialization.ErrUnsupportedDType
)

// Save writes tensors and metadata to path.
func Save(path string, tensors map[string]*autodiff.Tensor, metadata map[string]string) error {
	return serialization.Save(path, tensors, metadata)
}

// Load reads every tensor at path into ctx as leaves, trainable when
// requested.
func Load(path string, ctx *autodiff.Context, trainable bool) (map[string]*autodiff.Tensor, map[string]string, error) {
	return serialization.Load(path, ctx, trainable)
}

// Open maps the file at path and validates its header.
func Open(path string) (*File, error) {
	return serialization.Open(path)
}
