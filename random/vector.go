// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package random

import "fmt"

// Vector is a fixed size tuple of lanes, like an OpenCL vector type.
type Vector[T Scalar] []T

// Lanes returns the number of lanes.
func (v Vector[T]) Lanes() int {
	return len(v)
}

// SizeInMemory returns the number of elements the vector occupies in a
// device buffer. 3 lanes vectors are padded to 4.
func (v Vector[T]) SizeInMemory() int {
	if len(v) == 3 {
		return 4
	}
	return len(v)
}

// Vec returns a vector where each lane is drawn independently by Value.
func Vec[T Scalar](g *Generator, lanes int, min, max T, seed int64) (Vector[T], error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("%d lanes: %w", lanes, ErrInvalidArgument)
	}
	out := make(Vector[T], lanes)
	for i := range out {
		var err error
		if out[i], err = Value(g, min, max, seed); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// VecExcept returns a vector where each lane is drawn independently by
// ValueExcept.
func VecExcept[T Scalar](g *Generator, lanes int, min, max T, seed int64, except []T) (Vector[T], error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("%d lanes: %w", lanes, ErrInvalidArgument)
	}
	out := make(Vector[T], lanes)
	for i := range out {
		var err error
		if out[i], err = ValueExcept(g, min, max, seed, except); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Slice returns size values drawn by Value.
func Slice[T Scalar](g *Generator, size int, min, max T, seed int64) ([]T, error) {
	if size < 0 {
		return nil, fmt.Errorf("size %d: %w", size, ErrInvalidArgument)
	}
	out := make([]T, size)
	for i := range out {
		var err error
		if out[i], err = Value(g, min, max, seed); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SliceFullRange returns size values drawn by FullRange.
func SliceFullRange[T Scalar](g *Generator, size int, seed int64) ([]T, error) {
	min, max := Limits[T]()
	return Slice(g, size, min, max, seed)
}

// SliceVec returns size vectors drawn by Vec.
func SliceVec[T Scalar](g *Generator, size, lanes int, min, max T, seed int64) ([]Vector[T], error) {
	if size < 0 {
		return nil, fmt.Errorf("size %d: %w", size, ErrInvalidArgument)
	}
	out := make([]Vector[T], size)
	for i := range out {
		var err error
		if out[i], err = Vec(g, lanes, min, max, seed); err != nil {
			return nil, err
		}
	}
	return out, nil
}
