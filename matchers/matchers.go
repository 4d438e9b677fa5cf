// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matchers provides testify assertions that compare floats the way
// device results are checked: every NaN matches every other NaN and all
// other values must match bit for bit.
package matchers

import (
	"fmt"
	"math"

	"github.com/maruel/testvalues/floatx"
	"github.com/stretchr/testify/assert"
)

type tHelper interface {
	Helper()
}

// NaNSensitiveEqual asserts that expected and actual are both NaN or have
// the same bit pattern.
//
//	matchers.NaNSensitiveEqual(t, floatx.Bfloat16NaN, got)
func NaNSensitiveEqual[T floatx.Float](t assert.TestingT, expected, actual T, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if floatx.NaNSensitiveEqual(expected, actual) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("Not NaN sensitive equal:\nexpected: %s\nactual  : %s", Describe(expected), Describe(actual)), msgAndArgs...)
}

// NaNSensitiveEqualSlice asserts that both slices have the same length and
// that each element pair is NaNSensitiveEqual. Only the first mismatch is
// reported.
func NaNSensitiveEqualSlice[T floatx.Float](t assert.TestingT, expected, actual []T, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if len(expected) != len(actual) {
		return assert.Fail(t, fmt.Sprintf("Length mismatch: expected %d, actual %d", len(expected), len(actual)), msgAndArgs...)
	}
	for i := range expected {
		if !floatx.NaNSensitiveEqual(expected[i], actual[i]) {
			return assert.Fail(t, fmt.Sprintf("Not NaN sensitive equal at index %d:\nexpected: %s\nactual  : %s", i, Describe(expected[i]), Describe(actual[i])), msgAndArgs...)
		}
	}
	return true
}

// Describe renders v as its bit pattern followed by its decimal value.
func Describe[T floatx.Float](v T) string {
	switch x := any(v).(type) {
	case float32:
		return fmt.Sprintf("0x%08x (%g)", math.Float32bits(x), x)
	case float64:
		return fmt.Sprintf("0x%016x (%g)", math.Float64bits(x), x)
	case floatx.Bfloat:
		return fmt.Sprintf("%s (%g)", x, x.Float32())
	case floatx.Bfloat16:
		return fmt.Sprintf("%s (%g)", x, x.Float32())
	case floatx.Tfloat:
		return fmt.Sprintf("%s (%g)", x, x.Float32())
	}
	return fmt.Sprint(v)
}
