// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package random generates reproducible test values within a range, for
// integers, native floats and the reduced precision formats of package
// floatx.
//
// All the state lives in a Generator owned by the caller. Each sampled
// type has its own engine, seeded by the first call made for that type;
// the seed of later calls is ignored. The values returned by a call thus
// depend on every prior call made on the same Generator for the same type.
// Use one Generator per test to get reproducible sequences.
package random

import (
	"errors"
	"math/rand/v2"
	"sync"
)

var (
	// ErrInvalidArgument is returned when a bound is NaN or infinite, when
	// min > max or when a size is negative.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExhausted is returned when MaxAttempts draws all hit the
	// exclusion list.
	ErrExhausted = errors.New("exhausted attempts")
)

// MaxAttempts bounds the rejection loop of ValueExcept.
const MaxAttempts = 1 << 16

// stream identifies an engine. 8-bit integers share the engine of their
// 32-bit counterpart and the reduced formats share the float32 one.
type stream uint8

const (
	streamInt16 stream = iota
	streamInt32
	streamInt64
	streamInt
	streamUint16
	streamUint32
	streamUint64
	streamUint
	streamFloat32
	streamFloat64
	streamCount
)

// Generator holds one engine per sampled type. The zero value is ready to
// use. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	engines [streamCount]*rand.Rand
}

// New returns a Generator with no engine created yet.
func New() *Generator {
	return &Generator{}
}

// Reset drops all the engines. The next call for each type seeds it anew.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.engines[:])
}

// with runs fn with the engine of s, creating it from seed if needed.
func (g *Generator) with(s stream, seed int64, fn func(r *rand.Rand)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.engines[s]
	if r == nil {
		r = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
		g.engines[s] = r
	}
	fn(r)
}
