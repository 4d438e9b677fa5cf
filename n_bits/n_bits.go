// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package n_bits measures how many of the sign, exponent and mantissa bits
// of a buffer of floats are actually exercised.
package n_bits

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/maruel/testvalues/floatx"
	"github.com/nlpodyssey/safetensors"
	"github.com/x448/float16"
)

// AnalyzedModel is the analyzed data.
type AnalyzedModel struct {
	Tensors []AnalyzedTensor `json:"tensors"`
}

// AnalyzedTensor contains the stats coming from an analyzed buffer.
type AnalyzedTensor struct {
	Name string `json:"name"`
	// Format is one of "bfloat", "bfloat16", "tfloat" or "float16".
	Format string `json:"format"`
	// Width is the storage size of one element in bits.
	Width int   `json:"width"`
	NumEl int64 `json:"numel"` // Number of values.
	// NaNs is the number of NaN values. They are excluded from Avg, Min and
	// Max.
	NaNs int64   `json:"nans"`
	Avg  float32 `json:"avg"`
	Min  float32 `json:"min"`
	Max  float32 `json:"max"`
	// Inexact is the number of float32 values that changed when rounded to
	// Format. Only set when the source was float32.
	Inexact  int64   `json:"inexact,omitempty"`
	Sign     BitKind `json:"s"`
	Exponent BitKind `json:"exp"`
	Mantissa BitKind `json:"man"`
	// Patterns is the set of distinct significant bit patterns seen.
	Patterns BitSet `json:"patterns"`
}

// Bytes returns the number of bytes this buffer occupies.
func (a *AnalyzedTensor) Bytes() int64 {
	return a.NumEl * int64(a.Width) / 8
}

// DistinctValues returns the number of distinct bit patterns seen.
func (a *AnalyzedTensor) DistinctValues() int {
	return int(a.Patterns.Effective())
}

// BitsWasted returns the number of bits per value that are never used.
func (a *AnalyzedTensor) BitsWasted() int {
	return a.Sign.BitsWasted() + a.Exponent.BitsWasted() + a.Mantissa.BitsWasted()
}

// Merge folds the stats of o into a. Both must be of the same format.
func (a *AnalyzedTensor) Merge(o *AnalyzedTensor) error {
	if a.Format != o.Format || a.Width != o.Width {
		return fmt.Errorf("can't merge %s into %s", o.Format, a.Format)
	}
	n1 := a.NumEl - a.NaNs
	n2 := o.NumEl - o.NaNs
	switch {
	case n2 == 0:
	case n1 == 0:
		a.Avg, a.Min, a.Max = o.Avg, o.Min, o.Max
	default:
		a.Avg = float32((float64(a.Avg)*float64(n1) + float64(o.Avg)*float64(n2)) / float64(n1+n2))
		a.Min = min(a.Min, o.Min)
		a.Max = max(a.Max, o.Max)
	}
	a.NumEl += o.NumEl
	a.NaNs += o.NaNs
	a.Inexact += o.Inexact
	if err := a.Sign.merge(&o.Sign); err != nil {
		return err
	}
	if err := a.Exponent.merge(&o.Exponent); err != nil {
		return err
	}
	if err := a.Mantissa.merge(&o.Mantissa); err != nil {
		return err
	}
	return a.Patterns.Union(&o.Patterns)
}

// IsFloat16Compatible returns true if all the exponents seen fit in an IEEE
// half, including its denormals.
func (a *AnalyzedTensor) IsFloat16Compatible() bool {
	if a.Exponent.Allocation != 8 {
		return a.Exponent.Allocation == 5
	}
	for i := range len(a.Exponent.ValuesSeen.Counts) {
		if a.Exponent.ValuesSeen.Get(i) == 0 || i == 0 || i == 0xff {
			continue
		}
		// 2^-24 to 2^15.
		if i < 127-24 || i > 127+15 {
			return false
		}
	}
	return true
}

// BitKind is the usage of one field of a float.
type BitKind struct {
	// Allocation is the number of bits allocated for this kind of value (sign, exponent, mantissa).
	Allocation int `json:"alloc"`
	// ValuesSeen counts the occurrences of each value, saturating at 255. It
	// has 1<<Allocation items.
	ValuesSeen CountSet `json:"seen"`

	initialized  bool
	effective    int
	actuallyUsed float32
	wasted       int
}

func newBitKind(alloc int) BitKind {
	b := BitKind{Allocation: alloc}
	b.ValuesSeen.Resize(1 << alloc)
	return b
}

func (b *BitKind) merge(o *BitKind) error {
	b.initialized = false
	return b.ValuesSeen.Merge(&o.ValuesSeen)
}

func (b *BitKind) cache() {
	if !b.initialized {
		b.effective = int(b.ValuesSeen.Effective())
		a := 0.
		if b.effective > 0 {
			a = math.Log2(float64(b.effective))
		}
		b.actuallyUsed = float32(a)
		b.wasted = b.Allocation - int(math.Ceil(a))
		b.initialized = true
	}
}

func (b *BitKind) NumberDifferentValuesSeen() int {
	b.cache()
	return b.effective
}

func (b *BitKind) BitsActuallyUsed() float32 {
	b.cache()
	return b.actuallyUsed
}

func (b *BitKind) BitsWasted() int {
	b.cache()
	return b.wasted
}

// histogram accumulates the stats of an AnalyzedTensor.
type histogram struct {
	a     AnalyzedTensor
	total float64
	shift uint
}

// newHistogram returns a histogram for values stored on width bits, shift
// of them being insignificant.
func newHistogram(name, format string, width, exponentBits, mantissaBits int, shift uint) *histogram {
	h := &histogram{
		a: AnalyzedTensor{
			Name:     name,
			Format:   format,
			Width:    width,
			Min:      float32(math.Inf(1)),
			Max:      float32(math.Inf(-1)),
			Sign:     newBitKind(1),
			Exponent: newBitKind(exponentBits),
			Mantissa: newBitKind(mantissaBits),
		},
		shift: shift,
	}
	h.a.Patterns.Resize(1 << (1 + exponentBits + mantissaBits))
	return h
}

func (h *histogram) add(bits uint32, sign, exponent uint8, mantissa uint16, v float32) {
	h.a.NumEl++
	h.a.Sign.ValuesSeen.Add(int(sign))
	h.a.Exponent.ValuesSeen.Add(int(exponent))
	h.a.Mantissa.ValuesSeen.Add(int(mantissa))
	h.a.Patterns.Set(int(bits >> h.shift))
	if math.IsNaN(float64(v)) {
		h.a.NaNs++
		return
	}
	h.total += float64(v)
	h.a.Min = min(h.a.Min, v)
	h.a.Max = max(h.a.Max, v)
}

func (h *histogram) done() AnalyzedTensor {
	if n := h.a.NumEl - h.a.NaNs; n > 0 {
		h.a.Avg = float32(h.total / float64(n))
	} else {
		h.a.Min, h.a.Max = 0, 0
	}
	return h.a
}

// formatOf returns the name and layout of T.
func formatOf[T floatx.Reduced]() (name string, width, mantissaBits int, shift uint) {
	var v T
	switch any(v).(type) {
	case floatx.Bfloat:
		return "bfloat", 16, 7, 0
	case floatx.Bfloat16:
		return "bfloat16", 16, 7, 0
	default:
		return "tfloat", 32, 10, 13
	}
}

// Analyze calculates the actual use of sign, exponent and mantissa bits of
// values plus floating point stats.
func Analyze[T floatx.Reduced](name string, values []T) AnalyzedTensor {
	return analyze(newReducedHistogram[T](name), values)
}

func newReducedHistogram[T floatx.Reduced](name string) *histogram {
	format, width, mantissaBits, shift := formatOf[T]()
	return newHistogram(name, format, width, 8, mantissaBits, shift)
}

func analyze[T floatx.Reduced](h *histogram, values []T) AnalyzedTensor {
	for _, v := range values {
		sign, exponent, mantissa := v.Components()
		h.add(patternOf(v), sign, exponent, mantissa, v.Float32())
	}
	return h.done()
}

func patternOf[T floatx.Reduced](v T) uint32 {
	switch x := any(v).(type) {
	case floatx.Bfloat:
		return uint32(x)
	case floatx.Bfloat16:
		return uint32(x)
	case floatx.Tfloat:
		return uint32(x)
	}
	return 0
}

// AnalyzeFloat16 analyzes a little endian buffer of IEEE half.
func AnalyzeFloat16(name string, data []byte) AnalyzedTensor {
	h := newHistogram(name, "float16", 16, 5, 10, 0)
	for i := 0; i+1 < len(data); i += 2 {
		f := float16.Frombits(binary.LittleEndian.Uint16(data[i:]))
		b := f.Bits()
		h.add(uint32(b), uint8(b>>15), uint8(b>>10)&0x1f, b&0x3ff, f.Float32())
	}
	return h.done()
}

// AnalyzeFloat32 analyzes a little endian buffer of float32 as if it was
// rounded to Tfloat and counts the values that would change.
func AnalyzeFloat32(name string, data []byte) AnalyzedTensor {
	h := newReducedHistogram[floatx.Tfloat](name)
	var inexact int64
	for i := 0; i+3 < len(data); i += 4 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
		v := floatx.NewTfloat(f)
		if !floatx.NaNSensitiveEqual(v.Float32(), f) {
			inexact++
		}
		sign, exponent, mantissa := v.Components()
		h.add(v.Bits(), sign, exponent, mantissa, v.Float32())
	}
	a := h.done()
	a.Inexact = inexact
	return a
}

// AnalyzeTensor analyzes how well used the bits in a tensor are used.
func AnalyzeTensor(name string, t safetensors.TensorView) (AnalyzedTensor, error) {
	switch dt := t.DType(); dt {
	case safetensors.BF16:
		return Analyze(name, floatx.Bfloat16s(t.Data())), nil
	case safetensors.F16:
		return AnalyzeFloat16(name, t.Data()), nil
	case safetensors.F32:
		return AnalyzeFloat32(name, t.Data()), nil
	default:
		return AnalyzedTensor{}, fmt.Errorf("%s: unsupported dtype %s", name, dt)
	}
}
