// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/maruel/testvalues/floatx"
	"github.com/maruel/testvalues/random"
	"golang.org/x/exp/constraints"
)

type genParams struct {
	typ      string
	min, max string
	except   string
	seed     int64
	n        int
}

// valueType knows how to parse and print one random.Scalar.
type valueType struct {
	// gen draws p.n values and returns them formatted.
	gen func(ctx context.Context, g *random.Generator, p genParams) ([]string, error)
}

var valueTypes = map[string]valueType{
	"int8":     newValueType(parseSigned[int8](8), formatInt[int8]),
	"int16":    newValueType(parseSigned[int16](16), formatInt[int16]),
	"int32":    newValueType(parseSigned[int32](32), formatInt[int32]),
	"int64":    newValueType(parseSigned[int64](64), formatInt[int64]),
	"uint8":    newValueType(parseUnsigned[uint8](8), formatUint[uint8]),
	"uint16":   newValueType(parseUnsigned[uint16](16), formatUint[uint16]),
	"uint32":   newValueType(parseUnsigned[uint32](32), formatUint[uint32]),
	"uint64":   newValueType(parseUnsigned[uint64](64), formatUint[uint64]),
	"float32":  newValueType(parseFloat32, formatFloat32),
	"float64":  newValueType(parseFloat64, formatFloat64),
	"bfloat":   newValueType(parseReduced[floatx.Bfloat](16), floatx.Bfloat.String),
	"bfloat16": newValueType(parseReduced[floatx.Bfloat16](16), floatx.Bfloat16.String),
	"tfloat":   newValueType(parseReduced[floatx.Tfloat](32), floatx.Tfloat.String),
}

func typeNames() string {
	return strings.Join(slices.Sorted(maps.Keys(valueTypes)), ", ")
}

func newValueType[T random.Scalar](parse func(string) (T, error), format func(T) string) valueType {
	return valueType{
		gen: func(ctx context.Context, g *random.Generator, p genParams) ([]string, error) {
			values, err := generate(ctx, g, parse, p)
			if err != nil {
				return nil, err
			}
			out := make([]string, len(values))
			for i, v := range values {
				out[i] = format(v)
			}
			return out, nil
		},
	}
}

// bounds parses the range, defaulting to the full range of T.
func bounds[T random.Scalar](parse func(string) (T, error), p genParams) (T, T, error) {
	min, max := random.Limits[T]()
	var err error
	if p.min != "" {
		if min, err = parse(p.min); err != nil {
			return min, max, fmt.Errorf("-min: %w", err)
		}
	}
	if p.max != "" {
		if max, err = parse(p.max); err != nil {
			return min, max, fmt.Errorf("-max: %w", err)
		}
	}
	return min, max, nil
}

func parseList[T random.Scalar](parse func(string) (T, error), s string) ([]T, error) {
	if s == "" {
		return nil, nil
	}
	var out []T
	for _, item := range strings.Split(s, ",") {
		v, err := parse(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("-except: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func generate[T random.Scalar](ctx context.Context, g *random.Generator, parse func(string) (T, error), p genParams) ([]T, error) {
	if p.n < 0 {
		return nil, fmt.Errorf("-n must not be negative, got %d", p.n)
	}
	min, max, err := bounds(parse, p)
	if err != nil {
		return nil, err
	}
	except, err := parseList(parse, p.except)
	if err != nil {
		return nil, err
	}
	slog.Debug("gen", "type", p.typ, "min", min, "max", max, "seed", p.seed, "n", p.n, "except", len(except))
	out := make([]T, p.n)
	for i := range out {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if out[i], err = random.ValueExcept(g, min, max, p.seed, except); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSigned[T constraints.Signed](bitSize int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bitSize)
		return T(v), err
	}
}

func parseUnsigned[T constraints.Unsigned](bitSize int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 0, bitSize)
		return T(v), err
	}
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseReduced accepts a decimal value, rounded to T, or a raw bit pattern
// prefixed with 0x.
func parseReduced[T floatx.Reduced](bitSize int) func(string) (T, error) {
	return func(s string) (T, error) {
		if h, ok := strings.CutPrefix(s, "0x"); ok {
			v, err := strconv.ParseUint(h, 16, bitSize)
			return T(v), err
		}
		v, err := strconv.ParseFloat(s, 32)
		return floatx.FromFloat32[T](float32(v)), err
	}
}

func formatInt[T constraints.Signed](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatUint[T constraints.Unsigned](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatFloat32(v float32) string {
	return fmt.Sprintf("0x%08x", math.Float32bits(v))
}

func formatFloat64(v float64) string {
	return fmt.Sprintf("0x%016x", math.Float64bits(v))
}

func cmdGen(ctx context.Context, w io.Writer, p genParams) error {
	vt, ok := valueTypes[p.typ]
	if !ok {
		return fmt.Errorf("unknown type %q, use one of %s", p.typ, typeNames())
	}
	lines, err := vt.gen(ctx, random.New(), p)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
