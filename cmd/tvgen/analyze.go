// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/maruel/testvalues/floatx"
	"github.com/maruel/testvalues/n_bits"
	"github.com/maruel/testvalues/random"
	"github.com/nlpodyssey/safetensors"
	"golang.org/x/sync/errgroup"
)

type analyzeParams struct {
	genParams
	workers   int
	reTensors *regexp.Regexp
	out       string
}

// analyzers are the types whose bit usage can be analyzed.
var analyzers = map[string]func(ctx context.Context, g *random.Generator, p genParams) (n_bits.AnalyzedTensor, error){
	"bfloat":   analyzeGenerated[floatx.Bfloat](16),
	"bfloat16": analyzeGenerated[floatx.Bfloat16](16),
	"tfloat":   analyzeGenerated[floatx.Tfloat](32),
}

func analyzeGenerated[T floatx.Reduced](bitSize int) func(ctx context.Context, g *random.Generator, p genParams) (n_bits.AnalyzedTensor, error) {
	return func(ctx context.Context, g *random.Generator, p genParams) (n_bits.AnalyzedTensor, error) {
		values, err := generate(ctx, g, parseReduced[T](bitSize), p)
		if err != nil {
			return n_bits.AnalyzedTensor{}, err
		}
		return n_bits.Analyze(p.typ, values), nil
	}
}

func humanBytes(i int64) string {
	switch {
	case i > 1024*1024*1024:
		return fmt.Sprintf("%.1fGiB", float64(i)/1024./1024./1024.)
	case i > 1024*1024:
		return fmt.Sprintf("%.1fMiB", float64(i)/1024./1024.)
	case i > 1024:
		return fmt.Sprintf("%.1fkiB", float64(i)/1024.)
	default:
		return fmt.Sprintf("%dB", i)
	}
}

// split returns how many values each of the workers generates.
func split(n, workers int) []int {
	out := make([]int, workers)
	for i := range out {
		out[i] = n / workers
		if i < n%workers {
			out[i]++
		}
	}
	return out
}

// cmdAnalyzeGenerated generates the values with one Generator per worker,
// each seeded with seed+worker index, and merges the results.
func cmdAnalyzeGenerated(ctx context.Context, w io.Writer, p analyzeParams) error {
	fn, ok := analyzers[p.typ]
	if !ok {
		return fmt.Errorf("can't analyze type %q, use one of bfloat, bfloat16, tfloat", p.typ)
	}
	if p.n < 0 {
		return fmt.Errorf("-n must not be negative, got %d", p.n)
	}
	counts := split(p.n, p.workers)
	parts := make([]n_bits.AnalyzedTensor, len(counts))
	eg, ctx2 := errgroup.WithContext(ctx)
	for i, c := range counts {
		eg.Go(func() error {
			q := p.genParams
			q.n = c
			q.seed += int64(i)
			slog.Debug("analyze", "worker", i, "n", c, "seed", q.seed)
			var err error
			parts[i], err = fn(ctx2, random.New(), q)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	all := parts[0]
	for i := 1; i < len(parts); i++ {
		if err := all.Merge(&parts[i]); err != nil {
			return err
		}
	}
	model := n_bits.AnalyzedModel{Tensors: []n_bits.AnalyzedTensor{all}}
	printReport(w, model.Tensors)
	return writeReport(p.out, &model)
}

// cmdAnalyzeFile analyzes the tensors of a safetensors file concurrently.
func cmdAnalyzeFile(ctx context.Context, w io.Writer, name string, p analyzeParams) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	s, err := safetensors.Deserialize(b)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	tensors := s.Tensors()
	var toAnalyze []int
	for i, t := range tensors {
		if p.reTensors.MatchString(t.Name) {
			toAnalyze = append(toAnalyze, i)
		}
	}
	slices.SortFunc(toAnalyze, func(a, b int) int {
		return strings.Compare(tensors[a].Name, tensors[b].Name)
	})
	slog.Info("analyze", "file", filepath.Base(name), "num_tensors", s.Len(), "to_analyze", len(toAnalyze))
	analyzed := make([]n_bits.AnalyzedTensor, len(toAnalyze))
	eg, ctx2 := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for j, i := range toAnalyze {
		eg.Go(func() error {
			if err := ctx2.Err(); err != nil {
				return err
			}
			t := tensors[i]
			slog.Debug("analyze", "name", t.Name, "dtype", t.TensorView.DType())
			var err error
			analyzed[j], err = n_bits.AnalyzeTensor(t.Name, t.TensorView)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	printReport(w, analyzed)
	return writeReport(p.out, &n_bits.AnalyzedModel{Tensors: analyzed})
}

func calcNameLen(tensors []n_bits.AnalyzedTensor) (int, int) {
	maxNameLen := 0
	maxSizeLen := 0
	for _, tensor := range tensors {
		maxNameLen = max(maxNameLen, len(tensor.Name))
		maxSizeLen = max(maxSizeLen, len(strconv.FormatInt(tensor.NumEl, 10)))
	}
	return maxNameLen, maxSizeLen
}

func printReport(w io.Writer, tensors []n_bits.AnalyzedTensor) {
	maxNameLen, maxSizeLen := calcNameLen(tensors)
	var bytesWasted, totalBytes, totalValues int64
	for i := range tensors {
		a := &tensors[i]
		wasted := int64(a.BitsWasted())
		ratio := 100. / float64(a.Width)
		fmt.Fprintf(w, "%-*s: %*dw %-8s avg=%9.3g [%9.3g, %9.3g]  sign=%1.0fbit  exponent=%3.1f/%dbits  mantissa=%4.1f/%dbits  wasted=%2d/%dbits %4.1f%%  %8s  distinct=%d\n",
			maxNameLen, a.Name, maxSizeLen, a.NumEl, a.Format,
			a.Avg, a.Min, a.Max,
			a.Sign.BitsActuallyUsed(),
			a.Exponent.BitsActuallyUsed(), a.Exponent.Allocation,
			a.Mantissa.BitsActuallyUsed(), a.Mantissa.Allocation,
			wasted, a.Width, ratio*float64(wasted), humanBytes(wasted*a.NumEl/8),
			a.DistinctValues(),
		)
		if a.NaNs != 0 || a.Inexact != 0 {
			fmt.Fprintf(w, "%-*s  nan=%d inexact=%d\n", maxNameLen, "", a.NaNs, a.Inexact)
		}
		bytesWasted += a.NumEl * wasted / 8
		totalBytes += a.Bytes()
		totalValues += a.NumEl
	}
	pct := 0.
	if totalBytes != 0 {
		pct = 100. * float64(bytesWasted) / float64(totalBytes)
	}
	fmt.Fprintf(w, "%s (%.1f%%) wasted on %s total storing %d values\n", humanBytes(bytesWasted), pct, humanBytes(totalBytes), totalValues)
}

func writeReport(out string, m *n_bits.AnalyzedModel) error {
	if out == "" {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o666)
}
