// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tvgen generates reproducible test values and reports how well their bits
// are used.
//
//	tvgen gen -type bfloat16 -min -1 -max 1 -seed 7 -n 16
//	tvgen analyze -type tfloat -n 100000
//	tvgen analyze -safetensors model.safetensors -tensors 'attn'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: tvgen <gen|analyze> [flags]\n\nRun 'tvgen <command> -help' for the flags.\n")
}

func mainImpl(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "enable debug logging")
	typ := fs.String("type", "bfloat16", "value type: "+typeNames())
	seed := fs.Int64("seed", 0, "seed of each engine")
	n := fs.Int("n", 16, "number of values")
	switch cmd {
	case "gen":
		minS := fs.String("min", "", "lower bound; defaults to the type's full range")
		maxS := fs.String("max", "", "upper bound; defaults to the type's full range")
		except := fs.String("except", "", "comma separated values to exclude")
		if err := fs.Parse(args); err != nil {
			return err
		}
		setupLogging(stderr, *verbose)
		return cmdGen(ctx, stdout, genParams{
			typ:    *typ,
			min:    *minS,
			max:    *maxS,
			except: *except,
			seed:   *seed,
			n:      *n,
		})
	case "analyze":
		minS := fs.String("min", "", "lower bound; defaults to the type's full range")
		maxS := fs.String("max", "", "upper bound; defaults to the type's full range")
		workers := fs.Int("workers", runtime.NumCPU(), "concurrent workers")
		st := fs.String("safetensors", "", "analyze this safetensors file instead of generated values")
		tensors := fs.String("tensors", ".*", "regexp of the tensor names to analyze")
		out := fs.String("out", "", "write the JSON report to this file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		setupLogging(stderr, *verbose)
		reTensors, err := regexp.Compile(*tensors)
		if err != nil {
			return fmt.Errorf("-tensors: %w", err)
		}
		if *workers < 1 {
			return fmt.Errorf("-workers must be at least 1, got %d", *workers)
		}
		p := analyzeParams{
			genParams: genParams{typ: *typ, min: *minS, max: *maxS, seed: *seed, n: *n},
			workers:   *workers,
			reTensors: reTensors,
			out:       *out,
		}
		if *st != "" {
			return cmdAnalyzeFile(ctx, stdout, *st, p)
		}
		return cmdAnalyzeGenerated(ctx, stdout, p)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := mainImpl(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "tvgen: %s\n", err)
		stop()
		os.Exit(1)
	}
}
