// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command indextools partitions a BAM/CRAM's BAI index into N
// approximately volume-balanced genomic intervals, emitting a BED file.
//
// Usage:
//
//	indextools partition -I <in.bai> (-i <in.bam> | -z <sizes.txt>) [-t <targets.bed>] -n <N> -o <out.bed>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/dnanexus/indextools/driver"
	"github.com/dnanexus/indextools/ixerr"
)

const (
	exitSuccess = iota
	exitUsage
	exitMalformed
	exitInfeasible
	exitIO
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := log.New(os.Stderr, "indextools: ", log.LstdFlags)

	if len(args) < 1 || args[0] != "partition" {
		fmt.Fprintln(os.Stderr, "usage: indextools partition -I <in.bai> (-i <in.bam> | -z <sizes.txt>) [-t <targets.bed>] -n <N> -o <out.bed>")
		return exitUsage
	}

	fs := flag.NewFlagSet("partition", flag.ContinueOnError)
	bai := fs.String("I", "", "BAI input (required)")
	bam := fs.String("i", "", "BAM input for contig sizes (mutually exclusive with -z)")
	sizes := fs.String("z", "", "contig-sizes text file (mutually exclusive with -i)")
	targets := fs.String("t", "", "optional target BED")
	n := fs.Int("n", 0, "number of partitions (required, >= 1)")
	out := fs.String("o", "", "output BED (required)")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	cfg := driver.Config{
		BAIPath:         *bai,
		BAMPath:         *bam,
		ContigSizesPath: *sizes,
		TargetBEDPath:   *targets,
		N:               *n,
		OutputPath:      *out,
		Workers:         runtime.NumCPU(),
		Logger:          logger,
	}

	if err := driver.Run(context.Background(), cfg); err != nil {
		logger.Printf("%v", err)
		return exitCode(err)
	}
	return exitSuccess
}

func exitCode(err error) int {
	switch err.(type) {
	case *ixerr.UsageError:
		return exitUsage
	case *ixerr.MalformedIndex, *ixerr.InconsistentInputs:
		return exitMalformed
	case *ixerr.InfeasiblePartitioning:
		return exitInfeasible
	case *ixerr.IOError, *ixerr.Cancelled:
		return exitIO
	default:
		return exitIO
	}
}
