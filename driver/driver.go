// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver wires the BAI reader, contig provider, volume
// estimator, target intersector, partitioner, and BED writer into the
// single pipeline spec.md §4.6 describes, and is the only layer
// permitted to log or write to the filesystem outside of opening its
// own inputs.
package driver

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/dnanexus/indextools/bai"
	"github.com/dnanexus/indextools/bedio"
	"github.com/dnanexus/indextools/contig"
	"github.com/dnanexus/indextools/ixerr"
	"github.com/dnanexus/indextools/partition"
	"github.com/dnanexus/indextools/target"
	"github.com/dnanexus/indextools/window"
)

// Config holds the resolved CLI surface of spec.md §6's `partition`
// subcommand.
type Config struct {
	BAIPath         string // -I, required
	BAMPath         string // -i, mutually exclusive with ContigSizesPath
	ContigSizesPath string // -z, mutually exclusive with BAMPath
	TargetBEDPath   string // -t, optional
	N               int    // -n, required, >= 1
	OutputPath      string // -o, required

	// Workers bounds the concurrency of per-reference volume estimation
	// (spec.md §5 "Concurrency"). Zero means one worker.
	Workers int

	// Logger receives structured-ish single-line progress and warning
	// messages (spec.md §7's warnings, which do not abort the pipeline).
	// A nil Logger discards them.
	Logger *log.Logger
}

func (c *Config) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// Run executes the full partition pipeline once, writing the result BED
// atomically to cfg.OutputPath. Errors are one of the ixerr taxonomy
// types; the caller maps these to the exit codes in spec.md §6.
func Run(ctx context.Context, cfg Config) (err error) {
	if cfg.BAIPath == "" {
		return &ixerr.UsageError{Msg: "-I (BAI input) is required"}
	}
	if cfg.OutputPath == "" {
		return &ixerr.UsageError{Msg: "-o (output BED) is required"}
	}
	if cfg.N < 1 {
		return &ixerr.UsageError{Msg: "-n (partition count) must be at least 1"}
	}
	if (cfg.BAMPath == "") == (cfg.ContigSizesPath == "") {
		return &ixerr.UsageError{Msg: "exactly one of -i or -z is required"}
	}

	idx, warnings, err := bai.OpenIndexFile(cfg.BAIPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		cfg.logf("bai: %s", w)
	}

	contigs, err := loadContigs(cfg)
	if err != nil {
		return err
	}

	if idx.NumRefs() != len(contigs) {
		return &ixerr.InconsistentInputs{Msg: "BAI reference count does not match contig provider"}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	perRef, err := window.EstimateAll(ctx, idx, contigs, workers)
	if err != nil {
		return err
	}
	var windows []window.Window
	for _, ws := range perRef {
		windows = append(windows, ws...)
	}

	collapsed, err := applyTargets(cfg, contigs, windows)
	if err != nil {
		return err
	}

	partitions, err := partition.Partition(collapsed, cfg.N)
	if err != nil {
		return err
	}

	return writeAtomic(cfg.OutputPath, partitions)
}

func loadContigs(cfg Config) (contig.List, error) {
	if cfg.BAMPath != "" {
		f, err := os.Open(cfg.BAMPath)
		if err != nil {
			return nil, &ixerr.IOError{Path: cfg.BAMPath, Err: err}
		}
		defer f.Close()
		contigs, err := contig.LoadBAMHeader(f)
		if err != nil {
			return nil, err
		}
		return contigs, nil
	}

	f, err := os.Open(cfg.ContigSizesPath)
	if err != nil {
		return nil, &ixerr.IOError{Path: cfg.ContigSizesPath, Err: err}
	}
	defer f.Close()
	contigs, err := contig.LoadText(f)
	if err != nil {
		return nil, err
	}
	return contigs, nil
}

func applyTargets(cfg Config, contigs contig.List, windows []window.Window) ([]target.CollapsedWindow, error) {
	if cfg.TargetBEDPath == "" {
		return target.Collapse(target.Intersect(windows, nil)), nil
	}

	f, err := os.Open(cfg.TargetBEDPath)
	if err != nil {
		return nil, &ixerr.IOError{Path: cfg.TargetBEDPath, Err: err}
	}
	defer f.Close()

	targets, warnings, err := target.LoadBED(f, contigs)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		cfg.logf("target: %s", w)
	}

	return target.Collapse(target.Intersect(windows, targets)), nil
}

// writeAtomic writes partitions to a temp file in dest's directory and
// renames it into place on success, removing the temp file on any
// failure (spec.md §5 "Shared resources").
func writeAtomic(dest string, partitions []partition.Partition) (err error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".indextools-*.bed")
	if err != nil {
		return &ixerr.IOError{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if werr := bedio.WritePartitions(tmp, partitions); werr != nil {
		tmp.Close()
		return &ixerr.IOError{Path: tmpPath, Err: werr}
	}
	if cerr := tmp.Close(); cerr != nil {
		return &ixerr.IOError{Path: tmpPath, Err: cerr}
	}
	if rerr := os.Rename(tmpPath, dest); rerr != nil {
		return &ixerr.IOError{Path: dest, Err: rerr}
	}
	return nil
}
