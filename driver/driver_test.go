// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnanexus/indextools/bai"
	"github.com/dnanexus/indextools/bgzf"
	"github.com/dnanexus/indextools/ixerr"
)

func off(block uint16, file int64) bgzf.Offset { return bgzf.Offset{File: file, Block: block} }

func writeFixtureBAI(t *testing.T, path string) {
	t.Helper()
	idx := bai.NewIndexForTest([]bai.RefFixture{
		{
			Bins: []bai.Bin{
				{ID: 0, Chunks: []bgzf.Chunk{{Begin: off(0, 0), End: off(0, 4000)}}},
			},
			Intervals: []bgzf.Offset{off(0, 0), off(0, 1000), off(0, 2000), off(0, 3000)},
		},
	})
	var buf bytes.Buffer
	if err := bai.WriteIndex(&buf, idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunProducesBalancedPartitions(t *testing.T) {
	dir := t.TempDir()
	baiPath := filepath.Join(dir, "sample.bam.bai")
	writeFixtureBAI(t, baiPath)

	sizesPath := filepath.Join(dir, "sizes.txt")
	if err := os.WriteFile(sizesPath, []byte("chr1\t65536\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	outPath := filepath.Join(dir, "out.bed")
	err := Run(context.Background(), Config{
		BAIPath:         baiPath,
		ContigSizesPath: sizesPath,
		N:               2,
		OutputPath:      outPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d partitions, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "chr1\t0\t") {
		t.Errorf("unexpected first partition: %q", lines[0])
	}
	if !strings.HasSuffix(string(out), "\n") {
		t.Errorf("output does not end with a trailing newline")
	}
}

func TestRunRejectsMutuallyExclusiveContigSources(t *testing.T) {
	dir := t.TempDir()
	baiPath := filepath.Join(dir, "sample.bam.bai")
	writeFixtureBAI(t, baiPath)

	err := Run(context.Background(), Config{
		BAIPath:         baiPath,
		BAMPath:         "a.bam",
		ContigSizesPath: "b.txt",
		N:               1,
		OutputPath:      filepath.Join(dir, "out.bed"),
	})
	if _, ok := err.(*ixerr.UsageError); !ok {
		t.Fatalf("got %v (%T), want *ixerr.UsageError", err, err)
	}
}

func TestRunRejectsContigCountMismatch(t *testing.T) {
	dir := t.TempDir()
	baiPath := filepath.Join(dir, "sample.bam.bai")
	writeFixtureBAI(t, baiPath)

	sizesPath := filepath.Join(dir, "sizes.txt")
	if err := os.WriteFile(sizesPath, []byte("chr1\t65536\nchr2\t100\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := Run(context.Background(), Config{
		BAIPath:         baiPath,
		ContigSizesPath: sizesPath,
		N:               1,
		OutputPath:      filepath.Join(dir, "out.bed"),
	})
	if _, ok := err.(*ixerr.InconsistentInputs); !ok {
		t.Fatalf("got %v (%T), want *ixerr.InconsistentInputs", err, err)
	}
}

func TestRunLeavesNoTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	baiPath := filepath.Join(dir, "sample.bam.bai")
	writeFixtureBAI(t, baiPath)

	sizesPath := filepath.Join(dir, "sizes.txt")
	if err := os.WriteFile(sizesPath, []byte("chr1\t65536\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := Run(context.Background(), Config{
		BAIPath:         baiPath,
		ContigSizesPath: sizesPath,
		N:               100,
		OutputPath:      filepath.Join(dir, "out.bed"),
	})
	if _, ok := err.(*ixerr.InfeasiblePartitioning); !ok {
		t.Fatalf("got %v (%T), want *ixerr.InfeasiblePartitioning", err, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".indextools-") {
			t.Errorf("leaked temp file %s", e.Name())
		}
	}
}
