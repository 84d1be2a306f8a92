// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bedio

import (
	"bytes"
	"testing"

	"github.com/dnanexus/indextools/partition"
)

func TestWritePartitionsWithoutFeatureCount(t *testing.T) {
	partitions := []partition.Partition{
		{Name: "p0001", Contig: "chr1", StartBP: 0, EndBP: 16384, TotalVolume: 2000},
		{Name: "p0002", Contig: "chr1", StartBP: 16384, EndBP: 32768, TotalVolume: 1500},
	}
	var buf bytes.Buffer
	if err := WritePartitions(&buf, partitions); err != nil {
		t.Fatalf("WritePartitions: %v", err)
	}
	want := "chr1\t0\t16384\tp0001\t2000\t.\n" +
		"chr1\t16384\t32768\tp0002\t1500\t.\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWritePartitionsWithFeatureCount(t *testing.T) {
	fc := 3
	partitions := []partition.Partition{
		{Name: "p0001", Contig: "chr1", StartBP: 0, EndBP: 100, TotalVolume: 625, FeatureCount: &fc},
	}
	var buf bytes.Buffer
	if err := WritePartitions(&buf, partitions); err != nil {
		t.Fatalf("WritePartitions: %v", err)
	}
	want := "chr1\t0\t100\tp0001\t625\t.\t3\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWritePartitionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePartitions(&buf, nil); err != nil {
		t.Fatalf("WritePartitions: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("got %q, want empty", buf.String())
	}
}
