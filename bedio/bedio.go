// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bedio writes partitions as a BED file, implementing spec.md
// §4.5. The writer is grounded on fai.WriteTo's plain fmt.Fprintf-per-
// record shape: no encoding/csv, no buffering beyond what the caller's
// io.Writer already provides.
package bedio

import (
	"fmt"
	"io"

	"github.com/dnanexus/indextools/partition"
)

// WritePartitions writes one BED record per partition, in the order
// given: contig, start_bp, end_bp, partition_name, volume_V, a
// placeholder "." column, and a trailing feature_count column when
// p.FeatureCount is non-nil. Partitions must already be sorted by
// (contig order, start_bp) — the order partition.Partition produces.
func WritePartitions(w io.Writer, partitions []partition.Partition) error {
	for _, p := range partitions {
		if p.FeatureCount != nil {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t.\t%d\n",
				p.Contig, p.StartBP, p.EndBP, p.Name, p.TotalVolume, *p.FeatureCount); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t.\n",
			p.Contig, p.StartBP, p.EndBP, p.Name, p.TotalVolume); err != nil {
			return err
		}
	}
	return nil
}
