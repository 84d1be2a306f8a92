// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package internal provides the shared BAI binary-layout engine: the
// bin/chunk/linear-index structures and their decode/encode, independent
// of the public bai package's offset-tracked error handling.
package internal

import (
	"sort"

	"github.com/dnanexus/indextools/bgzf"
)

const (
	// TileWidth is the length of the interval tiling used by the BAI
	// linear index; spec.md calls this WINDOW_BP.
	TileWidth = 0x4000

	// StatsDummyBin is the bin number of the reference statistics bin.
	StatsDummyBin = 0x924a
)

// Index is the decoded contents of a BAI file.
type Index struct {
	Refs     []RefIndex
	Unmapped *uint64
	IsSorted bool
}

// RefIndex is the index of a single reference sequence.
type RefIndex struct {
	Bins      []Bin
	Stats     *ReferenceStats
	Intervals []bgzf.Offset
}

// Bin is a BAI index bin: a bin number and the chunks recorded in it.
type Bin struct {
	Bin    uint32
	Chunks []bgzf.Chunk
}

// ReferenceStats holds the metadata-bin mapping statistics for a reference.
type ReferenceStats struct {
	// Chunk is the reference's overall byte span, taken from the
	// metadata bin's first chunk (reference_start_vfo, reference_end_vfo).
	Chunk bgzf.Chunk

	Mapped   uint64
	Unmapped uint64
}

// Sort normalizes bin and chunk ordering within every reference. It does
// not reorder Intervals: the linear index is positional (Intervals[t] is
// the tile-t entry, not a sortable value), so reordering it would corrupt
// the tile mapping. ReadIndex always returns an Index with sorted bins
// and chunks; Sort is exposed so test fixtures built field-by-field can
// be normalized the same way.
func (i *Index) Sort() {
	if i.IsSorted {
		return
	}
	for _, ref := range i.Refs {
		sort.Sort(byBinNumber(ref.Bins))
		for _, bin := range ref.Bins {
			sort.Sort(byBeginOffset(bin.Chunks))
		}
	}
	i.IsSorted = true
}

const (
	indexWordBits = 29
	nextBinShift  = 3
)

// MaxIndexablePos is the largest 0-based coordinate the UCSC 5-level
// binning scheme can address.
const MaxIndexablePos = (1 << indexWordBits) - 1

const level0 = uint32(((1 << (0 * nextBinShift)) - 1) / 7)

// MaxBinNumber is the largest valid bin number in the UCSC 5-level
// binning scheme (37448): bins are numbered consecutively from level0
// across levels 0 through 5. readBins uses it to bound a reference's
// bin count.
const MaxBinNumber = level0 + ((1<<(nextBinShift*6))-1)/7 - 1

type byBinNumber []Bin

func (b byBinNumber) Len() int           { return len(b) }
func (b byBinNumber) Less(i, j int) bool { return b[i].Bin < b[j].Bin }
func (b byBinNumber) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

type byBeginOffset []bgzf.Chunk

func (c byBeginOffset) Len() int           { return len(c) }
func (c byBeginOffset) Less(i, j int) bool { return c[i].Begin.Compare(c[j].Begin) < 0 }
func (c byBeginOffset) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
