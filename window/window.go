// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package window turns a parsed BAI reference into the fixed-tile volume
// signal the partitioner sweeps, implementing spec.md §4.2.
package window

import (
	"sort"

	"github.com/dnanexus/indextools/bai"
	"github.com/dnanexus/indextools/bgzf"
	"github.com/dnanexus/indextools/internal"
)

// Window is one WINDOW_BP-wide tile of a reference, annotated with its
// estimated volume.
type Window struct {
	Contig   string
	ContigID int
	StartBP  int
	EndBP    int
	Volume   int64
}

// Estimator is a bufio.Scanner-shaped iterator (matching sam.Iterator's
// Next/Record/Err shape) over a single reference's windows: call Next
// until it returns false, reading Window after each true return and
// consulting Err once iteration stops.
type Estimator struct {
	contig   string
	contigID int
	lengthBP int
	volumes  []int64
	tile     int
}

// NewEstimator builds the volume signal for one reference. idx must
// already carry a patched linear index (bai.ReadIndex patches it before
// returning). refID selects the reference within idx; contig and
// lengthBP label the emitted windows.
func NewEstimator(idx *bai.Index, refID int, contig string, lengthBP int) *Estimator {
	numTiles := 0
	if lengthBP > 0 {
		numTiles = (lengthBP + internal.TileWidth - 1) / internal.TileWidth
	}
	volumes := make([]int64, numTiles)

	intervals := idx.Intervals(refID)
	offsets := flattenOffsets(idx, refID)
	if len(offsets) > 1 && len(intervals) > 0 {
		accrue(volumes, offsets, intervals)
	}

	return &Estimator{contig: contig, contigID: refID, lengthBP: lengthBP, volumes: volumes, tile: -1}
}

// Next advances past the next window. It returns false once every tile
// covering [0, lengthBP) has been emitted.
func (e *Estimator) Next() bool {
	e.tile++
	return e.tile < len(e.volumes)
}

// Window returns the window Next most recently advanced to.
func (e *Estimator) Window() Window {
	start := e.tile * internal.TileWidth
	end := start + internal.TileWidth
	if end > e.lengthBP {
		end = e.lengthBP
	}
	return Window{
		Contig:   e.contig,
		ContigID: e.contigID,
		StartBP:  start,
		EndBP:    end,
		Volume:   e.volumes[e.tile],
	}
}

// Err always returns nil: volume estimation from an already-decoded index
// cannot fail mid-stream. It exists so Estimator matches the
// Next/Err iterator shape used throughout the pack.
func (e *Estimator) Err() error { return nil }

// All drains e into a slice, for callers (tests, the partitioner's
// materialize-then-sweep first pass) that want every window up front.
func All(e *Estimator) []Window {
	var out []Window
	for e.Next() {
		out = append(out, e.Window())
	}
	return out
}

// flattenOffsets builds the deduplicated, sorted VFO list spec.md §4.2
// step 1 describes: every chunk endpoint from the reference's
// non-metadata bins, plus every non-zero (already patched) linear-index
// entry, plus the metadata bin's reference_start_vfo when present as an
// anchor for degenerate references whose only coverage information is
// the summary bin.
func flattenOffsets(idx *bai.Index, refID int) []bgzf.Offset {
	var offs []bgzf.Offset
	for _, b := range idx.Bins(refID) {
		for _, c := range b.Chunks {
			offs = append(offs, c.Begin, c.End)
		}
	}
	for _, o := range idx.Intervals(refID) {
		if !o.IsZero() {
			offs = append(offs, o)
		}
	}
	if stats, ok := idx.RefStats(refID); ok {
		offs = append(offs, stats.Chunk.Begin)
	}
	if len(offs) == 0 {
		return nil
	}
	sort.Slice(offs, func(i, j int) bool { return offs[i].Compare(offs[j]) < 0 })
	out := offs[:1]
	for _, o := range offs[1:] {
		if o.Compare(out[len(out)-1]) != 0 {
			out = append(out, o)
		}
	}
	return out
}

// accrue walks adjacent VFO pairs in offsets and distributes each
// segment's volume across the tile(s) it spans (spec.md §4.2 steps 2-3).
// A segment spans more than one tile exactly when two or more consecutive
// linear-index entries share the patched-forward value v_i: those tiles
// recorded no alignment of their own, so the segment from v_i to the next
// distinct value v_{i+1} is attributed to all of them, proportionally by
// tile count.
func accrue(volumes []int64, offsets []bgzf.Offset, intervals []bgzf.Offset) {
	for i := 0; i+1 < len(offsets); i++ {
		v0, v1 := offsets[i], offsets[i+1]
		segVolume := v1.Bytes() - v0.Bytes()
		if segVolume <= 0 {
			continue
		}

		startTile := tileAtOrAfter(intervals, v0)
		endTile := tileAtOrAfter(intervals, v1) - 1
		if endTile < startTile {
			endTile = startTile
		}
		if startTile >= len(volumes) {
			continue
		}
		if endTile >= len(volumes) {
			endTile = len(volumes) - 1
		}

		n := int64(endTile - startTile + 1)
		share, rem := segVolume/n, segVolume%n
		for t := startTile; t <= endTile; t++ {
			v := share
			if int64(t-startTile) < rem {
				v++
			}
			volumes[t] += v
		}
	}
}

// tileAtOrAfter returns the smallest tile index t with intervals[t] >= v,
// or len(intervals) if none qualifies. It is the lower bound used on both
// ends of a segment: the segment starting at v belongs to the earliest
// tile whose recorded offset reaches v, and a segment ending just before
// v belongs to every tile up to (but not including) that same bound.
func tileAtOrAfter(intervals []bgzf.Offset, v bgzf.Offset) int {
	return sort.Search(len(intervals), func(i int) bool {
		return intervals[i].Compare(v) >= 0
	})
}
