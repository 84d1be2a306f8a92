// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition greedily packs a genome's window volume signal into
// a requested number of approximately balanced, contiguous intervals,
// implementing spec.md §4.4. The boundary-picking strategy is grounded
// on GetByteBasedShards' byte-delta-driven boundary selection and
// subsequent too-small/too-large shard correction passes, adapted here
// for volume (not raw byte deltas) and for exactly-N output rather than
// an approximate shard size.
package partition

import (
	"fmt"
	"math"
	"math/big"

	"github.com/dnanexus/indextools/ixerr"
	"github.com/dnanexus/indextools/target"
)

// Partition is one contiguous, single-contig genomic interval with its
// accumulated volume, as defined in spec.md §3.
type Partition struct {
	Name         string
	Contig       string
	ContigID     int
	StartBP      int
	EndBP        int
	TotalVolume  int64
	FeatureCount *int
}

// builder accumulates the windows that will become one Partition.
type builder struct {
	windows []target.CollapsedWindow
}

func (b *builder) volume() int64 {
	var v int64
	for _, w := range b.windows {
		v += w.Window.Volume
	}
	return v
}

// lastTarget reports the single target ID the builder's most recently
// added window belongs to, if it belongs to exactly one.
func (b *builder) lastTarget() (int, bool) {
	if len(b.windows) == 0 {
		return 0, false
	}
	ids := b.windows[len(b.windows)-1].TargetIDs
	if len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}

func sharesTarget(w target.CollapsedWindow, id int, ok bool) bool {
	return ok && len(w.TargetIDs) == 1 && w.TargetIDs[0] == id
}

// Partition packs windows into exactly n contiguous, approximately
// balanced partitions (spec.md §4.4). windows must already be in BAI
// reference order with ascending start_bp within each contig — the order
// window.EstimateAll and target.Intersect/Collapse produce.
func Partition(windows []target.CollapsedWindow, n int) ([]Partition, error) {
	if n < 1 {
		return nil, &ixerr.UsageError{Msg: "partition count must be at least 1"}
	}

	minAchievable, maxAchievable := partitionBounds(windows)
	if n < minAchievable {
		return nil, &ixerr.InfeasiblePartitioning{Requested: n, Achievable: minAchievable}
	}
	if n > maxAchievable {
		return nil, &ixerr.InfeasiblePartitioning{Requested: n, Achievable: maxAchievable}
	}

	var total int64
	for _, w := range windows {
		total += w.Window.Volume
	}

	var builders []*builder
	if total == 0 {
		builders = sweepByLength(windows, n)
	} else {
		builders = sweepByVolume(windows, n, total)
	}

	builders = rebalance(builders, n)
	return finalize(builders), nil
}

// partitionBounds returns the minimum and maximum number of partitions
// the sweep can ever produce for windows.
//
// The minimum is the number of distinct contigs carrying any window.
// Rule (a) forbids a partition from ever crossing a contig boundary, so
// every contig requires at least one partition of its own regardless of
// its volume — a wholly zero-volume contig still emits as its own
// partition (spec.md §8 Scenario B), and two different positive-volume
// contigs can never be merged into one. rebalance's merge pass
// (smallestAdjacentPair) only ever merges an adjacent pair sharing a
// contig, so it can never reduce the partition count below this bound;
// requesting fewer than this many partitions must be rejected up front.
//
// The maximum is one partition per non-zero-volume window (the finest
// possible split by volume), plus one for each wholly zero-volume
// contig, which the sweep can only ever emit as a single partition
// (there is no volume signal to split it further by).
func partitionBounds(windows []target.CollapsedWindow) (minN, maxN int) {
	type contigInfo struct {
		total   int64
		nonZero int
	}
	var order []int
	info := make(map[int]*contigInfo)
	for _, w := range windows {
		id := w.Window.ContigID
		ci, ok := info[id]
		if !ok {
			ci = &contigInfo{}
			info[id] = ci
			order = append(order, id)
		}
		ci.total += w.Window.Volume
		if w.Window.Volume > 0 {
			ci.nonZero++
		}
	}

	for _, id := range order {
		if info[id].total > 0 {
			maxN += info[id].nonZero
		} else {
			maxN++
		}
	}
	if maxN == 0 {
		maxN = 1
	}

	minN = len(order)
	if minN == 0 {
		minN = 1
	}
	return minN, maxN
}

// sweepByVolume is the materialize-then-sweep core of spec.md §4.4: a
// single left-to-right pass that closes the current partition whenever
// including the next window would move further from the next volume
// threshold than excluding it would, subject to the contig-boundary and
// target-boundary precedence rules.
func sweepByVolume(windows []target.CollapsedWindow, n int, total int64) []*builder {
	targetVol := big.NewRat(total, int64(n))

	var out []*builder
	cur := &builder{}
	var cumulative int64
	emitted := 0

	closeCurrent := func() {
		if len(cur.windows) > 0 {
			out = append(out, cur)
			emitted++
		}
		cur = &builder{}
	}

	for _, w := range windows {
		if len(cur.windows) > 0 && cur.windows[len(cur.windows)-1].Window.ContigID != w.Window.ContigID {
			// Rule (a): a partition must never cross a contig boundary.
			closeCurrent()
		}

		lastID, lastOK := cur.lastTarget()
		deferring := sharesTarget(w, lastID, lastOK)

		if !deferring && len(cur.windows) > 0 {
			threshold := new(big.Rat).Mul(targetVol, big.NewRat(int64(emitted+1), 1))
			before := new(big.Rat).Abs(new(big.Rat).Sub(threshold, big.NewRat(cumulative, 1)))
			after := new(big.Rat).Abs(new(big.Rat).Sub(threshold, big.NewRat(cumulative+w.Window.Volume, 1)))
			if after.Cmp(before) >= 0 {
				// Equidistant ties close at the earlier boundary.
				closeCurrent()
			}
		}

		cur.windows = append(cur.windows, w)
		cumulative += w.Window.Volume
	}
	closeCurrent()
	return out
}

// sweepByLength implements the degenerate fallback (spec.md §4.4, "If
// total_volume == 0, emit N equal-width windows per contig by length"):
// it runs the identical sweep using each window's base-pair length as
// the accumulating quantity in place of volume, then restores the true
// (zero) volumes before returning.
func sweepByLength(windows []target.CollapsedWindow, n int) []*builder {
	adjusted := make([]target.CollapsedWindow, len(windows))
	var totalLength int64
	for i, w := range windows {
		length := int64(w.Window.EndBP - w.Window.StartBP)
		totalLength += length
		adjusted[i] = w
		adjusted[i].Window.Volume = length
	}
	builders := sweepByVolume(adjusted, n, totalLength)
	for _, b := range builders {
		for i := range b.windows {
			b.windows[i].Window.Volume = 0
		}
	}
	return builders
}

// rebalance implements spec.md §4.4 step 4: split the largest partitions
// until there are n, or merge the smallest adjacent within-contig pairs
// until there are n.
func rebalance(builders []*builder, n int) []*builder {
	for len(builders) < n {
		idx := largestSplittable(builders)
		if idx < 0 {
			break
		}
		a, b := split(builders[idx])
		next := make([]*builder, 0, len(builders)+1)
		next = append(next, builders[:idx]...)
		next = append(next, a, b)
		next = append(next, builders[idx+1:]...)
		builders = next
	}
	for len(builders) > n {
		idx := smallestAdjacentPair(builders)
		if idx < 0 {
			break
		}
		merged := &builder{windows: append(append([]target.CollapsedWindow{}, builders[idx].windows...), builders[idx+1].windows...)}
		next := make([]*builder, 0, len(builders)-1)
		next = append(next, builders[:idx]...)
		next = append(next, merged)
		next = append(next, builders[idx+2:]...)
		builders = next
	}
	return builders
}

func largestSplittable(builders []*builder) int {
	best, bestVol := -1, int64(-1)
	for i, b := range builders {
		if len(splitPoints(b)) == 0 {
			continue
		}
		if v := b.volume(); v > bestVol {
			best, bestVol = i, v
		}
	}
	return best
}

// splitPoints returns the window indices at which b may legally be cut:
// never between two windows that belong to the same single target
// (spec.md §4.4 rule b applies to rebalancing too).
func splitPoints(b *builder) []int {
	var pts []int
	for j := 1; j < len(b.windows); j++ {
		prev, cur := b.windows[j-1], b.windows[j]
		if len(prev.TargetIDs) == 1 && len(cur.TargetIDs) == 1 && prev.TargetIDs[0] == cur.TargetIDs[0] {
			continue
		}
		pts = append(pts, j)
	}
	return pts
}

// split cuts b at whichever legal point leaves its two halves closest to
// equal volume.
func split(b *builder) (*builder, *builder) {
	pts := splitPoints(b)
	half := b.volume() / 2

	bestJ, bestDiff := pts[0], int64(math.MaxInt64)
	var cum int64
	pi := 0
	for j := 1; j < len(b.windows); j++ {
		cum += b.windows[j-1].Window.Volume
		if pi < len(pts) && pts[pi] == j {
			if diff := absInt64(cum - half); diff < bestDiff {
				bestDiff, bestJ = diff, j
			}
			pi++
		}
	}
	return &builder{windows: append([]target.CollapsedWindow{}, b.windows[:bestJ]...)},
		&builder{windows: append([]target.CollapsedWindow{}, b.windows[bestJ:]...)}
}

// smallestAdjacentPair returns the index of the adjacent same-contig
// partition pair with the smallest combined volume, or -1 if none share
// a contig.
func smallestAdjacentPair(builders []*builder) int {
	best, bestVol := -1, int64(-1)
	for i := 0; i+1 < len(builders); i++ {
		left, right := builders[i], builders[i+1]
		if left.windows[len(left.windows)-1].Window.ContigID != right.windows[0].Window.ContigID {
			continue
		}
		if v := left.volume() + right.volume(); best == -1 || v < bestVol {
			best, bestVol = i, v
		}
	}
	return best
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// finalize converts builders to Partitions in emission order, naming
// them p0001, p0002, ... (spec.md §4.4 step 5).
func finalize(builders []*builder) []Partition {
	width := len(fmt.Sprintf("%d", len(builders)))
	if width < 4 {
		width = 4
	}

	out := make([]Partition, len(builders))
	for i, b := range builders {
		first, last := b.windows[0], b.windows[len(b.windows)-1]
		p := Partition{
			Name:        fmt.Sprintf("p%0*d", width, i+1),
			Contig:      first.Window.Contig,
			ContigID:    first.Window.ContigID,
			StartBP:     first.Window.StartBP,
			EndBP:       last.Window.EndBP,
			TotalVolume: b.volume(),
		}
		if fc, ok := featureCount(b); ok {
			p.FeatureCount = &fc
		}
		out[i] = p
	}
	return out
}

func featureCount(b *builder) (int, bool) {
	seen := make(map[int]bool)
	for _, w := range b.windows {
		for _, id := range w.TargetIDs {
			seen[id] = true
		}
	}
	if len(seen) == 0 {
		return 0, false
	}
	return len(seen), true
}
