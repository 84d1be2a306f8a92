// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bai decodes BAM Index (BAI) files into the per-reference bin,
// chunk and linear-index data the window package turns into a volume
// signal. It implements spec.md §4.1.
package bai

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"

	"github.com/dnanexus/indextools/bgzf"
	"github.com/dnanexus/indextools/internal"
	"github.com/dnanexus/indextools/ixerr"
)

var magic = [4]byte{'B', 'A', 'I', 0x1}

// Index is the decoded contents of a BAI file.
type Index struct {
	idx internal.Index
}

// NumRefs returns the number of reference slots in the index.
func (i *Index) NumRefs() int { return len(i.idx.Refs) }

// Bin is a single BAI index bin: a bin number and the chunks of the
// indexed file recorded in it. The metadata bin (37450) is never
// returned here; see ReferenceStats.
type Bin struct {
	ID     uint32
	Chunks []bgzf.Chunk
}

// Bins returns the non-metadata bins for reference id, in bin-number order.
func (i *Index) Bins(id int) []Bin {
	refBins := i.idx.Refs[id].Bins
	bins := make([]Bin, len(refBins))
	for k, b := range refBins {
		bins[k] = Bin{ID: b.Bin, Chunks: b.Chunks}
	}
	return bins
}

// Intervals returns the (patched) linear index for reference id: entry t
// is the smallest virtual offset of any alignment starting in tile t.
func (i *Index) Intervals(id int) []bgzf.Offset {
	return i.idx.Refs[id].Intervals
}

// ReferenceStats is the metadata-bin summary for a reference.
type ReferenceStats struct {
	Chunk    bgzf.Chunk
	Mapped   uint64
	Unmapped uint64
}

// RefStats returns the metadata-bin statistics for reference id, and
// whether that reference carried a metadata bin at all.
func (i *Index) RefStats(id int) (ReferenceStats, bool) {
	s := i.idx.Refs[id].Stats
	if s == nil {
		return ReferenceStats{}, false
	}
	return ReferenceStats(*s), true
}

// Unmapped returns the n_no_coor trailer count and whether it was present.
func (i *Index) Unmapped() (uint64, bool) {
	if i.idx.Unmapped == nil {
		return 0, false
	}
	return *i.idx.Unmapped, true
}

// WarningKind enumerates the non-fatal conditions ReadIndex records
// instead of aborting (spec.md §7: "Warnings ... do not abort").
type WarningKind int

const (
	// PatchedLinearIndexZero records a linear-index tile that was zero
	// and was forward-filled from the preceding non-zero tile
	// (spec.md §4.1 "Linear-index patching").
	PatchedLinearIndexZero WarningKind = iota
)

// Warning is a single non-fatal condition observed while decoding.
type Warning struct {
	Kind  WarningKind
	RefID int
	Tile  int
}

func (w Warning) String() string {
	switch w.Kind {
	case PatchedLinearIndexZero:
		return fmt.Sprintf("reference %d: patched zero linear-index entry at tile %d", w.RefID, w.Tile)
	default:
		return fmt.Sprintf("reference %d: unknown warning", w.RefID)
	}
}

// ReadIndex decodes a BAI byte stream from r. On success it returns the
// decoded Index plus any non-fatal warnings (patched linear-index
// zeros); on a structural violation it returns an *ixerr.MalformedIndex
// naming the byte offset of the violation.
func ReadIndex(r io.Reader) (*Index, []Warning, error) {
	var got [4]byte
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, nil, &ixerr.MalformedIndex{Offset: 0, Msg: "failed to read magic", Err: err}
	}
	if got != magic {
		return nil, nil, &ixerr.MalformedIndex{Offset: 0, Msg: "magic number mismatch"}
	}

	var nRef int32
	if err := binary.Read(r, binary.LittleEndian, &nRef); err != nil {
		return nil, nil, &ixerr.MalformedIndex{Offset: 4, Msg: "failed to read n_ref", Err: err}
	}
	if nRef < 0 {
		return nil, nil, &ixerr.MalformedIndex{Offset: 4, Msg: "negative n_ref"}
	}

	idx, err := internal.ReadIndex(r, nRef, 8)
	if err != nil {
		var de *internal.DecodeError
		if ok := asDecodeError(err, &de); ok {
			return nil, nil, &ixerr.MalformedIndex{Offset: de.Offset, Msg: de.Msg, Err: de.Err}
		}
		return nil, nil, &ixerr.MalformedIndex{Msg: "failed to decode index", Err: err}
	}
	idx.Sort()

	warnings := patchLinearIndexes(&idx)

	return &Index{idx: idx}, warnings, nil
}

func asDecodeError(err error, target **internal.DecodeError) bool {
	if de, ok := err.(*internal.DecodeError); ok {
		*target = de
		return true
	}
	return false
}

// patchLinearIndexes applies the forward-fill described in spec.md §4.1:
// a zero linear-index entry is replaced by the nearest preceding
// non-zero entry within the same reference. The first entry of a
// reference is never patched (there is no preceding entry to copy).
func patchLinearIndexes(idx *internal.Index) []Warning {
	var warnings []Warning
	for refID := range idx.Refs {
		intervals := idx.Refs[refID].Intervals
		for t := 1; t < len(intervals); t++ {
			if intervals[t].IsZero() && !intervals[t-1].IsZero() {
				intervals[t] = intervals[t-1]
				warnings = append(warnings, Warning{Kind: PatchedLinearIndexZero, RefID: refID, Tile: t})
			}
		}
	}
	return warnings
}

// OpenIndexFile opens the BAI file at path via a memory map — the same
// zero-copy idiom fai.OpenFile uses for FASTA random access — and decodes
// it. The mapped region is released once decoding completes, win or lose.
func OpenIndexFile(path string) (*Index, []Warning, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, nil, &ixerr.IOError{Path: path, Err: err}
	}
	defer f.Close()
	r := io.NewSectionReader(f, 0, int64(f.Len()))
	idx, warnings, err := ReadIndex(r)
	if err != nil {
		return nil, nil, err
	}
	return idx, warnings, nil
}

// WriteIndex encodes idx back to BAI binary form. It exists only to
// build synthetic fixtures for tests; IndexTools never writes a BAI file
// as part of the partition pipeline.
func WriteIndex(w io.Writer, idx *Index) error {
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return &ixerr.IOError{Err: err}
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(idx.idx.Refs))); err != nil {
		return &ixerr.IOError{Err: err}
	}
	if err := internal.WriteIndex(w, &idx.idx); err != nil {
		return &ixerr.IOError{Err: err}
	}
	return nil
}

// NewIndexForTest builds an Index directly from reference data, bypassing
// binary decoding, for tests that want to exercise the window/partition
// packages without an encode/decode round trip.
func NewIndexForTest(refs []RefFixture) *Index {
	idx := internal.Index{Refs: make([]internal.RefIndex, len(refs))}
	for i, r := range refs {
		bins := make([]internal.Bin, len(r.Bins))
		for k, b := range r.Bins {
			bins[k] = internal.Bin{Bin: b.ID, Chunks: b.Chunks}
		}
		idx.Refs[i] = internal.RefIndex{
			Bins:      bins,
			Intervals: r.Intervals,
		}
		if r.Stats != nil {
			idx.Refs[i].Stats = &internal.ReferenceStats{
				Chunk:    r.Stats.Chunk,
				Mapped:   r.Stats.Mapped,
				Unmapped: r.Stats.Unmapped,
			}
		}
	}
	idx.Sort()
	return &Index{idx: idx}
}

// RefFixture is the field-by-field reference description NewIndexForTest
// accepts.
type RefFixture struct {
	Bins      []Bin
	Intervals []bgzf.Offset
	Stats     *ReferenceStats
}
