// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf provides the virtual-offset coordinate types used by BAI
// (and, historically, tabix/CSI) indexes. It does not decode BGZF blocks;
// IndexTools never reads alignment data, only the offsets that locate it.
package bgzf

// Offset is a virtual file offset into a BGZF stream: the high bits
// address the compressed block and the low 16 bits address a position
// within that block's uncompressed contents.
type Offset struct {
	File  int64
	Block uint16
}

// Chunk is a contiguous span of a BGZF stream, as recorded in a BAI bin.
type Chunk struct {
	Begin, End Offset
}

// Bytes returns a monotonically increasing estimate of the stream
// position addressed by o, in the scale IndexTools calls V (volume).
// The compressed block offset dominates the ordering; the low 16 bits
// remain significant for within-block deltas between offsets that share
// a block.
func (o Offset) Bytes() int64 {
	return o.File<<16 | int64(o.Block)
}

// Compare returns -1, 0 or 1 if o sorts before, at, or after p.
func (o Offset) Compare(p Offset) int {
	a, b := o.Bytes(), p.Bytes()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether o is the zero virtual offset, the sentinel BAI
// uses for "no alignment observed yet" linear-index tiles.
func (o Offset) IsZero() bool {
	return o == Offset{}
}

// MakeOffset decodes a 64-bit virtual file offset as stored in a BAI file
// into its (block, within-block) components.
func MakeOffset(v uint64) Offset {
	return Offset{
		File:  int64(v >> 16),
		Block: uint16(v),
	}
}
