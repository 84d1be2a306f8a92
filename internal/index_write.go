// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/dnanexus/indextools/bgzf"
)

// WriteIndex writes idx's per-reference bin/chunk/linear-index body (not
// the BAI magic or n_ref header) to w, followed by the n_no_coor trailer
// when idx.Unmapped is set. It exists so
// tests can build synthetic BAI fixtures without hand-rolled binary
// literals; IndexTools never writes a BAI file in production use.
func WriteIndex(w io.Writer, idx *Index) error {
	idx.Sort()
	if err := writeIndices(w, idx.Refs); err != nil {
		return err
	}
	if idx.Unmapped != nil {
		return binary.Write(w, binary.LittleEndian, *idx.Unmapped)
	}
	return nil
}

func writeIndices(w io.Writer, refs []RefIndex) error {
	for i := range refs {
		if err := writeBins(w, refs[i].Bins, refs[i].Stats); err != nil {
			return err
		}
		if err := writeIntervals(w, refs[i].Intervals); err != nil {
			return err
		}
	}
	return nil
}

func writeBins(w io.Writer, bins []Bin, stats *ReferenceStats) error {
	n := int32(len(bins))
	if stats != nil {
		n++
	}
	if err := binary.Write(w, binary.LittleEndian, &n); err != nil {
		return errors.Wrap(err, "failed to write n_bin")
	}
	for _, b := range bins {
		if err := binary.Write(w, binary.LittleEndian, b.Bin); err != nil {
			return errors.Wrap(err, "failed to write bin number")
		}
		if err := writeChunks(w, b.Chunks); err != nil {
			return err
		}
	}
	if stats != nil {
		return writeStats(w, stats)
	}
	return nil
}

func writeChunks(w io.Writer, chunks []bgzf.Chunk) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(chunks))); err != nil {
		return errors.Wrap(err, "failed to write n_chunk")
	}
	for _, c := range chunks {
		if err := binary.Write(w, binary.LittleEndian, uint64(c.Begin.Bytes())); err != nil {
			return errors.Wrap(err, "failed to write chunk begin virtual offset")
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(c.End.Bytes())); err != nil {
			return errors.Wrap(err, "failed to write chunk end virtual offset")
		}
	}
	return nil
}

func writeStats(w io.Writer, stats *ReferenceStats) error {
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{StatsDummyBin, 2}); err != nil {
		return errors.Wrap(err, "failed to write metadata bin header")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(stats.Chunk.Begin.Bytes())); err != nil {
		return errors.Wrap(err, "failed to write metadata chunk begin virtual offset")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(stats.Chunk.End.Bytes())); err != nil {
		return errors.Wrap(err, "failed to write metadata chunk end virtual offset")
	}
	if err := binary.Write(w, binary.LittleEndian, stats.Mapped); err != nil {
		return errors.Wrap(err, "failed to write mapped read count")
	}
	if err := binary.Write(w, binary.LittleEndian, stats.Unmapped); err != nil {
		return errors.Wrap(err, "failed to write unmapped read count")
	}
	return nil
}

func writeIntervals(w io.Writer, offsets []bgzf.Offset) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(offsets))); err != nil {
		return errors.Wrap(err, "failed to write n_intv")
	}
	for _, o := range offsets {
		if err := binary.Write(w, binary.LittleEndian, uint64(o.Bytes())); err != nil {
			return errors.Wrap(err, "failed to write linear index virtual offset")
		}
	}
	return nil
}
