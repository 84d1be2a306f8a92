// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/dnanexus/indextools/bgzf"
)

// DecodeError is returned by ReadIndex when the byte stream violates the
// BAI binary layout. Offset is the byte position at which the violation
// was detected: the basePos passed to ReadIndex plus the bytes consumed
// from its reader.
type DecodeError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// offsetReader wraps an io.Reader, tracking how many bytes have been
// consumed so decode errors can name a byte offset.
type offsetReader struct {
	r   io.Reader
	pos int64
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	o.pos += int64(n)
	return n, err
}

func (o *offsetReader) errorf(msg string, err error) error {
	return &DecodeError{Offset: o.pos, Msg: msg, Err: err}
}

// ReadIndex reads n references' worth of bin/chunk/linear-index data from
// r, plus the optional trailing n_no_coor count. r must already be
// positioned just past the BAI magic and n_ref fields.
func ReadIndex(r io.Reader, n int32, basePos int64) (Index, error) {
	or := &offsetReader{r: r, pos: basePos}
	var (
		idx Index
		err error
	)
	idx.Refs, err = readIndices(or, n)
	if err != nil {
		return idx, err
	}
	var nUnmapped uint64
	err = binary.Read(or, binary.LittleEndian, &nUnmapped)
	if err == nil {
		idx.Unmapped = &nUnmapped
	} else if err != io.EOF {
		return idx, or.errorf("failed to read n_no_coor", err)
	}
	idx.IsSorted = true
	return idx, nil
}

func readIndices(r *offsetReader, n int32) ([]RefIndex, error) {
	if n < 0 {
		return nil, r.errorf("negative n_ref", nil)
	}
	idx := make([]RefIndex, n)
	var err error
	for i := range idx {
		idx[i].Bins, idx[i].Stats, err = readBins(r)
		if err != nil {
			return nil, err
		}
		idx[i].Intervals, err = readIntervals(r)
		if err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func readBins(r *offsetReader) ([]Bin, *ReferenceStats, error) {
	var n int32
	err := binary.Read(r, binary.LittleEndian, &n)
	if err != nil {
		return nil, nil, r.errorf("failed to read n_bin", err)
	}
	if n < 0 {
		return nil, nil, r.errorf("negative n_bin", nil)
	}
	// Bins 0..MaxBinNumber plus the metadata bin.
	if uint32(n) > MaxBinNumber+2 {
		return nil, nil, r.errorf("bin count exceeds UCSC binning maximum", nil)
	}
	if n == 0 {
		return nil, nil, nil
	}
	var stats *ReferenceStats
	bins := make([]Bin, n)
	for i := 0; i < len(bins); i++ {
		err = binary.Read(r, binary.LittleEndian, &bins[i].Bin)
		if err != nil {
			return nil, nil, r.errorf("failed to read bin number", err)
		}
		err = binary.Read(r, binary.LittleEndian, &n)
		if err != nil {
			return nil, nil, r.errorf("failed to read n_chunk", err)
		}
		if n < 0 {
			return nil, nil, r.errorf("negative n_chunk", nil)
		}
		if bins[i].Bin == StatsDummyBin {
			if n != 2 {
				return nil, nil, r.errorf("malformed metadata bin header", nil)
			}
			stats, err = readStats(r)
			if err != nil {
				return nil, nil, err
			}
			bins = bins[:len(bins)-1]
			i--
			continue
		}
		bins[i].Chunks, err = readChunks(r, n)
		if err != nil {
			return nil, nil, err
		}
	}
	if !sort.IsSorted(byBinNumber(bins)) {
		sort.Sort(byBinNumber(bins))
	}
	return bins, stats, nil
}

func readChunks(r *offsetReader, n int32) ([]bgzf.Chunk, error) {
	if n == 0 {
		return nil, nil
	}
	chunks := make([]bgzf.Chunk, n)
	var buf [16]byte
	for i := range chunks {
		// Read the begin and end virtual offsets in a single call.
		_, err := io.ReadFull(r, buf[:])
		if err != nil {
			return nil, r.errorf("failed to read chunk virtual offset", err)
		}
		chunks[i].Begin = bgzf.MakeOffset(binary.LittleEndian.Uint64(buf[:8]))
		chunks[i].End = bgzf.MakeOffset(binary.LittleEndian.Uint64(buf[8:]))
		if chunks[i].End.Compare(chunks[i].Begin) <= 0 {
			return nil, r.errorf("chunk end does not exceed chunk begin", nil)
		}
	}
	if !sort.IsSorted(byBeginOffset(chunks)) {
		sort.Sort(byBeginOffset(chunks))
	}
	return chunks, nil
}

func readStats(r *offsetReader) (*ReferenceStats, error) {
	var (
		vOff  uint64
		stats ReferenceStats
		err   error
	)
	err = binary.Read(r, binary.LittleEndian, &vOff)
	if err != nil {
		return nil, r.errorf("failed to read metadata chunk begin virtual offset", err)
	}
	stats.Chunk.Begin = bgzf.MakeOffset(vOff)
	err = binary.Read(r, binary.LittleEndian, &vOff)
	if err != nil {
		return nil, r.errorf("failed to read metadata chunk end virtual offset", err)
	}
	stats.Chunk.End = bgzf.MakeOffset(vOff)
	err = binary.Read(r, binary.LittleEndian, &stats.Mapped)
	if err != nil {
		return nil, r.errorf("failed to read mapped read count", err)
	}
	err = binary.Read(r, binary.LittleEndian, &stats.Unmapped)
	if err != nil {
		return nil, r.errorf("failed to read unmapped read count", err)
	}
	return &stats, nil
}

func readIntervals(r *offsetReader) ([]bgzf.Offset, error) {
	var n int32
	err := binary.Read(r, binary.LittleEndian, &n)
	if err != nil {
		return nil, r.errorf("failed to read n_intv", err)
	}
	if n < 0 {
		return nil, r.errorf("negative n_intv", nil)
	}
	if n == 0 {
		return nil, nil
	}
	offsets := make([]bgzf.Offset, n)
	// chunkSize bounds the number of offsets consumed by each binary.Read call.
	const chunkSize = 512
	var vOffs [chunkSize]uint64
	for i := 0; i < int(n); i += chunkSize {
		l := min(int(n)-i, len(vOffs))
		err = binary.Read(r, binary.LittleEndian, vOffs[:l])
		if err != nil {
			return nil, r.errorf("failed to read linear index virtual offset", err)
		}
		for k := 0; k < l; k++ {
			offsets[i+k] = bgzf.MakeOffset(vOffs[k])
		}
	}
	return offsets, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
