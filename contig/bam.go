// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contig

import (
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/dnanexus/indextools/ixerr"
)

var bamMagic = [4]byte{'B', 'A', 'M', 0x1}

// LoadBAMHeader reads the reference dictionary out of a BAM file's header
// block. A BAM file is a BGZF stream, which is a valid concatenation of
// independent gzip members, so the stdlib gzip reader in multistream mode
// decodes it without any BGZF-specific block framing; IndexTools only
// needs the header, never alignment records, so it reads no further than
// n_ref references' worth of name/length pairs.
func LoadBAMHeader(r io.Reader) (List, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, &ixerr.MalformedIndex{Msg: "not a valid BGZF/gzip stream", Err: err}
	}
	gz.Multistream(true)

	var magic [4]byte
	if _, err := io.ReadFull(gz, magic[:]); err != nil {
		return nil, &ixerr.MalformedIndex{Msg: "failed to read BAM magic", Err: err}
	}
	if magic != bamMagic {
		return nil, &ixerr.MalformedIndex{Msg: "BAM magic number mismatch"}
	}

	var lText int32
	if err := binary.Read(gz, binary.LittleEndian, &lText); err != nil {
		return nil, &ixerr.MalformedIndex{Msg: "failed to read l_text", Err: err}
	}
	if lText < 0 {
		return nil, &ixerr.MalformedIndex{Msg: "negative l_text"}
	}
	if _, err := io.CopyN(io.Discard, gz, int64(lText)); err != nil {
		return nil, &ixerr.MalformedIndex{Msg: "truncated SAM header text", Err: err}
	}

	var nRef int32
	if err := binary.Read(gz, binary.LittleEndian, &nRef); err != nil {
		return nil, &ixerr.MalformedIndex{Msg: "failed to read n_ref", Err: err}
	}
	if nRef < 0 {
		return nil, &ixerr.MalformedIndex{Msg: "negative n_ref"}
	}

	out := make(List, nRef)
	for i := range out {
		var lName int32
		if err := binary.Read(gz, binary.LittleEndian, &lName); err != nil {
			return nil, &ixerr.MalformedIndex{Msg: "failed to read l_name", Err: err}
		}
		if lName < 1 {
			return nil, &ixerr.MalformedIndex{Msg: "invalid l_name"}
		}
		name := make([]byte, lName)
		if _, err := io.ReadFull(gz, name); err != nil {
			return nil, &ixerr.MalformedIndex{Msg: "truncated reference name", Err: err}
		}
		if name[lName-1] != 0 {
			return nil, &ixerr.MalformedIndex{Msg: "reference name is not NUL-terminated"}
		}

		var lRef int32
		if err := binary.Read(gz, binary.LittleEndian, &lRef); err != nil {
			return nil, &ixerr.MalformedIndex{Msg: "failed to read l_ref", Err: err}
		}
		if lRef < 0 {
			return nil, &ixerr.MalformedIndex{Msg: "negative l_ref"}
		}

		out[i] = Entry{Name: string(name[:lName-1]), Len: int(lRef)}
	}
	return out, nil
}
