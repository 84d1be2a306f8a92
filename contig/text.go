// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contig

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/dnanexus/indextools/ixerr"
)

// LoadText reads a two-column (name, length) tab- or space-separated
// sidecar file — the same shape as a FASTA .fai's first two columns — and
// returns the contigs in file order. Blank lines are skipped; a line with
// fewer than two fields is a malformed-input error.
func LoadText(r io.Reader) (List, error) {
	var out List
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ixerr.InconsistentInputs{Msg: "contig list line " + strconv.Itoa(lineNo) + " does not have a name and length"}
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &ixerr.InconsistentInputs{Msg: "contig list line " + strconv.Itoa(lineNo) + " has a non-numeric length", Err: err}
		}
		if length < 0 {
			return nil, &ixerr.InconsistentInputs{Msg: "contig list line " + strconv.Itoa(lineNo) + " has a negative length"}
		}
		out = append(out, Entry{Name: fields[0], Len: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ixerr.IOError{Err: err}
	}
	return out, nil
}
