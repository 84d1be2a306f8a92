// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contig

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"strings"
	"testing"
)

func TestLoadTextSkipsBlankLines(t *testing.T) {
	in := "chr1\t1000\n\nchr2 2000\n"
	got, err := LoadText(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	want := List{{Name: "chr1", Len: 1000}, {Name: "chr2", Len: 2000}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadTextRejectsMissingLength(t *testing.T) {
	_, err := LoadText(strings.NewReader("chr1\n"))
	if err == nil {
		t.Fatal("expected error for missing length column")
	}
}

func writeBAMHeader(t *testing.T, refs []Entry) []byte {
	t.Helper()
	var body bytes.Buffer
	body.Write(bamMagic[:])
	binary.Write(&body, binary.LittleEndian, int32(0)) // l_text
	binary.Write(&body, binary.LittleEndian, int32(len(refs)))
	for _, r := range refs {
		name := append([]byte(r.Name), 0)
		binary.Write(&body, binary.LittleEndian, int32(len(name)))
		body.Write(name)
		binary.Write(&body, binary.LittleEndian, int32(r.Len))
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write(body.Bytes())
	gz.Close()
	return buf.Bytes()
}

func TestLoadBAMHeaderRoundTrip(t *testing.T) {
	want := []Entry{{Name: "chr1", Len: 248956422}, {Name: "chr2", Len: 242193529}}
	raw := writeBAMHeader(t, want)

	got, err := LoadBAMHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadBAMHeader: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d refs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ref %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadBAMHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("XAM\x01"))
	gz.Close()

	_, err := LoadBAMHeader(bytes.NewReader(buf.Bytes()))
	if err == nil {
		t.Fatal("expected magic mismatch error")
	}
}
