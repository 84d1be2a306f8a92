// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"bytes"
	"testing"

	"github.com/kortschak/utter"
	"gopkg.in/check.v1"

	"github.com/dnanexus/indextools/bgzf"
	"github.com/dnanexus/indextools/ixerr"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func off(block uint16, file int64) bgzf.Offset {
	return bgzf.Offset{File: file, Block: block}
}

// TestPatchesZeroLinearIndexEntries constructs a single-reference index
// whose linear index has an internal gap and a trailing zero, round-trips
// it through WriteIndex/ReadIndex, and checks the forward-filled entries
// and the warnings.
func (s *S) TestPatchesZeroLinearIndexEntries(c *check.C) {
	idx := NewIndexForTest([]RefFixture{
		{
			Bins: []Bin{
				{ID: 4681, Chunks: []bgzf.Chunk{{Begin: off(0, 100), End: off(0, 900)}}},
			},
			Intervals: []bgzf.Offset{
				off(0, 100),
				{},
				{},
				off(0, 700),
				{},
			},
		},
	})

	var buf bytes.Buffer
	err := WriteIndex(&buf, idx)
	c.Assert(err, check.IsNil)

	got, warnings, err := ReadIndex(&buf)
	c.Assert(err, check.IsNil)
	if c.Failed() {
		c.Log(utter.Sdump(got))
	}

	want := []bgzf.Offset{
		off(0, 100),
		off(0, 100),
		off(0, 100),
		off(0, 700),
		off(0, 700),
	}
	c.Check(got.Intervals(0), check.DeepEquals, want)

	c.Check(len(warnings), check.Equals, 3)
	for _, w := range warnings {
		c.Check(w.Kind, check.Equals, PatchedLinearIndexZero)
		c.Check(w.RefID, check.Equals, 0)
	}
}

func (s *S) TestLeadingZeroEntryIsNotPatched(c *check.C) {
	idx := NewIndexForTest([]RefFixture{
		{Intervals: []bgzf.Offset{{}, off(0, 50)}},
	})

	var buf bytes.Buffer
	c.Assert(WriteIndex(&buf, idx), check.IsNil)

	got, warnings, err := ReadIndex(&buf)
	c.Assert(err, check.IsNil)
	c.Check(got.Intervals(0)[0].IsZero(), check.Equals, true)
	c.Check(len(warnings), check.Equals, 0)
}

func (s *S) TestRejectsBadMagic(c *check.C) {
	buf := bytes.NewBufferString("XAI\x01\x00\x00\x00\x00")
	_, _, err := ReadIndex(buf)
	c.Assert(err, check.NotNil)

	var me *ixerr.MalformedIndex
	c.Assert(asMalformed(err, &me), check.Equals, true)
	c.Check(me.Offset, check.Equals, int64(0))
}

func (s *S) TestRejectsTruncatedStream(c *check.C) {
	buf := bytes.NewBufferString("BAI\x01")
	_, _, err := ReadIndex(buf)
	c.Assert(err, check.NotNil)

	var me *ixerr.MalformedIndex
	c.Assert(asMalformed(err, &me), check.Equals, true)
}

func (s *S) TestReferenceStatsRoundTrip(c *check.C) {
	stats := &ReferenceStats{
		Chunk:    bgzf.Chunk{Begin: off(0, 10), End: off(0, 2000)},
		Mapped:   42,
		Unmapped: 3,
	}
	idx := NewIndexForTest([]RefFixture{{Stats: stats}})

	var buf bytes.Buffer
	c.Assert(WriteIndex(&buf, idx), check.IsNil)

	got, _, err := ReadIndex(&buf)
	c.Assert(err, check.IsNil)

	gotStats, ok := got.RefStats(0)
	c.Assert(ok, check.Equals, true)
	c.Check(gotStats, check.DeepEquals, *stats)

	_, ok = got.RefStats(0)
	c.Check(ok, check.Equals, true)
}

func asMalformed(err error, target **ixerr.MalformedIndex) bool {
	if me, ok := err.(*ixerr.MalformedIndex); ok {
		*target = me
		return true
	}
	return false
}
