// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package contig supplies the reference-name/length dictionary that a BAI
// file's bare reference IDs are checked and labelled against, per
// spec.md §3 and §4.5.
package contig

// Entry names one contig and its length in base pairs, in BAI reference
// ID order.
type Entry struct {
	Name string
	Len  int
}

// Provider supplies the ordered contig dictionary IndexTools validates a
// BAI's reference count against before partitioning.
type Provider interface {
	// Contigs returns the reference dictionary in BAI reference-ID order.
	Contigs() []Entry
}

// List is a Provider backed by an in-memory slice, returned by both
// LoadText and LoadBAMHeader and usable directly in tests.
type List []Entry

// Contigs implements Provider.
func (l List) Contigs() []Entry { return l }
