// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import (
	"context"
	"sync"

	"github.com/dnanexus/indextools/bai"
	"github.com/dnanexus/indextools/contig"
	"github.com/dnanexus/indextools/ixerr"
)

// EstimateAll runs one Estimator per reference, bounded by workers
// concurrent goroutines, and reassembles the results in BAI reference
// order (spec.md §4.2 "Concurrency": references may be processed
// independently in parallel, but the partitioner consumes a
// reference-ordered stream). The reassembly is a fixed-size result slice
// indexed by reference id rather than the pack's OrderedQueue, since the
// full reference count is known up front.
func EstimateAll(ctx context.Context, idx *bai.Index, contigs contig.List, workers int) ([][]Window, error) {
	if workers < 1 {
		workers = 1
	}

	n := len(contigs)
	results := make([][]Window, n)
	sem := make(chan struct{}, workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for refID := 0; refID < n; refID++ {
		select {
		case <-ctx.Done():
			return nil, &ixerr.Cancelled{Stage: "volume estimation", Err: ctx.Err()}
		default:
		}

		refID := refID
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				mu.Lock()
				if firstErr == nil {
					firstErr = &ixerr.Cancelled{Stage: "volume estimation", Err: ctx.Err()}
				}
				mu.Unlock()
				return
			default:
			}

			est := NewEstimator(idx, refID, contigs[refID].Name, contigs[refID].Len)
			results[refID] = All(est)
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
