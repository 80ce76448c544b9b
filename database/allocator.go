/*
NAME
  allocator.go provides IdxAllocator, an explicit, injectable allocator of
  film_grain_param_set_idx values.

  The original C++ source (Common/afgs1_database.h) keeps this as a
  process-wide static counter incremented on each table load. That design
  makes the index assignment untestable in isolation and non-reentrant
  across multiple Database instances in one process; this module's design
  notes flag it for redesign, and this type is the result: ownership of
  the counter is explicit and injected, with a Reset for test use.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package database

import "fmt"

// MaxParamSets is the number of film_grain_param_set_idx values available
// (the index is a 3-bit AFGS1 field).
const MaxParamSets = 8

// IdxAllocator hands out film_grain_param_set_idx values in [0, 8), one per
// call to Next, failing once all 8 have been allocated. It is not safe for
// concurrent use; a Database owns exactly one allocator for its lifetime.
type IdxAllocator struct {
	next int
}

// NewIdxAllocator returns an allocator starting at index 0.
func NewIdxAllocator() *IdxAllocator {
	return &IdxAllocator{}
}

// Next returns the next unused index, or an error if all MaxParamSets
// indices have already been allocated.
func (a *IdxAllocator) Next() (int, error) {
	if a.next >= MaxParamSets {
		return 0, fmt.Errorf("idx allocator: all %d indices already allocated", MaxParamSets)
	}
	idx := a.next
	a.next++
	return idx, nil
}

// Reset returns the allocator to its initial state, so that the next call
// to Next returns index 0 again.
func (a *IdxAllocator) Reset() {
	a.next = 0
}
