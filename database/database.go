/*
NAME
  database.go provides a resolution-tagged, time-indexed collection of AFGS1
  film grain parameter records, answering "which sets are active at
  presentation time t?".

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package database indexes AFGS1 film grain parameter records by
// presentation time and resolution, backing the per-picture parameter
// lookup performed by the inject package's orchestrator.
package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/ausocean/afgs1/paramset"
)

// ErrTooManyTables is returned by LoadTable when loading another table
// would exceed the 8 available film_grain_param_set_idx values.
var ErrTooManyTables = errors.New("database: too many filmgrn1 tables loaded (max 8)")

// entry is one stored record: the half-open interval it is active over,
// the parameter set it carries, and the resolution/index of the source
// table it came from.
type entry struct {
	startTime, endTime int64
	params             paramset.FilmGrainParams
}

// Database indexes loaded filmgrn1 records by presentation time. It is
// built once at startup by repeated calls to LoadTable and is read-only
// thereafter; FindFrames/AllFrames never mutate it.
type Database struct {
	alloc   *IdxAllocator
	entries []entry
}

// New returns an empty Database that allocates film_grain_param_set_idx
// values from alloc. Passing a freshly constructed IdxAllocator is the
// normal case; the package's tests create a fresh allocator for each case
// to get deterministic indices.
func New(alloc *IdxAllocator) *Database {
	return &Database{alloc: alloc}
}

// LoadTable allocates the next film_grain_param_set_idx, parses the
// filmgrn1 file at path via paramset.Reader, and appends its records to the
// database tagged with that index and the given resolution. All records
// from one call share one resolution and one index, per the filmgrn1
// format's contract (§3 invariants).
func (d *Database) LoadTable(path string, width, height int) error {
	idx, err := d.alloc.Next()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTooManyTables, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("database: could not open %q: %w", path, err)
	}
	defer f.Close()

	r, err := paramset.NewReader(f)
	if err != nil {
		return fmt.Errorf("database: %q: %w", path, err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("database: %q: %w", path, err)
	}

	for _, rec := range recs {
		p := rec.Params
		p.FilmGrainParamSetIdx = idx
		p.ApplyHorzResolution = width
		p.ApplyVertResolution = height
		d.entries = append(d.entries, entry{
			startTime: rec.StartTime,
			endTime:   rec.EndTime,
			params:    p,
		})
	}
	return nil
}

// FindFrames returns, in insertion order, a fresh copy of every record
// whose interval [start_time, end_time) contains t. The database retains
// ownership of its source records; the caller owns the returned slice.
func (d *Database) FindFrames(t int64) []paramset.FilmGrainParams {
	var out []paramset.FilmGrainParams
	for _, e := range d.entries {
		if e.startTime <= t && t < e.endTime {
			out = append(out, e.params)
		}
	}
	return out
}

// AllFrames returns a fresh copy of every loaded record, in insertion
// order.
func (d *Database) AllFrames() []paramset.FilmGrainParams {
	out := make([]paramset.FilmGrainParams, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.params
	}
	return out
}
