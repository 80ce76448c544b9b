/*
NAME
  orchestrator.go provides the per-picture driver: it selects the parameter
  sets active at a picture's presentation time, applies buffer-based
  elision, serializes the result, and updates the buffer model - then hands
  the resulting AFGS1 bytes to an external SEI emitter.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package inject drives the per-picture AFGS1 parameter selection,
// buffer-based prediction and serialization pipeline, leaving the concrete
// host-bitstream NAL splicing to its caller (composition at the wrapper
// boundary - see the design notes on the polymorphic output SEI).
package inject

import (
	"fmt"

	"github.com/ausocean/afgs1/afgs1"
	"github.com/ausocean/afgs1/bits"
	"github.com/ausocean/afgs1/database"
	"github.com/ausocean/afgs1/grainbuf"
	"github.com/ausocean/afgs1/paramset"
)

// seedModulus is the modulus used for grain_seed update. It is
// deliberately 2^16 - 1 (65535), not 2^16, per the original source's
// literal behaviour - see the design notes for why this must be preserved
// exactly as specified rather than "corrected" to 65536.
const seedModulus = 65535

// Logger is the minimal logging capability the Orchestrator needs: a
// leveled, structured-args logger, matching the facade this project's
// ambient stack uses everywhere else (see the top-level DESIGN.md).
type Logger interface {
	Log(level int8, message string, args ...interface{})
}

// Log levels, mirroring the ambient logging facade's convention.
const (
	LogDebug   int8 = 0
	LogWarning int8 = 2
)

// Orchestrator is the per-picture AFGS1 driver described by §4.6. One
// Orchestrator is created per coded video sequence and is not safe for
// concurrent use - pictures are processed strictly one at a time (§5).
type Orchestrator struct {
	db              *database.Database
	buf             *grainbuf.BufferModel
	predictDisabled bool // AFGS1_DEBUG_DISABLE_PRED equivalent; default false (§9 open question).
	log             Logger
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithPredictionDisabled forces BufferModel.Find to always report a miss,
// i.e. every parameter set is always retransmitted in full. This is the
// build-time switch the original source exposes as
// AFGS1_DEBUG_DISABLE_PRED; the default (false) leaves prediction enabled.
func WithPredictionDisabled(disabled bool) Option {
	return func(o *Orchestrator) { o.predictDisabled = disabled }
}

// WithLogger attaches a logger. A nil logger (the zero value) silently
// disables logging.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New returns an Orchestrator reading from db and maintaining buf as its
// decoder-buffer model.
func New(db *database.Database, buf *grainbuf.BufferModel, opts ...Option) *Orchestrator {
	o := &Orchestrator{db: db, buf: buf}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PresentationTime derives a picture's presentation time in 100-ns ticks
// from its picture order count and the sequence frame rate, per §4.6's
// host contract: t = poc * 10_000_000 * frame_rate_denom / frame_rate_num,
// computed in 64-bit unsigned arithmetic.
func PresentationTime(poc uint64, frameRateNum, frameRateDenom uint64) uint64 {
	return poc * 10_000_000 * frameRateDenom / frameRateNum
}

// ProcessPicture runs the full per-picture pipeline for a picture at
// presentation time t (as produced by PresentationTime) with picture order
// count poc. If irap is true, the BufferModel is reset before any
// parameter-set selection, per §4.4/§4.6.
//
// The returned bytes are the AFGS1 film_grain_param_sets payload for this
// picture, or nil if no parameter sets are active at t (in which case no
// SEI should be emitted for this picture at all).
func (o *Orchestrator) ProcessPicture(t int64, poc uint64, irap bool) ([]byte, error) {
	if irap {
		o.buf.Reset()
	}

	subset := o.db.FindFrames(t)
	if len(subset) == 0 {
		return nil, nil
	}

	ptrs := make([]*paramset.FilmGrainParams, len(subset))
	for i := range subset {
		p := &subset[i]
		p.GrainSeed = uint16((uint32(p.GrainSeed) + uint32(poc%seedModulus)) % seedModulus)
		ptrs[i] = p
	}

	for _, p := range ptrs {
		if o.predictDisabled {
			continue
		}
		if idx := o.buf.Find(p); idx >= 0 {
			o.logf(LogDebug, "eliding parameter set", "orig_idx", p.FilmGrainParamSetIdx, "buffer_idx", idx)
			p.FilmGrainParamSetIdx = idx
			p.UpdateParameters = false
		}
	}

	w := bits.NewWriter()
	if err := afgs1.WriteParamSets(w, ptrs); err != nil {
		return nil, fmt.Errorf("inject: could not serialize parameter sets at t=%d: %w", t, err)
	}

	for _, p := range ptrs {
		o.buf.Update(p)
	}

	return w.Bytes(), nil
}

func (o *Orchestrator) logf(level int8, msg string, args ...interface{}) {
	if o.log == nil {
		return
	}
	o.log.Log(level, msg, args...)
}
