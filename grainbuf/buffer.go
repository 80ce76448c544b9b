/*
NAME
  buffer.go provides BufferModel, a fixed-capacity model of what a
  conforming AFGS1 decoder remembers about previously transmitted film
  grain parameter sets, used by the encoder to elide retransmission
  (update_parameters = 0) of a parameter set the decoder already holds.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package grainbuf models the decoder-side memory of AFGS1 film grain
// parameter sets, enabling buffer-based prediction in the encoder.
package grainbuf

import "github.com/ausocean/afgs1/paramset"

// numSlots is the number of decoder-side slots, one per possible
// film_grain_param_set_idx value (a 3-bit field).
const numSlots = 8

// BufferModel is a fixed-capacity, 8-slot model of decoder state. Slot i is
// keyed by film_grain_param_set_idx = i. It is created per coded video
// sequence and Reset on every IRAP, mirroring the fact that a decoder must
// assume no prior state at a random-access entry point.
type BufferModel struct {
	slots [numSlots]*paramset.FilmGrainParams // nil means empty.
}

// New returns an empty BufferModel.
func New() *BufferModel {
	return &BufferModel{}
}

// Reset marks every slot empty, as must happen at every IRAP boundary.
func (b *BufferModel) Reset() {
	for i := range b.slots {
		b.slots[i] = nil
	}
}

// Update stores p at slot p.FilmGrainParamSetIdx, overwriting whatever was
// there, but only if p carries new parameters (apply_grain and
// update_parameters both set). A parameter set that disables grain, or one
// that was just elided (update_parameters = 0), does not change decoder
// state and is not stored.
func (b *BufferModel) Update(p *paramset.FilmGrainParams) {
	if p.ApplyGrain && p.UpdateParameters {
		cp := p.Clone()
		b.slots[p.FilmGrainParamSetIdx] = cp
	}
}

// Find returns the index of the first populated slot (in ascending order)
// whose stored value is Equal to p, or -1 if no slot matches. Equality
// ignores grain_seed and unused array tail entries (paramset.Equal), which
// is exactly what allows a seed-modulated resend of an otherwise identical
// parameter set to be recognised as already known.
func (b *BufferModel) Find(p *paramset.FilmGrainParams) int {
	for i, s := range b.slots {
		if s != nil && s.Equal(p) {
			return i
		}
	}
	return -1
}
