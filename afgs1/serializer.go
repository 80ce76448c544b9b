/*
NAME
  serializer.go converts a non-empty list of AFGS1 film grain parameter sets
  into the bit-exact AFGS1 byte sequence (film_grain_param_sets), enforcing
  the cross-set conformance invariants the AFGS1 syntax requires.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package afgs1 serializes AFGS1 film grain parameter sets into their
// bit-exact wire representation. It is write-only: this module never
// decodes an existing AFGS1 payload, and never synthesizes grain - it only
// transports parameters.
package afgs1

import (
	"errors"
	"fmt"

	"github.com/ausocean/afgs1/bits"
	"github.com/ausocean/afgs1/paramset"
)

// Conformance errors, checked across the whole set list before any byte is
// committed. The serializer never emits a partial payload: on any of these,
// nothing has been written to w.
var (
	ErrEmptySetList       = errors.New("afgs1: set list must not be empty")
	ErrTooManySets        = errors.New("afgs1: at most 8 parameter sets may be transmitted together")
	ErrDuplicateResolution = errors.New("afgs1: duplicate (horz, vert) resolution across concurrently transmitted sets")
	ErrDuplicateIdx       = errors.New("afgs1: duplicate film_grain_param_set_idx across concurrently transmitted sets")
)

// Fixed profile values (§1 Non-goals: no parameter prediction, no bit-depth
// variation, 4:2:0 only, no luma-only operation).
const (
	applyUnitsResolutionLog2 = 0 // resolutions are expressed in integer luma samples (§9 open question).
	bitsIncr                 = 8
	bitsScal                 = 8
	bitsArY                  = 8
)

// WriteParamSets writes the bit-exact film_grain_param_sets syntax for sets
// to w, in input order. It is the only exported entry point of this
// package: checkConformance runs first, and no bit is written if it fails.
func WriteParamSets(w *bits.Writer, sets []*paramset.FilmGrainParams) error {
	if err := checkConformance(sets); err != nil {
		return err
	}

	w.WriteBit(1)                          // afgs1_enable_flag
	w.WriteLiteral(0, 4)                    // reserved
	w.WriteLiteral(uint32(len(sets)-1), 3)  // num_film_grain_sets_minus_1

	for _, p := range sets {
		if err := writePayload(w, p); err != nil {
			return err
		}
	}
	return nil
}

// checkConformance validates the cross-set invariants of §4.5.3 and the
// per-set field ranges of §3/§4.5.1.
func checkConformance(sets []*paramset.FilmGrainParams) error {
	if len(sets) == 0 {
		return ErrEmptySetList
	}
	if len(sets) > 8 {
		return fmt.Errorf("%w: got %d", ErrTooManySets, len(sets))
	}

	seenRes := make(map[[2]int]bool, len(sets))
	seenIdx := make(map[int]bool, len(sets))
	for _, p := range sets {
		if err := p.Validate(); err != nil {
			return err
		}
		res := [2]int{p.ApplyHorzResolution, p.ApplyVertResolution}
		if seenRes[res] {
			return fmt.Errorf("%w: %dx%d", ErrDuplicateResolution, res[0], res[1])
		}
		seenRes[res] = true
		if seenIdx[p.FilmGrainParamSetIdx] {
			return fmt.Errorf("%w: %d", ErrDuplicateIdx, p.FilmGrainParamSetIdx)
		}
		seenIdx[p.FilmGrainParamSetIdx] = true
	}
	return nil
}

// writePayload writes one film_grain_payload (§4.5.2): a size prefix sized
// to cover the body as if it always used the widest encoding, followed by
// the body, followed by zero padding out to the declared size. This is what
// lets the declared payload_size stay self-consistent regardless of which
// of the two size-field widths is actually used (see the S1 worked example
// in the package's tests).
func writePayload(w *bits.Writer, p *paramset.FilmGrainParams) error {
	scratch := bits.NewWriter()
	if err := writeParamSetBody(scratch, p); err != nil {
		return err
	}
	bodyBits := scratch.Position()

	payloadBits := bodyBits + 9
	if rem := payloadBits % 8; rem != 0 {
		payloadBits += 8 - rem
	}
	payloadSize := payloadBits / 8
	lessThan4Byte := payloadSize < 4

	start := w.Position()
	if lessThan4Byte {
		w.WriteBit(1)
		w.WriteLiteral(uint32(payloadSize), 2)
	} else {
		w.WriteBit(0)
		w.WriteLiteral(uint32(payloadSize), 8)
	}

	if err := writeParamSetBody(w, p); err != nil {
		return err
	}

	written := w.Position() - start
	target := payloadSize * 8
	if written > target {
		return fmt.Errorf("afgs1: internal error: payload for set %d overflowed its declared size (%d > %d bits)",
			p.FilmGrainParamSetIdx, written, target)
	}
	for written < target {
		w.WriteBit(0)
		written++
	}
	return nil
}

// writeParamSetBody writes one film_grain_params syntax structure (§4.5.1)
// to w. It is called twice per payload: once into a scratch writer purely
// to measure its bit length, and once for real into the payload's target
// writer - the two writes are byte-for-byte identical since the input p is
// not mutated between them.
func writeParamSetBody(w *bits.Writer, p *paramset.FilmGrainParams) error {
	w.WriteLiteral(uint32(p.FilmGrainParamSetIdx), 3)
	w.WriteBit(b2i(p.ApplyGrain))
	if !p.ApplyGrain {
		return nil
	}

	w.WriteLiteral(uint32(p.GrainSeed), 16)
	w.WriteBit(b2i(p.UpdateParameters))
	if !p.UpdateParameters {
		return nil
	}

	w.WriteLiteral(applyUnitsResolutionLog2, 4)
	w.WriteLiteral(uint32(p.ApplyHorzResolution), 12)
	w.WriteLiteral(uint32(p.ApplyVertResolution), 12)
	w.WriteBit(b2i(p.LumaOnlyFlag))
	if !p.LumaOnlyFlag {
		w.WriteBit(b2i(p.SubsamplingX))
		w.WriteBit(b2i(p.SubsamplingY))
	}
	w.WriteBit(b2i(p.VideoSignalCharacteristicsFlag))
	w.WriteBit(0) // predict_scaling_flag, fixed 0 (§1 Non-goals).

	w.WriteLiteral(uint32(p.NumYPoints), 4)
	if p.NumYPoints > 0 {
		w.WriteLiteral(bitsIncr-1, 3)
		w.WriteLiteral(bitsScal-5, 2)
		writeScalingPoints(w, p.ScalingPointsY[:p.NumYPoints])
	}

	if !p.LumaOnlyFlag {
		w.WriteBit(b2i(p.ChromaScalingFromLuma))
	}

	if !p.LumaOnlyFlag && !p.ChromaScalingFromLuma {
		w.WriteLiteral(uint32(p.NumCbPoints), 4)
		if p.NumCbPoints > 0 {
			w.WriteLiteral(bitsIncr-1, 3)
			w.WriteLiteral(bitsScal-5, 2)
			w.WriteLiteral(0, 8) // reserved
			writeScalingPoints(w, p.ScalingPointsCb[:p.NumCbPoints])
		}
		w.WriteLiteral(uint32(p.NumCrPoints), 4)
		if p.NumCrPoints > 0 {
			w.WriteLiteral(bitsIncr-1, 3)
			w.WriteLiteral(bitsScal-5, 2)
			w.WriteLiteral(0, 8) // reserved
			writeScalingPoints(w, p.ScalingPointsCr[:p.NumCrPoints])
		}
	}

	w.WriteLiteral(uint32(p.ScalingShift-8), 2)
	w.WriteLiteral(uint32(p.ARCoeffLag), 2)

	numPosLuma := p.NumPosLuma()
	numPosChroma := numPosLuma
	if p.NumYPoints > 0 {
		w.WriteLiteral(bitsArY-5, 2)
		writeARCoeffs(w, p.ARCoeffsY[:numPosLuma])
		numPosChroma = numPosLuma + 1
	}

	if p.NumCbPoints > 0 || p.ChromaScalingFromLuma {
		w.WriteLiteral(3, 2) // BitsArCb-5, BitsArCb=8.
		writeARCoeffs(w, p.ARCoeffsCb[:numPosChroma])
	}
	if p.NumCrPoints > 0 || p.ChromaScalingFromLuma {
		w.WriteLiteral(3, 2) // BitsArCr-5, BitsArCr=8.
		writeARCoeffs(w, p.ARCoeffsCr[:numPosChroma])
	}

	w.WriteLiteral(uint32(p.ARCoeffShift-6), 2)
	w.WriteLiteral(uint32(p.GrainScaleShift), 2)

	if p.NumCbPoints > 0 {
		w.WriteLiteral(uint32(p.CbMult), 8)
		w.WriteLiteral(uint32(p.CbLumaMult), 8)
		w.WriteLiteral(uint32(p.CbOffset), 9)
	}
	if p.NumCrPoints > 0 {
		w.WriteLiteral(uint32(p.CrMult), 8)
		w.WriteLiteral(uint32(p.CrLumaMult), 8)
		w.WriteLiteral(uint32(p.CrOffset), 9)
	}

	w.WriteBit(b2i(p.OverlapFlag))
	w.WriteBit(b2i(p.ClipToRestrictedRange))
	return nil
}

// writeScalingPoints writes the delta-coded point_value_increment/value
// pairs shared by the Y, Cb and Cr scaling point loops.
func writeScalingPoints(w *bits.Writer, pts []paramset.Point) {
	var prevX uint8
	for i, pt := range pts {
		inc := pt.X
		if i > 0 {
			inc = pt.X - prevX
		}
		w.WriteLiteral(uint32(inc), 8)
		w.WriteLiteral(uint32(pt.Y), 8)
		prevX = pt.X
	}
}

// writeARCoeffs writes each signed AR coefficient biased by +128 into an
// unsigned 8-bit field.
func writeARCoeffs(w *bits.Writer, coeffs []int8) {
	for _, c := range coeffs {
		w.WriteLiteral(uint32(int(c)+128), 8)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
