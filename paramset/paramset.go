/*
NAME
  paramset.go provides the FilmGrainParams value type: one AFGS1 film grain
  parameter set, together with the structural equality relation used for
  decoder-buffer based prediction.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package paramset provides the AFGS1 film grain parameter set value type
// and its buffer-prediction equality relation.
package paramset

// Point is one (x, y) entry of a piecewise-linear scaling function.
type Point struct {
	X, Y uint8
}

// Limits on array lengths, per the AFGS1 syntax.
const (
	MaxYPoints  = 14
	MaxCbPoints = 10
	MaxCrPoints = 10
	MaxARCoeffLag = 3
)

// FilmGrainParams is one AFGS1 film_grain_params parameter set.
//
// Fields follow the names of the AFGS1 syntax elements they carry (AFGS1 is
// the only format this module serializes, so no ambiguity arises from
// abbreviations such as AR for autoregressive).
type FilmGrainParams struct {
	FilmGrainParamSetIdx int // 0..7

	ApplyGrain bool
	GrainSeed  uint16

	UpdateParameters bool

	ApplyHorzResolution int // 0..4095
	ApplyVertResolution int // 0..4095

	LumaOnlyFlag bool // fixed false in this profile

	SubsamplingX bool // fixed true (4:2:0 only)
	SubsamplingY bool // fixed true

	VideoSignalCharacteristicsFlag bool // fixed false

	NumYPoints      int // 0..14
	ScalingPointsY  [MaxYPoints]Point

	ChromaScalingFromLuma bool

	NumCbPoints     int // 0..10
	ScalingPointsCb [MaxCbPoints]Point
	NumCrPoints     int // 0..10
	ScalingPointsCr [MaxCrPoints]Point

	ScalingShift int // 8..11

	ARCoeffLag int // 0..3
	// Active lengths are 2*lag*(lag+1) for Y and 2*lag*(lag+1)+1 for Cb/Cr.
	ARCoeffsY  [24]int8
	ARCoeffsCb [25]int8
	ARCoeffsCr [25]int8

	ARCoeffShift int // 6..9

	GrainScaleShift int // 0..3

	CbMult     uint8
	CbLumaMult uint8
	CbOffset   uint16 // 9-bit

	CrMult     uint8
	CrLumaMult uint8
	CrOffset   uint16 // 9-bit

	OverlapFlag            bool
	ClipToRestrictedRange  bool
}

// NumPosLuma returns 2*lag*(lag+1), the number of active Y AR coefficients.
func (p *FilmGrainParams) NumPosLuma() int {
	return 2 * p.ARCoeffLag * (p.ARCoeffLag + 1)
}

// NumPosChroma returns the number of active Cb/Cr AR coefficients: NumPosLuma
// plus one, unless there are no Y scaling points at all, in which case it
// equals NumPosLuma (per AFGS1 §4.5.1 step 17).
func (p *FilmGrainParams) NumPosChroma() int {
	if p.NumYPoints > 0 {
		return p.NumPosLuma() + 1
	}
	return p.NumPosLuma()
}

// Clone returns a deep copy of p. The database hands out value copies of
// its records and BufferModel.Update stores clones, so that orchestrator
// mutation (seed update, elision) never reaches shared storage.
func (p *FilmGrainParams) Clone() *FilmGrainParams {
	cp := *p
	return &cp
}

// Equal reports whether p and o would be considered the same parameter set
// by a conforming decoder's buffer model: every field is compared except
// GrainSeed (which varies per picture by design), UpdateParameters (see the
// note in the body) and array entries
// beyond each array's declared active length (trailing, unused slots are
// ignored). This is the relation BufferModel.Find uses to detect that a
// parameter set can be elided (update_parameters = 0) on retransmission.
func (p *FilmGrainParams) Equal(o *FilmGrainParams) bool {
	if p == nil || o == nil {
		return p == o
	}
	switch {
	case p.FilmGrainParamSetIdx != o.FilmGrainParamSetIdx,
		p.ApplyGrain != o.ApplyGrain,
		p.ApplyHorzResolution != o.ApplyHorzResolution,
		p.ApplyVertResolution != o.ApplyVertResolution,
		p.LumaOnlyFlag != o.LumaOnlyFlag,
		p.SubsamplingX != o.SubsamplingX,
		p.SubsamplingY != o.SubsamplingY,
		p.VideoSignalCharacteristicsFlag != o.VideoSignalCharacteristicsFlag,
		p.NumYPoints != o.NumYPoints,
		p.ChromaScalingFromLuma != o.ChromaScalingFromLuma,
		p.NumCbPoints != o.NumCbPoints,
		p.NumCrPoints != o.NumCrPoints,
		p.ScalingShift != o.ScalingShift,
		p.ARCoeffLag != o.ARCoeffLag,
		p.ARCoeffShift != o.ARCoeffShift,
		p.GrainScaleShift != o.GrainScaleShift,
		p.CbMult != o.CbMult,
		p.CbLumaMult != o.CbLumaMult,
		p.CbOffset != o.CbOffset,
		p.CrMult != o.CrMult,
		p.CrLumaMult != o.CrLumaMult,
		p.CrOffset != o.CrOffset,
		p.OverlapFlag != o.OverlapFlag,
		p.ClipToRestrictedRange != o.ClipToRestrictedRange:
		return false
	}
	// update_parameters is not compared: it is deliberately overwritten to
	// false by elision and must not prevent a match against the record that
	// caused the elision.
	if !p.ApplyGrain {
		return true
	}
	if !pointsEqual(p.ScalingPointsY[:p.NumYPoints], o.ScalingPointsY[:o.NumYPoints]) {
		return false
	}
	if !pointsEqual(p.ScalingPointsCb[:p.NumCbPoints], o.ScalingPointsCb[:o.NumCbPoints]) {
		return false
	}
	if !pointsEqual(p.ScalingPointsCr[:p.NumCrPoints], o.ScalingPointsCr[:o.NumCrPoints]) {
		return false
	}
	if p.NumYPoints > 0 && !arEqual(p.ARCoeffsY[:p.NumPosLuma()], o.ARCoeffsY[:o.NumPosLuma()]) {
		return false
	}
	if (p.NumCbPoints > 0 || p.ChromaScalingFromLuma) &&
		!arEqual(p.ARCoeffsCb[:p.NumPosChroma()], o.ARCoeffsCb[:o.NumPosChroma()]) {
		return false
	}
	if (p.NumCrPoints > 0 || p.ChromaScalingFromLuma) &&
		!arEqual(p.ARCoeffsCr[:p.NumPosChroma()], o.ARCoeffsCr[:o.NumPosChroma()]) {
		return false
	}
	return true
}

func pointsEqual(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func arEqual(a, b []int8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
