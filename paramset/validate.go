/*
NAME
  validate.go checks that a FilmGrainParams' fields fall within the ranges
  the AFGS1 syntax requires, and that scaling-point arrays are strictly
  increasing in x.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package paramset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped with field-specific detail) by Validate.
var (
	ErrFieldRange       = errors.New("paramset: field out of range")
	ErrPointsNotOrdered = errors.New("paramset: scaling points not strictly increasing")
	ErrProfile          = errors.New("paramset: value violates fixed profile constraint")
)

// Validate checks p against the ranges and fixed-profile constraints of
// §3 of the AFGS1 parameter model. It does not check cross-set invariants
// (distinct resolutions/indices across a transmitted set); those are
// checked by the serializer, which sees the whole set list at once.
func (p *FilmGrainParams) Validate() error {
	if p.FilmGrainParamSetIdx < 0 || p.FilmGrainParamSetIdx > 7 {
		return fmt.Errorf("%w: film_grain_param_set_idx=%d, want 0..7", ErrFieldRange, p.FilmGrainParamSetIdx)
	}
	if !p.ApplyGrain {
		return nil
	}
	if p.ApplyHorzResolution < 0 || p.ApplyHorzResolution > 0xfff {
		return fmt.Errorf("%w: apply_horz_resolution=%d, want 0..4095", ErrFieldRange, p.ApplyHorzResolution)
	}
	if p.ApplyVertResolution < 0 || p.ApplyVertResolution > 0xfff {
		return fmt.Errorf("%w: apply_vert_resolution=%d, want 0..4095", ErrFieldRange, p.ApplyVertResolution)
	}
	if p.LumaOnlyFlag {
		return fmt.Errorf("%w: luma_only_flag must be 0 in this profile", ErrProfile)
	}
	if !p.SubsamplingX || !p.SubsamplingY {
		return fmt.Errorf("%w: subsampling_x/y must be 1 (4:2:0 only) in this profile", ErrProfile)
	}
	if p.VideoSignalCharacteristicsFlag {
		return fmt.Errorf("%w: video_signal_characteristics_flag must be 0 in this profile", ErrProfile)
	}
	if !p.UpdateParameters {
		return nil
	}
	if p.NumYPoints < 0 || p.NumYPoints > MaxYPoints {
		return fmt.Errorf("%w: num_y_points=%d, want 0..%d", ErrFieldRange, p.NumYPoints, MaxYPoints)
	}
	if err := checkIncreasing(p.ScalingPointsY[:p.NumYPoints]); err != nil {
		return fmt.Errorf("scaling_points_y: %w", err)
	}
	if p.ChromaScalingFromLuma {
		if p.NumCbPoints != 0 || p.NumCrPoints != 0 {
			return fmt.Errorf("%w: num_cb/cr_points must be 0 when chroma_scaling_from_luma is set", ErrProfile)
		}
	} else {
		if p.NumCbPoints < 0 || p.NumCbPoints > MaxCbPoints {
			return fmt.Errorf("%w: num_cb_points=%d, want 0..%d", ErrFieldRange, p.NumCbPoints, MaxCbPoints)
		}
		if p.NumCrPoints < 0 || p.NumCrPoints > MaxCrPoints {
			return fmt.Errorf("%w: num_cr_points=%d, want 0..%d", ErrFieldRange, p.NumCrPoints, MaxCrPoints)
		}
		if err := checkIncreasing(p.ScalingPointsCb[:p.NumCbPoints]); err != nil {
			return fmt.Errorf("scaling_points_cb: %w", err)
		}
		if err := checkIncreasing(p.ScalingPointsCr[:p.NumCrPoints]); err != nil {
			return fmt.Errorf("scaling_points_cr: %w", err)
		}
	}
	if p.ScalingShift < 8 || p.ScalingShift > 11 {
		return fmt.Errorf("%w: scaling_shift=%d, want 8..11", ErrFieldRange, p.ScalingShift)
	}
	if p.ARCoeffLag < 0 || p.ARCoeffLag > MaxARCoeffLag {
		return fmt.Errorf("%w: ar_coeff_lag=%d, want 0..%d", ErrFieldRange, p.ARCoeffLag, MaxARCoeffLag)
	}
	if p.ARCoeffShift < 6 || p.ARCoeffShift > 9 {
		return fmt.Errorf("%w: ar_coeff_shift=%d, want 6..9", ErrFieldRange, p.ARCoeffShift)
	}
	if p.GrainScaleShift < 0 || p.GrainScaleShift > 3 {
		return fmt.Errorf("%w: grain_scale_shift=%d, want 0..3", ErrFieldRange, p.GrainScaleShift)
	}
	if p.CbOffset > 0x1ff {
		return fmt.Errorf("%w: cb_offset=%d, want 0..511", ErrFieldRange, p.CbOffset)
	}
	if p.CrOffset > 0x1ff {
		return fmt.Errorf("%w: cr_offset=%d, want 0..511", ErrFieldRange, p.CrOffset)
	}
	return nil
}

// checkIncreasing reports an error unless pts is strictly increasing in X.
func checkIncreasing(pts []Point) error {
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			return fmt.Errorf("%w: point %d has x=%d, not greater than point %d's x=%d",
				ErrPointsNotOrdered, i, pts[i].X, i-1, pts[i-1].X)
		}
	}
	return nil
}
