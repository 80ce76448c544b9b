package grainbuf

import (
	"testing"

	"github.com/ausocean/afgs1/paramset"
)

func sample(idx int, seed uint16) *paramset.FilmGrainParams {
	return &paramset.FilmGrainParams{
		FilmGrainParamSetIdx: idx,
		ApplyGrain:           true,
		UpdateParameters:     true,
		GrainSeed:            seed,
		ApplyHorzResolution:  1920,
		ApplyVertResolution:  1080,
		SubsamplingX:         true,
		SubsamplingY:         true,
		NumYPoints:           0,
		ScalingShift:         8,
		ARCoeffShift:         6,
	}
}

func TestFindMissOnEmptyBuffer(t *testing.T) {
	b := New()
	if got := b.Find(sample(0, 1)); got != -1 {
		t.Errorf("got %d, want -1 on empty buffer", got)
	}
}

func TestUpdateThenFindMatchesIgnoringSeed(t *testing.T) {
	b := New()
	first := sample(2, 100)
	b.Update(first)

	resend := sample(2, 999) // same params, different seed.
	if got := b.Find(resend); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestResetClearsAllSlots(t *testing.T) {
	b := New()
	b.Update(sample(0, 1))
	b.Update(sample(1, 1))
	b.Reset()
	if got := b.Find(sample(0, 1)); got != -1 {
		t.Errorf("got %d, want -1 after reset", got)
	}
	if got := b.Find(sample(1, 1)); got != -1 {
		t.Errorf("got %d, want -1 after reset", got)
	}
}

func TestUpdateIgnoresNonUpdatingSet(t *testing.T) {
	b := New()
	p := sample(3, 1)
	p.UpdateParameters = false // elided set; must not (re-)store.
	b.Update(p)
	if got := b.Find(p); got != -1 {
		t.Errorf("got %d, want -1: a non-updating set must not populate the buffer", got)
	}
}

func TestFindMatchesBySlotOwnIdx(t *testing.T) {
	// Because Update always stores a set at the slot named by its own idx,
	// a later query for the same table's content (same idx) is found at
	// that same slot - the common case the ascending-order scan resolves
	// deterministically even when (hypothetically) more than one slot could
	// match a loosened query.
	b := New()
	a := sample(1, 1)
	c := sample(4, 1)
	b.Update(a)
	b.Update(c)
	if got := b.Find(a); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	if got := b.Find(c); got != 4 {
		t.Errorf("got %d, want 4", got)
	}
}
