package paramset

import (
	"strings"
	"testing"
)

func TestReaderMinimalEntry(t *testing.T) {
	const file = "filmgrn1\nE 0 83333333 0 0 0"
	r, err := NewReader(strings.NewReader(file))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.StartTime != 0 || rec.EndTime != 83333333 {
		t.Errorf("got interval [%d,%d), want [0,83333333)", rec.StartTime, rec.EndTime)
	}
	if rec.Params.ApplyGrain {
		t.Error("apply_grain should be false")
	}
}

func TestReaderFullEntry(t *testing.T) {
	const file = "filmgrn1\n" +
		"E 0 100 1 1000 1\n" +
		"p 0 6 0 8 0 1 1 2 3 4 5 6\n" +
		"sY 2 0 0 64 128\n" +
		"sCb 0\n" +
		"sCr 0\n" +
		"cY\n" +
		"cCb 0\n" +
		"cCr 0\n"
	r, err := NewReader(strings.NewReader(file))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	p := recs[0].Params
	if !p.ApplyGrain || !p.UpdateParameters {
		t.Fatal("expected apply_grain and update_parameters set")
	}
	if p.NumYPoints != 2 || p.ScalingPointsY[0] != (Point{0, 0}) || p.ScalingPointsY[1] != (Point{64, 128}) {
		t.Errorf("unexpected Y scaling points: %+v", p.ScalingPointsY[:p.NumYPoints])
	}
	if p.ARCoeffLag != 0 || p.ARCoeffShift != 6 || p.ScalingShift != 8 {
		t.Errorf("unexpected p-line fields: lag=%d shift=%d scaling_shift=%d", p.ARCoeffLag, p.ARCoeffShift, p.ScalingShift)
	}
	if p.CbMult != 1 || p.CbLumaMult != 2 || p.CbOffset != 3 {
		t.Errorf("unexpected cb fields: %d %d %d", p.CbMult, p.CbLumaMult, p.CbOffset)
	}
}

// TestReaderChromaCoeffCountIgnoresNumYPoints covers NumYPoints==0 with
// ARCoeffLag>0 (legal per Validate): cCb/cCr must always read
// 2*lag*(lag+1)+1 coefficients, unlike the serializer's NumPosChroma(),
// which omits the "+1" when num_y_points==0. A following entry confirms
// the scanner stays in sync rather than under-reading a token.
func TestReaderChromaCoeffCountIgnoresNumYPoints(t *testing.T) {
	const file = "filmgrn1\n" +
		"E 0 100 1 1000 1\n" +
		"p 1 6 0 8 0 1 1 2 3 4 5 6\n" +
		"sY 0\n" +
		"sCb 0\n" +
		"sCr 0\n" +
		"cY 1 2 3 4\n" +
		"cCb 1 2 3 4 5\n" +
		"cCr 1 2 3 4 5\n" +
		"E 100 200 0 0 0\n"
	r, err := NewReader(strings.NewReader(file))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (scanner desynchronized)", len(recs))
	}
	p := recs[0].Params
	if p.NumYPoints != 0 || p.ARCoeffLag != 1 {
		t.Fatalf("unexpected setup: num_y_points=%d ar_coeff_lag=%d", p.NumYPoints, p.ARCoeffLag)
	}
	wantCb := []int8{1, 2, 3, 4, 5}
	for i, want := range wantCb {
		if p.ARCoeffsCb[i] != want {
			t.Errorf("ARCoeffsCb[%d] = %d, want %d", i, p.ARCoeffsCb[i], want)
		}
	}
	wantCr := []int8{1, 2, 3, 4, 5}
	for i, want := range wantCr {
		if p.ARCoeffsCr[i] != want {
			t.Errorf("ARCoeffsCr[%d] = %d, want %d", i, p.ARCoeffsCr[i], want)
		}
	}
	if recs[1].StartTime != 100 || recs[1].EndTime != 200 {
		t.Errorf("second entry mismatch: got [%d,%d), want [100,200)", recs[1].StartTime, recs[1].EndTime)
	}
}

func TestReaderMultipleEntries(t *testing.T) {
	const file = "filmgrn1\nE 0 50 0 0 0\nE 50 100 0 0 0\n"
	r, err := NewReader(strings.NewReader(file))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].EndTime != recs[1].StartTime {
		t.Errorf("expected contiguous intervals, got end=%d next start=%d", recs[0].EndTime, recs[1].StartTime)
	}
}

func TestReaderRejectsBadHeader(t *testing.T) {
	_, err := NewReader(strings.NewReader("nothdr123"))
	if err == nil {
		t.Fatal("expected error for bad header")
	}
}

func TestReaderRejectsTruncatedEntry(t *testing.T) {
	const file = "filmgrn1\nE 0 100 1"
	r, err := NewReader(strings.NewReader(file))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.ReadAll(); err == nil {
		t.Fatal("expected error for truncated entry")
	}
}
