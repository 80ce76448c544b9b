/*
NAME
  reader.go parses the textual "filmgrn1" parameter file format produced by
  an external noise-modeling tool into a sequence of film grain parameter
  records.

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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMalformed is the sentinel wrapped by all filmgrn1 parse failures.
var ErrMalformed = errors.New("paramset: malformed filmgrn1 file")

const header = "filmgrn1"

// Record is one (start_time, end_time, params) entry parsed from a filmgrn1
// file. Times are in 100-ns ticks. Resolution and index are not part of the
// filmgrn1 grammar; they are filled in by the caller (the database, which
// knows the file's associated resolution and assigned param-set index).
type Record struct {
	StartTime int64
	EndTime   int64
	Params    FilmGrainParams
}

// Reader parses the filmgrn1 grammar from an io.Reader.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a Reader that will parse r as a filmgrn1 file. It
// validates the 8-byte "filmgrn1" header and consumes the following byte
// (historically a newline) before returning.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	hdr := make([]byte, len(header))
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, fmt.Errorf("%w: could not read header: %v", ErrMalformed, err)
	}
	if string(hdr) != header {
		return nil, fmt.Errorf("%w: header is %q, want %q", ErrMalformed, hdr, header)
	}
	if _, err := br.ReadByte(); err != nil {
		return nil, fmt.Errorf("%w: could not read byte following header: %v", ErrMalformed, err)
	}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}, nil
}

// ReadAll parses every entry in the file and returns them in file order.
func (r *Reader) ReadAll() ([]Record, error) {
	var recs []Record
	for {
		rec, ok, err := r.readEntry()
		if err != nil {
			return nil, err
		}
		if !ok {
			return recs, nil
		}
		recs = append(recs, rec)
	}
}

// next returns the next whitespace-delimited token, or ("", false) at EOF.
func (r *Reader) next() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	return r.sc.Text(), true
}

// expect returns the next token or a "%w: expected X, found end of file"-
// style error if none remains.
func (r *Reader) expect(what string) (string, error) {
	tok, ok := r.next()
	if !ok {
		if err := r.sc.Err(); err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", ErrMalformed, what, err)
		}
		return "", fmt.Errorf("%w: expected %s, found end of file", ErrMalformed, what)
	}
	return tok, nil
}

func (r *Reader) expectInt(what string) (int64, error) {
	tok, err := r.expect(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrMalformed, what, tok)
	}
	return n, nil
}

func (r *Reader) expectLiteral(what string) error {
	tok, err := r.expect(what)
	if err != nil {
		return err
	}
	if tok != what {
		return fmt.Errorf("%w: expected literal %q, found %q", ErrMalformed, what, tok)
	}
	return nil
}

// readEntry reads one "E ..." entry. ok is false (with a nil error) only
// when the file is exhausted between entries.
func (r *Reader) readEntry() (rec Record, ok bool, err error) {
	tok, present := r.next()
	if !present {
		return Record{}, false, nil
	}
	if tok != "E" {
		return Record{}, false, fmt.Errorf("%w: expected entry marker %q, found %q", ErrMalformed, "E", tok)
	}

	start, err := r.expectInt("start_time")
	if err != nil {
		return Record{}, false, err
	}
	end, err := r.expectInt("end_time")
	if err != nil {
		return Record{}, false, err
	}
	applyGrain, err := r.expectInt("apply_grain")
	if err != nil {
		return Record{}, false, err
	}
	seed, err := r.expectInt("grain_seed")
	if err != nil {
		return Record{}, false, err
	}
	update, err := r.expectInt("update_parameters")
	if err != nil {
		return Record{}, false, err
	}

	p := FilmGrainParams{
		ApplyGrain:       applyGrain != 0,
		GrainSeed:        uint16(seed),
		UpdateParameters: update != 0,
		SubsamplingX:     true,
		SubsamplingY:     true,
	}

	if p.UpdateParameters {
		if err := r.readUpdateBody(&p); err != nil {
			return Record{}, false, err
		}
	}

	return Record{StartTime: start, EndTime: end, Params: p}, true, nil
}

// readUpdateBody reads the "p", "sY", "sCb", "sCr", "cY", "cCb", "cCr"
// subsections present when update_parameters != 0.
func (r *Reader) readUpdateBody(p *FilmGrainParams) error {
	if err := r.expectLiteral("p"); err != nil {
		return err
	}
	vals, err := r.expectInts("p fields", 12)
	if err != nil {
		return err
	}
	p.ARCoeffLag = int(vals[0])
	p.ARCoeffShift = int(vals[1])
	p.GrainScaleShift = int(vals[2])
	p.ScalingShift = int(vals[3])
	p.ChromaScalingFromLuma = vals[4] != 0
	p.OverlapFlag = vals[5] != 0
	p.CbMult = uint8(vals[6])
	p.CbLumaMult = uint8(vals[7])
	p.CbOffset = uint16(vals[8])
	p.CrMult = uint8(vals[9])
	p.CrLumaMult = uint8(vals[10])
	p.CrOffset = uint16(vals[11])

	n, err := r.readPoints("sY", p.ScalingPointsY[:])
	if err != nil {
		return err
	}
	p.NumYPoints = n

	n, err = r.readPoints("sCb", p.ScalingPointsCb[:])
	if err != nil {
		return err
	}
	p.NumCbPoints = n

	n, err = r.readPoints("sCr", p.ScalingPointsCr[:])
	if err != nil {
		return err
	}
	p.NumCrPoints = n

	numPosLuma := p.NumPosLuma()
	if err := r.readCoeffs("cY", p.ARCoeffsY[:], numPosLuma); err != nil {
		return err
	}
	// cCb/cCr are always 2*lag*(lag+1)+1 coefficients in the filmgrn1
	// grammar, unlike the serializer's NumPosChroma() (which drops the +1
	// when num_y_points==0, per §4.5.1 steps 17/18 of the bitstream
	// syntax). The two must not be conflated here.
	numCoeffsChroma := 2*p.ARCoeffLag*(p.ARCoeffLag+1) + 1
	if err := r.readCoeffs("cCb", p.ARCoeffsCb[:], numCoeffsChroma); err != nil {
		return err
	}
	if err := r.readCoeffs("cCr", p.ARCoeffsCr[:], numCoeffsChroma); err != nil {
		return err
	}
	return nil
}

// expectInts reads n decimal integers in sequence, labeled what for errors.
func (r *Reader) expectInts(what string, n int) ([]int64, error) {
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := r.expectInt(fmt.Sprintf("%s[%d]", what, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// readPoints reads "<label> <count> [<x> <y>]*count" into dst, returning
// count. dst must be large enough to hold count points; a count exceeding
// cap(dst) is a malformed-file error (too many points for this category).
func (r *Reader) readPoints(label string, dst []Point) (int, error) {
	if err := r.expectLiteral(label); err != nil {
		return 0, err
	}
	count, err := r.expectInt(label + " count")
	if err != nil {
		return 0, err
	}
	if count < 0 || int(count) > len(dst) {
		return 0, fmt.Errorf("%w: %s count %d exceeds maximum of %d", ErrMalformed, label, count, len(dst))
	}
	for i := int64(0); i < count; i++ {
		x, err := r.expectInt(fmt.Sprintf("%s[%d].x", label, i))
		if err != nil {
			return 0, err
		}
		y, err := r.expectInt(fmt.Sprintf("%s[%d].y", label, i))
		if err != nil {
			return 0, err
		}
		dst[i] = Point{X: uint8(x), Y: uint8(y)}
	}
	return int(count), nil
}

// readCoeffs reads "<label> <coeff>*n" into dst[:n].
func (r *Reader) readCoeffs(label string, dst []int8, n int) error {
	if err := r.expectLiteral(label); err != nil {
		return err
	}
	if n > len(dst) {
		return fmt.Errorf("%w: %s requires %d coefficients, only %d available", ErrMalformed, label, n, len(dst))
	}
	for i := 0; i < n; i++ {
		v, err := r.expectInt(fmt.Sprintf("%s[%d]", label, i))
		if err != nil {
			return err
		}
		if v < -128 || v > 127 {
			return fmt.Errorf("%w: %s[%d]=%d out of range -128..127", ErrMalformed, label, i, v)
		}
		dst[i] = int8(v)
	}
	return nil
}
