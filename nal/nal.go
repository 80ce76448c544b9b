/*
NAME
  nal.go provides Annex-B NAL unit splitting, NAL typing and IRAP detection
  for H.264 and H.265 host elementary streams. This is deliberately narrow:
  full slice header decoding (needed to recover presentation time / POC) is
  out of scope for this module and is the responsibility of the external
  host driver (§1 of the design notes); this package gives that driver just
  enough of a NAL-unit view to locate picture boundaries and IRAP pictures.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package nal provides minimal Annex-B NAL unit handling - start-code
// scanning, NAL typing, IRAP detection and T.35 SEI NAL construction -
// used to splice AFGS1 user-data SEI messages into a host H.264/H.265
// elementary stream.
package nal

import "fmt"

// Codec selects which NAL unit type numbering to interpret a stream with.
type Codec int

const (
	H264 Codec = iota
	H265
)

// H.264 NAL unit types relevant to picture boundary and IRAP detection
// (ITU-T H.264 Table 7-1).
const (
	H264TypeSliceNonIDR = 1
	H264TypeIDR         = 5
	H264TypeSEI         = 6
	H264TypeSPS         = 7
	H264TypePPS         = 8
	H264TypeAUD         = 9
)

// H.265 NAL unit types relevant to picture boundary and IRAP detection
// (ITU-T H.265 Table 7-1). IRAP pictures occupy the contiguous range
// [H265TypeBLAWLP, H265TypeRSVIRAPVCL23].
const (
	H265TypeBLAWLP       = 16
	H265TypeRSVIRAPVCL23 = 23
	H265TypePrefixSEI    = 39
	H265TypeSuffixSEI    = 40
)

// Unit is one NAL unit as found in an Annex-B byte stream: its type and its
// payload bytes (the NAL header and RBSP, not including the start code).
type Unit struct {
	Type    int
	Payload []byte
}

// Split scans an Annex-B byte stream (a sequence of NAL units delimited by
// 3- or 4-byte start codes 0x000001 / 0x00000001) and returns each NAL
// unit's type and payload, in stream order.
func Split(stream []byte, codec Codec) ([]Unit, error) {
	starts := startCodeOffsets(stream)
	if len(starts) == 0 {
		if len(stream) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("nal: no start code found in %d-byte stream", len(stream))
	}

	var units []Unit
	for i, s := range starts {
		end := len(stream)
		if i+1 < len(starts) {
			end = starts[i+1].scPos
		}
		payload := stream[s.payloadPos:end]
		if len(payload) == 0 {
			continue // Empty NAL unit: dropped here, with no warning and no trace in the result.
		}
		units = append(units, Unit{Type: nalType(payload[0], codec), Payload: payload})
	}
	return units, nil
}

type startCode struct {
	scPos      int // offset of the leading 0x00 of the start code.
	payloadPos int // offset of the first byte after the start code.
}

// startCodeOffsets finds every 00 00 01 / 00 00 00 01 start code in stream.
func startCodeOffsets(stream []byte) []startCode {
	var out []startCode
	for i := 0; i+2 < len(stream); i++ {
		if stream[i] != 0x00 || stream[i+1] != 0x00 {
			continue
		}
		switch {
		case stream[i+2] == 0x01:
			out = append(out, startCode{scPos: i, payloadPos: i + 3})
			i += 2
		case i+3 < len(stream) && stream[i+2] == 0x00 && stream[i+3] == 0x01:
			out = append(out, startCode{scPos: i, payloadPos: i + 4})
			i += 3
		}
	}
	return out
}

// nalType extracts the NAL unit type from the first payload byte, per
// codec.
func nalType(b0 byte, codec Codec) int {
	if codec == H264 {
		return int(b0 & 0x1f)
	}
	return int((b0 >> 1) & 0x3f)
}

// IsSlice reports whether u is a coded slice NAL unit (the unit type the
// orchestrator must insert the SEI immediately before, per §6.3).
func (u Unit) IsSlice(codec Codec) bool {
	if codec == H264 {
		return u.Type == H264TypeSliceNonIDR || u.Type == H264TypeIDR
	}
	return u.Type <= 31 // HEVC VCL NAL unit type range.
}

// IsIRAP reports whether u begins an intra random access point picture -
// a point at which the Orchestrator must reset its BufferModel before
// processing (§4.4, §4.6).
func (u Unit) IsIRAP(codec Codec) bool {
	if codec == H264 {
		return u.Type == H264TypeIDR
	}
	return u.Type >= H265TypeBLAWLP && u.Type <= H265TypeRSVIRAPVCL23
}

// Marshal reassembles units into an Annex-B byte stream using 4-byte start
// codes, suitable for writing out as a host elementary stream.
func Marshal(units []Unit) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, u.Payload...)
	}
	return out
}
