/*
NAME
  sei.go wraps an AFGS1 payload byte sequence inside a user-data-registered-
  by-ITU-T-T.35 SEI message and a prefix SEI NAL unit, ready to be spliced
  into a host H.264/H.265 elementary stream immediately before a picture's
  first coded slice (§6.3).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package nal

// seiPayloadTypeUserDataRegistered is the SEI payload type for
// user_data_registered_itu_t_t35 (ITU-T H.264/H.265 Table D.1, payload
// type 4).
const seiPayloadTypeUserDataRegistered = 4

// t35Prefix is the ITU-T T.35 envelope this project's AFGS1 SEI carries:
// itu_t_t35_country_code 0xB5 (United States), followed by the AFGS1 AOM
// provider identification bytes.
var t35Prefix = []byte{0xB5, 0x58, 0x90, 0x01}

// T35Payload returns afgs1Bytes wrapped in its ITU-T T.35 envelope, as an
// independent capability producing a (country_code, provider_bytes,
// payload_bytes) triple abstractly - see design notes on keeping this
// composition-based and free of any host video SEI type hierarchy.
func T35Payload(afgs1Bytes []byte) []byte {
	out := make([]byte, 0, len(t35Prefix)+len(afgs1Bytes))
	out = append(out, t35Prefix...)
	out = append(out, afgs1Bytes...)
	return out
}

// BuildSEIUnit constructs a complete prefix SEI NAL unit (NAL header +
// sei_message + rbsp_trailing_bits, with emulation prevention applied)
// carrying a user_data_registered_itu_t_t35 payload wrapping afgs1Bytes.
func BuildSEIUnit(afgs1Bytes []byte, codec Codec) Unit {
	t35 := T35Payload(afgs1Bytes)

	var rbsp []byte
	rbsp = append(rbsp, encodeSEISizeField(seiPayloadTypeUserDataRegistered)...)
	rbsp = append(rbsp, encodeSEISizeField(len(t35))...)
	rbsp = append(rbsp, t35...)
	rbsp = append(rbsp, 0x80) // rbsp_trailing_bits: stop bit then zero padding (already byte aligned).

	var header []byte
	var nalType int
	if codec == H264 {
		nalType = H264TypeSEI
		header = []byte{byte(nalType & 0x1f)} // forbidden_zero_bit=0, nal_ref_idc=0, nal_unit_type=SEI.
	} else {
		nalType = H265TypePrefixSEI
		header = []byte{byte((nalType & 0x3f) << 1), 0x01} // nuh_layer_id=0, nuh_temporal_id_plus1=1.
	}

	payload := make([]byte, 0, len(header)+len(rbsp)+len(rbsp)/2)
	payload = append(payload, header...)
	payload = append(payload, emulationPrevent(rbsp)...)

	return Unit{Type: nalType, Payload: payload}
}

// encodeSEISizeField encodes an SEI payloadType/payloadSize field: as many
// 0xFF bytes as needed to express n in multiples of 255, followed by the
// remainder byte (ITU-T H.264/H.265 §7.3.2.3.1).
func encodeSEISizeField(n int) []byte {
	var out []byte
	for n >= 255 {
		out = append(out, 0xff)
		n -= 255
	}
	out = append(out, byte(n))
	return out
}

// emulationPrevent inserts an emulation_prevention_three_byte (0x03) after
// every 00 00 sequence that would otherwise be followed by a byte <= 0x03,
// per the Annex B RBSP-to-byte-stream mapping.
func emulationPrevent(rbsp []byte) []byte {
	out := make([]byte, 0, len(rbsp)+len(rbsp)/2)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
