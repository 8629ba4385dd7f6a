// Package wire implements the SDTP segment header: fixed-size encode/decode
// and the RFC 1071 checksum shared by both client and server.
package wire

import (
	"fmt"
)

// Header layout, in wire order. All multi-byte fields are written in the
// codec's fixed endianness (see ByteOrder below) rather than network byte
// order -- this mirrors the reference implementation, which walks the raw
// header as native uint16_t words, and is intentionally not "fixed" here
// (see DESIGN.md's open-question log).
const (
	HeaderLen  = 10
	MSS        = 255 // maximum payload bytes per segment
	MaxSegment = HeaderLen + MSS
	LoremSize  = 6328 // expected payload length for the reference deployment
)

// Flag bits. PUSH and URG are reserved and never set by this implementation.
const (
	FlagFIN  Flags = 0x01
	FlagSYN  Flags = 0x02
	FlagRST  Flags = 0x04
	FlagPUSH Flags = 0x08
	FlagACK  Flags = 0x10
	FlagURG  Flags = 0x20
)

// Vestigial RTT-estimation constants from the reference header. Congestion
// control and RTT-driven adaptive timeouts are an explicit non-goal; these
// exist only so a reader can see what the original left on the table.
const (
	rttAlpha        = 0.125
	rttBeta         = 0.25
	rttEstimatedInitMS = 250
	rttDevInitMS       = 0
)

// ByteOrder is the codec's fixed serialization order for multi-byte header
// fields. The reference server and client agree only because they run on
// the same architecture; this implementation keeps that assumption explicit
// instead of silently promoting it to network byte order.
var ByteOrder = littleEndian{}

type Flags uint8

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) String() string {
	if f == 0 {
		return "DATA"
	}
	s := ""
	for _, pair := range []struct {
		bit  Flags
		name string
	}{
		{FlagSYN, "SYN"}, {FlagACK, "ACK"}, {FlagFIN, "FIN"}, {FlagRST, "RST"},
		{FlagPUSH, "PUSH"}, {FlagURG, "URG"},
	} {
		if f.Has(pair.bit) {
			if s != "" {
				s += "|"
			}
			s += pair.name
		}
	}
	return s
}

// Header is the fixed 10-byte SDTP segment header.
type Header struct {
	Seq      uint16
	Ack      uint16
	DataLen  uint8
	Flags    Flags
	Window   uint16
	Checksum uint16
}

// Kind classifies a decoded segment by its flag combination, per the
// sum-type re-architecture suggested for the server FSM dispatch.
type Kind int

const (
	KindData Kind = iota
	KindSyn
	KindSynAck
	KindAck
	KindFin
	KindRst
	KindUnknown
)

func (h Header) Kind() Kind {
	switch h.Flags {
	case FlagRST:
		return KindRst
	case FlagFIN:
		return KindFin
	case FlagSYN | FlagACK:
		return KindSynAck
	case FlagSYN:
		return KindSyn
	case FlagACK:
		return KindAck
	case 0:
		return KindData
	default:
		return KindUnknown
	}
}

// Segment is a decoded header plus its payload.
type Segment struct {
	Header
	Payload []byte
}

func (s Segment) String() string {
	return fmt.Sprintf("seq=%d ack=%d len=%d flags=%s win=%d sum=0x%04x",
		s.Seq, s.Ack, s.DataLen, s.Flags, s.Window, s.Checksum)
}

// Encode serializes seg into a fresh buffer, computing and stamping the
// checksum over header+payload with the checksum field zeroed, per §4.1.
func Encode(seg Segment) []byte {
	if len(seg.Payload) > MSS {
		panic("wire: payload exceeds MSS")
	}
	buf := make([]byte, HeaderLen+len(seg.Payload))
	seg.Header.DataLen = uint8(len(seg.Payload))
	seg.Header.Checksum = 0
	putHeader(buf, seg.Header)
	copy(buf[HeaderLen:], seg.Payload)

	sum := Checksum16(buf)
	ByteOrder.PutUint16(buf[8:10], sum)
	return buf
}

// Decode parses the fixed header and payload from buf without verifying
// the checksum. Callers that need to trust the segment must call Verify
// first.
func Decode(buf []byte) (Segment, error) {
	if len(buf) < HeaderLen {
		return Segment{}, fmt.Errorf("wire: short segment (%d bytes)", len(buf))
	}
	h := getHeader(buf)
	end := HeaderLen + int(h.DataLen)
	if end > len(buf) {
		return Segment{}, fmt.Errorf("wire: datalen %d exceeds buffer (%d bytes)", h.DataLen, len(buf))
	}
	payload := make([]byte, h.DataLen)
	copy(payload, buf[HeaderLen:end])
	return Segment{Header: h, Payload: payload}, nil
}

// Verify recomputes the RFC 1071 checksum over exactly header+datalen bytes
// of buf, including the transmitted checksum field, and reports whether the
// segment is intact.
func Verify(buf []byte) bool {
	if len(buf) < HeaderLen {
		return false
	}
	datalen := int(buf[4])
	end := HeaderLen + datalen
	if end > len(buf) {
		return false
	}
	return Checksum16(buf[:end]) == 0
}

func putHeader(buf []byte, h Header) {
	ByteOrder.PutUint16(buf[0:2], h.Seq)
	ByteOrder.PutUint16(buf[2:4], h.Ack)
	buf[4] = h.DataLen
	buf[5] = byte(h.Flags)
	ByteOrder.PutUint16(buf[6:8], h.Window)
	ByteOrder.PutUint16(buf[8:10], h.Checksum)
}

func getHeader(buf []byte) Header {
	return Header{
		Seq:      ByteOrder.Uint16(buf[0:2]),
		Ack:      ByteOrder.Uint16(buf[2:4]),
		DataLen:  buf[4],
		Flags:    Flags(buf[5]),
		Window:   ByteOrder.Uint16(buf[6:8]),
		Checksum: ByteOrder.Uint16(buf[8:10]),
	}
}

// littleEndian is a minimal byte-order helper kept local to this package so
// the fixed serialization choice is not silently inherited from whatever
// encoding/binary.ByteOrder a caller happens to import.
type littleEndian struct{}

func (littleEndian) Uint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func (littleEndian) PutUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
