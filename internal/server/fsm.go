package server

import (
	"time"

	"github.com/jborges/sdtp/internal/payload"
	"github.com/jborges/sdtp/internal/wire"
)

// Outcome is the result of feeding one inbound segment through the server
// FSM: an optional reply to transmit, and whether the connection has
// reached CLOSED (in which case the caller removes it from the table once
// the reply is actually sent, i.e. not suppressed by the fault injector).
type Outcome struct {
	Reply       *wire.Segment
	ShouldClose bool
}

// Handle implements the server FSM's priority-ordered dispatch from §4.5.
// windowFunc draws a fresh advertised window for replies that carry one.
// expectedLen/expectedSum are the precomputed payload length and checksum
// used to validate a FIN.
func Handle(c *Connection, seg wire.Segment, windowFunc func() uint16, expectedLen int, expectedSum uint16) Outcome {
	c.LastActivity = time.Now()

	switch seg.Kind() {
	case wire.KindSyn:
		if c.State == WaitSyn {
			c.State = WaitAck
		}
		c.Window = windowFunc()
		reply := wire.Segment{Header: wire.Header{
			Seq: 0, Ack: 0, Flags: wire.FlagSYN | wire.FlagACK, Window: c.Window,
		}}
		return Outcome{Reply: &reply}

	case wire.KindAck:
		if c.State == WaitAck {
			c.State = Established
		}
		return Outcome{}

	case wire.KindFin:
		if c.State != Established && c.State != Closed {
			return Outcome{}
		}
		c.State = Closed
		ok := payload.Verify(c.Buffer, expectedLen, expectedSum)
		flags := wire.FlagACK
		if !ok {
			flags = wire.FlagRST
		}
		reply := wire.Segment{Header: wire.Header{Flags: flags}}
		return Outcome{Reply: &reply, ShouldClose: true}

	case wire.KindData:
		if c.State != WaitAck && c.State != Established {
			return Outcome{}
		}
		if c.State == WaitAck {
			// The expected ACK never arrived, but data did: treat it as an
			// implicit acknowledgement of the handshake. Whether this is
			// deliberate ACK-failure tolerance or a protocol hazard is an
			// open question carried from the reference (§9) -- not fixed
			// here.
			c.State = Established
		}

		if seg.Seq == c.ExpSeq && int(seg.DataLen) <= int(c.Window) {
			if c.accept(seg) {
				c.ExpSeq += uint16(seg.DataLen)
			}
		}

		c.Window = windowFunc()
		reply := wire.Segment{Header: wire.Header{
			Ack: c.ExpSeq, Flags: wire.FlagACK, Window: c.Window,
		}}
		return Outcome{Reply: &reply}

	default:
		return Outcome{}
	}
}
