package server

import (
	"net"
	"time"

	"github.com/jborges/sdtp/internal/session"
	"github.com/jborges/sdtp/internal/wire"
)

// State is a server-side connection's position in the FSM from §3.2.
type State int

const (
	WaitSyn State = iota
	WaitAck
	Established
	Closed
)

func (s State) String() string {
	switch s {
	case WaitSyn:
		return "WAIT_SYN"
	case WaitAck:
		return "WAIT_ACK"
	case Established:
		return "ESTABLISHED"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection is the per-peer record keyed by (peer_ip, peer_port) in the
// server's connection table.
type Connection struct {
	ID           string // xid correlation ID, ambient only -- not on the wire
	Addr         *net.UDPAddr
	State        State
	ExpSeq       uint16
	Window       uint16
	Buffer       []byte
	maxBufBytes  int
	LastActivity time.Time
}

func newConnection(addr *net.UDPAddr, maxBufBytes int) *Connection {
	return &Connection{
		ID:           session.NewID(),
		Addr:         addr,
		State:        WaitSyn,
		ExpSeq:       0,
		Buffer:       make([]byte, 0, maxBufBytes),
		maxBufBytes:  maxBufBytes,
		LastActivity: time.Now(),
	}
}

// accept copies datalen bytes from payload into the buffer at the segment's
// seqnum offset, growing the buffer as needed up to the connection's
// declared maximum. It reports whether the data fit.
func (c *Connection) accept(seg wire.Segment) bool {
	end := int(seg.Seq) + len(seg.Payload)
	if end > c.maxBufBytes {
		return false
	}
	if end > len(c.Buffer) {
		grown := make([]byte, end)
		copy(grown, c.Buffer)
		c.Buffer = grown
	}
	copy(c.Buffer[seg.Seq:end], seg.Payload)
	return true
}
