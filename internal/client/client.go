// Package client implements the SDTP client FSM: a single stop-and-wait
// upload of a fixed payload, described in §4.3.
package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jborges/sdtp/internal/datagram"
	"github.com/jborges/sdtp/internal/telemetry"
	"github.com/jborges/sdtp/internal/wire"
)

// State is the client session's position in its FSM, per §3.3.
type State int

const (
	SendSyn State = iota
	AwaitSynAck
	SendAck
	Sending
	SendFin
	AwaitFinAck
	Done
)

func (s State) String() string {
	switch s {
	case SendSyn:
		return "SEND_SYN"
	case AwaitSynAck:
		return "AWAIT_SYNACK"
	case SendAck:
		return "SEND_ACK"
	case Sending:
		return "SENDING"
	case SendFin:
		return "SEND_FIN"
	case AwaitFinAck:
		return "AWAIT_FINACK"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// ErrMaxRetriesExceeded is returned when Config.MaxRetries > 0 and a single
// segment has been retransmitted that many times without a valid reply.
var ErrMaxRetriesExceeded = errors.New("client: max retries exceeded")

// Config configures a single client session.
type Config struct {
	ServerHost string
	ServerPort int
	Payload    []byte

	DataTimeout      time.Duration // default 1000ms, per §4.3
	HandshakeTimeout time.Duration // default 10000ms, per §4.3
	MaxRetries       int           // 0 = unbounded, matching the reference

	Logger *logrus.Logger
}

// Client drives one upload session against one server.
type Client struct {
	cfg      Config
	socket   *datagram.Socket
	state    State
	ackBytes int
	window   uint16
	log      *logrus.Logger
}

// New connects the client's socket to the server.
func New(cfg Config) (*Client, error) {
	if cfg.DataTimeout == 0 {
		cfg.DataTimeout = 1000 * time.Millisecond
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10000 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NewLogger(logrus.InfoLevel)
	}

	sock, err := datagram.Connect(cfg.ServerHost, cfg.ServerPort)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, socket: sock, state: SendSyn, log: cfg.Logger}, nil
}

// Close releases the client's socket.
func (c *Client) Close() error {
	return c.socket.Close()
}

// Run drives the FSM to completion: SYN -> SYN-ACK -> ACK -> (DATA/ACK)* ->
// FIN -> ACK or RST; no final ACK follows the server's reply to FIN. It
// returns ok=true only if the server's final reply was ACK (the payload
// checksum matched at the server).
func (c *Client) Run(ctx context.Context) (ok bool, err error) {
	recvBuf := make([]byte, wire.MaxSegment)
	retries := 0

	for c.state != Done {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		c.log.WithField("state", c.state).Debug("fsm step")

		switch c.state {
		case SendSyn:
			if err := c.send(wire.Segment{Header: wire.Header{Flags: wire.FlagSYN}}); err != nil {
				return false, err
			}
			c.state = AwaitSynAck

		case AwaitSynAck:
			seg, recvErr := c.recvValid(recvBuf, c.cfg.HandshakeTimeout)
			switch {
			case recvErr == datagram.ErrTimeout:
				if err := c.countRetry(&retries); err != nil {
					return false, err
				}
				c.state = SendSyn
			case recvErr != nil:
				return false, recvErr
			case seg.Kind() == wire.KindSynAck:
				c.window = seg.Window
				c.state = SendAck
				retries = 0
			default:
				if err := c.countRetry(&retries); err != nil {
					return false, err
				}
				c.state = SendSyn
			}

		case SendAck:
			if err := c.send(wire.Segment{Header: wire.Header{Flags: wire.FlagACK}}); err != nil {
				return false, err
			}
			c.ackBytes = 0
			c.state = Sending

		case Sending:
			_, done, err := c.stepSending(recvBuf, &retries)
			if err != nil {
				return false, err
			}
			if done {
				c.state = SendFin
			}

		case SendFin:
			if err := c.send(wire.Segment{Header: wire.Header{Seq: uint16(c.ackBytes), Flags: wire.FlagFIN}}); err != nil {
				return false, err
			}
			c.state = AwaitFinAck

		case AwaitFinAck:
			seg, recvErr := c.recvValid(recvBuf, c.cfg.HandshakeTimeout)
			switch {
			case recvErr == datagram.ErrTimeout:
				if err := c.countRetry(&retries); err != nil {
					return false, err
				}
				c.state = SendFin
			case recvErr != nil:
				return false, recvErr
			case seg.Kind() == wire.KindAck:
				c.state = Done
				return true, nil
			case seg.Kind() == wire.KindRst:
				c.state = Done
				return false, nil
			default:
				if err := c.countRetry(&retries); err != nil {
					return false, err
				}
				c.state = SendFin
			}
		}
	}
	return true, nil
}

// stepSending sends the next chunk (or transitions out of Sending once the
// payload is exhausted) and waits for its matched ACK, retransmitting on
// timeout or mismatch per §4.3.
func (c *Client) stepSending(recvBuf []byte, retries *int) (advanced bool, done bool, err error) {
	remaining := len(c.cfg.Payload) - c.ackBytes
	if remaining <= 0 {
		return false, true, nil
	}

	n := remaining
	if n > int(c.window) {
		n = int(c.window)
	}
	if n > wire.MSS {
		n = wire.MSS
	}
	if n == 0 {
		// Window=0 stalls transmission but must still honor retransmission
		// timers; there is nothing to send, so just wait out one timeout.
		time.Sleep(c.cfg.DataTimeout)
		return false, false, nil
	}

	chunk := c.cfg.Payload[c.ackBytes : c.ackBytes+n]
	seg := wire.Segment{Header: wire.Header{Seq: uint16(c.ackBytes)}, Payload: chunk}
	if err := c.send(seg); err != nil {
		return false, false, err
	}

	reply, recvErr := c.recvValid(recvBuf, c.cfg.DataTimeout)
	switch {
	case recvErr == datagram.ErrTimeout:
		return false, false, c.countRetry(retries)
	case recvErr != nil:
		return false, false, recvErr
	case reply.Kind() == wire.KindAck && int(reply.Ack) == c.ackBytes+n:
		c.ackBytes += n
		c.window = reply.Window
		*retries = 0
		return true, false, nil
	default:
		return false, false, c.countRetry(retries)
	}
}

func (c *Client) countRetry(retries *int) error {
	*retries++
	if c.cfg.MaxRetries > 0 && *retries > c.cfg.MaxRetries {
		return ErrMaxRetriesExceeded
	}
	if c.log != nil {
		c.log.WithField("retries", *retries).Debug("retransmitting")
	}
	return nil
}

func (c *Client) send(seg wire.Segment) error {
	return c.socket.Send(wire.Encode(seg))
}

// recvValid waits up to timeout, silently discarding any segment that
// fails the checksum -- a corrupt segment is dropped and the client keeps
// waiting out the same timeout window, per §7.
func (c *Client) recvValid(buf []byte, timeout time.Duration) (wire.Segment, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return wire.Segment{}, datagram.ErrTimeout
		}
		n, _, err := c.socket.RecvWithTimeout(buf, remaining)
		if err == datagram.ErrTimeout {
			return wire.Segment{}, datagram.ErrTimeout
		}
		if err != nil {
			return wire.Segment{}, err
		}
		if !wire.Verify(buf[:n]) {
			continue
		}
		seg, err := wire.Decode(buf[:n])
		if err != nil {
			continue
		}
		return seg, nil
	}
}
