// Package server implements the SDTP server: one UDP socket multiplexing
// many client connections, each driven by the FSM in fsm.go through the
// per-peer Table.
package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jborges/sdtp/internal/datagram"
	"github.com/jborges/sdtp/internal/faultinjector"
	"github.com/jborges/sdtp/internal/telemetry"
	"github.com/jborges/sdtp/internal/wire"
)

// Config is the server's explicit, injectable configuration -- replacing
// the reference's global mutable state (connection list head, datasum,
// simulated error channel) with values passed into New, per §9.
type Config struct {
	Host string
	Port int

	// ExpectedPayload and its precomputed checksum, used to validate FIN.
	ExpectedPayload []byte
	ExpectedSum     uint16

	MaxBufferBytes int // per-connection receive buffer cap; 0 -> 2*LoremSize
	Seed           int64
	IdleTimeout    time.Duration // 0 disables the idle reaper (reference behavior)
	PollTimeout    time.Duration // 0 -> 200ms

	// DisableFaultInjection forces every inbound segment through the NONE
	// outcome, for the lossless end-to-end scenario in §8 ("fault injector
	// forced to NONE"). The window is still drawn fresh from the PRNG.
	DisableFaultInjection bool

	Logger  *logrus.Logger
	Metrics *telemetry.Metrics
}

// Server owns one socket, one connection table, and one fault injector. Its
// lifecycle is new -> Run -> Close, with no package-level mutable state.
type Server struct {
	cfg      Config
	socket   *datagram.Socket
	table    *Table
	injector *faultinjector.Injector
	log      *logrus.Logger
	metrics  *telemetry.Metrics
}

// New binds the server's socket and builds its connection table and fault
// injector from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.MaxBufferBytes == 0 {
		cfg.MaxBufferBytes = 2 * wire.LoremSize
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NewLogger(logrus.InfoLevel)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics()
	}

	sock, err := datagram.Bind(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		socket:   sock,
		table:    NewTable(cfg.MaxBufferBytes),
		injector: faultinjector.New(cfg.Seed),
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Close releases the server's socket.
func (s *Server) Close() error {
	return s.socket.Close()
}

// Table exposes the live connection table, for tests and telemetry.
func (s *Server) Table() *Table { return s.table }

// Addr reports the socket's bound local address, useful when Config.Port
// is 0 and the OS assigns an ephemeral port (as tests do).
func (s *Server) Addr() *net.UDPAddr { return s.socket.LocalAddr() }

// Run drives the event loop until ctx is cancelled. Each inbound datagram
// is processed strictly before the next recv, per §5's single-threaded
// ordering guarantee.
func (s *Server) Run(ctx context.Context) error {
	buf := make([]byte, wire.MaxSegment)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, peer, err := s.socket.RecvWithTimeout(buf, s.cfg.PollTimeout)
		if err == datagram.ErrTimeout {
			s.sweepIfEnabled()
			continue
		}
		if err != nil {
			s.log.WithError(err).Error("recv failed")
			continue
		}

		s.handleDatagram(buf[:n], peer)
	}
}

func (s *Server) sweepIfEnabled() {
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	if n := s.table.Sweep(s.cfg.IdleTimeout); n > 0 {
		s.metrics.ConnectionsActive.Sub(float64(n))
		s.log.WithField("removed", n).Warn("idle sweep evicted stale connections")
	}
}

// handleDatagram runs one inbound segment through the fault injector, the
// checksum, the connection table, and the FSM, sending a reply if one
// results and it survives the fault injector's outbound roll.
func (s *Server) handleDatagram(raw []byte, peer *net.UDPAddr) {
	s.metrics.SegmentsReceived.Inc()
	outcome := faultinjector.None
	if !s.cfg.DisableFaultInjection {
		outcome = s.injector.Sample()
	}

	sumOK := wire.Verify(raw)
	if outcome == faultinjector.LostIn || outcome == faultinjector.SumIn || !sumOK {
		reason := outcome.String()
		if !sumOK && outcome == faultinjector.None {
			reason = "checksum"
		}
		s.metrics.SegmentsDropped.WithLabelValues(reason).Inc()
		s.log.WithFields(logrus.Fields{"peer": peer, "outcome": outcome}).Debug("dropped inbound segment")
		return
	}

	seg, err := wire.Decode(raw)
	if err != nil {
		s.log.WithError(err).Warn("malformed segment accepted by checksum, discarding")
		return
	}
	if seg.DataLen == 0 && seg.Flags == 0 {
		// A flagless, zero-length segment is malformed per §8 and ignored.
		return
	}

	conn, created := s.table.GetOrCreate(peer)
	if created {
		s.metrics.ConnectionsActive.Inc()
	}

	result := Handle(conn, seg, s.injector.Window, len(s.cfg.ExpectedPayload), s.cfg.ExpectedSum)
	s.log.WithFields(logrus.Fields{
		"peer": peer, "conn": conn.ID, "in": seg.String(), "state": conn.State,
	}).Debug("processed segment")

	if result.Reply == nil {
		return
	}

	if outcome == faultinjector.LostOut {
		s.log.WithField("conn", conn.ID).Debug("reply suppressed by fault injector")
		return
	}

	out := wire.Encode(*result.Reply)
	if outcome == faultinjector.SumOut {
		s.injector.Corrupt(out, wire.HeaderLen)
		s.metrics.SegmentsCorrupted.Inc()
	}

	if err := s.socket.SendTo(out, peer); err != nil {
		s.log.WithError(err).Error("send failed")
		return
	}
	s.metrics.SegmentsSent.Inc()

	if result.ShouldClose {
		s.table.Remove(peer)
		s.metrics.ConnectionsActive.Dec()
	}
}
