// Package datagram wraps a single UDP socket with the bounded-timeout
// receive the SDTP event loop depends on, mirroring the select()-based
// recvtimeout helper from the reference implementation rather than Go's
// usual SetReadDeadline idiom.
package datagram

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrTimeout is returned by RecvWithTimeout when no datagram arrives within
// the requested window.
var ErrTimeout = errors.New("datagram: receive timed out")

// Socket is a single non-shared UDP endpoint, bound or connected.
type Socket struct {
	conn *net.UDPConn
}

// Bind opens a UDP socket listening on host:port (host may be empty for
// INADDR_ANY), for server use.
func Bind(host string, port int) (*Socket, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	if host == "" {
		addr.IP = net.IPv4zero
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "datagram: bind %s:%d", host, port)
	}
	return &Socket{conn: conn}, nil
}

// Connect opens a UDP socket with a fixed peer, for client use.
func Connect(host string, port int) (*Socket, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "datagram: connect %s:%d", host, port)
	}
	return &Socket{conn: conn}, nil
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// LocalAddr returns the socket's bound local address.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Send transmits buf to the socket's connected peer (client use).
func (s *Socket) Send(buf []byte) error {
	_, err := s.conn.Write(buf)
	if err != nil {
		return errors.Wrap(err, "datagram: send")
	}
	return nil
}

// SendTo transmits buf to an explicit peer address (server use).
func (s *Socket) SendTo(buf []byte, peer *net.UDPAddr) error {
	_, err := s.conn.WriteToUDP(buf, peer)
	if err != nil {
		return errors.Wrap(err, "datagram: send_to")
	}
	return nil
}

// RecvWithTimeout waits up to timeout for a datagram, then performs a single
// non-blocking receive into buf. It returns ErrTimeout if nothing arrived;
// the peer is always non-nil on success (server sockets learn the sender,
// client sockets return their connected peer).
func (s *Socket) RecvWithTimeout(buf []byte, timeout time.Duration) (n int, peer *net.UDPAddr, err error) {
	ready, err := s.waitReadable(timeout)
	if err != nil {
		return 0, nil, errors.Wrap(err, "datagram: select")
	}
	if !ready {
		return 0, nil, ErrTimeout
	}

	n, peer, err = s.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, nil, errors.Wrap(err, "datagram: recv_from")
	}
	return n, peer, nil
}

// waitReadable blocks until the socket's file descriptor is readable or
// timeout elapses, via select(2) -- the same readiness primitive the
// reference implementation's recvtimeout builds on with FD_ZERO/FD_SET.
func (s *Socket) waitReadable(timeout time.Duration) (bool, error) {
	rawConn, err := s.conn.SyscallConn()
	if err != nil {
		return false, err
	}

	var ready bool
	var selectErr error
	ctlErr := rawConn.Control(func(fd uintptr) {
		fdSet := &unix.FdSet{}
		fdSet.Set(int(fd))
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		n, err := unix.Select(int(fd)+1, fdSet, nil, nil, &tv)
		if err != nil {
			selectErr = err
			return
		}
		ready = n > 0
	})
	if ctlErr != nil {
		return false, ctlErr
	}
	return ready, selectErr
}
