package datagram

import (
	"testing"
	"time"
)

func TestBindConnectRoundTrip(t *testing.T) {
	server, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer server.Close()

	client, err := Connect("127.0.0.1", server.LocalAddr().Port)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 64)
	n, peer, err := server.RecvWithTimeout(buf, time.Second)
	if err != nil {
		t.Fatalf("RecvWithTimeout: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want %q", buf[:n], "hello")
	}
	if peer == nil {
		t.Fatal("expected non-nil peer")
	}
}

func TestRecvWithTimeoutExpiresWithoutData(t *testing.T) {
	server, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer server.Close()

	buf := make([]byte, 64)
	start := time.Now()
	_, _, err = server.RecvWithTimeout(buf, 50*time.Millisecond)
	if err != ErrTimeout {
		t.Fatalf("got err %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
}

func TestSendToReachesBoundServer(t *testing.T) {
	server, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer server.Close()

	client, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind client: %v", err)
	}
	defer client.Close()

	if err := client.SendTo([]byte("ping"), server.LocalAddr()); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	buf := make([]byte, 64)
	n, _, err := server.RecvWithTimeout(buf, time.Second)
	if err != nil {
		t.Fatalf("RecvWithTimeout: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("got %q, want %q", buf[:n], "ping")
	}
}

func TestCloseUnblocksNothingButRejectsFurtherUse(t *testing.T) {
	s, err := Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Send([]byte("x")); err == nil {
		t.Fatal("expected error sending on a closed socket")
	}
}
