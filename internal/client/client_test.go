package client

import "testing"

func TestStateStringsAreDistinct(t *testing.T) {
	states := []State{SendSyn, AwaitSynAck, SendAck, Sending, SendFin, AwaitFinAck, Done}
	seen := map[string]bool{}
	for _, s := range states {
		str := s.String()
		if str == "UNKNOWN" {
			t.Fatalf("state %d stringified as UNKNOWN", s)
		}
		if seen[str] {
			t.Fatalf("duplicate state string %q", str)
		}
		seen[str] = true
	}
}

func TestCountRetryUnboundedByDefault(t *testing.T) {
	c := &Client{}
	retries := 0
	for i := 0; i < 10000; i++ {
		if err := c.countRetry(&retries); err != nil {
			t.Fatalf("unbounded client returned an error after %d retries: %v", i, err)
		}
	}
}

func TestCountRetryRespectsMaxRetries(t *testing.T) {
	c := &Client{cfg: Config{MaxRetries: 3}}
	retries := 0
	for i := 0; i < 3; i++ {
		if err := c.countRetry(&retries); err != nil {
			t.Fatalf("unexpected error on retry %d: %v", i, err)
		}
	}
	if err := c.countRetry(&retries); err != ErrMaxRetriesExceeded {
		t.Fatalf("countRetry() = %v, want ErrMaxRetriesExceeded", err)
	}
}
