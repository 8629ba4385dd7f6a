// Package payload loads the fixed transfer payload and verifies a received
// byte stream against it by length-and-checksum match, per §4.7.
package payload

import (
	"os"

	"github.com/pkg/errors"

	"github.com/jborges/sdtp/internal/wire"
)

// Load reads exactly size bytes from path. The reference deployment expects
// wire.LoremSize bytes from ./lorem_ipsum.txt.
func Load(path string, size int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "payload: open %s", path)
	}
	defer f.Close()

	buf := make([]byte, size)
	n, err := readFull(f, buf)
	if err != nil {
		return nil, errors.Wrapf(err, "payload: read %s", path)
	}
	if n != size {
		return nil, errors.Errorf("payload: %s is %d bytes, want exactly %d", path, n, size)
	}
	return buf, nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Sum computes the expected datasum: the RFC 1071 checksum over data.
func Sum(data []byte) uint16 {
	return wire.Checksum16(data)
}

// Verify reports whether buf matches the expected payload by the
// (length, checksum) pair precomputed at startup.
func Verify(buf []byte, expectedLen int, expectedSum uint16) bool {
	if len(buf) != expectedLen {
		return false
	}
	return wire.Checksum16(buf) == expectedSum
}
