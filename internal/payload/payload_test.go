package payload

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, size int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lorem_ipsum.txt")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadExactSize(t *testing.T) {
	path := writeFixture(t, 6328)
	data, err := Load(path, 6328)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data) != 6328 {
		t.Fatalf("Load returned %d bytes, want 6328", len(data))
	}
}

func TestLoadRejectsShortFile(t *testing.T) {
	path := writeFixture(t, 100)
	if _, err := Load(path, 6328); err == nil {
		t.Fatalf("Load succeeded on a short file, want an error")
	}
}

func TestVerifyMatchesOnLengthAndSum(t *testing.T) {
	path := writeFixture(t, 6328)
	data, err := Load(path, 6328)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sum := Sum(data)

	if !Verify(data, 6328, sum) {
		t.Fatalf("Verify() = false on the exact payload")
	}

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0xFF
	if Verify(tampered, 6328, sum) {
		t.Fatalf("Verify() = true on a tampered payload")
	}

	if Verify(data[:len(data)-1], 6328, sum) {
		t.Fatalf("Verify() = true on a short payload")
	}
}
