package log

import (
	"bytes"
	"testing"
)

func TestDigestBuffer(t *testing.T) {
	a := DigestBuffer([]byte("payload"))
	b := DigestBuffer([]byte("payload"))
	c := DigestBuffer([]byte("payloae"))

	if len(a) != DigestSize {
		t.Fatalf("len = %d, want %d", len(a), DigestSize)
	}
	if !bytes.Equal(a, b) {
		t.Error("same input produced different digests")
	}
	if bytes.Equal(a, c) {
		t.Error("different inputs produced the same digest")
	}
}

func TestDigestBuffers(t *testing.T) {
	if DigestBuffers(nil) != nil {
		t.Error("expected nil for no buffers")
	}
	got := DigestBuffers([][]byte{{1}, {}})
	if len(got) != 2 || len(got[1]) != DigestSize {
		t.Errorf("unexpected digests: %v", got)
	}
}

func TestShortDigest(t *testing.T) {
	d := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33, 0x44}
	if got := ShortDigest(d); got != "deadbeef00112233" {
		t.Errorf("ShortDigest = %q", got)
	}
	if got := ShortDigest([]byte{0xab}); got != "ab" {
		t.Errorf("ShortDigest(short) = %q", got)
	}
}
