package log

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// DigestSize is the length of a buffer digest in bytes.
const DigestSize = 32

// DigestBuffer returns the BLAKE3-256 digest of buf.
func DigestBuffer(buf []byte) []byte {
	sum := blake3.Sum256(buf)
	return sum[:]
}

// DigestBuffers returns one digest per buffer, or nil when there are none.
func DigestBuffers(buffers [][]byte) [][]byte {
	if len(buffers) == 0 {
		return nil
	}
	digests := make([][]byte, len(buffers))
	for i, buf := range buffers {
		digests[i] = DigestBuffer(buf)
	}
	return digests
}

// ShortDigest formats the first 8 bytes of a digest as hex for display.
func ShortDigest(digest []byte) string {
	if len(digest) > 8 {
		digest = digest[:8]
	}
	return hex.EncodeToString(digest)
}
