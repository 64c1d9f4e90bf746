package hashing

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// copyInto streams src into an io.Writer-compatible hash, reusing a small
// fixed buffer rather than reading the whole file into memory at once.
func copyInto(w io.Writer, src io.Reader) (int64, error) {
	return io.CopyBuffer(w, src, make([]byte, 256*1024))
}

// fastHash computes the non-cryptographic 64-bit fingerprint of data.
func fastHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// treeHash computes the low 8 bytes of the BLAKE3 digest of data.
func treeHash(data []byte) uint64 {
	h := blake3.New()
	h.Write(data)
	return lowEightBytes(h.Sum(nil))
}

// lowEightBytes interprets the first 8 bytes of a digest as a little-endian
// uint64, per the spec's "leading 8 bytes of the digest" rule.
func lowEightBytes(digest []byte) uint64 {
	var buf [8]byte
	copy(buf[:], digest[:8])
	return binary.LittleEndian.Uint64(buf[:])
}
