package ring

import (
	"encoding/binary"

	"github.com/retrigger-io/retrigger/pkg/events"
)

// MaxPathBytes is the size of a slot's path buffer. A slot carries at most
// MaxPathBytes-1 path bytes (one byte is reserved); longer paths are
// truncated to that length.
const MaxPathBytes = 512

// slotHeaderBytes is the fixed-width portion of a slot preceding its path
// bytes: timestamp(8) + kind(4) + path_len(4) + size(8) + is_directory(4) +
// hash_present(4) + hash_value(8).
const slotHeaderBytes = 8 + 4 + 4 + 8 + 4 + 4 + 8

// DefaultEventSize is the fixed slot size used when a Config does not
// override it: the fixed slot header plus a full path buffer.
const DefaultEventSize = slotHeaderBytes + MaxPathBytes

// encodeSlot serializes an enriched event into dst, which must be at least
// DefaultEventSize bytes. Paths longer than MaxPathBytes-1 are truncated at
// the byte boundary; bytes beyond path_len are left undefined, matching the
// wire description.
func encodeSlot(dst []byte, ev events.EnrichedEvent) {
	raw := ev.Raw

	pathBytes := []byte(raw.Path)
	pathLen := len(pathBytes)
	if pathLen > MaxPathBytes-1 {
		pathLen = MaxPathBytes - 1
	}

	binary.LittleEndian.PutUint64(dst[0:8], raw.TimestampNanoseconds)
	binary.LittleEndian.PutUint32(dst[8:12], uint32(raw.Kind))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(pathLen))
	binary.LittleEndian.PutUint64(dst[16:24], raw.Size)

	var isDirectory uint32
	if raw.IsDirectory {
		isDirectory = 1
	}
	binary.LittleEndian.PutUint32(dst[24:28], isDirectory)

	var hashPresent uint32
	var hashValue uint64
	if ev.Hash != nil {
		hashPresent = 1
		hashValue = ev.Hash.Hash
	}
	binary.LittleEndian.PutUint32(dst[28:32], hashPresent)
	binary.LittleEndian.PutUint64(dst[32:40], hashValue)

	copy(dst[slotHeaderBytes:slotHeaderBytes+MaxPathBytes], pathBytes[:pathLen])
}

// decodeSlot deserializes a slot back into an EnrichedEvent. src must be at
// least DefaultEventSize bytes.
func decodeSlot(src []byte) events.EnrichedEvent {
	timestamp := binary.LittleEndian.Uint64(src[0:8])
	kind := events.Kind(binary.LittleEndian.Uint32(src[8:12]))
	pathLen := binary.LittleEndian.Uint32(src[12:16])
	size := binary.LittleEndian.Uint64(src[16:24])
	isDirectory := binary.LittleEndian.Uint32(src[24:28]) != 0
	hashPresent := binary.LittleEndian.Uint32(src[28:32]) != 0
	hashValue := binary.LittleEndian.Uint64(src[32:40])

	path := string(src[slotHeaderBytes : slotHeaderBytes+int(pathLen)])

	var hash *events.HashResult
	if hashPresent {
		hash = &events.HashResult{Hash: hashValue, Size: saturateUint32(size)}
	}

	return events.EnrichedEvent{
		Raw: events.RawEvent{
			Path:                 path,
			Kind:                 kind,
			TimestampNanoseconds: timestamp,
			Size:                 size,
			IsDirectory:          isDirectory,
		},
		Hash: hash,
	}
}

// saturateUint32 clamps a 64-bit size down to the 32-bit field a decoded
// HashResult carries, matching the HashResult.size saturation rule applied
// when the hash was first computed.
func saturateUint32(n uint64) uint32 {
	if n > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(n)
}
