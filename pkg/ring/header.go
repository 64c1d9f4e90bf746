package ring

import "unsafe"

// Magic identifies a retrigger ring file. Read most-significant byte first,
// 0x52545247 spells "RTRG"; stored little-endian, its bytes on disk are
// "GRTR".
const Magic uint32 = 0x52545247

// Version is the current header/slot ABI version.
const Version uint32 = 1

// Header is the fixed, C-ABI layout that opens every ring file. Field order
// and widths are part of the on-disk format: two implementations in
// different languages that agree on this layout can interoperate against
// the same mapped file, so fields must never be reordered, resized, or
// removed. All multi-byte fields are native-endian in memory (the host
// architectures this package targets are little-endian, matching the wire
// description). The positions, counters, timestamps, pids, and flags shared
// across the producer/consumer boundary are read and written through
// sync/atomic; Magic, Version, Capacity, and EventSize are written once by
// the producer at creation and read with plain loads.
//
// The four u64 fields fall on 8-byte boundaries given the six leading u32
// fields (24 bytes), and AvgLatencyNanos falls on one again after the
// trailing four u32 fields (72 bytes) — required for atomic 64-bit access
// on architectures that enforce 8-byte alignment for those operations.
type Header struct {
	Magic       uint32
	Version     uint32
	WritePos    uint32
	ReadPos     uint32
	Capacity    uint32
	EventSize   uint32
	TotalEvents uint64
	DroppedEvents    uint64
	LastWriteTSNanos uint64
	LastReadTSNanos  uint64
	ProducerPID    uint32
	ConsumerPID    uint32
	Shutdown       uint32
	MaxUtilization uint32
	AvgLatencyNanos uint64
}

// HeaderSize is the fixed byte size of Header at the front of a ring file.
const HeaderSize = int(unsafe.Sizeof(Header{}))

// headerAt reinterprets the first HeaderSize bytes of a mapped region as a
// *Header. The caller must ensure data is at least HeaderSize bytes and
// remains alive (and mapped) for as long as the returned pointer is used.
func headerAt(data []byte) *Header {
	return (*Header)(unsafe.Pointer(&data[0]))
}
