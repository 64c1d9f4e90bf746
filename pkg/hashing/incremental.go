package hashing

import (
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/retrigger-io/retrigger/pkg/events"
)

// defaultIncrementalBlockSize is the block size used by Hasher.Update callers
// that don't have a more specific preference; it's advisory only, since the
// underlying algorithms consume whatever slice they're handed regardless of
// size.
const defaultIncrementalBlockSize = 4096

// Hasher performs incremental, block-wise hashing. A zero-value Hasher is not
// usable; obtain one via Engine.IncrementalNew.
type Hasher struct {
	blockSize int
	fast      *xxhash.Digest
	tree      *blake3.Hasher
	length    int
}

// IncrementalNew creates a new incremental Hasher. If blockSize is non-
// positive, defaultIncrementalBlockSize is used. The algorithm is fixed for
// the hasher's lifetime: FastOnly engines stream into xxHash, every other
// strategy streams into BLAKE3 (Hybrid and Auto cannot defer their decision
// until the final length is known, since input arrives incrementally).
func (e *Engine) IncrementalNew(blockSize int) *Hasher {
	if blockSize <= 0 {
		blockSize = defaultIncrementalBlockSize
	}

	h := &Hasher{blockSize: blockSize}
	if e.strategy == FastOnly {
		h.fast = xxhash.New()
	} else {
		h.tree = blake3.New()
	}
	return h
}

// Update feeds data into the hasher and returns the HashResult computed over
// all bytes seen so far (including this call), without finalizing the
// hasher. It returns ErrHasherNotInitialized if called after Finalize.
func (h *Hasher) Update(data []byte) (events.HashResult, error) {
	if h.fast == nil && h.tree == nil {
		return events.HashResult{}, ErrHasherNotInitialized
	}

	if h.fast != nil {
		h.fast.Write(data)
	} else {
		h.tree.Write(data)
	}
	h.length += len(data)

	return h.partial(), nil
}

// Finalize returns the HashResult for all bytes seen so far, with
// IsIncremental set, and renders the hasher unusable for further calls.
func (h *Hasher) Finalize() (events.HashResult, error) {
	if h.fast == nil && h.tree == nil {
		return events.HashResult{}, ErrHasherNotInitialized
	}

	result := h.partial()
	result.IsIncremental = true

	h.fast = nil
	h.tree = nil

	return result, nil
}

// partial computes the HashResult for all bytes written so far without
// mutating or resetting the underlying hash state.
func (h *Hasher) partial() events.HashResult {
	if h.fast != nil {
		return events.HashResult{
			Hash:          h.fast.Sum64(),
			Size:          saturateSize(h.length),
			IsIncremental: true,
		}
	}
	return events.HashResult{
		Hash:          lowEightBytes(h.tree.Sum(nil)),
		Size:          saturateSize(h.length),
		IsIncremental: true,
	}
}
