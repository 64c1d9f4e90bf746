package hashing

import (
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/logging"
	"github.com/retrigger-io/retrigger/pkg/numeric"
)

// Engine computes HashResults from bytes or files according to a configured
// Strategy. It is safe for concurrent use; it holds no mutable state besides
// its (immutable) strategy and logger.
type Engine struct {
	strategy Strategy
	logger   *logging.Logger
}

// NewEngine creates a new hashing engine using the specified strategy.
func NewEngine(strategy Strategy, logger *logging.Logger) *Engine {
	return &Engine{
		strategy: strategy,
		logger:   logger,
	}
}

// WithStrategy returns a new Engine that shares this engine's logger but uses
// the specified strategy.
func (e *Engine) WithStrategy(strategy Strategy) *Engine {
	return &Engine{
		strategy: strategy,
		logger:   e.logger,
	}
}

// Strategy returns the engine's configured strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// saturateSize converts a length to the spec's saturating uint32 size field.
func saturateSize(length int) uint32 {
	if length > numeric.MaxUint32 {
		return numeric.MaxUint32
	}
	return uint32(length)
}

// useTreeHash decides, for the given input length and (optionally) its
// Shannon entropy, whether the tree hash should be used under the engine's
// configured strategy.
func (e *Engine) useTreeHash(length int, entropy func() float64) bool {
	switch e.strategy {
	case FastOnly:
		return false
	case TreeOnly:
		return true
	case Hybrid:
		return length >= HybridThreshold
	case Auto:
		if length >= HybridThreshold {
			return true
		}
		if entropy == nil {
			return false
		}
		return entropy() > AutoEntropyThreshold
	default:
		return false
	}
}

// HashBytes computes a HashResult for an in-memory buffer, choosing the
// algorithm according to the engine's strategy.
func (e *Engine) HashBytes(data []byte) events.HashResult {
	entropy := func() float64 { return shannonEntropyNormalized(sample(data, entropySampleSize)) }
	if e.useTreeHash(len(data), entropy) {
		return events.HashResult{
			Hash:          treeHash(data),
			Size:          saturateSize(len(data)),
			IsIncremental: false,
		}
	}
	return events.HashResult{
		Hash:          fastHash(data),
		Size:          saturateSize(len(data)),
		IsIncremental: false,
	}
}

// HashFile computes a HashResult for the file at path. The algorithm is
// chosen from the file's size alone (entropy sampling is skipped for files,
// per the Auto strategy's file-path rule).
func (e *Engine) HashFile(path string) (events.HashResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		e.logger.Debugf("unable to stat %s: %v", path, err)
		return events.HashResult{}, errors.Wrapf(ErrInvalidPath, "unable to stat %q: %v", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		e.logger.Debugf("unable to open %s: %v", path, err)
		return events.HashResult{}, errors.Wrapf(ErrInvalidPath, "unable to open %q: %v", path, err)
	}
	defer file.Close()

	if e.useTreeHash(clampToInt(info.Size()), nil) {
		h := blake3.New()
		if _, err := copyInto(h, file); err != nil {
			e.logger.Warnf("unable to read %s: %v", path, err)
			return events.HashResult{}, errors.Wrapf(ErrReadFailed, "unable to read %q: %v", path, err)
		}
		return events.HashResult{
			Hash:          lowEightBytes(h.Sum(nil)),
			Size:          saturateSize64(info.Size()),
			IsIncremental: false,
		}, nil
	}

	h := xxhash.New()
	if _, err := copyInto(h, file); err != nil {
		e.logger.Warnf("unable to read %s: %v", path, err)
		return events.HashResult{}, errors.Wrapf(ErrReadFailed, "unable to read %q: %v", path, err)
	}
	return events.HashResult{
		Hash:          h.Sum64(),
		Size:          saturateSize64(info.Size()),
		IsIncremental: false,
	}, nil
}

func saturateSize64(length int64) uint32 {
	if length < 0 || length > numeric.MaxUint32 {
		return numeric.MaxUint32
	}
	return uint32(length)
}

func clampToInt(length int64) int {
	if length > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(length)
}
