package hashing

// Strategy selects which underlying algorithm a HashEngine uses to fingerprint
// a given input.
type Strategy uint8

const (
	// FastOnly always uses the non-cryptographic 64-bit algorithm (xxHash64).
	FastOnly Strategy = iota
	// TreeOnly always uses the cryptographic tree hash (BLAKE3), returning the
	// low 8 bytes of the digest.
	TreeOnly
	// Hybrid uses TreeOnly for inputs at or above HybridThreshold bytes and
	// FastOnly below it.
	Hybrid
	// Auto computes the Shannon entropy (normalized to [0, 1]) of the
	// input's leading entropySampleSize bytes and uses TreeOnly when the entropy exceeds AutoEntropyThreshold or the
	// input is at or above HybridThreshold bytes, FastOnly otherwise. For
	// files, entropy sampling is skipped and the size rule alone decides.
	Auto
)

const (
	// HybridThreshold is the input size, in bytes, at or above which Hybrid
	// and Auto strategies switch from the fast algorithm to the tree hash.
	HybridThreshold = 1 << 20

	// AutoEntropyThreshold is the normalized Shannon entropy (in [0, 1])
	// strictly above which the Auto strategy switches to the tree hash
	// regardless of size.
	AutoEntropyThreshold = 0.8

	// entropySampleSize bounds the number of leading bytes sampled when
	// estimating entropy for the Auto strategy. Inputs at or above
	// HybridThreshold take the tree hash by size alone; for inputs between
	// entropySampleSize and HybridThreshold bytes, the decision reflects the
	// entropy of the prefix only, not of the whole input.
	entropySampleSize = 64 * 1024
)

// String provides a human-readable representation of a strategy.
func (s Strategy) String() string {
	switch s {
	case FastOnly:
		return "fast-only"
	case TreeOnly:
		return "tree-only"
	case Hybrid:
		return "hybrid"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}
