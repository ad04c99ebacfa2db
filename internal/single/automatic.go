package single

import "github.com/icet-go/icet/internal/codec"

// Automatic picks a single-image strategy the way real IceT does:
// ordered (blend) composites always go through BinaryTree, since
// image-space-splitting strategies discard relative process order;
// unordered (Z-buffer) composites use BinarySwap when the group size
// is a power of two (its native case) and RadixK otherwise, factored
// using the caller's configured magic k.
func Automatic(k int) Strategy {
	return func(p Params) ([]byte, error) {
		if p.Mode == codec.ModeBlend {
			return BinaryTree(p)
		}
		if isPowerOfTwo(len(p.Group)) {
			return BinarySwap(p)
		}
		return RadixK(k)(p)
	}
}
