// Package single implements the single-image strategies spec §4.8
// describes: given a group of processes that all contribute to the
// same tile, reduce their compressed images to one composited image
// held by the group's designated root. No direct analogue exists
// anywhere in the retrieval pack (no example repo does distributed
// image reduction), so these are built from the spec's algorithmic
// descriptions in the layering the rest of this repository already
// established: internal/comm for message passing, internal/codec for
// the compressed-domain composite math.
package single

import (
	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/imgfmt"
)

// Params is one process's view of a single-image reduction: the real
// communicator ranks participating (Group, already sorted into
// composite order when order matters), this process's own rendered
// contribution, and the base tag this call may use exclusively.
//
// Every process in Group must call the same Strategy function with
// matching Desc/Mode/Group/Tag; only the rank at Group[0] receives a
// non-nil result.
type Params struct {
	Comm  comm.Communicator
	Self  int
	Group []int
	Desc  imgfmt.Descriptor
	Mode  codec.Mode
	Local []byte // this rank's compressed sparse contribution; nil means "nothing active"
	Tag   int
}

// Strategy runs one single-image reduction for the calling process and
// returns the final compressed image (non-nil only at Group[0]).
type Strategy func(p Params) ([]byte, error)

func selfIndex(group []int, self int) int {
	for i, r := range group {
		if r == self {
			return i
		}
	}
	return -1
}

// isPowerOfTwo reports whether n is a power of two (n > 0).
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
