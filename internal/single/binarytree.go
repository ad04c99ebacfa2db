package single

import (
	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
)

// BinaryTree reduces Group's contributions pairwise, doubling the
// distance between paired indices each round (classic recursive
// doubling). Group is assumed sorted into composite order; the tree
// never reorders elements relative to each other, only groups them, so
// it is correct for both modes, and the only mode where the order
// matters at all is blend. 8-bit blend truncates each product, so the
// blend result can differ by one unit per channel from a strict
// left-to-right fold of the same images.
func BinaryTree(p Params) ([]byte, error) {
	idx := selfIndex(p.Group, p.Self)
	if idx < 0 {
		return nil, comm.ErrInvalidOperation
	}

	acc := p.Local
	for step := 1; step < len(p.Group); step *= 2 {
		if idx%(2*step) != 0 {
			partner := p.Group[idx-step]
			if err := comm.SendVar(p.Comm, partner, p.Tag, acc); err != nil {
				return nil, err
			}
			return nil, nil
		}
		partnerIdx := idx + step
		if partnerIdx >= len(p.Group) {
			continue
		}
		partner := p.Group[partnerIdx]
		front, err := comm.RecvVar(p.Comm, partner, p.Tag)
		if err != nil {
			return nil, err
		}
		acc, err = mergeSparse(front, acc, p)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// mergeSparse composites front (a higher composite-order contribution,
// or nil for "nothing active") over back, treating a nil side as an
// all-inactive image of the same dimensions.
func mergeSparse(front, back []byte, p Params) ([]byte, error) {
	if front == nil {
		return back, nil
	}
	if back == nil {
		return front, nil
	}
	return codec.CompositeSparseSparse(front, back, p.Desc, p.Mode)
}
