package single

import (
	"math/bits"

	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/imgfmt"
)

// BinarySwap implements classic binary-swap compositing: at each of
// log2(n) rounds every process exchanges the half of its current pixel
// range it no longer owns for its partner's half of the range it is
// about to own, then composites the two contributions covering that
// range. Each round halves the pixel range held per process while
// doubling the number of contributions merged into it; after the last
// round every process holds a fully composited slice, which are then
// gathered at Group[0].
//
// Requires len(Group) to be a power of two. Image-space splitting mixes
// contributions from different processes into the same pixel range
// without regard to composite order, so, unlike BinaryTree, BinarySwap
// is only correct for commutative composite modes (Z-buffer). Automatic
// must not select it for ordered blend compositing.
func BinarySwap(p Params) ([]byte, error) {
	idx := selfIndex(p.Group, p.Self)
	if idx < 0 {
		return nil, comm.ErrInvalidOperation
	}
	n := len(p.Group)
	if !isPowerOfTwo(n) {
		return nil, comm.ErrInvalidOperation
	}

	regionStart, regionEnd := 0, p.Desc.NumPixels()
	acc := p.Local
	rounds := bits.Len(uint(n)) - 1

	for r := 0; r < rounds; r++ {
		bit := 1 << r
		partner := p.Group[idx^bit]
		mid := (regionStart + regionEnd) / 2

		var keepStart, keepEnd, sendStart, sendEnd int
		if idx&bit == 0 {
			keepStart, keepEnd = regionStart, mid
			sendStart, sendEnd = mid, regionEnd
		} else {
			keepStart, keepEnd = mid, regionEnd
			sendStart, sendEnd = regionStart, mid
		}

		keepPart := extractRangeOrNil(acc, p.Desc, regionStart, regionEnd, keepStart, keepEnd)
		sendPart := extractRangeOrNil(acc, p.Desc, regionStart, regionEnd, sendStart, sendEnd)

		recvPart, err := exchange(p.Comm, partner, p.Tag+r*2, sendPart)
		if err != nil {
			return nil, err
		}

		merged, err := mergeRange(keepPart, recvPart, p.Desc, keepStart, keepEnd, p.Mode)
		if err != nil {
			return nil, err
		}
		acc, regionStart, regionEnd = merged, keepStart, keepEnd
	}

	return gatherPieces(p, acc, regionStart, regionEnd)
}

// exchange runs a concurrent send/recv pair against partner on the same
// tag, avoiding the deadlock a strict send-then-recv would hit when
// partner does the same thing at the same time.
func exchange(c comm.Communicator, partner, tag int, send []byte) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := comm.RecvVar(c, partner, tag)
		done <- result{data, err}
	}()
	sendErr := comm.SendVar(c, partner, tag, send)
	r := <-done
	if sendErr != nil {
		return nil, sendErr
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.data, nil
}

// extractRangeOrNil extracts [wantStart, wantEnd) from sparse, a
// compressed stream covering [regionStart, regionEnd). A nil sparse
// (an all-inactive region) extracts to nil.
func extractRangeOrNil(sparse []byte, desc imgfmt.Descriptor, regionStart, regionEnd, wantStart, wantEnd int) []byte {
	if sparse == nil {
		return nil
	}
	sub := rangeDescriptor(desc, regionEnd-regionStart)
	return codec.ExtractRange(sparse, sub, wantStart-regionStart, wantEnd-regionStart)
}

// mergeRange composites front and back, two compressed streams each
// covering [start, end), treating a nil side as all-inactive.
func mergeRange(front, back []byte, desc imgfmt.Descriptor, start, end int, mode codec.Mode) ([]byte, error) {
	if front == nil {
		return back, nil
	}
	if back == nil {
		return front, nil
	}
	sub := rangeDescriptor(desc, end-start)
	return codec.CompositeSparseSparse(front, back, sub, mode)
}

// rangeDescriptor reinterprets a flat w*h pixel range as a 1-row
// descriptor of the given pixel count, so the codec package (which
// addresses images purely by a flat pixel count) can operate on
// arbitrary contiguous sub-ranges without knowing about rows at all.
func rangeDescriptor(desc imgfmt.Descriptor, count int) imgfmt.Descriptor {
	return imgfmt.Descriptor{Width: count, Height: 1, Color: desc.Color, Depth: desc.Depth}
}

// gatherPieces collects every process's final composited slice at
// Group[0], reassembling them in pixel order. Processes other than
// Group[0] return (nil, nil).
func gatherPieces(p Params, acc []byte, start, end int) ([]byte, error) {
	idx := selfIndex(p.Group, p.Self)
	gatherTag := p.Tag + 4096

	if idx == 0 {
		pieces := make([][]byte, len(p.Group))
		ranges := make([][2]int, len(p.Group))
		pieces[0] = acc
		ranges[0] = [2]int{start, end}
		for i := 1; i < len(p.Group); i++ {
			data, err := comm.RecvVar(p.Comm, p.Group[i], gatherTag)
			if err != nil {
				return nil, err
			}
			var hdr [8]byte
			if err := p.Comm.Recv(hdr[:], comm.Int, p.Group[i], gatherTag+1); err != nil {
				return nil, err
			}
			s, e := decodeRange(hdr[:])
			pieces[i] = data
			ranges[i] = [2]int{s, e}
		}
		return assembleImage(p.Desc, pieces, ranges)
	}

	if err := comm.SendVar(p.Comm, p.Group[0], gatherTag, acc); err != nil {
		return nil, err
	}
	hdr := encodeRange(start, end)
	if err := p.Comm.Send(hdr[:], comm.Int, p.Group[0], gatherTag+1); err != nil {
		return nil, err
	}
	return nil, nil
}

func encodeRange(start, end int) [8]byte {
	var b [8]byte
	putInt32(b[0:4], start)
	putInt32(b[4:8], end)
	return b
}

func decodeRange(b []byte) (int, int) {
	return int(int32(getUint32(b[0:4]))), int(int32(getUint32(b[4:8])))
}

func putInt32(b []byte, v int) {
	u := uint32(v)
	b[0] = byte(u >> 24)
	b[1] = byte(u >> 16)
	b[2] = byte(u >> 8)
	b[3] = byte(u)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// assembleImage stitches disjoint pixel-range pieces (in whatever order
// gatherPieces received them) into one compressed stream covering the
// whole image, in ascending pixel order. The joined pieces are
// re-encoded in one pass so runs meeting at a piece boundary merge,
// giving the same bytes Compress produces for those pixels.
func assembleImage(desc imgfmt.Descriptor, pieces [][]byte, ranges [][2]int) ([]byte, error) {
	n := len(pieces)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < n; i++ {
		j := i
		for j > 0 && ranges[order[j-1]][0] > ranges[order[j]][0] {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}

	total := desc.NumPixels()
	parts := make([]codec.RangePart, 0, n)
	pos := 0
	for _, i := range order {
		s, e := ranges[i][0], ranges[i][1]
		if s != pos {
			return nil, codec.ErrSizeMismatch
		}
		parts = append(parts, codec.RangePart{Data: pieces[i], Count: e - s})
		pos = e
	}
	if pos != total {
		return nil, codec.ErrSizeMismatch
	}
	return codec.ExtractRange(codec.ConcatRanges(parts), desc, 0, total), nil
}
