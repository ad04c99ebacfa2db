// Package strategy implements the multi-tile compositing strategies
// spec §4.7 describes: given every process's rendered (and already
// compressed) contribution to zero or more tiles, route and composite
// those contributions so each tile's display process ends up holding
// the finished image.
//
// No direct analogue exists anywhere in the retrieval pack (no example
// repo does distributed image reduction across a tiled display), so
// these are built from the spec's algorithmic descriptions in the
// layering the rest of this repository already established:
// internal/comm for message passing, internal/codec for the
// compressed-domain composite math, and internal/single for the
// per-tile reduction StrategySequential and the final phase of
// StrategyReduce both delegate to. Fan-out across a process's several
// locally-contributed tiles uses golang.org/x/sync/errgroup, the same
// "launch one goroutine per independent unit of work, propagate the
// first error" idiom the rest of the Go ecosystem reaches for instead
// of hand-rolled WaitGroup/error-channel plumbing.
package strategy

import (
	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/geom"
	"github.com/icet-go/icet/internal/imgfmt"
	"github.com/icet-go/icet/internal/single"
)

// Kind selects which multi-tile algorithm Run dispatches to.
type Kind int

const (
	KindReduce Kind = iota
	KindDirect
	KindSequential
	KindSplit
	KindVtree
)

// TileView is one tile from this process's point of view: its
// geometry, its display rank, which ranks contribute to it this frame
// (ascending, as derived from spec §4.5's gathered contribution masks),
// and this process's own rendered contribution, if any.
type TileView struct {
	Index   int
	Rect    geom.Rect
	Display int
	// Contributors lists every rank contributing to this tile this
	// frame, in ascending rank order. The tile's display rank need not
	// be a member.
	Contributors []int
	// Local is this process's compressed contribution to the tile, or
	// nil if this process does not contribute to it.
	Local []byte
}

// Params is one process's view of one frame's multi-tile compositing
// work.
type Params struct {
	Comm  comm.Communicator
	Self  int
	Desc  imgfmt.Descriptor
	Mode  codec.Mode
	Tiles []TileView
	// CompositeOrder is the optional global rank ordering ordered blend
	// compositing must respect; nil disables ordering.
	CompositeOrder []int
	// Single resolves the single-image strategy a group of ranks uses to
	// reduce their contributions to one tile down to one image.
	Single single.Strategy
	// Tag is this frame's exclusive base tag; every tile's work derives
	// a disjoint sub-range from it so no two tiles' messages collide.
	Tag int
}

// Result maps tile index to its finished compressed image, populated
// only for tiles this process displays.
type Result struct {
	Images map[int]*TileImage
}

// TileImage is one tile's finished compressed image alongside its
// descriptor (a tile may be smaller than the frame's full descriptor,
// since TileView.Rect need not match Desc's width/height).
type TileImage struct {
	Data []byte
	Desc imgfmt.Descriptor
}

// tileTagSpace is how many tags each tile's work may use without
// colliding with its neighbors' (comfortably larger than any single
// strategy round count plus its gather phase needs for realistic group
// sizes).
const tileTagSpace = 1 << 16

func tileTag(base, tileIdx int) int { return base + tileIdx*tileTagSpace }

// orderedGroup returns contributors filtered and reordered to match
// order (global rank order for ordered blend compositing), falling
// back to contributors unchanged when order is nil.
func orderedGroup(contributors, order []int) []int {
	if order == nil {
		return contributors
	}
	inSet := make(map[int]bool, len(contributors))
	for _, r := range contributors {
		inSet[r] = true
	}
	out := make([]int, 0, len(contributors))
	for _, r := range order {
		if inSet[r] {
			out = append(out, r)
		}
	}
	return out
}

// foldSparse composites a list of compressed images left to right,
// each one landing on top of everything folded in before it — the same
// "later index is higher composite priority" convention
// internal/single's BinaryTree and its mergeSparse helper use, via
// repeated pairwise CompositeSparseSparse calls. A nil entry (no
// contribution) is skipped.
func foldSparse(images [][]byte, desc imgfmt.Descriptor, mode codec.Mode) ([]byte, error) {
	var acc []byte
	for _, img := range images {
		if img == nil {
			continue
		}
		if acc == nil {
			acc = img
			continue
		}
		merged, err := codec.CompositeSparseSparse(img, acc, desc, mode)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// allocateGroups implements spec §4.7's reduce Phase 1 "delegate":
// partition the size communicator ranks among tiles roughly
// proportional to each tile's contributor count, giving every
// non-empty tile at least one rank and never more ranks than it has
// contributors. Deterministic given the same tiles and size on every
// process, so it needs no communication: every process computes the
// identical allocation independently.
func allocateGroups(tiles []TileView, size int) [][]int {
	n := len(tiles)
	counts := make([]int, n)
	total := 0
	for i, t := range tiles {
		counts[i] = len(t.Contributors)
		total += counts[i]
	}
	if total == 0 {
		return make([][]int, n)
	}

	alloc := make([]int, n)
	allocated := 0
	for i, c := range counts {
		if c == 0 {
			continue
		}
		a := c * size / total
		if a < 1 {
			a = 1
		}
		if a > c {
			a = c
		}
		alloc[i] = a
		allocated += a
	}
	for allocated > size {
		bi := -1
		for i, a := range alloc {
			if a > 1 && (bi == -1 || a > alloc[bi]) {
				bi = i
			}
		}
		if bi == -1 {
			break
		}
		alloc[bi]--
		allocated--
	}
	for allocated < size {
		bi := -1
		for i, c := range counts {
			if c == 0 || alloc[i] >= c {
				continue
			}
			if bi == -1 || c > counts[bi] {
				bi = i
			}
		}
		if bi == -1 {
			break
		}
		alloc[bi]++
		allocated++
	}

	groups := make([][]int, n)
	offset := 0
	for i := range tiles {
		if alloc[i] == 0 {
			continue
		}
		g := make([]int, alloc[i])
		for j := range g {
			g[j] = (offset + j) % size
		}
		groups[i] = g
		offset += alloc[i]
	}
	return groups
}

// partitionSlice divides items into n contiguous, nearly-equal blocks,
// preserving relative order within and across blocks — so a
// single-image strategy folding the blocks' outputs by ascending group
// index reproduces the same composite order as folding items directly.
func partitionSlice(items []int, n int) [][]int {
	total := len(items)
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		lo := total * i / n
		hi := total * (i + 1) / n
		out[i] = items[lo:hi]
	}
	return out
}

// tileDescriptor returns the per-pixel-format descriptor sized to tv's
// own rectangle: Params.Desc only carries the shared color/depth
// format, since different tiles have different dimensions but every
// contribution uses the same pixel layout.
func tileDescriptor(p Params, tv TileView) imgfmt.Descriptor {
	return imgfmt.Descriptor{Width: tv.Rect.W, Height: tv.Rect.H, Color: p.Desc.Color, Depth: p.Desc.Depth}
}

func indexOf(ranks []int, r int) int {
	for i, x := range ranks {
		if x == r {
			return i
		}
	}
	return -1
}

// Run dispatches to the multi-tile strategy kind selects.
func Run(kind Kind, p Params) (Result, error) {
	switch kind {
	case KindDirect:
		return runDirect(p)
	case KindSequential:
		return runSequential(p)
	case KindSplit:
		return runSplit(p)
	case KindVtree:
		return runVtree(p)
	default:
		return runReduce(p)
	}
}
