package icet

import (
	"github.com/icet-go/icet/internal/bitset"
	"github.com/icet-go/icet/internal/comm"
)

// Tile is one rectangle of the global display plane together with the
// rank of the process responsible for returning its finished image,
// spec §3's tile type. Display ranks are globally unique per tile.
type Tile struct {
	Rect    Rect
	Display int
}

// TilePlanner maintains the append-only tile list and the per-frame
// contribution bookkeeping spec §4.5 describes. A planner belongs to
// one Context and is driven by the frame driver (C6) once per frame.
type TilePlanner struct {
	tiles []Tile

	globalViewport                    Rect
	tileMaxWidth, tileMaxHeight        int
	tileMaxPixels                      int

	compositeOrder []int

	containedTiles *bitset.Set
	allMasks       []byte
	bytesPerRank   int
	contribCounts  []int
	totalImages    int
}

// NewTilePlanner returns an empty planner.
func NewTilePlanner() *TilePlanner { return &TilePlanner{} }

// ResetTiles clears the tile list. Spec §4.5's reset_tiles.
func (p *TilePlanner) ResetTiles() {
	p.tiles = p.tiles[:0]
	p.recomputeGeometry()
}

// AddTile appends a tile to the list. Spec §4.5's add_tile.
func (p *TilePlanner) AddTile(rect Rect, display int) {
	p.tiles = append(p.tiles, Tile{Rect: rect, Display: display})
	p.recomputeGeometry()
}

// Tiles returns the current tile list, in the order tiles were added.
func (p *TilePlanner) Tiles() []Tile { return p.tiles }

// GlobalViewport is the bounding rectangle of every configured tile.
func (p *TilePlanner) GlobalViewport() Rect { return p.globalViewport }

// TileMaxPixels is the pixel count of the largest configured tile,
// the size a strategy must size its scratch buffers to.
func (p *TilePlanner) TileMaxPixels() int { return p.tileMaxPixels }

func (p *TilePlanner) recomputeGeometry() {
	if len(p.tiles) == 0 {
		p.globalViewport = Rect{}
		p.tileMaxWidth, p.tileMaxHeight, p.tileMaxPixels = 0, 0, 0
		return
	}
	x0, y0 := p.tiles[0].Rect.X, p.tiles[0].Rect.Y
	x1, y1 := x0+p.tiles[0].Rect.W, y0+p.tiles[0].Rect.H
	p.tileMaxWidth, p.tileMaxHeight, p.tileMaxPixels = 0, 0, 0
	for _, t := range p.tiles {
		if px := t.Rect.W * t.Rect.H; px > p.tileMaxPixels {
			p.tileMaxPixels = px
		}
		if t.Rect.X < x0 {
			x0 = t.Rect.X
		}
		if t.Rect.Y < y0 {
			y0 = t.Rect.Y
		}
		if t.Rect.X+t.Rect.W > x1 {
			x1 = t.Rect.X + t.Rect.W
		}
		if t.Rect.Y+t.Rect.H > y1 {
			y1 = t.Rect.Y + t.Rect.H
		}
		if t.Rect.W > p.tileMaxWidth {
			p.tileMaxWidth = t.Rect.W
		}
		if t.Rect.H > p.tileMaxHeight {
			p.tileMaxHeight = t.Rect.H
		}
	}
	p.globalViewport = Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// SetCompositeOrder installs the optional process-rank permutation
// ordered-blend compositing uses; pass nil to disable ordering.
func (p *TilePlanner) SetCompositeOrder(order []int) { p.compositeOrder = order }

// CompositeOrder returns the currently installed ordering, or nil.
func (p *TilePlanner) CompositeOrder() []int { return p.compositeOrder }

// DisplayedTile returns the tile self displays, if any.
func (p *TilePlanner) DisplayedTile(self int) (Tile, bool) {
	for _, t := range p.tiles {
		if t.Display == self {
			return t, true
		}
	}
	return Tile{}, false
}

// ContainedTiles returns this process's per-tile containment mask from
// the most recent GatherContributions call.
func (p *TilePlanner) ContainedTiles() *bitset.Set { return p.containedTiles }

// ContribCounts returns, per tile, how many processes contribute to it
// this frame.
func (p *TilePlanner) ContribCounts() []int { return p.contribCounts }

// TotalImageCount returns the total number of per-tile contributions
// that must be composited this frame, summed over every tile.
func (p *TilePlanner) TotalImageCount() int { return p.totalImages }

// ContributingRanks returns, for tile index t, every global rank whose
// most recently gathered mask contains t, in ascending rank order.
// internal/strategy uses this to build each tile's cooperating group.
func (p *TilePlanner) ContributingRanks(t int) []int {
	size := len(p.allMasks) / max1(p.bytesPerRank)
	var ranks []int
	for r := 0; r < size; r++ {
		if bitSetAt(p.allMasks[r*p.bytesPerRank:(r+1)*p.bytesPerRank], t) {
			ranks = append(ranks, r)
		}
	}
	return ranks
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// GatherContributions computes this process's contained-tiles mask
// from cv (nil means every tile is contained, spec §4.4's no-bounds
// case), allgathers it across c, and derives per-tile contribution
// counts and the total image count. Spec §4.5's internal
// gather_contributions, invoked by the frame driver at frame start
// (§4.6 step 3).
func (p *TilePlanner) GatherContributions(c comm.Communicator, cv *ContainedViewport) error {
	n := len(p.tiles)
	mine := bitset.New(n)
	for i, t := range p.tiles {
		if cv == nil || TileContained(*cv, t.Rect) {
			mine.Set(i)
		}
	}
	p.containedTiles = mine

	size := c.Size()
	sendBytes := packBits(mine)
	bytesPerRank := len(sendBytes)
	recvBytes := make([]byte, bytesPerRank*size)
	if bytesPerRank > 0 {
		if err := c.Allgather(sendBytes, comm.Byte, recvBytes); err != nil {
			return err
		}
	}
	p.allMasks = recvBytes
	p.bytesPerRank = bytesPerRank

	p.contribCounts = make([]int, n)
	p.totalImages = 0
	for t := 0; t < n; t++ {
		count := 0
		for r := 0; r < size; r++ {
			if bytesPerRank > 0 && bitSetAt(recvBytes[r*bytesPerRank:(r+1)*bytesPerRank], t) {
				count++
			}
		}
		p.contribCounts[t] = count
		p.totalImages += count
	}
	return nil
}

// packBits packs s's bits into the minimum number of bytes, ignoring
// bitset.Set's own word layout (which pads to 64-bit boundaries and so
// cannot be concatenated rank-by-rank without leaving gaps).
func packBits(s *bitset.Set) []byte {
	n := s.Len()
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if s.IsSet(i) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func bitSetAt(buf []byte, i int) bool {
	return buf[i/8]&(1<<uint(i%8)) != 0
}
