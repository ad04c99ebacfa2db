package icet

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/icet-go/icet/internal/arena"
	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/imgfmt"
	"github.com/icet-go/icet/internal/linalg"
	"github.com/icet-go/icet/internal/single"
	"github.com/icet-go/icet/internal/statedict"
)

// DrawCallback renders this process's contribution for the current
// frame into a dense image covering the context's global viewport, in
// the context's configured color/depth format. The frame driver (C6)
// extracts and compresses each locally contributed tile's sub-region
// from the result; the callback itself need not know about tiles.
type DrawCallback func() (*DenseImage, error)

// Context is the per-process handle to one compositing session: its
// communicator, tile layout, draw callback, and the per-frame state
// spec §5/§6 describe. It follows the same functional-options
// construction plus io.Closer lifecycle gogpu-gg's Context uses,
// generalized from a drawing canvas to a distributed frame driver.
type Context struct {
	mu sync.Mutex

	comm   comm.Communicator
	desc   imgfmt.Descriptor
	mode   codec.Mode
	strat  MultiTileStrategy
	single SingleImageStrategy
	magicK int

	tiles *TilePlanner

	proj, modelview linalg.M4
	bounds          []linalg.V3

	replicationGroup []int
	lastReplication  Rect

	bgColor [4]float32 // straight (non-premultiplied) RGBA

	draw DrawCallback

	arena  *arena.Arena
	state  *statedict.Dict
	timing frameTiming

	logger *slog.Logger

	inFrame bool
	closed  bool
}

var _ io.Closer = (*Context)(nil)

// NewContext duplicates comm (so this context's tag namespace never
// collides with the caller's own use of the same communicator,
// spec §4.1) and returns a Context ready to have its tiles and draw
// callback configured.
func NewContext(c comm.Communicator, color imgfmt.ColorFormat, depth imgfmt.DepthFormat, opts ...Option) *Context {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger
	if logger == nil {
		logger = Logger()
	}

	ctx := &Context{
		comm:     c.Duplicate(),
		desc:     imgfmt.Descriptor{Color: color, Depth: depth},
		mode:     codec.ModeZBuffer,
		strat:    StrategyReduce,
		single:   SingleAutomatic,
		magicK:   options.magicK,
		tiles:    NewTilePlanner(),
		modelview: linalg.Identity(),
		proj:      linalg.Identity(),
		arena:     arena.New(options.arenaCapHint),
		state:     statedict.New(statedict.DefaultSchema()),
		logger:    logger,
	}
	ctx.state.SetInt(statedict.KeyRank, ctx.comm.Rank())
	ctx.state.SetInt(statedict.KeyNumProcesses, ctx.comm.Size())
	ctx.state.SetInt(statedict.KeyMagicK, ctx.magicK)
	return ctx
}

// Close releases the context's duplicated communicator. Idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.comm.Destroy()
	return nil
}

// Rank returns this process's rank within the context's communicator.
func (c *Context) Rank() int { return c.comm.Rank() }

// Size returns the number of processes in the context's communicator.
func (c *Context) Size() int { return c.comm.Size() }

// State returns the context's state dictionary (spec §6), for callers
// that want to read timing counters or derived per-frame geometry
// after a DrawFrame call.
func (c *Context) State() *statedict.Dict { return c.state }

// AddTile appends a tile to the display configuration. Spec §4.5's
// add_tile.
func (c *Context) AddTile(rect Rect, display int) {
	c.tiles.AddTile(rect, display)
	c.syncTileState()
}

// ResetTiles clears the tile list. Spec §4.5's reset_tiles.
func (c *Context) ResetTiles() {
	c.tiles.ResetTiles()
	c.syncTileState()
}

func (c *Context) syncTileState() {
	tiles := c.tiles.Tiles()
	flat := make([]int, 0, len(tiles)*4)
	displays := make([]int, 0, len(tiles))
	for _, t := range tiles {
		flat = append(flat, t.Rect.X, t.Rect.Y, t.Rect.W, t.Rect.H)
		displays = append(displays, t.Display)
	}
	c.state.SetIntArray(statedict.KeyTileList, flat)
	c.state.SetIntArray(statedict.KeyDisplayNodes, displays)
}

// SetDrawCallback installs the callback DrawFrame invokes once per
// frame to render this process's share of the scene.
func (c *Context) SetDrawCallback(cb DrawCallback) { c.draw = cb }

// SetCompositeMode selects Z-buffer or blend compositing.
func (c *Context) SetCompositeMode(mode CompositeMode) {
	c.mode = mode
	c.state.SetInt(statedict.KeyCompositeMode, int(mode))
}

// SetStrategy selects the multi-tile strategy (spec §4.7).
func (c *Context) SetStrategy(s MultiTileStrategy) {
	c.strat = s
	c.state.SetInt(statedict.KeyStrategy, int(s))
}

// SetSingleImageStrategy selects the single-image reduction strategy
// (spec §4.8) StrategySequential and StrategyReduce delegate to.
func (c *Context) SetSingleImageStrategy(s SingleImageStrategy) {
	c.single = s
	c.state.SetInt(statedict.KeySingleImageStrategy, int(s))
}

// SetCompositeOrder installs the process-rank ordering ordered blend
// compositing must respect; pass nil to disable ordering.
func (c *Context) SetCompositeOrder(order []int) {
	c.tiles.SetCompositeOrder(order)
	c.state.SetIntArray(statedict.KeyCompositeOrder, order)
}

// SetProjectionMatrix and SetModelviewMatrix install the matrices
// ProjectBounds (spec §4.4) multiplies against SetBoundingVertices'
// geometry each frame.
func (c *Context) SetProjectionMatrix(m linalg.M4) { c.proj = m }
func (c *Context) SetModelviewMatrix(m linalg.M4)  { c.modelview = m }

// SetBoundingVertices installs the object-space vertices (typically a
// bounding box's 8 corners, see linalg.AABBCorners) ProjectBounds uses
// to compute this process's contained viewport each frame. Passing nil
// restores the no-bounds default (every tile contained).
func (c *Context) SetBoundingVertices(verts []linalg.V3) { c.bounds = verts }

// SetBackgroundColor sets the straight (non-premultiplied) RGBA color
// painted into every pixel no contribution covers.
func (c *Context) SetBackgroundColor(r, g, b, a float32) {
	c.bgColor = [4]float32{r, g, b, a}
	c.state.SetFloatArray(statedict.KeyBackgroundColor, []float32{r, g, b, a})
}

// SetReplicationGroup installs the data-replication group (spec §4.7):
// a set of ranks that hold identical copies of the scene data and so
// can divide the rendering work for it geographically. Pass nil to
// disable replication (every process renders its whole contained
// viewport, the default).
func (c *Context) SetReplicationGroup(group []int) {
	c.replicationGroup = group
	c.state.SetIntArray(statedict.KeyDataReplicationGroup, group)
}

// ReplicationViewport returns the sub-rectangle of this process's
// contained viewport it was assigned to render on the most recently
// completed DrawFrame call, narrowed by its data-replication group if
// one is configured. DrawCallback implementations that render from
// replicated source data should restrict their rendering to this
// rectangle instead of the whole contained viewport.
func (c *Context) ReplicationViewport() Rect { return c.lastReplication }

var errContextClosed = errors.New("icet: context closed")

func (c *Context) beginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newError(InvalidOperation, "DrawFrame", errContextClosed)
	}
	if c.inFrame {
		return newError(InvalidOperation, "DrawFrame", ErrReentrantFrame)
	}
	c.inFrame = true
	return nil
}

func (c *Context) endFrame() {
	c.mu.Lock()
	c.inFrame = false
	c.mu.Unlock()
}

func rectToInts(r Rect) []int { return []int{r.X, r.Y, r.W, r.H} }

func indexOfRank(ranks []int, r int) int {
	for i, x := range ranks {
		if x == r {
			return i
		}
	}
	return -1
}

func singleStrategyFunc(s SingleImageStrategy, magicK int) single.Strategy {
	switch s {
	case SingleBinaryTree:
		return single.BinaryTree
	case SingleBinarySwap:
		return single.BinarySwap
	case SingleRadixK:
		return single.RadixK(magicK)
	default:
		return single.Automatic(magicK)
	}
}

// replicationViewport narrows rect (this process's contained viewport)
// to the sub-region it is responsible for rendering when part of a
// data-replication group: recursively bisect rect along its longer
// axis according to this process's position within the group, so the
// group's members partition the region among themselves with no
// overlap and no gaps.
func replicationViewport(rect Rect, group []int, self int) Rect {
	pos := indexOfRank(group, self)
	if pos < 0 || len(group) < 2 {
		return rect
	}
	lo, hi := 0, len(group)
	for hi-lo > 1 {
		mid := lo + (hi-lo+1)/2
		a, b := rect.BisectLongerAxis()
		if pos < mid {
			rect = a
			hi = mid
		} else {
			rect = b
			lo = mid
		}
	}
	return rect
}
