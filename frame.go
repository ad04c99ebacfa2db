package icet

import (
	"time"

	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/imgfmt"
	"github.com/icet-go/icet/internal/statedict"
	"github.com/icet-go/icet/internal/strategy"
)

// DrawFrame runs spec §4.6's per-frame protocol:
//
//  1. reset this frame's timing counters and buffer arena.
//  2. recompute this process's contained viewport from the currently
//     installed projection/modelview/bounding-vertex state, and gather
//     every process's per-tile contribution masks.
//  3. narrow the render region if a data-replication group is active.
//  4. invoke the draw callback.
//  5. extract, compress, and dispatch each locally contributed tile's
//     image through the configured multi-tile strategy.
//  6. return this process's displayed tile image (nil if it displays
//     none this frame), with the configured background color
//     substituted for every pixel nothing composited onto.
//
// DrawFrame is not reentrant: calling it again before a prior call
// returns reports ErrReentrantFrame.
func (c *Context) DrawFrame() (*DenseImage, error) {
	if err := c.beginFrame(); err != nil {
		return nil, err
	}
	defer c.endFrame()

	if c.draw == nil {
		return nil, newError(InvalidOperation, "DrawFrame", ErrNoDrawCallback)
	}
	if len(c.tiles.Tiles()) == 0 {
		return nil, newError(InvalidOperation, "DrawFrame", ErrNoTiles)
	}

	frameStart := time.Now()
	c.timing.reset()
	c.arena.Reset()

	gvp := c.tiles.GlobalViewport()
	cv := ProjectBounds(c.proj, c.modelview, c.bounds, gvp)
	c.state.SetIntArray(statedict.KeyContainedViewport, rectToInts(cv.Rect()))
	c.state.SetDouble(statedict.KeyNearDepth, cv.ZNear)
	c.state.SetDouble(statedict.KeyFarDepth, cv.ZFar)

	if err := c.tiles.GatherContributions(c.comm, &cv); err != nil {
		return nil, newError(InvalidOperation, "DrawFrame", err)
	}
	c.state.SetPointer(statedict.KeyContainedTilesMask, c.tiles.ContainedTiles())
	c.state.SetIntArray(statedict.KeyTileContribCounts, c.tiles.ContribCounts())
	c.state.SetInt(statedict.KeyTotalImageCount, c.tiles.TotalImageCount())

	c.lastReplication = cv.Rect()
	if len(c.replicationGroup) > 1 {
		c.lastReplication = replicationViewport(cv.Rect(), c.replicationGroup, c.comm.Rank())
	}

	renderStart := time.Now()
	canvas, err := c.draw()
	c.timing.addRender(time.Since(renderStart))
	if err != nil {
		return nil, newError(InvalidOperation, "DrawFrame", err)
	}

	views, err := c.buildTileViews(canvas)
	if err != nil {
		return nil, err
	}

	sp := strategy.Params{
		Comm:   c.comm,
		Self:   c.comm.Rank(),
		Desc:   c.desc,
		Mode:   c.mode,
		Tiles:  views,
		Single: singleStrategyFunc(c.single, c.magicK),
		Tag:    0,
	}
	if c.mode == codec.ModeBlend {
		sp.CompositeOrder = c.tiles.CompositeOrder()
	}

	compositeStart := time.Now()
	result, err := strategy.Run(strategyKind(c.strat), sp)
	c.timing.addComposite(time.Since(compositeStart))
	if err != nil {
		return nil, newError(InvalidOperation, "DrawFrame", err)
	}

	out, err := c.collectDisplayedTile(result)
	if err != nil {
		return nil, err
	}

	c.timing.totalDraw = time.Since(frameStart)
	c.timing.publish(c.state)
	return out, nil
}

// buildTileViews extracts and compresses this process's contribution
// to every tile it is contained in, and fills in every tile's
// contributor list regardless of containment — every process must
// agree on each tile's Index/Display/Contributors so strategy tag
// derivation and group participation line up across ranks even when
// this process itself contributes nothing to a given tile.
func (c *Context) buildTileViews(canvas *DenseImage) ([]strategy.TileView, error) {
	gvp := c.tiles.GlobalViewport()
	tiles := c.tiles.Tiles()
	contained := c.tiles.ContainedTiles()

	renderBG := codec.NewBackground(c.desc, 0, 0, 0, 0)

	views := make([]strategy.TileView, len(tiles))
	for i, t := range tiles {
		views[i] = strategy.TileView{
			Index:        i,
			Rect:         t.Rect,
			Display:      t.Display,
			Contributors: c.tiles.ContributingRanks(i),
		}
		if contained == nil || !contained.IsSet(i) {
			continue
		}

		tileDesc := imgfmt.Descriptor{Width: t.Rect.W, Height: t.Rect.H, Color: c.desc.Color, Depth: c.desc.Depth}
		tileBuf := NewDenseImage(tileDesc)
		srcRect := Rect{X: t.Rect.X - gvp.X, Y: t.Rect.Y - gvp.Y, W: t.Rect.W, H: t.Rect.H}
		dstRect := Rect{W: t.Rect.W, H: t.Rect.H}

		readStart := time.Now()
		if err := CopyRegion(canvas, srcRect, tileBuf, dstRect, renderBG); err != nil {
			return nil, newError(InvalidOperation, "DrawFrame", err)
		}
		c.timing.addBufferRead(time.Since(readStart))

		compressStart := time.Now()
		sparse := CompressImage(tileBuf, c.mode)
		c.timing.addCompress(time.Since(compressStart))

		views[i].Local = sparse.Runs()
	}
	return views, nil
}

// collectDisplayedTile decompresses this process's displayed tile (if
// any) from result, substituting the configured background color for
// every pixel nothing composited onto — the frame's deferred
// "background transparent-black, then composite the background color
// under the finished image" step (spec §4.6): rendering always used a
// transparent background (buildTileViews), so the real background only
// needs to appear once, here, at the end.
func (c *Context) collectDisplayedTile(result strategy.Result) (*DenseImage, error) {
	tiles := c.tiles.Tiles()
	self := c.comm.Rank()
	idx := -1
	var tile Tile
	for i, t := range tiles {
		if t.Display == self {
			idx, tile = i, t
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	tileDesc := imgfmt.Descriptor{Width: tile.Rect.W, Height: tile.Rect.H, Color: c.desc.Color, Depth: c.desc.Depth}
	out := NewDenseImage(tileDesc)
	finalBG := codec.NewBackground(c.desc, c.bgColor[0]*c.bgColor[3], c.bgColor[1]*c.bgColor[3], c.bgColor[2]*c.bgColor[3], c.bgColor[3])

	img, ok := result.Images[idx]
	if !ok || img.Data == nil {
		cb, db := tileDesc.Color.Bytes(), tileDesc.Depth.Bytes()
		fillBackground(out.Color(), out.Depth(), cb, db, finalBG)
		return out, nil
	}

	sparse := newSparseImage(tileDesc, img.Data)
	if err := sparse.DecompressInto(out, finalBG); err != nil {
		return nil, newError(SanityCheckFail, "DrawFrame", err)
	}
	return out, nil
}

func strategyKind(s MultiTileStrategy) strategy.Kind {
	switch s {
	case StrategyDirect:
		return strategy.KindDirect
	case StrategySequential:
		return strategy.KindSequential
	case StrategySplit:
		return strategy.KindSplit
	case StrategyVtree:
		return strategy.KindVtree
	default:
		return strategy.KindReduce
	}
}
