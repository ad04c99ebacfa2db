package strategy

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/geom"
	"github.com/icet-go/icet/internal/imgfmt"
)

// ErrOrderedNotSupported is returned by strategies spec §4.7 names as
// unable to preserve an ordered composite (split, vtree): both reorder
// contributions by pixel range or by transfer progress rather than by
// composite priority, so an explicit CompositeOrder can't be honored.
var ErrOrderedNotSupported = errors.New("strategy: does not support ordered compositing")

// runSplit implements spec §4.7's split strategy: the tile's own
// contributors (a simplification of "a group proportional to
// contributor count" — see the design notes this ships with) divide
// the tile image into one horizontal strip per contributor. Each
// contributor renders its full tile contribution once, then sends
// every other contributor's strip range to it; each contributor
// composites the strip it owns from every contributor's corresponding
// extract, sends its finished strip to the display process, and the
// display concatenates the strips back into one tile image.
//
// Does not support ordered compositing: splitting by pixel range
// mixes contributions from different composite priorities within the
// same strip with no relation to their order.
func runSplit(p Params) (Result, error) {
	if p.CompositeOrder != nil {
		return Result{}, ErrOrderedNotSupported
	}
	result := Result{Images: make(map[int]*TileImage)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, tv := range p.Tiles {
		tv := tv
		g.Go(func() error {
			owners := tv.Contributors
			if len(owners) == 0 {
				return nil
			}
			td := tileDescriptor(p, tv)
			strips := tv.Rect.SplitHorizontal(len(owners))
			tag := tileTag(p.Tag, tv.Index)

			if containsRank(tv.Contributors, p.Self) {
				for oi, owner := range owners {
					if owner == p.Self {
						continue
					}
					start, end := stripPixelRange(tv, strips[oi], td)
					part := codec.ExtractRange(tv.Local, td, start, end)
					if err := comm.SendVar(p.Comm, owner, tag+oi, part); err != nil {
						return err
					}
				}
			}

			myOwnerIdx := indexOf(owners, p.Self)
			var finalStrip []byte
			if myOwnerIdx >= 0 {
				start, end := stripPixelRange(tv, strips[myOwnerIdx], td)
				stripDesc := codec.RangeDescriptor(td, end-start)
				pieces := make([][]byte, len(tv.Contributors))
				for ci, contributor := range tv.Contributors {
					if contributor == p.Self {
						pieces[ci] = codec.ExtractRange(tv.Local, td, start, end)
						continue
					}
					data, err := comm.RecvVar(p.Comm, contributor, tag+myOwnerIdx)
					if err != nil {
						return err
					}
					pieces[ci] = data
				}
				folded, err := foldSparse(pieces, stripDesc, p.Mode)
				if err != nil {
					return err
				}
				finalStrip = folded
			}

			if myOwnerIdx < 0 && p.Self != tv.Display {
				return nil
			}

			relayTag := tag + tileTagSpace/2
			if myOwnerIdx >= 0 && owners[myOwnerIdx] != tv.Display {
				if err := comm.SendVar(p.Comm, tv.Display, relayTag+myOwnerIdx, finalStrip); err != nil {
					return err
				}
			}

			if p.Self == tv.Display {
				parts := make([]codec.RangePart, len(owners))
				for oi, owner := range owners {
					count := strips[oi].H * td.Width
					var data []byte
					if owner == p.Self {
						data = finalStrip
					} else {
						d, err := comm.RecvVar(p.Comm, owner, relayTag+oi)
						if err != nil {
							return err
						}
						data = d
					}
					parts[oi] = codec.RangePart{Data: data, Count: count}
				}
				// Re-encode the joined strips so runs meeting at a strip
				// boundary merge into one.
				joined := codec.ExtractRange(codec.ConcatRanges(parts), td, 0, td.NumPixels())
				mu.Lock()
				result.Images[tv.Index] = &TileImage{Data: joined, Desc: td}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

// stripPixelRange converts strip (a sub-rectangle of tv.Rect spanning
// its full width) into the flat pixel range it occupies within tv's
// own row-major contribution, relying on every strip being full-width
// rows so the range is contiguous.
func stripPixelRange(tv TileView, strip geom.Rect, td imgfmt.Descriptor) (int, int) {
	start := (strip.Y - tv.Rect.Y) * td.Width
	end := start + strip.H*td.Width
	return start, end
}
