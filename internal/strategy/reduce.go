package strategy

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/single"
)

// runReduce implements spec §4.7's reduce strategy, the general-purpose
// default: Phase 1 ("delegate") allocates a group of processes to each
// tile roughly proportional to its contributor count (allocateGroups);
// Phase 2 routes every contributor's image to one member of its tile's
// group (a contiguous, order-preserving block per member), each member
// folds its block locally, and the group runs a single-image strategy
// over those folded blocks to produce the tile's final image, which is
// forwarded to the display process if it isn't already group[0].
func runReduce(p Params) (Result, error) {
	size := p.Comm.Size()
	groups := allocateGroups(p.Tiles, size)

	result := Result{Images: make(map[int]*TileImage)}
	var mu sync.Mutex

	var g errgroup.Group
	for i, tv := range p.Tiles {
		tv := tv
		group := groups[i]
		g.Go(func() error {
			if len(group) == 0 {
				return nil
			}
			ordered := orderedGroup(tv.Contributors, p.CompositeOrder)
			blocks := partitionSlice(ordered, len(group))
			memberOf := make(map[int]int, len(ordered))
			for bi, block := range blocks {
				for _, r := range block {
					memberOf[r] = bi
				}
			}

			tag := tileTag(p.Tag, tv.Index)
			td := tileDescriptor(p, tv)
			inContributors := containsRank(tv.Contributors, p.Self)
			inGroup := containsRank(group, p.Self)

			if inContributors {
				target := group[memberOf[p.Self]]
				if target != p.Self {
					if err := comm.SendVar(p.Comm, target, tag, tv.Local); err != nil {
						return err
					}
				}
			}

			var localFold []byte
			if inGroup {
				myPos := indexOf(group, p.Self)
				pieces := make([][]byte, len(blocks[myPos]))
				for bi, r := range blocks[myPos] {
					if r == p.Self {
						pieces[bi] = tv.Local
						continue
					}
					data, err := comm.RecvVar(p.Comm, r, tag)
					if err != nil {
						return err
					}
					pieces[bi] = data
				}
				folded, err := foldSparse(pieces, td, p.Mode)
				if err != nil {
					return err
				}
				localFold = folded
			}

			if !inGroup && p.Self != tv.Display {
				return nil
			}

			var final []byte
			if inGroup {
				sp := single.Params{
					Comm: p.Comm, Self: p.Self, Group: group,
					Desc: td, Mode: p.Mode, Local: localFold, Tag: tag + tileTagSpace/2,
				}
				f, err := p.Single(sp)
				if err != nil {
					return err
				}
				final = f
			}

			root := group[0]
			relayTag := tag + tileTagSpace/2 + 4096
			switch {
			case p.Self == root && root == tv.Display:
				mu.Lock()
				result.Images[tv.Index] = &TileImage{Data: final, Desc: td}
				mu.Unlock()
			case p.Self == root:
				return comm.SendVar(p.Comm, tv.Display, relayTag, final)
			case p.Self == tv.Display:
				data, err := comm.RecvVar(p.Comm, root, relayTag)
				if err != nil {
					return err
				}
				mu.Lock()
				result.Images[tv.Index] = &TileImage{Data: data, Desc: td}
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
