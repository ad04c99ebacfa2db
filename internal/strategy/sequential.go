package strategy

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/single"
)

// runSequential implements spec §4.7's sequential strategy: for each
// tile, every contributor joins a single-image reduction (spec §4.8,
// via internal/single) over exactly that tile's contributor set,
// routed to the tile's display process. Tiles are independent, so this
// process resolves its role in each concurrently via errgroup.
func runSequential(p Params) (Result, error) {
	result := Result{Images: make(map[int]*TileImage)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, tv := range p.Tiles {
		tv := tv
		g.Go(func() error {
			group := orderedGroup(tv.Contributors, p.CompositeOrder)
			if len(group) == 0 {
				return nil
			}
			inGroup := containsRank(group, p.Self)
			if !inGroup && p.Self != tv.Display {
				return nil
			}
			tag := tileTag(p.Tag, tv.Index)
			td := tileDescriptor(p, tv)

			var final []byte
			if inGroup {
				sp := single.Params{
					Comm: p.Comm, Self: p.Self, Group: group,
					Desc: td, Mode: p.Mode, Local: tv.Local, Tag: tag,
				}
				f, err := p.Single(sp)
				if err != nil {
					return err
				}
				final = f
			}

			root := group[0]
			relayTag := tag + tileTagSpace/2
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
