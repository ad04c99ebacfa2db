package strategy

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/icet-go/icet/internal/comm"
)

// runDirect implements spec §4.7's direct strategy: every contributor
// sends its compressed image straight to the tile's display process,
// which composites arrivals as they come in. Simplest strategy, and
// the one with the least opportunity for overlap — every contributor
// of a busy tile serializes on that tile's display process.
//
// This process's tiles are independent of each other (distinct display
// ranks, distinct tag ranges), so its role in each is resolved
// concurrently via errgroup rather than one at a time.
func runDirect(p Params) (Result, error) {
	result := Result{Images: make(map[int]*TileImage)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, tv := range p.Tiles {
		tv := tv
		g.Go(func() error {
			if len(tv.Contributors) == 0 {
				return nil
			}
			tag := tileTag(p.Tag, tv.Index)
			switch {
			case p.Self == tv.Display:
				group := orderedGroup(tv.Contributors, p.CompositeOrder)
				images := make([][]byte, len(group))
				for i, r := range group {
					if r == p.Self {
						images[i] = tv.Local
						continue
					}
					data, err := comm.RecvVar(p.Comm, r, tag)
					if err != nil {
						return err
					}
					images[i] = data
				}
				td := tileDescriptor(p, tv)
				merged, err := foldSparse(images, td, p.Mode)
				if err != nil {
					return err
				}
				mu.Lock()
				result.Images[tv.Index] = &TileImage{Data: merged, Desc: td}
				mu.Unlock()
			case containsRank(tv.Contributors, p.Self):
				return comm.SendVar(p.Comm, tv.Display, tag, tv.Local)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func containsRank(ranks []int, r int) bool {
	for _, x := range ranks {
		if x == r {
			return true
		}
	}
	return false
}
