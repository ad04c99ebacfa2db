package strategy

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/icet-go/icet/internal/comm"
)

// runVtree implements a simplified approximation of spec §4.7's vtree
// strategy. The real algorithm forms a dynamic convergent-exchange
// tree whose shape adapts to which peers have finished rendering;
// without a real rendering pipeline or timing feedback to adapt to,
// this builds a fixed binary merge tree over each tile's contributor
// list instead — every round pairs adjacent holders, the lower-rank
// holder of each pair receives and folds in the higher-rank holder's
// image, and the surviving holder is forwarded to the display process
// once one holder remains.
//
// Does not support ordered compositing: pairing is driven by rank
// adjacency within the contributor list, not by composite priority.
func runVtree(p Params) (Result, error) {
	if p.CompositeOrder != nil {
		return Result{}, ErrOrderedNotSupported
	}
	result := Result{Images: make(map[int]*TileImage)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, tv := range p.Tiles {
		tv := tv
		g.Go(func() error {
			holders := append([]int(nil), tv.Contributors...)
			if len(holders) == 0 {
				return nil
			}
			td := tileDescriptor(p, tv)
			tag := tileTag(p.Tag, tv.Index)

			local := tv.Local
			round := 0
			for len(holders) > 1 {
				next := make([]int, 0, (len(holders)+1)/2)
				for i := 0; i < len(holders); i += 2 {
					if i+1 >= len(holders) {
						next = append(next, holders[i])
						break
					}
					receiver, sender := holders[i], holders[i+1]
					roundTag := tag + round*2
					switch p.Self {
					case receiver:
						data, err := comm.RecvVar(p.Comm, sender, roundTag)
						if err != nil {
							return err
						}
						merged, err := foldSparse([][]byte{data, local}, td, p.Mode)
						if err != nil {
							return err
						}
						local = merged
					case sender:
						if err := comm.SendVar(p.Comm, receiver, roundTag, local); err != nil {
							return err
						}
					}
					next = append(next, receiver)
				}
				holders = next
				round++
			}

			root := holders[0]
			relayTag := tag + tileTagSpace/2
			switch {
			case p.Self == root && root == tv.Display:
				mu.Lock()
				result.Images[tv.Index] = &TileImage{Data: local, Desc: td}
				mu.Unlock()
			case p.Self == root:
				return comm.SendVar(p.Comm, tv.Display, relayTag, local)
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
