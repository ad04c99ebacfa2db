// Package local implements an in-process loopback Communicator: every
// rank is a goroutine-friendly handle sharing a hub of message queues
// and collective barriers, rather than talking over a real transport.
// It exists for tests and single-process demos, the way gogpu-gg's
// "software" backend exists alongside its GPU ones (backend/registry.go)
// as the always-available fallback.
package local

import (
	"reflect"
	"sync"

	"github.com/icet-go/icet/internal/comm"
)

func init() {
	comm.Register("local", func() (comm.Communicator, error) {
		return NewGroup(1)[0], nil
	})
}

// NewGroup builds size loopback Communicators sharing one hub, indexed
// by rank. Callers typically run each returned Communicator's owning
// strategy logic in its own goroutine.
func NewGroup(size int) []comm.Communicator {
	h := newHub(size)
	group := make([]comm.Communicator, size)
	for r := 0; r < size; r++ {
		group[r] = &Communicator{hub: h, rank: r}
	}
	return group
}

// pendingOp tracks one in-flight Isend/Irecv.
type pendingOp struct {
	done chan error
}

// Communicator is the loopback Communicator implementation.
type Communicator struct {
	hub  *hub
	rank int

	reqMu   sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingOp
}

func (c *Communicator) Duplicate() comm.Communicator {
	return &Communicator{hub: c.hub.duplicate(c.rank), rank: c.rank}
}

func (c *Communicator) Destroy() {}

func (c *Communicator) Size() int { return c.hub.size }
func (c *Communicator) Rank() int { return c.rank }

func (c *Communicator) Send(buf []byte, dtype comm.Datatype, dest, tag int) error {
	cp := append([]byte(nil), buf...)
	c.hub.link(linkKey{src: c.rank, dest: dest, tag: tag}).push(message{data: cp})
	return nil
}

func (c *Communicator) Recv(buf []byte, dtype comm.Datatype, src, tag int) error {
	m := c.hub.link(linkKey{src: src, dest: c.rank, tag: tag}).pop()
	copy(buf, m.data)
	return nil
}

func (c *Communicator) Sendrecv(sendBuf []byte, stype comm.Datatype, dest, stag int, recvBuf []byte, rtype comm.Datatype, src, rtag int) error {
	// Post the receive in its own goroutine so a ring of processes
	// sendrecv-ing to their neighbor simultaneously can't deadlock.
	var wg sync.WaitGroup
	var recvErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		recvErr = c.Recv(recvBuf, rtype, src, rtag)
	}()
	sendErr := c.Send(sendBuf, stype, dest, stag)
	wg.Wait()
	if sendErr != nil {
		return sendErr
	}
	return recvErr
}

func (c *Communicator) Gather(sendBuf []byte, dtype comm.Datatype, recvBuf []byte, root int) error {
	bufs := c.hub.gather(&c.hub.gatherMu, &c.hub.gatherRound, c.rank, sendBuf)
	if c.rank == root {
		concatInto(recvBuf, bufs)
	}
	return nil
}

func (c *Communicator) Allgather(sendBuf []byte, dtype comm.Datatype, recvBuf []byte) error {
	bufs := c.hub.gather(&c.hub.allgatherMu, &c.hub.allgatherRound, c.rank, sendBuf)
	concatInto(recvBuf, bufs)
	return nil
}

func concatInto(dst []byte, bufs [][]byte) {
	off := 0
	for _, b := range bufs {
		off += copy(dst[off:], b)
	}
}

func (c *Communicator) newRequest() (comm.Request, *pendingOp) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	if c.pending == nil {
		c.pending = make(map[uint64]*pendingOp)
	}
	c.nextID++
	id := c.nextID
	op := &pendingOp{done: make(chan error, 1)}
	c.pending[id] = op
	return comm.Request{ID: id}, op
}

func (c *Communicator) Isend(buf []byte, dtype comm.Datatype, dest, tag int) (comm.Request, error) {
	req, op := c.newRequest()
	go func() {
		op.done <- c.Send(buf, dtype, dest, tag)
	}()
	return req, nil
}

func (c *Communicator) Irecv(buf []byte, dtype comm.Datatype, src, tag int) (comm.Request, error) {
	req, op := c.newRequest()
	go func() {
		op.done <- c.Recv(buf, dtype, src, tag)
	}()
	return req, nil
}

func (c *Communicator) takeOp(req comm.Request) *pendingOp {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	op := c.pending[req.ID]
	delete(c.pending, req.ID)
	return op
}

func (c *Communicator) Wait(req comm.Request) error {
	if req.IsNull() {
		return nil
	}
	op := c.takeOp(req)
	if op == nil {
		return comm.ErrInvalidOperation
	}
	return <-op.done
}

func (c *Communicator) Waitany(reqs []comm.Request) (int, error) {
	c.reqMu.Lock()
	cases := make([]reflect.SelectCase, 0, len(reqs))
	indices := make([]int, 0, len(reqs))
	for i, r := range reqs {
		if r.IsNull() {
			continue
		}
		op, ok := c.pending[r.ID]
		if !ok {
			continue
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(op.done)})
		indices = append(indices, i)
	}
	c.reqMu.Unlock()

	if len(cases) == 0 {
		return -1, comm.ErrInvalidOperation
	}
	chosen, value, _ := reflect.Select(cases)
	idx := indices[chosen]

	c.reqMu.Lock()
	delete(c.pending, reqs[idx].ID)
	c.reqMu.Unlock()

	var err error
	if e := value.Interface(); e != nil {
		err = e.(error)
	}
	return idx, err
}

var _ comm.Communicator = (*Communicator)(nil)
