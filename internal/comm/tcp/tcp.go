// Package tcp implements a Communicator transport over plain TCP: one
// process per rank, a full mesh of persistent connections set up at
// construction, point-to-point sends written directly to the peer's
// connection and collectives built from repeated point-to-point calls.
// The connection setup (net.Listener.Accept loop handing connections
// to per-peer read goroutines, bufio.Reader/Writer framing) follows
// other_examples/.../patdhlk-rfb's Server/Conn shape; see wire.go for
// the frame format itself.
package tcp

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/icet-go/icet/internal/comm"
)

func init() {
	comm.Register("tcp", func() (comm.Communicator, error) {
		addrs := strings.Split(os.Getenv("ICET_TCP_ADDRS"), ",")
		rank, err := strconv.Atoi(os.Getenv("ICET_TCP_RANK"))
		if err != nil {
			return nil, fmt.Errorf("tcp: ICET_TCP_RANK: %w", err)
		}
		return NewCommunicator(Config{Addrs: addrs, Rank: rank})
	})
}

// Config describes one rank's view of the group: every rank's listen
// address (so rank i can dial rank j) and this process's own rank.
type Config struct {
	Addrs []string
	Rank  int
}

type peer struct {
	conn net.Conn
	w    *bufio.Writer
	wmu  sync.Mutex
}

// Communicator is the tcp Communicator implementation.
type Communicator struct {
	rank, size int
	peers      []*peer // indexed by rank; peers[rank] is nil

	linksMu sync.Mutex
	links   map[int]map[int]*msgQueue // src rank -> tag -> queue

	reqMu   sync.Mutex
	nextID  uint64
	pending map[uint64]chan error
}

// NewCommunicator dials every higher-ranked peer and accepts
// connections from every lower-ranked one (the lower rank of each pair
// dials, the higher rank listens), so each pair opens exactly one
// connection. A refused dial is retried for about a second while the
// peer's listener comes up.
func NewCommunicator(cfg Config) (*Communicator, error) {
	size := len(cfg.Addrs)
	if cfg.Rank < 0 || cfg.Rank >= size {
		return nil, fmt.Errorf("tcp: rank %d out of range for group size %d", cfg.Rank, size)
	}

	c := &Communicator{
		rank:    cfg.Rank,
		size:    size,
		peers:   make([]*peer, size),
		links:   make(map[int]map[int]*msgQueue),
		pending: make(map[uint64]chan error),
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", cfg.Addrs[cfg.Rank])
	if err != nil {
		return nil, fmt.Errorf("tcp: listen on %s: %w", cfg.Addrs[cfg.Rank], err)
	}

	accepted := make(chan net.Conn)
	go func() {
		for i := 0; i < cfg.Rank; i++ {
			conn, err := ln.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- conn
		}
		ln.Close()
	}()

	for i := 0; i < cfg.Rank; i++ {
		conn, ok := <-accepted
		if !ok {
			return nil, fmt.Errorf("tcp: accept loop closed early")
		}
		remoteRank, err := readRankHeader(conn)
		if err != nil {
			return nil, err
		}
		c.attach(remoteRank, conn)
	}

	for r := cfg.Rank + 1; r < size; r++ {
		var conn net.Conn
		var err error
		for attempt := 0; attempt < 50; attempt++ {
			if conn, err = net.Dial("tcp", cfg.Addrs[r]); err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			return nil, fmt.Errorf("tcp: dial %s: %w", cfg.Addrs[r], err)
		}
		if err := writeRankHeader(conn, cfg.Rank); err != nil {
			return nil, err
		}
		c.attach(r, conn)
	}

	return c, nil
}

func writeRankHeader(conn net.Conn, rank int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(rank))
	_, err := conn.Write(buf[:])
	return err
}

func readRankHeader(conn net.Conn) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

func (c *Communicator) attach(remoteRank int, conn net.Conn) {
	p := &peer{conn: conn, w: bufio.NewWriter(conn)}
	c.peers[remoteRank] = p
	go c.readLoop(remoteRank, conn)
}

func (c *Communicator) readLoop(remoteRank int, conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		srcRank, tag, payload, err := readFrame(r)
		if err != nil {
			return
		}
		c.queueFor(srcRank, tag).push(message{data: payload})
	}
}

func (c *Communicator) queueFor(srcRank, tag int) *msgQueue {
	c.linksMu.Lock()
	defer c.linksMu.Unlock()
	byTag, ok := c.links[srcRank]
	if !ok {
		byTag = make(map[int]*msgQueue)
		c.links[srcRank] = byTag
	}
	q, ok := byTag[tag]
	if !ok {
		q = newMsgQueue()
		byTag[tag] = q
	}
	return q
}

func (c *Communicator) Duplicate() comm.Communicator {
	// A tcp communicator's peer connections are a scarce OS resource, so
	// Duplicate shares them rather than redialing; tag isolation is the
	// caller's responsibility (use a disjoint tag range), unlike the
	// loopback transport which can afford a fresh hub per Duplicate.
	return c
}

func (c *Communicator) Destroy() {
	for _, p := range c.peers {
		if p != nil {
			p.conn.Close()
		}
	}
}

func (c *Communicator) Size() int { return c.size }
func (c *Communicator) Rank() int { return c.rank }

func (c *Communicator) Send(buf []byte, dtype comm.Datatype, dest, tag int) error {
	if dest == c.rank {
		c.queueFor(c.rank, tag).push(message{data: append([]byte(nil), buf...)})
		return nil
	}
	p := c.peers[dest]
	if p == nil {
		return comm.ErrInvalidOperation
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return writeFrame(p.w, c.rank, tag, buf)
}

func (c *Communicator) Recv(buf []byte, dtype comm.Datatype, src, tag int) error {
	m := c.queueFor(src, tag).pop()
	copy(buf, m.data)
	return nil
}

func (c *Communicator) Sendrecv(sendBuf []byte, stype comm.Datatype, dest, stag int, recvBuf []byte, rtype comm.Datatype, src, rtag int) error {
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

// collectiveTag and collectiveTag-1 are reserved for the point-to-point
// messages Gather and Allgather build themselves from (Allgather's
// broadcast leg uses collectiveTag-1); strategies must not use them
// directly.
const collectiveTag = -1

// Gather sends every non-root rank's buffer to root over ordinary
// point-to-point sends; root assembles them in rank order. There is no
// shared hub to barrier on like the loopback transport, so this is the
// straightforward per-process building block instead.
func (c *Communicator) Gather(sendBuf []byte, dtype comm.Datatype, recvBuf []byte, root int) error {
	elemSize := len(sendBuf)
	if c.rank == root {
		off := 0
		for r := 0; r < c.size; r++ {
			if r == c.rank {
				copy(recvBuf[off:off+elemSize], sendBuf)
			} else {
				if err := c.Recv(recvBuf[off:off+elemSize], dtype, r, collectiveTag); err != nil {
					return err
				}
			}
			off += elemSize
		}
		return nil
	}
	return c.Send(sendBuf, dtype, root, collectiveTag)
}

// Allgather gathers to rank 0 then broadcasts the concatenation to
// every other rank via point-to-point sends.
func (c *Communicator) Allgather(sendBuf []byte, dtype comm.Datatype, recvBuf []byte) error {
	const root = 0
	if err := c.Gather(sendBuf, dtype, recvBuf, root); err != nil {
		return err
	}
	if c.rank == root {
		for r := 1; r < c.size; r++ {
			if err := c.Send(recvBuf, dtype, r, collectiveTag-1); err != nil {
				return err
			}
		}
		return nil
	}
	return c.Recv(recvBuf, dtype, root, collectiveTag-1)
}

func (c *Communicator) newRequest() (comm.Request, chan error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	c.nextID++
	id := c.nextID
	ch := make(chan error, 1)
	c.pending[id] = ch
	return comm.Request{ID: id}, ch
}

func (c *Communicator) Isend(buf []byte, dtype comm.Datatype, dest, tag int) (comm.Request, error) {
	req, ch := c.newRequest()
	go func() { ch <- c.Send(buf, dtype, dest, tag) }()
	return req, nil
}

func (c *Communicator) Irecv(buf []byte, dtype comm.Datatype, src, tag int) (comm.Request, error) {
	req, ch := c.newRequest()
	go func() { ch <- c.Recv(buf, dtype, src, tag) }()
	return req, nil
}

func (c *Communicator) takeChan(req comm.Request) chan error {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	ch := c.pending[req.ID]
	delete(c.pending, req.ID)
	return ch
}

func (c *Communicator) Wait(req comm.Request) error {
	if req.IsNull() {
		return nil
	}
	ch := c.takeChan(req)
	if ch == nil {
		return comm.ErrInvalidOperation
	}
	return <-ch
}

func (c *Communicator) Waitany(reqs []comm.Request) (int, error) {
	c.reqMu.Lock()
	cases := make([]reflect.SelectCase, 0, len(reqs))
	indices := make([]int, 0, len(reqs))
	for i, r := range reqs {
		if r.IsNull() {
			continue
		}
		ch, ok := c.pending[r.ID]
		if !ok {
			continue
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
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
