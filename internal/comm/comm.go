// Package comm implements the Communicator abstraction spec §4.1
// defines: typed point-to-point and collective message passing with
// non-blocking send/recv. It follows the same "interface + named
// factory registry" shape gogpu-gg uses for its RenderBackend
// (backend/backend.go, backend/registry.go) — Register/Get/Available
// here play the same role duplicate() and transport selection do for
// a Communicator.
package comm

import "errors"

// Datatype is the small element-type enum spec §4.1 specifies.
type Datatype uint8

const (
	Byte Datatype = iota
	Short
	Int
	Float
	Double
)

// Size returns the element size in bytes.
func (d Datatype) Size() int {
	switch d {
	case Byte:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// ErrInvalidOperation reports a fatal communicator failure (spec §4.1:
// "failures surface as fatal errors (INVALID_OPERATION)").
var ErrInvalidOperation = errors.New("comm: invalid operation")

// Request is a handle to a pending non-blocking operation. Callers
// should treat it as opaque; ID is exported only so transport
// implementations outside this package can mint and recognize their
// own request handles. The zero Request is the distinguished null
// request.
type Request struct {
	ID uint64
}

// IsNull reports whether r is the null request.
func (r Request) IsNull() bool { return r.ID == 0 }

// Communicator is a polymorphic message-passing handle: one isolated
// tag namespace and process group, per spec §4.1.
type Communicator interface {
	// Duplicate returns a fresh communicator over the same group with an
	// isolated tag namespace. Callers must Destroy it.
	Duplicate() Communicator
	// Destroy releases the communicator. Using it afterward is undefined.
	Destroy()

	Send(buf []byte, dtype Datatype, dest, tag int) error
	Recv(buf []byte, dtype Datatype, src, tag int) error
	Sendrecv(sendBuf []byte, stype Datatype, dest, stag int, recvBuf []byte, rtype Datatype, src, rtag int) error

	// Gather concatenates every rank's sendBuf, in rank order, into
	// recvBuf on root. recvBuf is ignored on non-root ranks.
	Gather(sendBuf []byte, dtype Datatype, recvBuf []byte, root int) error
	// Allgather concatenates every rank's sendBuf, in rank order, into
	// recvBuf on every rank.
	Allgather(sendBuf []byte, dtype Datatype, recvBuf []byte) error

	Isend(buf []byte, dtype Datatype, dest, tag int) (Request, error)
	Irecv(buf []byte, dtype Datatype, src, tag int) (Request, error)
	// Wait blocks until req completes. The request is invalidated.
	Wait(req Request) error
	// Waitany blocks until exactly one of reqs completes, returning its
	// index. That slot's caller-visible copy should become the null
	// request; Waitany itself only reports the index.
	Waitany(reqs []Request) (int, error)

	Size() int
	Rank() int
}

// Factory creates a new Communicator instance, analogous to gogpu-gg's
// BackendFactory.
type Factory func() (Communicator, error)
