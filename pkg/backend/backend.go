// Package backend defines the transport ABI laik's core consumes and
// never implements itself (spec §6): process init/finalize, group
// topology, and untyped byte send/recv/barrier. Concrete transports
// (pkg/backend/inmem, pkg/backend/tcp) live outside the core package so
// the core never imports a concrete transport.
package backend

import "context"

// Backend is the top-level handle obtained at process start. It owns
// whatever process-wide transport state a concrete implementation
// needs (a socket set, an MPI communicator, ...) and is finalized
// exactly once.
type Backend interface {
	// World returns the group containing every worker known to this
	// backend instance.
	World() Group

	// Finalize releases any transport-level resources. It is invalid
	// to use any Group obtained from this Backend afterwards.
	Finalize() error
}

// Group is an ordered set of workers participating in some container's
// life. The core treats group identity as opaque; it never constructs
// a Group itself.
type Group interface {
	// Size is the number of workers in the group.
	Size() int

	// MyID is the calling worker's position in [0, Size()).
	MyID() int

	// Send transmits an untyped byte payload to worker dst. It blocks
	// until the backend accepts the payload (not necessarily until the
	// peer has received it; ordering guarantees are per (src,dst) pair
	// FIFO, per spec §4.H.4).
	Send(ctx context.Context, dst int, payload []byte) error

	// Recv blocks until a payload from worker src is available and
	// returns it. The returned slice is owned by the caller.
	Recv(ctx context.Context, src int) ([]byte, error)

	// Barrier blocks until every worker in the group has called
	// Barrier, realizing the collective synchronization point §5
	// requires at the end of every transition.
	Barrier(ctx context.Context) error
}
