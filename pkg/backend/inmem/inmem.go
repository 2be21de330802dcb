// Package inmem is the single-process backend: it collapses sends and
// receives between a worker and itself to a direct copy (spec §6,
// "single-process collapses sends/recvs between my_id and itself to
// memcpy") and routes peer traffic through in-memory channels. It is
// the backend every laik test that does not need real sockets runs
// against.
package inmem

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/laik-go/laik/pkg/backend"
)

type message struct {
	from    int
	payload []byte
}

// Backend is an in-process Backend shared by every worker created from
// the same New call; it is the thing a test harness spins up once and
// then hands each simulated worker its Group view of.
type Backend struct {
	mu      sync.Mutex
	cond    *sync.Cond
	workers []*group
	dead    int32
	arrived int
	gen     int
}

// New constructs an in-memory backend with n workers, each with its
// own inbound mailbox per peer.
func New(n int) *Backend {
	b := &Backend{workers: make([]*group, n)}
	b.cond = sync.NewCond(&b.mu)
	for i := range b.workers {
		g := &group{backend: b, id: i, size: n}
		g.inboxes = make([]chan message, n)
		for j := range g.inboxes {
			g.inboxes[j] = make(chan message, 64)
		}
		b.workers[i] = g
	}
	return b
}

// Worker returns the Group view for worker id.
func (b *Backend) Worker(id int) backend.Group { return b.workers[id] }

// World returns worker 0's view; callers that want a specific worker's
// view should use Worker directly, as a single-process Backend serves
// every worker from the same process.
func (b *Backend) World() backend.Group { return b.workers[0] }

func (b *Backend) Finalize() error {
	if !atomic.CompareAndSwapInt32(&b.dead, 0, 1) {
		return nil
	}
	for _, g := range b.workers {
		for _, inbox := range g.inboxes {
			close(inbox)
		}
	}
	return nil
}

type group struct {
	backend *Backend
	id      int
	size    int
	inboxes []chan message // inboxes[src] is this worker's mailbox for messages from src
}

func (g *group) Size() int { return g.size }
func (g *group) MyID() int { return g.id }

func (g *group) Send(ctx context.Context, dst int, payload []byte) error {
	if dst == g.id {
		// Self-send collapses to memcpy, per spec §6.
		buf := make([]byte, len(payload))
		copy(buf, payload)
		select {
		case g.inboxes[g.id] <- message{from: g.id, payload: buf}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if dst < 0 || dst >= g.backend.len() {
		return fmt.Errorf("inmem: send to unknown worker %d", dst)
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	peer := g.backend.workers[dst]
	select {
	case peer.inboxes[g.id] <- message{from: g.id, payload: buf}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *group) Recv(ctx context.Context, src int) ([]byte, error) {
	if src < 0 || src >= len(g.inboxes) {
		return nil, fmt.Errorf("inmem: recv from unknown worker %d", src)
	}
	select {
	case m, ok := <-g.inboxes[src]:
		if !ok {
			return nil, fmt.Errorf("inmem: backend finalized")
		}
		return m.payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Barrier is a classic cyclic barrier: every worker's group view shares
// the backend's single generation counter, so a Barrier call only
// returns once every worker in the process has called it.
func (g *group) Barrier(ctx context.Context) error {
	b := g.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.gen
	b.arrived++
	if b.arrived == len(b.workers) {
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		return nil
	}
	for b.gen == gen {
		b.cond.Wait()
	}
	return nil
}

func (b *Backend) len() int { return len(b.workers) }
