package tcp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoWorkerConfig() (Config, Config) {
	peers := []Peer{
		{ID: 0, Addr: "127.0.0.1:0"},
		{ID: 1, Addr: "127.0.0.1:0"},
	}
	return Config{MyID: 0, Peers: peers, DialTimeout: time.Second, IOTimeout: 2 * time.Second},
		Config{MyID: 1, Peers: peers, DialTimeout: time.Second, IOTimeout: 2 * time.Second}
}

// newLoopbackPair starts two Backends bound to ephemeral ports on
// loopback and patches each Config's peer list with the ports actually
// assigned, since "127.0.0.1:0" only resolves to a concrete port once
// Listen has run.
func newLoopbackPair(t *testing.T) (*Backend, *Backend) {
	t.Helper()
	cfg0, cfg1 := twoWorkerConfig()

	b0, err := New(context.Background(), cfg0)
	require.NoError(t, err)
	addr0 := b0.group.ln.Addr().String()

	cfg1.Peers[0].Addr = addr0
	b1, err := New(context.Background(), cfg1)
	require.NoError(t, err)
	addr1 := b1.group.ln.Addr().String()

	b0.group.cfg.Peers[1].Addr = addr1
	return b0, b1
}

func TestTCPBackendSendRecv(t *testing.T) {
	b0, b1 := newLoopbackPair(t)
	defer b0.Finalize()
	defer b1.Finalize()

	ctx := context.Background()
	require.NoError(t, b0.World().Send(ctx, 1, []byte("ping")))
	got, err := b1.World().Recv(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}

func TestTCPBackendBarrier(t *testing.T) {
	b0, b1 := newLoopbackPair(t)
	defer b0.Finalize()
	defer b1.Finalize()

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = b0.World().Barrier(ctx) }()
	go func() { defer wg.Done(); errs[1] = b1.World().Barrier(ctx) }()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
}
