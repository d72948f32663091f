package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/pkg/x402"
)

type stubSource struct {
	txs []x402.Transaction
	err error
}

func (s *stubSource) Transactions(context.Context) ([]x402.Transaction, error) {
	return append([]x402.Transaction(nil), s.txs...), s.err
}
func (s *stubSource) Agents(context.Context) ([]x402.Agent, error) { return nil, s.err }

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) BroadcastTransaction(tx x402.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, tx.ID)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// newest first, the way sources return them
func replaySource() *stubSource {
	return &stubSource{txs: []x402.Transaction{
		{ID: "tx-c", BlockTimestamp: 300, BlockNumber: 30},
		{ID: "tx-b", BlockTimestamp: 200, BlockNumber: 21},
		{ID: "tx-a", BlockTimestamp: 200, BlockNumber: 20},
	}}
}

func TestReplayer_StepsOldestFirstAndWraps(t *testing.T) {
	rec := &recorder{}
	r := NewReplayer(replaySource(), rec, time.Second, logging.Discard())

	for range 4 {
		ok, err := r.Step(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, []string{"tx-a", "tx-b", "tx-c", "tx-a"}, rec.seen())
}

func TestReplayer_Rewind(t *testing.T) {
	rec := &recorder{}
	r := NewReplayer(replaySource(), rec, time.Second, logging.Discard())

	_, _ = r.Step(context.Background())
	_, _ = r.Step(context.Background())
	r.Rewind()
	_, _ = r.Step(context.Background())

	assert.Equal(t, []string{"tx-a", "tx-b", "tx-a"}, rec.seen())
}

func TestReplayer_EmptyAndFailingSource(t *testing.T) {
	rec := &recorder{}

	ok, err := NewReplayer(&stubSource{}, rec, time.Second, nil).Step(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewReplayer(&stubSource{err: errors.New("down")}, rec, time.Second, nil).Step(context.Background())
	assert.Error(t, err)
	assert.Empty(t, rec.seen())
}

func TestReplayer_RunTicksUntilCancelled(t *testing.T) {
	rec := &recorder{}
	r := NewReplayer(replaySource(), rec, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(rec.seen()) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replayer did not stop")
	}
}

func TestReplayer_DisabledIntervalReturnsImmediately(t *testing.T) {
	rec := &recorder{}
	NewReplayer(replaySource(), rec, 0, nil).Run(context.Background())
	assert.Empty(t, rec.seen())
}
