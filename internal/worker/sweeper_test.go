package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/go-shortage/internal/registry"
	"github.com/atinyakov/go-shortage/internal/worker"
)

type countingSweeper struct {
	calls atomic.Int32
	drop  int
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return c.drop
}

func TestExpirySweeper_RunsUntilCancelled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	target := &countingSweeper{drop: 2}
	s := worker.NewExpirySweeper(zap.New(core), target, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	assert.NotZero(t, logs.FilterMessage("swept expired urls").Len())
	assert.Equal(t, 1, logs.FilterMessage("expiry sweeper stopped").Len())
}

func TestExpirySweeper_DropsExpiredEntries(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := registry.New(registry.WithClock(func() time.Time { return now }))

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	reg.Insert("old", registry.ShortenedURL{Target: "https://a.example", Expiration: &past})
	reg.Insert("new", registry.ShortenedURL{Target: "https://b.example", Expiration: &future})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.NewExpirySweeper(zap.NewNop(), reg, time.Millisecond).Run(ctx)

	require.Eventually(t, func() bool { return reg.Len() == 1 }, time.Second, time.Millisecond)

	_, err := reg.Resolve("new")
	assert.NoError(t, err)
}
