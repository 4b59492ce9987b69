package maintenance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/albapepper/steam-ledger/internal/collect"
	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/steam"
)

type fakeCollector struct {
	result collect.Result
	runs   atomic.Int32
}

func (f *fakeCollector) Run(ctx context.Context, creds steam.Credentials) collect.Result {
	f.runs.Add(1)
	return f.result
}

type fakeSink struct {
	mu    sync.Mutex
	saved [][]provider.EnrichedRecord
	err   error
}

func (f *fakeSink) Save(ctx context.Context, records []provider.EnrichedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, records)
	return nil
}

type fakePurger struct{ purges atomic.Int32 }

func (f *fakePurger) Purge() int {
	f.purges.Add(1)
	return 3
}

var collected = collect.Result{
	ItemsOwned: 1,
	Records:    []provider.EnrichedRecord{{Name: "Foo", ItemID: 10, Price: "$9.99"}},
}

func TestRefreshSavesAndPurges(t *testing.T) {
	sink := &fakeSink{}
	purger := &fakePurger{}
	r := &Refresher{Collector: &fakeCollector{result: collected}, Sink: sink, Cache: purger}

	require.NoError(t, r.Refresh(context.Background()))
	require.Len(t, sink.saved, 1)
	assert.Equal(t, collected.Records, sink.saved[0])
	assert.Equal(t, int32(1), purger.purges.Load())
}

func TestRefreshKeepsLibraryWhenEmpty(t *testing.T) {
	sink := &fakeSink{}
	purger := &fakePurger{}
	r := &Refresher{
		Collector: &fakeCollector{result: collect.Result{OwnershipErr: errors.New("403")}},
		Sink:      sink,
		Cache:     purger,
	}

	err := r.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNothingCollected)
	assert.Empty(t, sink.saved)
	assert.Zero(t, purger.purges.Load())
}

func TestRefreshSinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	purger := &fakePurger{}
	r := &Refresher{Collector: &fakeCollector{result: collected}, Sink: &fakeSink{err: boom}, Cache: purger}

	require.ErrorIs(t, r.Refresh(context.Background()), boom)
	assert.Zero(t, purger.purges.Load())
}

func TestRefreshInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	r := &Refresher{Collector: &fakeCollector{result: collected}, Sink: sink}
	require.ErrorIs(t, r.Refresh(ctx), context.Canceled)
	assert.Empty(t, sink.saved)
}

func TestStartRunsOnTickAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	collector := &fakeCollector{result: collected}
	r := &Refresher{Collector: collector, Sink: &fakeSink{}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Start(ctx, Config{RefreshInterval: 5 * time.Millisecond, RefreshOnStart: true}, r, nil)
	}()

	require.Eventually(t, func() bool { return collector.runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartDisabled(t *testing.T) {
	collector := &fakeCollector{result: collected}
	Start(context.Background(), Config{}, &Refresher{Collector: collector, Sink: &fakeSink{}}, nil)
	assert.Zero(t, collector.runs.Load())
}
