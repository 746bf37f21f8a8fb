package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradeflow/internal/cache"
	"tradeflow/internal/domain"
	"tradeflow/internal/domain/domaintest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsAllCollections(t *testing.T) {
	source := domaintest.NewSource(domaintest.Sample())
	loader := NewLoader(source, nil, 0, nil)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 6, source.Calls.Load())
	assert.Len(t, snap.Products, 5)
	assert.Len(t, snap.Partners, 6)
	assert.Len(t, snap.Batches, 4)
	assert.Len(t, snap.PurchaseOrders, 4)
	assert.Len(t, snap.SalesOrders, 4)
	assert.Len(t, snap.Invoices, 3)
	_, err = uuid.Parse(snap.Version)
	assert.NoError(t, err)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestLoad_AnyFailureFailsTheSnapshot(t *testing.T) {
	boom := errors.New("connection reset")
	source := domaintest.NewSource(domaintest.Sample())
	source.Fail["batches"] = boom

	snap, err := NewLoader(source, nil, 0, nil).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load batches")
	assert.Equal(t, domain.Snapshot{}, snap)
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(domaintest.NewSource(domaintest.Sample()), nil, 0, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCurrent_ServesCachedSnapshotUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	source := domaintest.NewSource(domaintest.Sample())
	loader := NewLoader(source, cache.NewMemory(), time.Minute, nil)

	first, err := loader.Current(ctx)
	require.NoError(t, err)
	second, err := loader.Current(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.EqualValues(t, 6, source.Calls.Load(), "second call is served from cache")

	updated := domaintest.Sample()
	updated.Products = updated.Products[:1]
	source.Replace(updated)

	stale, err := loader.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, stale.Products, 5)

	loader.Invalidate(ctx)
	fresh, err := loader.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Products, 1)
	assert.NotEqual(t, first.Version, fresh.Version)
}

func TestCurrent_NoCacheAlwaysLoads(t *testing.T) {
	ctx := context.Background()
	source := domaintest.NewSource(domaintest.Sample())
	loader := NewLoader(source, cache.NewMemory(), 0, nil)

	_, err := loader.Current(ctx)
	require.NoError(t, err)
	_, err = loader.Current(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 12, source.Calls.Load())

	loader.Invalidate(ctx)
	NewLoader(source, nil, time.Minute, nil).Invalidate(ctx)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context) (domain.Snapshot, bool, error) {
	return domain.Snapshot{}, false, errors.New("redis down")
}

func (brokenCache) Generation(context.Context) (uint64, error) {
	return 0, errors.New("redis down")
}

func (brokenCache) Set(context.Context, domain.Snapshot, time.Duration, uint64) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenCache) Delete(context.Context) error { return errors.New("redis down") }

func (brokenCache) Close() error { return nil }

func TestCurrent_CacheFailureFallsBackToSource(t *testing.T) {
	source := domaintest.NewSource(domaintest.Sample())
	loader := NewLoader(source, brokenCache{}, time.Minute, nil)

	snap, err := loader.Current(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Products, 5)

	loader.Invalidate(context.Background())
}

// gatedSource holds the first product read until release is closed, after
// the products have already been read.
type gatedSource struct {
	*domaintest.Source
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := g.Source.ListProducts(ctx)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return products, err
}

func TestCurrent_LoadOverlappingInvalidateIsNotCached(t *testing.T) {
	ctx := context.Background()
	source := &gatedSource{
		Source:  domaintest.NewSource(domaintest.Sample()),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	loader := NewLoader(source, cache.NewMemory(), time.Minute, nil)

	loaded := make(chan domain.Snapshot, 1)
	go func() {
		snap, err := loader.Current(ctx)
		assert.NoError(t, err)
		loaded <- snap
	}()
	<-source.entered

	updated := domaintest.Sample()
	updated.Products = updated.Products[:1]
	updated.Products[0].Name = "Repriced"
	source.Replace(updated)
	loader.Invalidate(ctx)
	close(source.release)

	inFlight := <-loaded
	assert.Len(t, inFlight.Products, 5, "the overlapping caller still gets what it read")

	fresh, err := loader.Current(ctx)
	require.NoError(t, err)
	require.Len(t, fresh.Products, 1)
	assert.Equal(t, "Repriced", fresh.Products[0].Name)
	assert.NotEqual(t, inFlight.Version, fresh.Version)
}
