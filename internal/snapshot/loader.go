// Package snapshot reads every collection the engines join across into one
// immutable domain.Snapshot.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"tradeflow/internal/cache"
	"tradeflow/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source lists full collections. Purchase orders come with their items and
// supplier, sales orders with items and client, invoices with client.
type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListPartners(ctx context.Context) ([]domain.Partner, error)
	ListBatches(ctx context.Context) ([]domain.Batch, error)
	ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error)
	ListSalesOrders(ctx context.Context) ([]domain.SalesOrder, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}

type Loader struct {
	source Source
	cache  cache.SnapshotCache
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewLoader wires a source to a cache. A nil cache or a zero ttl disables
// caching; every call then reads the source.
func NewLoader(source Source, c cache.SnapshotCache, ttl time.Duration, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{source: source, cache: c, ttl: ttl, log: log, now: time.Now}
}

// Current returns the cached snapshot while it is fresh, else loads a new
// one. A cache failure is logged and the source is read directly. A load
// that overlaps an Invalidate is returned to its caller but not cached.
func (l *Loader) Current(ctx context.Context) (domain.Snapshot, error) {
	caching := l.cache != nil && l.ttl > 0
	var gen uint64
	if caching {
		snap, ok, err := l.cache.Get(ctx)
		if err != nil {
			l.log.Warn("snapshot cache read failed", zap.Error(err))
		} else if ok {
			return snap, nil
		}
		// read before the load starts so a concurrent write is detected
		if gen, err = l.cache.Generation(ctx); err != nil {
			l.log.Warn("snapshot cache generation read failed", zap.Error(err))
			caching = false
		}
	}

	snap, err := l.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if caching {
		stored, err := l.cache.Set(ctx, snap, l.ttl, gen)
		switch {
		case err != nil:
			l.log.Warn("snapshot cache write failed", zap.Error(err))
		case !stored:
			l.log.Debug("snapshot superseded by a write, not cached", zap.String("version", snap.Version))
		}
	}
	return snap, nil
}

// Load reads the six collections concurrently. The snapshot is returned
// only when all six reads succeed; the first failure cancels the rest.
func (l *Loader) Load(ctx context.Context) (domain.Snapshot, error) {
	started := l.now()
	snap := domain.Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Products, err = l.source.ListProducts(gctx)
		return wrap("products", err)
	})
	g.Go(func() (err error) {
		snap.Partners, err = l.source.ListPartners(gctx)
		return wrap("partners", err)
	})
	g.Go(func() (err error) {
		snap.Batches, err = l.source.ListBatches(gctx)
		return wrap("batches", err)
	})
	g.Go(func() (err error) {
		snap.PurchaseOrders, err = l.source.ListPurchaseOrders(gctx)
		return wrap("purchase orders", err)
	})
	g.Go(func() (err error) {
		snap.SalesOrders, err = l.source.ListSalesOrders(gctx)
		return wrap("sales orders", err)
	})
	g.Go(func() (err error) {
		snap.Invoices, err = l.source.ListInvoices(gctx)
		return wrap("invoices", err)
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}

	snap.Version = uuid.NewString()
	snap.LoadedAt = l.now()
	l.log.Debug("snapshot loaded",
		zap.String("version", snap.Version),
		zap.Int("products", len(snap.Products)),
		zap.Int("batches", len(snap.Batches)),
		zap.Int("purchase_orders", len(snap.PurchaseOrders)),
		zap.Int("sales_orders", len(snap.SalesOrders)),
		zap.Int("invoices", len(snap.Invoices)),
		zap.Duration("elapsed", snap.LoadedAt.Sub(started)),
	)
	return snap, nil
}

// Invalidate drops the cached snapshot after a write.
func (l *Loader) Invalidate(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx); err != nil {
		l.log.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

func wrap(collection string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", collection, err)
}
