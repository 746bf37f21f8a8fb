package domaintest

import (
	"context"
	"sync"
	"sync/atomic"

	"tradeflow/internal/domain"
)

// Source serves a fixed snapshot through the six list accessors. Fail makes
// the named collection return the error instead.
type Source struct {
	mu    sync.Mutex
	Snap  domain.Snapshot
	Fail  map[string]error
	Calls atomic.Int32
}

func NewSource(snap domain.Snapshot) *Source {
	return &Source{Snap: snap, Fail: map[string]error{}}
}

// Replace swaps the served snapshot.
func (s *Source) Replace(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Snap = snap
}

func (s *Source) read(ctx context.Context, collection string) (domain.Snapshot, error) {
	s.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Fail[collection]; err != nil {
		return domain.Snapshot{}, err
	}
	return s.Snap, nil
}

func (s *Source) ListProducts(ctx context.Context) ([]domain.Product, error) {
	snap, err := s.read(ctx, "products")
	return snap.Products, err
}

func (s *Source) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	snap, err := s.read(ctx, "partners")
	return snap.Partners, err
}

func (s *Source) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	snap, err := s.read(ctx, "batches")
	return snap.Batches, err
}

func (s *Source) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	snap, err := s.read(ctx, "purchase_orders")
	return snap.PurchaseOrders, err
}

func (s *Source) ListSalesOrders(ctx context.Context) ([]domain.SalesOrder, error) {
	snap, err := s.read(ctx, "sales_orders")
	return snap.SalesOrders, err
}

func (s *Source) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	snap, err := s.read(ctx, "invoices")
	return snap.Invoices, err
}
