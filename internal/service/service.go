package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradeflow/internal/aging"
	"tradeflow/internal/domain"
	"tradeflow/internal/importer"
	"tradeflow/internal/repository"
	"tradeflow/internal/stock"
	"tradeflow/internal/trace"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Snapshots hands out the current consistent read of every collection.
type Snapshots interface {
	Current(ctx context.Context) (domain.Snapshot, error)
	Invalidate(ctx context.Context)
}

// Store is the write side plus the single-order read used by costing.
type Store interface {
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	UpsertProducts(ctx context.Context, products []domain.Product) (repository.UpsertResult, error)
	InsertPartners(ctx context.Context, partners []domain.Partner) (int, error)
	UpdateProductPrices(ctx context.Context, products []domain.Product) (repository.PriceUpdateResult, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
}

// Pricing holds the defaults applied when a costing request leaves them out.
type Pricing struct {
	LocalCurrency      string
	WholesaleMarginPct decimal.Decimal
	RetailMarginPct    decimal.Decimal
}

// ValidationError carries every violation found in a request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type Service struct {
	snapshots Snapshots
	store     Store
	importer  *importer.Importer
	pricing   Pricing
	log       *zap.Logger
	now       func() time.Time
}

func New(snapshots Snapshots, store Store, pricing Pricing, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(pricing.LocalCurrency) == "" {
		pricing.LocalCurrency = "CAD"
	}
	return &Service{
		snapshots: snapshots,
		store:     store,
		importer:  importer.New(),
		pricing:   pricing,
		log:       log,
		now:       time.Now,
	}
}

type Dashboard struct {
	SnapshotVersion     string          `json:"snapshot_version"`
	LoadedAt            time.Time       `json:"loaded_at"`
	StockValue          decimal.Decimal `json:"stock_value"`
	PendingPOs          int             `json:"pending_purchase_orders"`
	ReceivablesTotal    decimal.Decimal `json:"receivables_total"`
	OversoldProducts    int             `json:"oversold_products"`
	BelowMinStock       int             `json:"below_min_stock"`
	ProductCount        int             `json:"product_count"`
	OutstandingInvoices int             `json:"outstanding_invoices"`
}

// Dashboard computes the headline figures from one snapshot.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	positions := stock.Aggregate(snap.Products, snap.Batches, snap.PurchaseOrders, snap.SalesOrders)
	out := Dashboard{
		SnapshotVersion:  snap.Version,
		LoadedAt:         snap.LoadedAt,
		StockValue:       stock.StockValue(snap.Batches),
		PendingPOs:       stock.PendingPurchaseOrders(snap.PurchaseOrders),
		ReceivablesTotal: aging.TotalOutstanding(snap.Invoices),
		ProductCount:     len(snap.Products),
	}
	for _, row := range stock.Rows(snap.Products, positions) {
		if row.Oversold {
			out.OversoldProducts++
		}
		if row.BelowMinStock {
			out.BelowMinStock++
		}
	}
	for _, inv := range snap.Invoices {
		if inv.Balance.IsPositive() {
			out.OutstandingInvoices++
		}
	}
	return out, nil
}

type StockReport struct {
	SnapshotVersion string         `json:"snapshot_version"`
	Rows            []stock.Row    `json:"rows"`
	Orphans         []stock.Orphan `json:"orphans"`
}

func (s *Service) StockPositions(ctx context.Context) (StockReport, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return StockReport{}, err
	}
	positions, orphans := stock.AggregateStrict(snap.Products, snap.Batches, snap.PurchaseOrders, snap.SalesOrders)
	if len(orphans) > 0 {
		s.log.Warn("stock lines reference unknown products",
			zap.Int("orphans", len(orphans)),
			zap.String("snapshot", snap.Version),
		)
	}
	return StockReport{
		SnapshotVersion: snap.Version,
		Rows:            stock.Rows(snap.Products, positions),
		Orphans:         orphans,
	}, nil
}

// Receivables ages every invoice against today, or against asOf when set.
func (s *Service) Receivables(ctx context.Context, asOf *time.Time) (aging.Report, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return aging.Report{}, err
	}
	today := s.now()
	if asOf != nil {
		today = *asOf
	}
	return aging.BuildReport(snap.Invoices, today), nil
}

// Trace resolves a lot number. The boolean is false when the lot is unknown.
func (s *Service) Trace(ctx context.Context, lot string) (trace.CustodyRecord, bool, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return trace.CustodyRecord{}, false, err
	}
	record, ok := trace.Resolve(lot, snap)
	if ok && len(record.DuplicateBatchIDs) > 0 {
		s.log.Warn("duplicate internal lot number",
			zap.String("lot", record.Batch.InternalBatchNumber),
			zap.Strings("duplicates", record.DuplicateBatchIDs),
		)
	}
	return record, ok, nil
}
