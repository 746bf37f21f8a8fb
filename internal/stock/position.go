// Package stock reconciles received lots, open purchase lines and open sales
// lines into one position per product.
package stock

import (
	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

// Position is the consolidated stock of one product.
//
// InTransit counts ordered and in_transit purchase orders only. Incoming
// also counts partial orders, matching what the receiving desk treats as
// still arriving. Available is OnHand - Committed and goes negative when the
// product is oversold.
type Position struct {
	OnHand    decimal.Decimal `json:"on_hand"`
	InTransit decimal.Decimal `json:"in_transit"`
	Incoming  decimal.Decimal `json:"incoming"`
	Committed decimal.Decimal `json:"committed"`
	Available decimal.Decimal `json:"available"`
}

// Oversold reports a negative available quantity.
func (p Position) Oversold() bool {
	return p.Available.IsNegative()
}

type OrphanKind string

const (
	OrphanBatch        OrphanKind = "batch"
	OrphanPurchaseLine OrphanKind = "purchase_line"
	OrphanSalesLine    OrphanKind = "sales_line"
)

// Orphan is a stock line that references a product missing from the catalog.
type Orphan struct {
	Kind      OrphanKind `json:"kind"`
	RecordID  string     `json:"record_id"`
	ParentID  string     `json:"parent_id,omitempty"`
	ProductID string     `json:"product_id"`
}

func countsAsInTransit(status domain.POStatus) bool {
	return status == domain.POOrdered || status == domain.POInTransit
}

func countsAsIncoming(status domain.POStatus) bool {
	return countsAsInTransit(status) || status == domain.POPartial
}

func countsAsCommitted(status domain.SOStatus) bool {
	return status == domain.SOBooking || status == domain.SOConfirmed
}

// Aggregate builds one position per catalog product. Lines pointing at an
// unknown product are skipped.
func Aggregate(
	products []domain.Product,
	batches []domain.Batch,
	purchaseOrders []domain.PurchaseOrder,
	salesOrders []domain.SalesOrder,
) map[string]Position {
	positions, _ := AggregateStrict(products, batches, purchaseOrders, salesOrders)
	return positions
}

// AggregateStrict is Aggregate plus the list of skipped orphan references.
func AggregateStrict(
	products []domain.Product,
	batches []domain.Batch,
	purchaseOrders []domain.PurchaseOrder,
	salesOrders []domain.SalesOrder,
) (map[string]Position, []Orphan) {
	acc := make(map[string]*Position, len(products))
	for _, product := range products {
		acc[product.ID] = &Position{
			OnHand:    decimal.Zero,
			InTransit: decimal.Zero,
			Incoming:  decimal.Zero,
			Committed: decimal.Zero,
			Available: decimal.Zero,
		}
	}

	orphans := make([]Orphan, 0)

	for _, batch := range batches {
		entry, ok := acc[batch.ProductID]
		if !ok {
			orphans = append(orphans, Orphan{Kind: OrphanBatch, RecordID: batch.ID, ProductID: batch.ProductID})
			continue
		}
		if batch.Status == domain.BatchAvailable {
			entry.OnHand = entry.OnHand.Add(batch.QuantityCurrent)
		}
	}

	for _, po := range purchaseOrders {
		for _, item := range po.Items {
			entry, ok := acc[item.ProductID]
			if !ok {
				orphans = append(orphans, Orphan{Kind: OrphanPurchaseLine, RecordID: item.ID, ParentID: po.ID, ProductID: item.ProductID})
				continue
			}
			if countsAsInTransit(po.Status) {
				entry.InTransit = entry.InTransit.Add(item.QuantityCases)
			}
			if countsAsIncoming(po.Status) {
				entry.Incoming = entry.Incoming.Add(item.QuantityCases)
			}
		}
	}

	for _, so := range salesOrders {
		for _, item := range so.Items {
			entry, ok := acc[item.ProductID]
			if !ok {
				orphans = append(orphans, Orphan{Kind: OrphanSalesLine, RecordID: item.ID, ParentID: so.ID, ProductID: item.ProductID})
				continue
			}
			if countsAsCommitted(so.Status) {
				entry.Committed = entry.Committed.Add(item.Quantity)
			}
		}
	}

	positions := make(map[string]Position, len(acc))
	for id, entry := range acc {
		entry.Available = entry.OnHand.Sub(entry.Committed)
		positions[id] = *entry
	}
	return positions, orphans
}
