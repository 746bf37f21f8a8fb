package stock

import (
	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

// Row is one line of the stock status report.
type Row struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	OnHand        decimal.Decimal `json:"on_hand"`
	InTransit     decimal.Decimal `json:"in_transit"`
	Incoming      decimal.Decimal `json:"incoming"`
	Committed     decimal.Decimal `json:"committed"`
	Available     decimal.Decimal `json:"available"`
	MinStockAlert decimal.Decimal `json:"min_stock_alert"`
	Oversold      bool            `json:"oversold"`
	BelowMinStock bool            `json:"below_min_stock"`
}

// Rows lays positions out in catalog order.
func Rows(products []domain.Product, positions map[string]Position) []Row {
	rows := make([]Row, 0, len(products))
	for _, product := range products {
		pos, ok := positions[product.ID]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			ProductID:     product.ID,
			SKU:           product.SKU,
			Name:          product.Name,
			OnHand:        pos.OnHand,
			InTransit:     pos.InTransit,
			Incoming:      pos.Incoming,
			Committed:     pos.Committed,
			Available:     pos.Available,
			MinStockAlert: product.MinStockAlert,
			Oversold:      pos.Oversold(),
			BelowMinStock: pos.Available.LessThan(product.MinStockAlert),
		})
	}
	return rows
}

// StockValue sums quantity_current x landed_cost_unit over every batch.
func StockValue(batches []domain.Batch) decimal.Decimal {
	total := decimal.Zero
	for _, batch := range batches {
		total = total.Add(batch.QuantityCurrent.Mul(batch.LandedCostUnit))
	}
	return total
}

// PendingPurchaseOrders counts orders still expected at the warehouse.
func PendingPurchaseOrders(orders []domain.PurchaseOrder) int {
	count := 0
	for _, po := range orders {
		if countsAsIncoming(po.Status) {
			count++
		}
	}
	return count
}
