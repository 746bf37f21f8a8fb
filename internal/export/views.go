package export

import (
	"tradeflow/internal/aging"
	"tradeflow/internal/costing"
	"tradeflow/internal/stock"
)

func StockRecords(rows []stock.Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			{Key: "sku", Value: row.SKU},
			{Key: "name", Value: row.Name},
			{Key: "on_hand", Value: row.OnHand},
			{Key: "in_transit", Value: row.InTransit},
			{Key: "incoming", Value: row.Incoming},
			{Key: "committed", Value: row.Committed},
			{Key: "available", Value: row.Available},
			{Key: "below_min_stock", Value: row.BelowMinStock},
		})
	}
	return records
}

// AgingRecords nests the client so it exports as client_id and client_name.
// Balances are rounded to cents.
func AgingRecords(rows []aging.Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			{Key: "invoice_number", Value: row.InvoiceNumber},
			{Key: "client", Value: Record{
				{Key: "id", Value: row.ClientID},
				{Key: "name", Value: row.ClientName},
			}},
			{Key: "due_date", Value: row.DueDate},
			{Key: "age_days", Value: row.AgeDays},
			{Key: "bucket", Value: string(row.Bucket)},
			{Key: "balance", Value: row.Balance.Round(2)},
			{Key: "status", Value: string(row.Status)},
		})
	}
	return records
}

// CostingRecords lays out one row per purchase line with its allocated
// charges and the resulting price ladder, rounded to cents.
func CostingRecords(lines []costing.LineCosting) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		b := line.Breakdown
		records = append(records, Record{
			{Key: "item_id", Value: line.ItemID},
			{Key: "product_id", Value: line.ProductID},
			{Key: "quantity", Value: line.Quantity},
			{Key: "share", Value: line.Share.Round(4)},
			{Key: "allocated", Value: Record{
				{Key: "freight", Value: line.Allocated.Freight.Round(2)},
				{Key: "insurance", Value: line.Allocated.Insurance.Round(2)},
				{Key: "customs", Value: line.Allocated.Customs.Round(2)},
				{Key: "other", Value: line.Allocated.Other.Round(2)},
			}},
			{Key: "landed_cost_local", Value: b.LandedCostLocal.Round(2)},
			{Key: "wholesale_price", Value: b.WholesalePrice.Round(2)},
			{Key: "suggested_retail_price", Value: b.SuggestedRetailPrice.Round(2)},
		})
	}
	return records
}
