package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductValidate(t *testing.T) {
	ok := Product{SKU: "PISE 1", UnitWeightKg: decimal.NewFromInt(2), MinStockAlert: decimal.NewFromInt(10)}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.WholesalePrice = decimal.NewFromInt(-1)
	assert.EqualError(t, bad.Validate(), "product PISE 1: wholesale_price cannot be negative")

	bad = ok
	bad.MinStockAlert = decimal.NewFromInt(-3)
	assert.Error(t, bad.Validate())
}

func TestBatchValidate(t *testing.T) {
	b := Batch{InternalBatchNumber: "INT-25-001", QuantityInitial: decimal.NewFromInt(2), QuantityCurrent: decimal.NewFromInt(2)}
	assert.NoError(t, b.Validate())

	b.QuantityCurrent = decimal.NewFromInt(3)
	assert.EqualError(t, b.Validate(), "batch INT-25-001: quantity_current exceeds quantity_initial")

	b.QuantityCurrent = decimal.NewFromInt(-1)
	assert.Error(t, b.Validate())
}

func TestRecomputeTotals(t *testing.T) {
	po := PurchaseOrder{Items: []PurchaseOrderItem{
		{QuantityCases: decimal.NewFromInt(10), PriceUnit: decimal.RequireFromString("15.00")},
		{QuantityCases: decimal.NewFromInt(10), PriceUnit: decimal.RequireFromString("18.00")},
	}}
	assert.True(t, po.RecomputeTotalFOB().Equal(decimal.NewFromInt(330)))

	so := SalesOrder{Items: []SalesOrderItem{
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("76.50")},
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("71.25")},
	}}
	assert.True(t, so.RecomputeTotalAmount().Equal(decimal.RequireFromString("219")))
	assert.True(t, SalesOrder{}.RecomputeTotalAmount().IsZero())
}
