package stock

import (
	"testing"

	"tradeflow/internal/domain"
	"tradeflow/internal/domain/domaintest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregateSample(snap domain.Snapshot) map[string]Position {
	return Aggregate(snap.Products, snap.Batches, snap.PurchaseOrders, snap.SalesOrders)
}

func assertPosition(t *testing.T, pos Position, onHand, inTransit, incoming, committed, available string) {
	t.Helper()
	check := func(field, want string, got decimal.Decimal) {
		assert.True(t, domaintest.Dec(want).Equal(got), "%s: expected %s but got %s", field, want, got)
	}
	check("on_hand", onHand, pos.OnHand)
	check("in_transit", inTransit, pos.InTransit)
	check("incoming", incoming, pos.Incoming)
	check("committed", committed, pos.Committed)
	check("available", available, pos.Available)
}

func TestAggregate_Sample(t *testing.T) {
	snap := domaintest.Sample()
	positions := aggregateSample(snap)

	require.Len(t, positions, len(snap.Products))
	assertPosition(t, positions["p1"], "2", "0", "0", "3", "-1")
	assertPosition(t, positions["p2"], "0", "2", "2", "0", "0")
	assertPosition(t, positions["p3"], "1", "0", "2", "0", "1")
	assertPosition(t, positions["p_hazelnut_180"], "0", "10", "10", "0", "0")
	assertPosition(t, positions["p_burrata"], "5", "0", "0", "0", "5")

	assert.True(t, positions["p1"].Oversold())
	assert.False(t, positions["p_burrata"].Oversold())
}

func TestAggregate_OnHandOnlyCountsAvailableBatches(t *testing.T) {
	products := []domain.Product{{ID: "p1"}}
	batches := []domain.Batch{
		{ID: "b1", ProductID: "p1", QuantityCurrent: domaintest.Dec("4"), Status: domain.BatchAvailable},
		{ID: "b2", ProductID: "p1", QuantityCurrent: domaintest.Dec("6.5"), Status: domain.BatchAvailable},
		{ID: "b3", ProductID: "p1", QuantityCurrent: domaintest.Dec("100"), Status: domain.BatchReserved},
		{ID: "b4", ProductID: "p1", QuantityCurrent: domaintest.Dec("100"), Status: domain.BatchQuarantine},
		{ID: "b5", ProductID: "p1", QuantityCurrent: domaintest.Dec("0"), Status: domain.BatchConsumed},
	}

	positions := Aggregate(products, batches, nil, nil)
	assertPosition(t, positions["p1"], "10.5", "0", "0", "0", "10.5")
}

func TestAggregate_PurchaseStatusFilter(t *testing.T) {
	products := []domain.Product{{ID: "p1"}}
	line := func(id string) []domain.PurchaseOrderItem {
		return []domain.PurchaseOrderItem{{ID: id, ProductID: "p1", QuantityCases: domaintest.Dec("5")}}
	}

	tests := []struct {
		status    domain.POStatus
		inTransit string
		incoming  string
	}{
		{domain.PODraft, "0", "0"},
		{domain.POOrdered, "5", "5"},
		{domain.POInTransit, "5", "5"},
		{domain.POPartial, "0", "5"},
		{domain.POReceived, "0", "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			orders := []domain.PurchaseOrder{{ID: "po", Status: tt.status, Items: line("l1")}}
			pos := Aggregate(products, nil, orders, nil)["p1"]
			assertPosition(t, pos, "0", tt.inTransit, tt.incoming, "0", "0")
		})
	}
}

func TestAggregate_SalesStatusFilter(t *testing.T) {
	products := []domain.Product{{ID: "p1"}}
	committed := map[domain.SOStatus]string{
		domain.SOBooking:      "4",
		domain.SOConfirmed:    "4",
		domain.SOBOLGenerated: "0",
		domain.SOShipped:      "0",
		domain.SOInvoiced:     "0",
		domain.SOPaid:         "0",
	}

	for status, want := range committed {
		t.Run(string(status), func(t *testing.T) {
			orders := []domain.SalesOrder{{ID: "so", Status: status, Items: []domain.SalesOrderItem{
				{ID: "s1", ProductID: "p1", Quantity: domaintest.Dec("4")},
			}}}
			pos := Aggregate(products, nil, nil, orders)["p1"]
			assert.True(t, domaintest.Dec(want).Equal(pos.Committed))
			assert.True(t, pos.Available.Equal(domaintest.Dec(want).Neg()))
		})
	}
}

func TestAggregate_ProductsWithoutActivityAreZero(t *testing.T) {
	positions := Aggregate([]domain.Product{{ID: "idle"}}, nil, nil, nil)
	require.Contains(t, positions, "idle")
	assertPosition(t, positions["idle"], "0", "0", "0", "0", "0")
}

func TestAggregateStrict_ReportsOrphans(t *testing.T) {
	products := []domain.Product{{ID: "p1"}}
	batches := []domain.Batch{{ID: "b-x", ProductID: "ghost", QuantityCurrent: domaintest.Dec("3"), Status: domain.BatchAvailable}}
	pos := []domain.PurchaseOrder{{ID: "po-x", Status: domain.POOrdered, Items: []domain.PurchaseOrderItem{
		{ID: "pl-x", ProductID: "ghost", QuantityCases: domaintest.Dec("1")},
	}}}
	sos := []domain.SalesOrder{{ID: "so-x", Status: domain.SOBooking, Items: []domain.SalesOrderItem{
		{ID: "sl-x", ProductID: "ghost", Quantity: domaintest.Dec("1")},
		{ID: "sl-y", ProductID: "p1", Quantity: domaintest.Dec("2")},
	}}}

	positions, orphans := AggregateStrict(products, batches, pos, sos)
	require.Len(t, positions, 1)
	assert.NotContains(t, positions, "ghost")
	assertPosition(t, positions["p1"], "0", "0", "0", "2", "-2")

	assert.Equal(t, []Orphan{
		{Kind: OrphanBatch, RecordID: "b-x", ProductID: "ghost"},
		{Kind: OrphanPurchaseLine, RecordID: "pl-x", ParentID: "po-x", ProductID: "ghost"},
		{Kind: OrphanSalesLine, RecordID: "sl-x", ParentID: "so-x", ProductID: "ghost"},
	}, orphans)
}

func TestAggregate_Idempotent(t *testing.T) {
	snap := domaintest.Sample()
	first := aggregateSample(snap)
	second := aggregateSample(snap)

	assert.Equal(t, domaintest.Sample(), snap, "aggregation must not mutate its inputs")
	require.Len(t, second, len(first))
	for id, pos := range first {
		other := second[id]
		assert.True(t, pos.OnHand.Equal(other.OnHand))
		assert.True(t, pos.InTransit.Equal(other.InTransit))
		assert.True(t, pos.Incoming.Equal(other.Incoming))
		assert.True(t, pos.Committed.Equal(other.Committed))
		assert.True(t, pos.Available.Equal(other.Available))
	}
}

func TestAggregate_OnHandInvariant(t *testing.T) {
	snap := domaintest.Sample()
	positions := aggregateSample(snap)

	for _, product := range snap.Products {
		want := decimal.Zero
		for _, batch := range snap.Batches {
			if batch.ProductID == product.ID && batch.Status == domain.BatchAvailable {
				want = want.Add(batch.QuantityCurrent)
			}
		}
		pos := positions[product.ID]
		assert.True(t, want.Equal(pos.OnHand), product.ID)
		assert.True(t, pos.OnHand.Sub(pos.Committed).Equal(pos.Available), product.ID)
	}
}

func TestRowsAndKPIs(t *testing.T) {
	snap := domaintest.Sample()
	rows := Rows(snap.Products, aggregateSample(snap))
	require.Len(t, rows, len(snap.Products))

	assert.Equal(t, "PISE 1", rows[0].SKU)
	assert.True(t, rows[0].Oversold)
	assert.True(t, rows[0].BelowMinStock)
	assert.Equal(t, "MA22", rows[4].SKU)
	assert.False(t, rows[4].Oversold)
	assert.False(t, rows[4].BelowMinStock)

	assert.True(t, domaintest.Dec("499").Equal(StockValue(snap.Batches)))
	assert.Equal(t, 3, PendingPurchaseOrders(snap.PurchaseOrders))
}
