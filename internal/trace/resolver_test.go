package trace

import (
	"testing"

	"tradeflow/internal/domain"
	"tradeflow/internal/domain/domaintest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FullChain(t *testing.T) {
	snap := domaintest.Sample()

	record, ok := Resolve("INT-25-001", snap)
	require.True(t, ok)

	assert.Equal(t, "b1", record.Batch.ID)
	require.NotNil(t, record.Product)
	assert.Equal(t, "p1", record.Product.ID)
	require.NotNil(t, record.PurchaseOrder)
	assert.Equal(t, "po-32215", record.PurchaseOrder.ID)
	require.NotNil(t, record.Supplier)
	assert.Equal(t, "sup1", record.Supplier.ID)
	assert.Empty(t, record.Gaps)
	assert.Empty(t, record.DuplicateBatchIDs)

	require.Len(t, record.Steps, 3)

	origin := record.Steps[0]
	assert.Equal(t, StepOrigin, origin.Kind)
	require.NotNil(t, origin.Supplier)
	assert.Equal(t, "sup1", origin.Supplier.ID)
	assert.Equal(t, "LOT-32215-01", origin.SupplierLotNumber)
	assert.Equal(t, "32215", origin.PurchaseOrderNumber)
	require.NotNil(t, origin.Date)
	assert.Equal(t, domaintest.Date("2025-10-01"), *origin.Date)

	warehouse := record.Steps[1]
	assert.Equal(t, StepWarehouse, warehouse.Kind)
	assert.Equal(t, "A-01", warehouse.Zone)
	assert.Equal(t, "INT-25-001", warehouse.InternalLotNumber)
	require.NotNil(t, warehouse.Date)
	assert.Equal(t, domaintest.Date("2025-10-01"), *warehouse.Date)

	distribution := record.Steps[2]
	assert.Equal(t, StepDistribution, distribution.Kind)
	require.Len(t, distribution.Customers, 2)
	assert.Equal(t, "cli2", distribution.Customers[0].ID)
	assert.Equal(t, "cli4", distribution.Customers[1].ID)
}

func TestResolve_NotFound(t *testing.T) {
	snap := domaintest.Sample()

	_, ok := Resolve("INT-25-999", snap)
	assert.False(t, ok)

	_, ok = Resolve("   ", snap)
	assert.False(t, ok)
}

func TestResolve_MatchesLotLiterally(t *testing.T) {
	_, ok := Resolve("  INT-25-001 ", domaintest.Sample())
	assert.False(t, ok)
	_, ok = Resolve("int-25-001", domaintest.Sample())
	assert.False(t, ok)

	record, ok := Resolve("INT-25-001", domaintest.Sample())
	require.True(t, ok)
	assert.Equal(t, "b1", record.Batch.ID)
}

func TestResolve_MissingBackReference(t *testing.T) {
	record, ok := Resolve("INT-25-099", domaintest.Sample())
	require.True(t, ok)

	assert.Nil(t, record.PurchaseOrder)
	assert.Nil(t, record.Supplier)
	assert.Equal(t, []string{"batch has no origin purchase line"}, record.Gaps)
	assert.Empty(t, record.Customers)

	require.Len(t, record.Steps, 2)
	assert.Equal(t, StepOrigin, record.Steps[0].Kind)
	assert.Nil(t, record.Steps[0].Supplier)
	assert.Equal(t, "LOT-FR-99", record.Steps[0].SupplierLotNumber)
	assert.Equal(t, "FRIDGE-01", record.Steps[1].Zone)
}

func TestResolve_DanglingPurchaseLine(t *testing.T) {
	snap := domaintest.Sample()
	snap.Batches[0].OriginPurchaseItemID = "IDPO-GONE"

	record, ok := Resolve("INT-25-001", snap)
	require.True(t, ok)
	assert.Nil(t, record.PurchaseOrder)
	assert.Equal(t, []string{"purchase line IDPO-GONE not found"}, record.Gaps)
}

func TestResolve_DuplicateLotNumbers(t *testing.T) {
	snap := domaintest.Sample()
	dup := snap.Batches[0]
	dup.ID = "b9"
	dup.LocationZone = "Z-99"
	snap.Batches = append([]domain.Batch{dup}, snap.Batches...)

	record, ok := Resolve("INT-25-001", snap)
	require.True(t, ok)
	assert.Equal(t, "b1", record.Batch.ID, "lowest batch id wins")
	assert.Equal(t, "A-01", record.Steps[1].Zone)
	assert.Equal(t, []string{"b9"}, record.DuplicateBatchIDs)
}

func TestResolve_CustomersDeduplicatedAndOrdered(t *testing.T) {
	snap := domaintest.Sample()
	snap.SalesOrders = append(snap.SalesOrders,
		domain.SalesOrder{
			ID: "so-5", ClientID: "cli4", Status: domain.SOPaid, OrderDate: domaintest.Date("2025-05-01"),
			Items: []domain.SalesOrderItem{{ID: "si-5", ProductID: "p1", Quantity: domaintest.Dec("1")}},
		},
		domain.SalesOrder{
			ID: "so-6", ClientID: "cli-unknown", Status: domain.SOShipped, OrderDate: domaintest.Date("2025-12-01"),
			Items: []domain.SalesOrderItem{{ID: "si-6", ProductID: "p1", Quantity: domaintest.Dec("1")}},
		},
		domain.SalesOrder{
			ID: "so-7", ClientID: "cli1", Status: domain.SOBooking, OrderDate: domaintest.Date("2025-01-01"),
			Items: []domain.SalesOrderItem{{ID: "si-7", ProductID: "p1", Quantity: domaintest.Dec("1")}},
		},
	)

	record, ok := Resolve("INT-25-001", snap)
	require.True(t, ok)

	ids := make([]string, 0, len(record.Customers))
	for _, c := range record.Customers {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"cli4", "cli2", "cli-unknown"}, ids)
	assert.Equal(t, "Fruiterie Milano", record.Customers[0].Name)
}

func TestResolve_DoesNotMutateSnapshot(t *testing.T) {
	snap := domaintest.Sample()
	record, ok := Resolve("INT-25-001", snap)
	require.True(t, ok)

	record.Product.Name = "changed"
	record.Supplier.Name = "changed"
	assert.Equal(t, domaintest.Sample(), snap)
}
