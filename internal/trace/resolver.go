// Package trace follows a warehouse lot back to the purchase and supplier it
// came from and forward to the customers who received that product.
package trace

import (
	"sort"
	"time"

	"tradeflow/internal/domain"
)

type StepKind string

const (
	StepOrigin       StepKind = "origin"
	StepWarehouse    StepKind = "warehouse"
	StepDistribution StepKind = "distribution"
)

// Step is one stage of the custody chain. Only the fields relevant to its
// kind are filled.
type Step struct {
	Kind StepKind   `json:"kind"`
	Date *time.Time `json:"date,omitempty"`

	Supplier            *domain.Partner `json:"supplier,omitempty"`
	PurchaseOrderNumber string          `json:"purchase_order_number,omitempty"`
	SupplierLotNumber   string          `json:"supplier_lot_number,omitempty"`

	InternalLotNumber string `json:"internal_lot_number,omitempty"`
	Zone              string `json:"zone,omitempty"`

	Customers []domain.Partner `json:"customers,omitempty"`
}

// CustodyRecord is the resolved chain for one lot.
type CustodyRecord struct {
	Batch         domain.Batch          `json:"batch"`
	Product       *domain.Product       `json:"product,omitempty"`
	PurchaseOrder *domain.PurchaseOrder `json:"purchase_order,omitempty"`
	Supplier      *domain.Partner       `json:"supplier,omitempty"`
	Customers     []domain.Partner      `json:"customers"`
	Steps         []Step                `json:"steps"`
	// DuplicateBatchIDs lists other batches carrying the same internal lot
	// number. Lot numbers are unique at receipt, so any entry here is a data
	// fault for a human to look at.
	DuplicateBatchIDs []string `json:"duplicate_batch_ids,omitempty"`
	// Gaps names links that could not be followed.
	Gaps []string `json:"gaps,omitempty"`
}

func deliveredStatus(status domain.SOStatus) bool {
	return status == domain.SOShipped || status == domain.SOInvoiced || status == domain.SOPaid
}

// Resolve builds the custody record of the lot. The boolean is false when
// no batch carries exactly that internal lot number; callers trim input.
func Resolve(lot string, snap domain.Snapshot) (CustodyRecord, bool) {
	if lot == "" {
		return CustodyRecord{}, false
	}

	matches := make([]domain.Batch, 0, 1)
	for _, batch := range snap.Batches {
		if batch.InternalBatchNumber == lot {
			matches = append(matches, batch)
		}
	}
	if len(matches) == 0 {
		return CustodyRecord{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	record := CustodyRecord{
		Batch:     matches[0],
		Customers: make([]domain.Partner, 0),
	}
	for _, dup := range matches[1:] {
		record.DuplicateBatchIDs = append(record.DuplicateBatchIDs, dup.ID)
	}
	batch := record.Batch

	for i := range snap.Products {
		if snap.Products[i].ID == batch.ProductID {
			product := snap.Products[i]
			record.Product = &product
			break
		}
	}
	if record.Product == nil {
		record.Gaps = append(record.Gaps, "product "+batch.ProductID+" not found")
	}

	record.PurchaseOrder = originOrder(batch, snap.PurchaseOrders)
	switch {
	case batch.OriginPurchaseItemID == "":
		record.Gaps = append(record.Gaps, "batch has no origin purchase line")
	case record.PurchaseOrder == nil:
		record.Gaps = append(record.Gaps, "purchase line "+batch.OriginPurchaseItemID+" not found")
	default:
		record.Supplier = findPartner(record.PurchaseOrder.SupplierID, snap.Partners)
		if record.Supplier == nil && record.PurchaseOrder.Supplier != nil {
			supplier := *record.PurchaseOrder.Supplier
			record.Supplier = &supplier
		}
		if record.Supplier == nil {
			record.Gaps = append(record.Gaps, "supplier "+record.PurchaseOrder.SupplierID+" not found")
		}
	}

	record.Customers = customersOf(batch.ProductID, snap.SalesOrders, snap.Partners)
	record.Steps = buildSteps(record)
	return record, true
}

func originOrder(batch domain.Batch, orders []domain.PurchaseOrder) *domain.PurchaseOrder {
	if batch.OriginPurchaseItemID == "" {
		return nil
	}
	for i := range orders {
		for _, item := range orders[i].Items {
			if item.ID == batch.OriginPurchaseItemID {
				po := orders[i]
				return &po
			}
		}
	}
	return nil
}

func findPartner(id string, partners []domain.Partner) *domain.Partner {
	for i := range partners {
		if partners[i].ID == id {
			partner := partners[i]
			return &partner
		}
	}
	return nil
}

// customersOf lists, once each, the clients of delivered sales orders that
// carried the product. Batches are not unit-tracked, so this is the set of
// customers who may have received stock from the lot.
func customersOf(productID string, orders []domain.SalesOrder, partners []domain.Partner) []domain.Partner {
	type delivery struct {
		first  time.Time
		client domain.Partner
	}
	seen := make(map[string]*delivery)

	for _, so := range orders {
		if !deliveredStatus(so.Status) {
			continue
		}
		carries := false
		for _, item := range so.Items {
			if item.ProductID == productID {
				carries = true
				break
			}
		}
		if !carries {
			continue
		}

		if existing, ok := seen[so.ClientID]; ok {
			if so.OrderDate.Before(existing.first) {
				existing.first = so.OrderDate
			}
			continue
		}
		client := findPartner(so.ClientID, partners)
		if client == nil && so.Client != nil {
			c := *so.Client
			client = &c
		}
		if client == nil {
			client = &domain.Partner{ID: so.ClientID, Type: domain.PartnerClient}
		}
		seen[so.ClientID] = &delivery{first: so.OrderDate, client: *client}
	}

	deliveries := make([]*delivery, 0, len(seen))
	for _, d := range seen {
		deliveries = append(deliveries, d)
	}
	sort.Slice(deliveries, func(i, j int) bool {
		if !deliveries[i].first.Equal(deliveries[j].first) {
			return deliveries[i].first.Before(deliveries[j].first)
		}
		return deliveries[i].client.ID < deliveries[j].client.ID
	})

	customers := make([]domain.Partner, 0, len(deliveries))
	for _, d := range deliveries {
		customers = append(customers, d.client)
	}
	return customers
}

func buildSteps(record CustodyRecord) []Step {
	origin := Step{
		Kind:              StepOrigin,
		Supplier:          record.Supplier,
		SupplierLotNumber: record.Batch.SupplierBatchNumber,
	}
	if record.PurchaseOrder != nil {
		orderDate := record.PurchaseOrder.OrderDate
		origin.Date = &orderDate
		origin.PurchaseOrderNumber = record.PurchaseOrder.PONumber
	}

	received := record.Batch.ReceptionDate
	steps := []Step{
		origin,
		{
			Kind:              StepWarehouse,
			Date:              &received,
			InternalLotNumber: record.Batch.InternalBatchNumber,
			Zone:              record.Batch.LocationZone,
		},
	}

	if len(record.Customers) > 0 {
		steps = append(steps, Step{Kind: StepDistribution, Customers: record.Customers})
	}
	return steps
}
