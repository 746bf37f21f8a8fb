package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PartnerType string

const (
	PartnerSupplier  PartnerType = "supplier"
	PartnerClient    PartnerType = "client"
	PartnerForwarder PartnerType = "forwarder"
)

type BatchStatus string

const (
	BatchAvailable  BatchStatus = "available"
	BatchReserved   BatchStatus = "reserved"
	BatchQuarantine BatchStatus = "quarantine"
	BatchConsumed   BatchStatus = "consumed"
)

type POStatus string

const (
	PODraft     POStatus = "draft"
	POOrdered   POStatus = "ordered"
	POInTransit POStatus = "in_transit"
	POPartial   POStatus = "partial"
	POReceived  POStatus = "received"
)

type SOStatus string

const (
	SOBooking      SOStatus = "booking"
	SOConfirmed    SOStatus = "confirmed"
	SOBOLGenerated SOStatus = "bol_generated"
	SOShipped      SOStatus = "shipped"
	SOInvoiced     SOStatus = "invoiced"
	SOPaid         SOStatus = "paid"
)

type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
)

type Product struct {
	ID                   string            `json:"id"`
	SKU                  string            `json:"sku"`
	Name                 string            `json:"name"`
	DescriptionFR        string            `json:"description_fr,omitempty"`
	Brand                string            `json:"brand,omitempty"`
	Category             string            `json:"category"`
	Unit                 string            `json:"unit"`
	Format               string            `json:"format,omitempty"`
	ItemsPerCase         int               `json:"items_per_case,omitempty"`
	UnitWeightKg         decimal.Decimal   `json:"unit_weight_kg"`
	Origin               string            `json:"origin,omitempty"`
	HSCode               string            `json:"hs_code,omitempty"`
	Conservation         string            `json:"conservation"`
	MinStockAlert        decimal.Decimal   `json:"min_stock_alert"`
	WholesalePrice       decimal.Decimal   `json:"wholesale_price"`
	SuggestedRetailPrice decimal.Decimal   `json:"suggested_retail_price"`
	Extra                map[string]string `json:"extra,omitempty"`
}

// Validate reports the first non-negativity violation on the product.
func (p Product) Validate() error {
	switch {
	case p.UnitWeightKg.IsNegative():
		return fmt.Errorf("product %s: unit_weight_kg cannot be negative", p.SKU)
	case p.MinStockAlert.IsNegative():
		return fmt.Errorf("product %s: min_stock_alert cannot be negative", p.SKU)
	case p.WholesalePrice.IsNegative():
		return fmt.Errorf("product %s: wholesale_price cannot be negative", p.SKU)
	case p.SuggestedRetailPrice.IsNegative():
		return fmt.Errorf("product %s: suggested_retail_price cannot be negative", p.SKU)
	}
	return nil
}

type Partner struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       PartnerType       `json:"type"`
	Address    string            `json:"address,omitempty"`
	City       string            `json:"city,omitempty"`
	PostalCode string            `json:"postal_code,omitempty"`
	Country    string            `json:"country"`
	Currency   string            `json:"currency"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type Batch struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	// OriginPurchaseItemID points back at the purchase order line the lot
	// was received from. Lookup only; the batch does not own the order.
	OriginPurchaseItemID string          `json:"origin_purchase_item_id,omitempty"`
	SupplierBatchNumber  string          `json:"supplier_batch_number"`
	InternalBatchNumber  string          `json:"internal_batch_number"`
	QuantityInitial      decimal.Decimal `json:"quantity_initial"`
	QuantityCurrent      decimal.Decimal `json:"quantity_current"`
	DLC                  *time.Time      `json:"dlc,omitempty"`
	DDM                  *time.Time      `json:"ddm,omitempty"`
	ReceptionDate        time.Time       `json:"reception_date"`
	LandedCostUnit       decimal.Decimal `json:"landed_cost_unit"`
	LocationZone         string          `json:"location_zone"`
	Status               BatchStatus     `json:"status"`
}

// Validate checks 0 <= quantity_current <= quantity_initial.
func (b Batch) Validate() error {
	if b.QuantityCurrent.IsNegative() {
		return fmt.Errorf("batch %s: quantity_current cannot be negative", b.InternalBatchNumber)
	}
	if b.QuantityCurrent.GreaterThan(b.QuantityInitial) {
		return fmt.Errorf("batch %s: quantity_current exceeds quantity_initial", b.InternalBatchNumber)
	}
	return nil
}

type PurchaseOrder struct {
	ID              string              `json:"id"`
	PONumber        string              `json:"po_number"`
	SupplierID      string              `json:"supplier_id"`
	Supplier        *Partner            `json:"supplier,omitempty"`
	Status          POStatus            `json:"status"`
	Incoterm        string              `json:"incoterm,omitempty"`
	OrderDate       time.Time           `json:"order_date"`
	ExpectedArrival *time.Time          `json:"expected_arrival,omitempty"`
	TotalFOB        decimal.Decimal     `json:"total_fob"`
	CurrencyRate    decimal.Decimal     `json:"currency_rate"`
	Items           []PurchaseOrderItem `json:"items,omitempty"`
}

// RecomputeTotalFOB returns the sum of quantity_cases x price_unit over the lines.
func (po PurchaseOrder) RecomputeTotalFOB() decimal.Decimal {
	total := decimal.Zero
	for _, item := range po.Items {
		total = total.Add(item.QuantityCases.Mul(item.PriceUnit))
	}
	return total
}

type PurchaseOrderItem struct {
	ID            string          `json:"id"`
	POID          string          `json:"po_id"`
	ProductID     string          `json:"product_id"`
	QuantityCases decimal.Decimal `json:"quantity_cases"`
	PriceUnit     decimal.Decimal `json:"price_unit"`
}

type SalesOrder struct {
	ID            string           `json:"id"`
	SONumber      string           `json:"so_number"`
	ClientID      string           `json:"client_id"`
	Client        *Partner         `json:"client,omitempty"`
	Status        SOStatus         `json:"status"`
	OrderDate     time.Time        `json:"order_date"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Currency      string           `json:"currency"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Items         []SalesOrderItem `json:"items,omitempty"`
}

// RecomputeTotalAmount returns the sum of quantity x unit_price over the lines.
func (so SalesOrder) RecomputeTotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range so.Items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total
}

type SalesOrderItem struct {
	ID        string          `json:"id"`
	SOID      string          `json:"so_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	SOID          string          `json:"so_id"`
	ClientID      string          `json:"client_id"`
	Client        *Partner        `json:"client,omitempty"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Status        InvoiceStatus   `json:"status"`
}

// Snapshot is one consistent read of every collection the engines join
// across. Treat it as read-only once built.
type Snapshot struct {
	Version        string          `json:"version"`
	LoadedAt       time.Time       `json:"loaded_at"`
	Products       []Product       `json:"products"`
	Partners       []Partner       `json:"partners"`
	Batches        []Batch         `json:"batches"`
	PurchaseOrders []PurchaseOrder `json:"purchase_orders"`
	SalesOrders    []SalesOrder    `json:"sales_orders"`
	Invoices       []Invoice       `json:"invoices"`
}
