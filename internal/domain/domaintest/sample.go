// Package domaintest provides a small, consistent trading snapshot for tests.
package domaintest

import (
	"time"

	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

func Dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func Date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(value string) *time.Time {
	t := Date(value)
	return &t
}

// Sample returns a fresh snapshot on every call so tests can mutate it.
func Sample() domain.Snapshot {
	partners := []domain.Partner{
		{ID: "sup1", Name: "Casa Folino Srl", Type: domain.PartnerSupplier, Country: "Italy", Currency: "EUR"},
		{ID: "sup2", Name: "Corilu", Type: domain.PartnerSupplier, Country: "Italy", Currency: "EUR"},
		{ID: "cli1", Name: "Maison(House)", Type: domain.PartnerClient, Country: "Canada", Currency: "CAD", City: "Quebec"},
		{ID: "cli2", Name: "Les Saveurs Il Giretto", Type: domain.PartnerClient, Country: "Canada", Currency: "CAD", City: "Laval, Québec"},
		{ID: "cli3", Name: "Eataly Toronto LP", Type: domain.PartnerClient, Country: "Canada", Currency: "CAD"},
		{ID: "cli4", Name: "Fruiterie Milano", Type: domain.PartnerClient, Country: "Canada", Currency: "CAD"},
	}
	partnerByID := func(id string) *domain.Partner {
		for i := range partners {
			if partners[i].ID == id {
				p := partners[i]
				return &p
			}
		}
		return nil
	}

	products := []domain.Product{
		{
			ID: "p1", SKU: "PISE 1", Name: "Pistachio Spreadable Cream - PLASTIQUE 1 KG", Brand: "Chocorotto",
			Category: "Cream", Unit: "colis", ItemsPerCase: 2, UnitWeightKg: Dec("2"), Conservation: "sec",
			MinStockAlert: Dec("10"), WholesalePrice: Dec("32.50"), SuggestedRetailPrice: Dec("45.00"),
		},
		{
			ID: "p2", SKU: "CRM02", Name: "Pistachio Spreadable Cream", Brand: "Casa Folino",
			Category: "Cream", Unit: "colis", ItemsPerCase: 12, UnitWeightKg: Dec("2.64"), Conservation: "sec",
			MinStockAlert: Dec("20"), WholesalePrice: Dec("72.00"), SuggestedRetailPrice: Dec("95.00"),
		},
		{
			ID: "p3", SKU: "CRM13", Name: "White Chocolate Spreadable Cream", Brand: "Casa Folino",
			Category: "Cream", Unit: "colis", ItemsPerCase: 12, UnitWeightKg: Dec("2.64"), Conservation: "sec",
			MinStockAlert: Dec("20"), WholesalePrice: Dec("70.00"), SuggestedRetailPrice: Dec("90.00"),
		},
		{
			ID: "p_hazelnut_180", SKU: "PAS180", Name: "100% Piemonte IGP Hazelnut Paste", Brand: "Corilu",
			Category: "Nuts", Unit: "colis", ItemsPerCase: 6, UnitWeightKg: Dec("1.08"), Conservation: "sec",
			MinStockAlert: Dec("5"), WholesalePrice: Dec("18.00"), SuggestedRetailPrice: Dec("25.00"),
		},
		{
			ID: "p_burrata", SKU: "MA22", Name: "Burrata 100gr Coupelle", Brand: "Jusami",
			Category: "Dairy", Unit: "colis", ItemsPerCase: 15, UnitWeightKg: Dec("1.5"), Conservation: "frais",
			MinStockAlert: Dec("5"), WholesalePrice: Dec("71.25"), SuggestedRetailPrice: Dec("99.00"),
		},
	}

	purchaseOrders := []domain.PurchaseOrder{
		{
			ID: "po-32215", PONumber: "32215", SupplierID: "sup1", Supplier: partnerByID("sup1"), Status: domain.POReceived,
			OrderDate: Date("2025-10-01"), TotalFOB: Dec("45"), CurrencyRate: Dec("1.10"), Incoterm: "EXW",
			Items: []domain.PurchaseOrderItem{
				{ID: "IDPO001", POID: "po-32215", ProductID: "p1", QuantityCases: Dec("2"), PriceUnit: Dec("22.50")},
			},
		},
		{
			ID: "po-32216", PONumber: "32216", SupplierID: "sup1", Supplier: partnerByID("sup1"), Status: domain.POOrdered,
			OrderDate: Date("2025-06-26"), TotalFOB: Dec("120"), CurrencyRate: Dec("1.10"), Incoterm: "EXW",
			Items: []domain.PurchaseOrderItem{
				{ID: "IDPO002", POID: "po-32216", ProductID: "p2", QuantityCases: Dec("2"), PriceUnit: Dec("60.00")},
			},
		},
		{
			ID: "po-32218", PONumber: "32218", SupplierID: "sup1", Supplier: partnerByID("sup1"), Status: domain.POPartial,
			OrderDate: Date("2025-06-26"), TotalFOB: Dec("120"), CurrencyRate: Dec("1.10"), Incoterm: "EXW",
			Items: []domain.PurchaseOrderItem{
				{ID: "IDPO004", POID: "po-32218", ProductID: "p3", QuantityCases: Dec("2"), PriceUnit: Dec("60")},
			},
		},
		{
			ID: "po-121329", PONumber: "121329", SupplierID: "sup2", Supplier: partnerByID("sup2"), Status: domain.POInTransit,
			OrderDate: Date("2025-11-12"), ExpectedArrival: datePtr("2025-12-11"), TotalFOB: Dec("150"), CurrencyRate: Dec("1.10"), Incoterm: "EXW",
			Items: []domain.PurchaseOrderItem{
				{ID: "pol-1", POID: "po-121329", ProductID: "p_hazelnut_180", QuantityCases: Dec("10"), PriceUnit: Dec("15.00")},
			},
		},
	}

	batches := []domain.Batch{
		{
			ID: "b1", ProductID: "p1", OriginPurchaseItemID: "IDPO001", SupplierBatchNumber: "LOT-32215-01",
			InternalBatchNumber: "INT-25-001", QuantityInitial: Dec("2"), QuantityCurrent: Dec("2"),
			DLC: datePtr("2026-10-01"), ReceptionDate: Date("2025-10-01"), LandedCostUnit: Dec("24.50"),
			LocationZone: "A-01", Status: domain.BatchAvailable,
		},
		{
			ID: "b2", ProductID: "p3", OriginPurchaseItemID: "IDPO004", SupplierBatchNumber: "LOT-32217-03",
			InternalBatchNumber: "INT-25-003", QuantityInitial: Dec("2"), QuantityCurrent: Dec("1"),
			DLC: datePtr("2026-06-26"), ReceptionDate: Date("2025-06-26"), LandedCostUnit: Dec("65.00"),
			LocationZone: "B-02", Status: domain.BatchAvailable,
		},
		{
			ID: "b3", ProductID: "p_burrata", SupplierBatchNumber: "LOT-FR-99",
			InternalBatchNumber: "INT-25-099", QuantityInitial: Dec("10"), QuantityCurrent: Dec("5"),
			DLC: datePtr("2025-12-25"), ReceptionDate: Date("2025-12-10"), LandedCostUnit: Dec("65.00"),
			LocationZone: "FRIDGE-01", Status: domain.BatchAvailable,
		},
		{
			ID: "b4", ProductID: "p1", SupplierBatchNumber: "LOT-OLD", InternalBatchNumber: "INT-24-050",
			QuantityInitial: Dec("4"), QuantityCurrent: Dec("3"), ReceptionDate: Date("2024-05-01"),
			LandedCostUnit: Dec("20"), LocationZone: "Q-01", Status: domain.BatchQuarantine,
		},
	}

	salesOrders := []domain.SalesOrder{
		{
			ID: "so-1", SONumber: "BK-2025-889", ClientID: "cli2", Client: partnerByID("cli2"), Status: domain.SOInvoiced,
			OrderDate: Date("2025-06-30"), TotalAmount: Dec("540"), Currency: "CAD", InvoiceNumber: "INV-2025-001",
			Items: []domain.SalesOrderItem{
				{ID: "si-1", SOID: "so-1", ProductID: "p1", Quantity: Dec("10"), UnitPrice: Dec("54.00")},
			},
		},
		{
			ID: "so-2", SONumber: "BK-2025-890", ClientID: "cli3", Client: partnerByID("cli3"), Status: domain.SOBOLGenerated,
			OrderDate: Date("2025-07-15"), TotalAmount: Dec("1200"), Currency: "CAD",
			Items: []domain.SalesOrderItem{
				{ID: "si-2", SOID: "so-2", ProductID: "p2", Quantity: Dec("15"), UnitPrice: Dec("80.00")},
			},
		},
		{
			ID: "so-3", SONumber: "BK-2025-901", ClientID: "cli1", Client: partnerByID("cli1"), Status: domain.SOConfirmed,
			OrderDate: Date("2025-11-20"), TotalAmount: Dec("162"), Currency: "CAD",
			Items: []domain.SalesOrderItem{
				{ID: "si-3", SOID: "so-3", ProductID: "p1", Quantity: Dec("3"), UnitPrice: Dec("54.00")},
			},
		},
		{
			ID: "so-4", SONumber: "BK-2025-902", ClientID: "cli4", Client: partnerByID("cli4"), Status: domain.SOShipped,
			OrderDate: Date("2025-11-25"), TotalAmount: Dec("108"), Currency: "CAD",
			Items: []domain.SalesOrderItem{
				{ID: "si-4", SOID: "so-4", ProductID: "p1", Quantity: Dec("2"), UnitPrice: Dec("54.00")},
			},
		},
	}

	invoices := []domain.Invoice{
		{
			ID: "inv-1", InvoiceNumber: "202448", SOID: "so-old-1", ClientID: "cli4", Client: partnerByID("cli4"),
			IssueDate: Date("2025-10-02"), DueDate: Date("2025-11-02"), Amount: Dec("1212.00"), Balance: Dec("1212.00"),
			Status: domain.InvoiceUnpaid,
		},
		{
			ID: "inv-2", InvoiceNumber: "202449", SOID: "so-old-2", ClientID: "cli2", Client: partnerByID("cli2"),
			IssueDate: Date("2025-10-10"), DueDate: Date("2025-11-10"), Amount: Dec("498.00"), Balance: Dec("498.00"),
			Status: domain.InvoiceUnpaid,
		},
		{
			ID: "inv-3", InvoiceNumber: "202450", SOID: "so-old-3", ClientID: "cli3", Client: partnerByID("cli3"),
			IssueDate: Date("2025-10-15"), DueDate: Date("2025-11-15"), Amount: Dec("442.65"), Balance: Dec("0"),
			Status: domain.InvoicePaid,
		},
	}

	return domain.Snapshot{
		Version:        "sample",
		LoadedAt:       Date("2025-12-02"),
		Products:       products,
		Partners:       partners,
		Batches:        batches,
		PurchaseOrders: purchaseOrders,
		SalesOrders:    salesOrders,
		Invoices:       invoices,
	}
}
