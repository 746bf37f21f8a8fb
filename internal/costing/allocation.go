package costing

import (
	"maps"

	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

// Charges are order-level accessorial costs, in supplier currency.
type Charges struct {
	Freight   decimal.Decimal `json:"freight"`
	Insurance decimal.Decimal `json:"insurance"`
	Customs   decimal.Decimal `json:"customs"`
	Other     decimal.Decimal `json:"other"`
}

// Total sums the four components.
func (c Charges) Total() decimal.Decimal {
	return c.Freight.Add(c.Insurance).Add(c.Customs).Add(c.Other)
}

func (c Charges) scale(factor decimal.Decimal) Charges {
	return Charges{
		Freight:   c.Freight.Mul(factor),
		Insurance: c.Insurance.Mul(factor),
		Customs:   c.Customs.Mul(factor),
		Other:     c.Other.Mul(factor),
	}
}

func (c Charges) divide(by decimal.Decimal) Charges {
	return Charges{
		Freight:   c.Freight.Div(by),
		Insurance: c.Insurance.Div(by),
		Customs:   c.Customs.Div(by),
		Other:     c.Other.Div(by),
	}
}

// AllocationOptions tune how an order's charges become line costings.
type AllocationOptions struct {
	// FXRate overrides the order's currency_rate when positive.
	FXRate             decimal.Decimal
	SupplierCurrency   string
	LocalCurrency      string
	WholesaleMarginPct decimal.Decimal
	RetailMarginPct    decimal.Decimal
	// PerCase spreads each line's allocated charges over its case count
	// before costing, so the breakdown is per case like the FOB price.
	PerCase bool
}

// LineCosting is the costing of one purchase order line.
type LineCosting struct {
	ItemID    string          `json:"item_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity_cases"`
	Share     decimal.Decimal `json:"share"`
	Allocated Charges         `json:"allocated"`
	Breakdown Breakdown       `json:"breakdown"`
}

// AllocateOrderCharges splits order-level charges across the lines of po in
// proportion to each line's share of the total ordered quantity, then runs
// a full costing per line with the line's unit price as FOB.
func AllocateOrderCharges(po domain.PurchaseOrder, charges Charges, opts AllocationOptions) []LineCosting {
	totalQty := decimal.Zero
	for _, item := range po.Items {
		totalQty = totalQty.Add(item.QuantityCases)
	}

	fx := po.CurrencyRate
	if opts.FXRate.IsPositive() {
		fx = opts.FXRate
	}

	lines := make([]LineCosting, 0, len(po.Items))
	for _, item := range po.Items {
		share := decimal.Zero
		if totalQty.IsPositive() {
			share = item.QuantityCases.Div(totalQty)
		}
		allocated := charges.scale(share)

		applied := allocated
		if opts.PerCase && item.QuantityCases.IsPositive() {
			applied = allocated.divide(item.QuantityCases)
		}

		lines = append(lines, LineCosting{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.QuantityCases,
			Share:     share,
			Allocated: allocated,
			Breakdown: FullCosting(Input{
				FOB:                item.PriceUnit,
				Freight:            applied.Freight,
				Insurance:          applied.Insurance,
				Customs:            applied.Customs,
				Other:              applied.Other,
				FXRate:             fx,
				SupplierCurrency:   opts.SupplierCurrency,
				LocalCurrency:      opts.LocalCurrency,
				WholesaleMarginPct: opts.WholesaleMarginPct,
				RetailMarginPct:    opts.RetailMarginPct,
			}),
		})
	}
	return lines
}

// ApplyToProducts returns copies of products carrying the wholesale and
// suggested retail prices of their matching line. When a product appears on
// several lines the first one wins. Products with no line come back as is.
func ApplyToProducts(products []domain.Product, lines []LineCosting) []domain.Product {
	byProduct := make(map[string]Breakdown, len(lines))
	for _, line := range lines {
		if _, seen := byProduct[line.ProductID]; seen {
			continue
		}
		byProduct[line.ProductID] = line.Breakdown
	}

	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		derived := product
		derived.Extra = maps.Clone(product.Extra)
		if breakdown, ok := byProduct[product.ID]; ok {
			derived.WholesalePrice = breakdown.WholesalePrice
			derived.SuggestedRetailPrice = breakdown.SuggestedRetailPrice
		}
		out = append(out, derived)
	}
	return out
}
