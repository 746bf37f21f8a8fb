package costing

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Partial is a costing under construction; nil fields were not supplied.
type Partial struct {
	FOBCost            *decimal.Decimal `json:"fob_cost,omitempty"`
	FXRate             *decimal.Decimal `json:"fx_rate,omitempty"`
	WholesaleMarginPct *decimal.Decimal `json:"wholesale_margin_pct,omitempty"`
	RetailMarginPct    *decimal.Decimal `json:"retail_margin_pct,omitempty"`
	SupplierCurrency   string           `json:"supplier_currency,omitempty"`
	LocalCurrency      string           `json:"local_currency,omitempty"`
}

// Partial exposes a complete breakdown to Validate.
func (b Breakdown) Partial() Partial {
	return Partial{
		FOBCost:            &b.FOBCost,
		FXRate:             &b.FXRate,
		WholesaleMarginPct: &b.WholesaleMarginPct,
		RetailMarginPct:    &b.RetailMarginPct,
		SupplierCurrency:   b.SupplierCurrency,
		LocalCurrency:      b.LocalCurrency,
	}
}

// Validate lists every violation found. An empty result means the costing
// can be used; callers decide whether violations block a save.
func Validate(p Partial) []string {
	violations := make([]string, 0)

	if p.FOBCost == nil || !p.FOBCost.IsPositive() {
		violations = append(violations, "FOB cost must be greater than 0")
	}
	if p.FXRate == nil || !p.FXRate.IsPositive() {
		violations = append(violations, "FX rate must be greater than 0")
	}
	if p.WholesaleMarginPct != nil && p.WholesaleMarginPct.IsNegative() {
		violations = append(violations, "Wholesale margin cannot be negative")
	}
	if p.RetailMarginPct != nil && p.RetailMarginPct.IsNegative() {
		violations = append(violations, "Retail margin cannot be negative")
	}
	if p.SupplierCurrency != "" && money.GetCurrency(p.SupplierCurrency) == nil {
		violations = append(violations, fmt.Sprintf("Supplier currency %q is not an ISO 4217 code", p.SupplierCurrency))
	}
	if p.LocalCurrency != "" && money.GetCurrency(p.LocalCurrency) == nil {
		violations = append(violations, fmt.Sprintf("Local currency %q is not an ISO 4217 code", p.LocalCurrency))
	}

	return violations
}
