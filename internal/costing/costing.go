// Package costing turns a supplier FOB price plus accessorial charges into a
// local-currency landed cost and a wholesale/retail price ladder.
//
// Every function is pure. Nothing is rounded here; rounding belongs to
// whatever renders the numbers.
package costing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Default margins applied when a caller does not supply its own.
var (
	DefaultWholesaleMarginPct = decimal.NewFromInt(25)
	DefaultRetailMarginPct    = decimal.NewFromInt(40)
)

// Input carries the parameters of a full costing run.
type Input struct {
	FOB                decimal.Decimal
	Freight            decimal.Decimal
	Insurance          decimal.Decimal
	Customs            decimal.Decimal
	Other              decimal.Decimal
	FXRate             decimal.Decimal
	SupplierCurrency   string
	LocalCurrency      string
	WholesaleMarginPct decimal.Decimal
	RetailMarginPct    decimal.Decimal
}

// Breakdown is the fully computed cost ladder. It is never persisted.
type Breakdown struct {
	FOBCost              decimal.Decimal `json:"fob_cost"`
	FreightCost          decimal.Decimal `json:"freight_cost"`
	InsuranceCost        decimal.Decimal `json:"insurance_cost"`
	CustomsDutyCost      decimal.Decimal `json:"customs_duty_cost"`
	OtherCharges         decimal.Decimal `json:"other_charges"`
	FXRate               decimal.Decimal `json:"fx_rate"`
	SupplierCurrency     string          `json:"supplier_currency"`
	LocalCurrency        string          `json:"local_currency"`
	TotalCharges         decimal.Decimal `json:"total_charges"`
	LandedCostForeign    decimal.Decimal `json:"landed_cost_foreign"`
	LandedCostLocal      decimal.Decimal `json:"landed_cost_local"`
	WholesaleMarginPct   decimal.Decimal `json:"wholesale_margin_pct"`
	WholesalePrice       decimal.Decimal `json:"wholesale_price"`
	RetailMarginPct      decimal.Decimal `json:"retail_margin_pct"`
	SuggestedRetailPrice decimal.Decimal `json:"suggested_retail_price"`
}

// LandedCost returns (fob + freight + insurance + customs + other) x fxRate.
func LandedCost(fob, freight, insurance, customs, other, fxRate decimal.Decimal) decimal.Decimal {
	return fob.Add(freight).Add(insurance).Add(customs).Add(other).Mul(fxRate)
}

// WholesalePrice marks the landed cost up by marginPct percent.
func WholesalePrice(landedCost, marginPct decimal.Decimal) decimal.Decimal {
	return markUp(landedCost, marginPct)
}

// RetailPrice marks the wholesale price up by marginPct percent.
func RetailPrice(wholesalePrice, marginPct decimal.Decimal) decimal.Decimal {
	return markUp(wholesalePrice, marginPct)
}

func markUp(base, marginPct decimal.Decimal) decimal.Decimal {
	return base.Mul(hundred.Add(marginPct)).Div(hundred)
}

// FullCosting chains charges, FX conversion and both margins.
func FullCosting(in Input) Breakdown {
	totalCharges := in.Freight.Add(in.Insurance).Add(in.Customs).Add(in.Other)
	landedForeign := in.FOB.Add(totalCharges)
	landedLocal := landedForeign.Mul(in.FXRate)
	wholesale := WholesalePrice(landedLocal, in.WholesaleMarginPct)
	retail := RetailPrice(wholesale, in.RetailMarginPct)

	return Breakdown{
		FOBCost:              in.FOB,
		FreightCost:          in.Freight,
		InsuranceCost:        in.Insurance,
		CustomsDutyCost:      in.Customs,
		OtherCharges:         in.Other,
		FXRate:               in.FXRate,
		SupplierCurrency:     in.SupplierCurrency,
		LocalCurrency:        in.LocalCurrency,
		TotalCharges:         totalCharges,
		LandedCostForeign:    landedForeign,
		LandedCostLocal:      landedLocal,
		WholesaleMarginPct:   in.WholesaleMarginPct,
		WholesalePrice:       wholesale,
		RetailMarginPct:      in.RetailMarginPct,
		SuggestedRetailPrice: retail,
	}
}

// GrossProfitPct returns ((selling - cost) / selling) x 100, or zero when
// the selling price is zero.
func GrossProfitPct(sellingPrice, cost decimal.Decimal) decimal.Decimal {
	if sellingPrice.IsZero() {
		return decimal.Zero
	}
	return sellingPrice.Sub(cost).Div(sellingPrice).Mul(hundred)
}
