package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tradeflow/internal/costing"
	"tradeflow/internal/domain"
	"tradeflow/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostingRequest is a free-standing calculator request. Omitted margins and
// local currency fall back to the configured pricing.
type CostingRequest struct {
	FOB                decimal.Decimal  `json:"fob"`
	Freight            decimal.Decimal  `json:"freight"`
	Insurance          decimal.Decimal  `json:"insurance"`
	Customs            decimal.Decimal  `json:"customs"`
	Other              decimal.Decimal  `json:"other"`
	FXRate             decimal.Decimal  `json:"fx_rate"`
	SupplierCurrency   string           `json:"supplier_currency"`
	LocalCurrency      string           `json:"local_currency"`
	WholesaleMarginPct *decimal.Decimal `json:"wholesale_margin_pct"`
	RetailMarginPct    *decimal.Decimal `json:"retail_margin_pct"`
}

type CostingResult struct {
	Breakdown      costing.Breakdown `json:"breakdown"`
	GrossProfitPct decimal.Decimal   `json:"gross_profit_pct"`
	Violations     []string          `json:"violations"`
}

// CalculateCosting runs a full costing. Violations are reported alongside
// the numbers; a calculator never refuses to compute.
func (s *Service) CalculateCosting(req CostingRequest) CostingResult {
	wholesale := s.pricing.WholesaleMarginPct
	if req.WholesaleMarginPct != nil {
		wholesale = *req.WholesaleMarginPct
	}
	retail := s.pricing.RetailMarginPct
	if req.RetailMarginPct != nil {
		retail = *req.RetailMarginPct
	}
	local := strings.ToUpper(strings.TrimSpace(req.LocalCurrency))
	if local == "" {
		local = s.pricing.LocalCurrency
	}

	breakdown := costing.FullCosting(costing.Input{
		FOB:                req.FOB,
		Freight:            req.Freight,
		Insurance:          req.Insurance,
		Customs:            req.Customs,
		Other:              req.Other,
		FXRate:             req.FXRate,
		SupplierCurrency:   strings.ToUpper(strings.TrimSpace(req.SupplierCurrency)),
		LocalCurrency:      local,
		WholesaleMarginPct: wholesale,
		RetailMarginPct:    retail,
	})
	return CostingResult{
		Breakdown:      breakdown,
		GrossProfitPct: costing.GrossProfitPct(breakdown.WholesalePrice, breakdown.LandedCostLocal),
		Violations:     costing.Validate(breakdown.Partial()),
	}
}

// OrderCostingRequest carries the order-level charges to spread over a
// purchase order's lines.
type OrderCostingRequest struct {
	Charges            costing.Charges  `json:"charges"`
	FXRate             decimal.Decimal  `json:"fx_rate"`
	WholesaleMarginPct *decimal.Decimal `json:"wholesale_margin_pct"`
	RetailMarginPct    *decimal.Decimal `json:"retail_margin_pct"`
	PerCase            bool             `json:"per_case"`
}

type LineViolations struct {
	ItemID     string   `json:"item_id"`
	Violations []string `json:"violations"`
}

type OrderCosting struct {
	PurchaseOrderID string                `json:"purchase_order_id"`
	PONumber        string                `json:"po_number"`
	TotalFOB        decimal.Decimal       `json:"total_fob"`
	ChargesTotal    decimal.Decimal       `json:"charges_total"`
	Lines           []costing.LineCosting `json:"lines"`
	Violations      []LineViolations      `json:"violations,omitempty"`
}

// PreviewOrderCosting allocates charges across the order's lines without
// writing anything.
func (s *Service) PreviewOrderCosting(ctx context.Context, poID string, req OrderCostingRequest) (OrderCosting, error) {
	poID = strings.TrimSpace(poID)
	if poID == "" {
		return OrderCosting{}, &ValidationError{Violations: []string{"purchase order id is required"}}
	}
	po, err := s.store.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return OrderCosting{}, err
	}
	if len(po.Items) == 0 {
		return OrderCosting{}, &ValidationError{Violations: []string{"purchase order has no lines"}}
	}

	opts := costing.AllocationOptions{
		FXRate:             req.FXRate,
		LocalCurrency:      s.pricing.LocalCurrency,
		WholesaleMarginPct: s.pricing.WholesaleMarginPct,
		RetailMarginPct:    s.pricing.RetailMarginPct,
		PerCase:            req.PerCase,
	}
	if po.Supplier != nil {
		opts.SupplierCurrency = po.Supplier.Currency
	}
	if req.WholesaleMarginPct != nil {
		opts.WholesaleMarginPct = *req.WholesaleMarginPct
	}
	if req.RetailMarginPct != nil {
		opts.RetailMarginPct = *req.RetailMarginPct
	}

	lines := costing.AllocateOrderCharges(*po, req.Charges, opts)
	out := OrderCosting{
		PurchaseOrderID: po.ID,
		PONumber:        po.PONumber,
		TotalFOB:        po.RecomputeTotalFOB(),
		ChargesTotal:    req.Charges.Total(),
		Lines:           lines,
	}
	for _, line := range lines {
		if v := costing.Validate(line.Breakdown.Partial()); len(v) > 0 {
			out.Violations = append(out.Violations, LineViolations{ItemID: line.ItemID, Violations: v})
		}
	}
	return out, nil
}

type ApplyResult struct {
	Costing OrderCosting                 `json:"costing"`
	Prices  repository.PriceUpdateResult `json:"prices"`
	// Products are the re-priced rows as read back after the write.
	Products []domain.Product `json:"products"`
}

// ApplyOrderCosting writes the wholesale and suggested retail prices of a
// previewed costing back to the products on the order. Any line violation
// blocks the write.
func (s *Service) ApplyOrderCosting(ctx context.Context, poID string, req OrderCostingRequest) (ApplyResult, error) {
	preview, err := s.PreviewOrderCosting(ctx, poID, req)
	if err != nil {
		return ApplyResult{}, err
	}
	if len(preview.Violations) > 0 {
		violations := make([]string, 0, len(preview.Violations))
		for _, lv := range preview.Violations {
			for _, v := range lv.Violations {
				violations = append(violations, fmt.Sprintf("line %s: %s", lv.ItemID, v))
			}
		}
		return ApplyResult{Costing: preview}, &ValidationError{Violations: violations}
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return ApplyResult{}, err
	}
	touched := make(map[string]struct{}, len(preview.Lines))
	for _, line := range preview.Lines {
		touched[line.ProductID] = struct{}{}
	}
	priced := make([]domain.Product, 0, len(touched))
	for _, product := range costing.ApplyToProducts(snap.Products, preview.Lines) {
		if _, ok := touched[product.ID]; ok {
			priced = append(priced, product)
		}
	}

	prices, err := s.store.UpdateProductPrices(ctx, priced)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("apply costing for %s: %w", preview.PurchaseOrderID, err)
	}
	s.snapshots.Invalidate(ctx)

	unmatched := make(map[string]struct{}, len(prices.UnmatchedIDs))
	for _, id := range prices.UnmatchedIDs {
		unmatched[id] = struct{}{}
	}
	persisted := make([]domain.Product, 0, len(priced))
	for _, product := range priced {
		if _, ok := unmatched[product.ID]; ok {
			continue
		}
		stored, err := s.store.GetProductByID(ctx, product.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return ApplyResult{}, fmt.Errorf("read back product %s: %w", product.ID, err)
		}
		persisted = append(persisted, *stored)
	}

	s.log.Info("order costing applied",
		zap.String("purchase_order", preview.PurchaseOrderID),
		zap.Int("updated_products", prices.UpdatedProducts),
		zap.Int("unmatched", len(prices.UnmatchedIDs)),
	)
	return ApplyResult{Costing: preview, Prices: prices, Products: persisted}, nil
}
