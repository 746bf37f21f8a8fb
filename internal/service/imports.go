package service

import (
	"context"

	"tradeflow/internal/importer"

	"go.uber.org/zap"
)

type ImportResult struct {
	TotalRows int                 `json:"total_rows"`
	Inserted  int                 `json:"inserted"`
	Updated   int                 `json:"updated"`
	Rejected  []importer.RowError `json:"rejected,omitempty"`
}

// ImportProducts normalizes loose rows into products and upserts the valid
// ones by SKU. Rejected rows are reported, not fatal, unless none survive.
func (s *Service) ImportProducts(ctx context.Context, rows []importer.Row) (ImportResult, error) {
	result := ImportResult{TotalRows: len(rows)}
	if len(rows) == 0 {
		return result, &ValidationError{Violations: []string{"import file has no data rows"}}
	}

	products, rejected := s.importer.Products(rows)
	result.Rejected = rejected
	if len(products) == 0 {
		return result, &ValidationError{Violations: rowMessages(rejected)}
	}

	upserted, err := s.store.UpsertProducts(ctx, products)
	if err != nil {
		return result, err
	}
	result.Inserted = upserted.Inserted
	result.Updated = upserted.Updated
	s.snapshots.Invalidate(ctx)

	s.log.Info("products imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("rejected", len(rejected)),
	)
	return result, nil
}

func (s *Service) ImportPartners(ctx context.Context, rows []importer.Row) (ImportResult, error) {
	result := ImportResult{TotalRows: len(rows)}
	if len(rows) == 0 {
		return result, &ValidationError{Violations: []string{"import file has no data rows"}}
	}

	partners, rejected := s.importer.Partners(rows)
	result.Rejected = rejected
	if len(partners) == 0 {
		return result, &ValidationError{Violations: rowMessages(rejected)}
	}

	inserted, err := s.store.InsertPartners(ctx, partners)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted
	s.snapshots.Invalidate(ctx)

	s.log.Info("partners imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("inserted", inserted),
		zap.Int("rejected", len(rejected)),
	)
	return result, nil
}

func rowMessages(errs []importer.RowError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	if len(out) == 0 {
		out = append(out, "no valid rows")
	}
	return out
}
