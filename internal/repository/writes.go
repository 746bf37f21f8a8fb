package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tradeflow/internal/domain"
)

type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// UpsertProducts inserts the catalogue rows, updating in place any row whose
// SKU already exists. The stored id is kept on update.
func (r *Repository) UpsertProducts(ctx context.Context, products []domain.Product) (UpsertResult, error) {
	var result UpsertResult
	if len(products) == 0 {
		return result, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin product import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range products {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			continue
		}
		var inserted bool
		if err := tx.QueryRow(ctx, `
			INSERT INTO products (
				id,
				sku,
				name,
				description_fr,
				brand,
				category,
				unit,
				format,
				items_per_case,
				unit_weight_kg,
				origin,
				hs_code,
				conservation,
				min_stock_alert,
				wholesale_price,
				suggested_retail_price,
				extra
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (sku) DO UPDATE SET
				name = EXCLUDED.name,
				description_fr = EXCLUDED.description_fr,
				brand = EXCLUDED.brand,
				category = EXCLUDED.category,
				unit = EXCLUDED.unit,
				format = EXCLUDED.format,
				items_per_case = EXCLUDED.items_per_case,
				unit_weight_kg = EXCLUDED.unit_weight_kg,
				origin = EXCLUDED.origin,
				hs_code = EXCLUDED.hs_code,
				conservation = EXCLUDED.conservation,
				min_stock_alert = EXCLUDED.min_stock_alert,
				wholesale_price = EXCLUDED.wholesale_price,
				suggested_retail_price = EXCLUDED.suggested_retail_price,
				extra = EXCLUDED.extra,
				updated_at = NOW()
			RETURNING (xmax = 0)
		`,
			p.ID,
			sku,
			p.Name,
			p.DescriptionFR,
			p.Brand,
			p.Category,
			p.Unit,
			p.Format,
			p.ItemsPerCase,
			numeric(p.UnitWeightKg),
			p.Origin,
			p.HSCode,
			p.Conservation,
			numeric(p.MinStockAlert),
			numeric(p.WholesalePrice),
			numeric(p.SuggestedRetailPrice),
			nilToEmpty(p.Extra),
		).Scan(&inserted); err != nil {
			return result, fmt.Errorf("upsert product %q: %w", sku, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit product import tx: %w", err)
	}
	return result, nil
}

func (r *Repository) InsertPartners(ctx context.Context, partners []domain.Partner) (int, error) {
	if len(partners) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin partner import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range partners {
		if _, err := tx.Exec(ctx, `
			INSERT INTO partners (
				id,
				name,
				type,
				address,
				city,
				postal_code,
				country,
				currency,
				extra
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			p.ID,
			p.Name,
			p.Type,
			p.Address,
			p.City,
			p.PostalCode,
			p.Country,
			p.Currency,
			nilToEmpty(p.Extra),
		); err != nil {
			return 0, fmt.Errorf("insert partner %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit partner import tx: %w", err)
	}
	return len(partners), nil
}

type PriceUpdateResult struct {
	TotalRows       int      `json:"total_rows"`
	UpdatedProducts int      `json:"updated_products"`
	UnmatchedIDs    []string `json:"unmatched_ids,omitempty"`
}

// UpdateProductPrices writes the wholesale and suggested retail prices of
// each product back by id. Ids with no stored row are reported, not fatal.
func (r *Repository) UpdateProductPrices(ctx context.Context, products []domain.Product) (PriceUpdateResult, error) {
	result := PriceUpdateResult{TotalRows: len(products)}
	if len(products) == 0 {
		return result, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin price update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range products {
		if p.WholesalePrice.IsNegative() || p.SuggestedRetailPrice.IsNegative() {
			return result, fmt.Errorf("invalid price for product %s", p.ID)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET
				wholesale_price = $2,
				suggested_retail_price = $3,
				updated_at = NOW()
			WHERE id = $1
		`, p.ID, numeric(p.WholesalePrice), numeric(p.SuggestedRetailPrice))
		if err != nil {
			return result, fmt.Errorf("update prices for product %s: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			result.UnmatchedIDs = append(result.UnmatchedIDs, p.ID)
			continue
		}
		result.UpdatedProducts++
	}
	sort.Strings(result.UnmatchedIDs)

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit price update tx: %w", err)
	}
	return result, nil
}
