package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradeflow/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `
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
`

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY sku ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

func (r *Repository) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			id,
			name,
			type,
			address,
			city,
			postal_code,
			country,
			currency,
			extra
		FROM partners
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	partners := make([]domain.Partner, 0)
	for rows.Next() {
		var p domain.Partner
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Type,
			&p.Address,
			&p.City,
			&p.PostalCode,
			&p.Country,
			&p.Currency,
			&p.Extra,
		); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		p.Extra = emptyToNil(p.Extra)
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partners: %w", err)
	}
	return partners, nil
}

func (r *Repository) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			id,
			product_id,
			origin_purchase_item_id,
			supplier_batch_number,
			internal_batch_number,
			quantity_initial,
			quantity_current,
			dlc,
			ddm,
			reception_date,
			landed_cost_unit,
			location_zone,
			status
		FROM batches
		ORDER BY reception_date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := make([]domain.Batch, 0)
	for rows.Next() {
		var (
			b      domain.Batch
			origin sql.NullString
		)
		if err := rows.Scan(
			&b.ID,
			&b.ProductID,
			&origin,
			&b.SupplierBatchNumber,
			&b.InternalBatchNumber,
			&b.QuantityInitial,
			&b.QuantityCurrent,
			&b.DLC,
			&b.DDM,
			&b.ReceptionDate,
			&b.LandedCostUnit,
			&b.LocationZone,
			&b.Status,
		); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if origin.Valid {
			b.OriginPurchaseItemID = origin.String
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// ListPurchaseOrders returns every order with its lines and, when the
// supplier row exists, the embedded supplier.
func (r *Repository) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	return r.queryPurchaseOrders(ctx, "", nil)
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	orders, err := r.queryPurchaseOrders(ctx, "WHERE po.id = $1", []any{id})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (r *Repository) queryPurchaseOrders(ctx context.Context, where string, args []any) ([]domain.PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			po.id,
			po.po_number,
			po.supplier_id,
			po.status,
			po.incoterm,
			po.order_date,
			po.expected_arrival,
			po.total_fob,
			po.currency_rate,
			`+partnerJoinColumns("s")+`
		FROM purchase_orders po
		LEFT JOIN partners s ON s.id = po.supplier_id
		`+where+`
		ORDER BY po.order_date DESC, po.id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.PurchaseOrder, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			po       domain.PurchaseOrder
			supplier joinedPartner
		)
		dest := append([]any{
			&po.ID,
			&po.PONumber,
			&po.SupplierID,
			&po.Status,
			&po.Incoterm,
			&po.OrderDate,
			&po.ExpectedArrival,
			&po.TotalFOB,
			&po.CurrencyRate,
		}, supplier.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		po.Supplier = supplier.partner()
		index[po.ID] = len(orders)
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT id, po_id, product_id, quantity_cases, price_unit
		FROM purchase_order_items
		WHERE po_id = ANY($1)
		ORDER BY po_id ASC, id ASC
	`, keys(index))
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.PurchaseOrderItem
		if err := itemRows.Scan(&item.ID, &item.POID, &item.ProductID, &item.QuantityCases, &item.PriceUnit); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		if i, ok := index[item.POID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase order items: %w", err)
	}
	return orders, nil
}

// ListSalesOrders returns every order with its lines and embedded client.
func (r *Repository) ListSalesOrders(ctx context.Context) ([]domain.SalesOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			so.id,
			so.so_number,
			so.client_id,
			so.status,
			so.order_date,
			so.total_amount,
			so.currency,
			so.invoice_number,
			`+partnerJoinColumns("c")+`
		FROM sales_orders so
		LEFT JOIN partners c ON c.id = so.client_id
		ORDER BY so.order_date DESC, so.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.SalesOrder, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			so     domain.SalesOrder
			client joinedPartner
		)
		dest := append([]any{
			&so.ID,
			&so.SONumber,
			&so.ClientID,
			&so.Status,
			&so.OrderDate,
			&so.TotalAmount,
			&so.Currency,
			&so.InvoiceNumber,
		}, client.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		so.Client = client.partner()
		index[so.ID] = len(orders)
		orders = append(orders, so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT id, so_id, product_id, quantity, unit_price
		FROM sales_order_items
		WHERE so_id = ANY($1)
		ORDER BY so_id ASC, id ASC
	`, keys(index))
	if err != nil {
		return nil, fmt.Errorf("list sales order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.SalesOrderItem
		if err := itemRows.Scan(&item.ID, &item.SOID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan sales order item: %w", err)
		}
		if i, ok := index[item.SOID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales order items: %w", err)
	}
	return orders, nil
}

func (r *Repository) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			i.id,
			i.invoice_number,
			i.so_id,
			i.client_id,
			i.issue_date,
			i.due_date,
			i.amount,
			i.balance,
			i.status,
			`+partnerJoinColumns("c")+`
		FROM invoices i
		LEFT JOIN partners c ON c.id = i.client_id
		ORDER BY i.due_date ASC, i.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0)
	for rows.Next() {
		var (
			inv    domain.Invoice
			client joinedPartner
		)
		dest := append([]any{
			&inv.ID,
			&inv.InvoiceNumber,
			&inv.SOID,
			&inv.ClientID,
			&inv.IssueDate,
			&inv.DueDate,
			&inv.Amount,
			&inv.Balance,
			&inv.Status,
		}, client.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Client = client.partner()
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.DescriptionFR,
		&product.Brand,
		&product.Category,
		&product.Unit,
		&product.Format,
		&product.ItemsPerCase,
		&product.UnitWeightKg,
		&product.Origin,
		&product.HSCode,
		&product.Conservation,
		&product.MinStockAlert,
		&product.WholesalePrice,
		&product.SuggestedRetailPrice,
		&product.Extra,
	); err != nil {
		return domain.Product{}, err
	}
	product.Extra = emptyToNil(product.Extra)
	return product, nil
}

func partnerJoinColumns(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".type, " + alias + ".country, " + alias + ".currency"
}

// joinedPartner receives the nullable columns of a LEFT JOINed partner.
type joinedPartner struct {
	id, name, kind, country, currency sql.NullString
}

func (p *joinedPartner) dest() []any {
	return []any{&p.id, &p.name, &p.kind, &p.country, &p.currency}
}

func (p *joinedPartner) partner() *domain.Partner {
	if !p.id.Valid {
		return nil
	}
	return &domain.Partner{
		ID:       p.id.String,
		Name:     p.name.String,
		Type:     domain.PartnerType(p.kind.String),
		Country:  p.country.String,
		Currency: p.currency.String,
	}
}

func keys(index map[string]int) []string {
	out := make([]string, 0, len(index))
	for k := range index {
		out = append(out, k)
	}
	return out
}

func emptyToNil(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func nilToEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// numeric sends a decimal as text; the server parses it into the NUMERIC
// column, so no pgx decimal codec is needed.
func numeric(d decimal.Decimal) string {
	return d.String()
}
