package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, order_type, table_number, steward_id, steward_name, status,
	subtotal, tax_amount, discount, total, kot_count, bill_id,
	payment_mode, paid_cash, paid_card, paid_upi, total_paid, return_amount,
	sync_status, client_ref, notes, created_by, created_at, updated_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(&i.ID, &i.OrderNumber, &i.OrderType, &i.TableNumber, &i.StewardID, &i.StewardName, &i.Status,
		&i.Subtotal, &i.TaxAmount, &i.Discount, &i.Total, &i.KotCount, &i.BillID,
		&i.PaymentMode, &i.PaidCash, &i.PaidCard, &i.PaidUpi, &i.TotalPaid, &i.ReturnAmount,
		&i.SyncStatus, &i.ClientRef, &i.Notes, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt, &i.CompletedAt)
	return i, err
}

// CountOrdersThisMonth feeds the monthly order number sequence.
const countOrdersThisMonth = `
SELECT count(*) FROM orders
WHERE created_at >= date_trunc('month', now())`

func (q *Queries) CountOrdersThisMonth(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrdersThisMonth).Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	OrderNumber string
	OrderType   string
	TableNumber pgtype.Text
	StewardID   pgtype.UUID
	StewardName pgtype.Text
	Status      string
	Subtotal    pgtype.Numeric
	TaxAmount   pgtype.Numeric
	Discount    pgtype.Numeric
	Total       pgtype.Numeric
	KotCount    int32
	SyncStatus  string
	ClientRef   pgtype.Text
	Notes       pgtype.Text
	CreatedBy   uuid.UUID
}

const createOrder = `
INSERT INTO orders (order_number, order_type, table_number, steward_id, steward_name, status,
	subtotal, tax_amount, discount, total, kot_count, sync_status, client_ref, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.OrderType, arg.TableNumber, arg.StewardID, arg.StewardName, arg.Status,
		arg.Subtotal, arg.TaxAmount, arg.Discount, arg.Total, arg.KotCount,
		arg.SyncStatus, arg.ClientRef, arg.Notes, arg.CreatedBy))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

type ListOrdersParams struct {
	Status pgtype.Text
	Limit  int32
	Offset int32
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countOrders = `
SELECT count(*) FROM orders
WHERE ($1::text IS NULL OR status = $1)`

func (q *Queries) CountOrders(ctx context.Context, status pgtype.Text) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrders, status).Scan(&n)
	return n, err
}

type CompleteOrderParams struct {
	ID           uuid.UUID
	BillID       pgtype.UUID
	PaymentMode  pgtype.Text
	PaidCash     pgtype.Numeric
	PaidCard     pgtype.Numeric
	PaidUpi      pgtype.Numeric
	TotalPaid    pgtype.Numeric
	ReturnAmount pgtype.Numeric
}

// CompleteOrder transitions RUNNING -> COMPLETED, recording how the
// bill was paid; returns pgx.ErrNoRows when the order is already
// terminal.
const completeOrder = `
UPDATE orders SET status = 'COMPLETED', bill_id = $2,
	payment_mode = $3, paid_cash = $4, paid_card = $5, paid_upi = $6,
	total_paid = $7, return_amount = $8,
	completed_at = now(), updated_at = now()
WHERE id = $1 AND status = 'RUNNING'
RETURNING ` + orderColumns

func (q *Queries) CompleteOrder(ctx context.Context, arg CompleteOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, completeOrder, arg.ID, arg.BillID,
		arg.PaymentMode, arg.PaidCash, arg.PaidCard, arg.PaidUpi,
		arg.TotalPaid, arg.ReturnAmount))
}

// CancelOrder transitions RUNNING -> CANCELLED; returns pgx.ErrNoRows
// when the order is already terminal.
const cancelOrder = `
UPDATE orders SET status = 'CANCELLED', updated_at = now()
WHERE id = $1 AND status = 'RUNNING'
RETURNING ` + orderColumns

func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, id))
}

// ── Order lines ──

const orderLineColumns = `id, order_id, menu_item_id, item_name, variation_id, variation_name, unit_price, quantity, line_total, notes`

func scanOrderLine(row interface{ Scan(...any) error }) (OrderLine, error) {
	var i OrderLine
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.ItemName, &i.VariationID, &i.VariationName,
		&i.UnitPrice, &i.Quantity, &i.LineTotal, &i.Notes)
	return i, err
}

type CreateOrderLineParams struct {
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	VariationID   pgtype.UUID
	VariationName pgtype.Text
	UnitPrice     pgtype.Numeric
	Quantity      int32
	LineTotal     pgtype.Numeric
	Notes         pgtype.Text
}

const createOrderLine = `
INSERT INTO order_lines (order_id, menu_item_id, item_name, variation_id, variation_name, unit_price, quantity, line_total, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + orderLineColumns

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	return scanOrderLine(q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.VariationID, arg.VariationName,
		arg.UnitPrice, arg.Quantity, arg.LineTotal, arg.Notes))
}

const listOrderLines = `SELECT ` + orderLineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY id`

func (q *Queries) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLine
	for rows.Next() {
		i, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateOrderLineAddonParams struct {
	OrderLineID uuid.UUID
	AddonID     uuid.UUID
	AddonName   string
	Price       pgtype.Numeric
}

const createOrderLineAddon = `
INSERT INTO order_line_addons (order_line_id, addon_id, addon_name, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_line_id, addon_id, addon_name, price`

func (q *Queries) CreateOrderLineAddon(ctx context.Context, arg CreateOrderLineAddonParams) (OrderLineAddon, error) {
	var i OrderLineAddon
	err := q.db.QueryRow(ctx, createOrderLineAddon, arg.OrderLineID, arg.AddonID, arg.AddonName, arg.Price).
		Scan(&i.ID, &i.OrderLineID, &i.AddonID, &i.AddonName, &i.Price)
	return i, err
}

const listOrderLineAddonsByOrder = `
SELECT ola.id, ola.order_line_id, ola.addon_id, ola.addon_name, ola.price
FROM order_line_addons ola
JOIN order_lines ol ON ol.id = ola.order_line_id
WHERE ol.order_id = $1
ORDER BY ola.id`

func (q *Queries) ListOrderLineAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderLineAddon, error) {
	rows, err := q.db.Query(ctx, listOrderLineAddonsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLineAddon
	for rows.Next() {
		var i OrderLineAddon
		if err := rows.Scan(&i.ID, &i.OrderLineID, &i.AddonID, &i.AddonName, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
