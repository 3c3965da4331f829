package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, bill_number, order_type, table_number, customer_name, customer_phone,
	customer_email, delivery_address, status,
	subtotal, tax_rate, tax_amount, discount, service_charge, total,
	payment_mode, paid_cash, paid_card, paid_upi, total_paid, due_amount,
	notes, created_by, created_at, updated_at, finalized_at`

func scanBill(row interface{ Scan(...any) error }) (Bill, error) {
	var i Bill
	err := row.Scan(&i.ID, &i.BillNumber, &i.OrderType, &i.TableNumber, &i.CustomerName, &i.CustomerPhone,
		&i.CustomerEmail, &i.DeliveryAddress,
		&i.Status, &i.Subtotal, &i.TaxRate, &i.TaxAmount, &i.Discount, &i.ServiceCharge, &i.Total,
		&i.PaymentMode, &i.PaidCash, &i.PaidCard, &i.PaidUpi, &i.TotalPaid, &i.DueAmount,
		&i.Notes, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt, &i.FinalizedAt)
	return i, err
}

type CreateBillParams struct {
	BillNumber      string
	OrderType       string
	TableNumber     pgtype.Text
	CustomerName    pgtype.Text
	CustomerPhone   pgtype.Text
	CustomerEmail   pgtype.Text
	DeliveryAddress pgtype.Text
	Status          string
	Subtotal        pgtype.Numeric
	TaxRate         pgtype.Numeric
	TaxAmount       pgtype.Numeric
	Discount        pgtype.Numeric
	ServiceCharge   pgtype.Numeric
	Total           pgtype.Numeric
	PaymentMode     pgtype.Text
	PaidCash        pgtype.Numeric
	PaidCard        pgtype.Numeric
	PaidUpi         pgtype.Numeric
	TotalPaid       pgtype.Numeric
	DueAmount       pgtype.Numeric
	Notes           pgtype.Text
	CreatedBy       uuid.UUID
	FinalizedAt     pgtype.Timestamptz
}

const createBill = `
INSERT INTO bills (bill_number, order_type, table_number, customer_name, customer_phone,
	customer_email, delivery_address, status,
	subtotal, tax_rate, tax_amount, discount, service_charge, total,
	payment_mode, paid_cash, paid_card, paid_upi, total_paid, due_amount,
	notes, created_by, finalized_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
RETURNING ` + billColumns

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, createBill,
		arg.BillNumber, arg.OrderType, arg.TableNumber, arg.CustomerName, arg.CustomerPhone,
		arg.CustomerEmail, arg.DeliveryAddress, arg.Status,
		arg.Subtotal, arg.TaxRate, arg.TaxAmount, arg.Discount, arg.ServiceCharge, arg.Total,
		arg.PaymentMode, arg.PaidCash, arg.PaidCard, arg.PaidUpi, arg.TotalPaid, arg.DueAmount,
		arg.Notes, arg.CreatedBy, arg.FinalizedAt))
}

const getBill = `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBill, id))
}

type ListBillsParams struct {
	Status pgtype.Text
	Since  pgtype.Timestamptz
	Until  pgtype.Timestamptz
	Limit  int32
	Offset int32
}

const listBills = `
SELECT ` + billColumns + ` FROM bills
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

func (q *Queries) ListBills(ctx context.Context, arg ListBillsParams) ([]Bill, error) {
	rows, err := q.db.Query(ctx, listBills, arg.Status, arg.Since, arg.Until, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		i, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CountBillsParams struct {
	Status pgtype.Text
	Since  pgtype.Timestamptz
	Until  pgtype.Timestamptz
}

const countBills = `
SELECT count(*) FROM bills
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)`

func (q *Queries) CountBills(ctx context.Context, arg CountBillsParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countBills, arg.Status, arg.Since, arg.Until).Scan(&n)
	return n, err
}

type UpdateBillParams struct {
	ID              uuid.UUID
	OrderType       string
	TableNumber     pgtype.Text
	CustomerName    pgtype.Text
	CustomerPhone   pgtype.Text
	CustomerEmail   pgtype.Text
	DeliveryAddress pgtype.Text
	Status          string
	Subtotal        pgtype.Numeric
	TaxRate         pgtype.Numeric
	TaxAmount       pgtype.Numeric
	Discount        pgtype.Numeric
	ServiceCharge   pgtype.Numeric
	Total           pgtype.Numeric
	PaymentMode     pgtype.Text
	PaidCash        pgtype.Numeric
	PaidCard        pgtype.Numeric
	PaidUpi         pgtype.Numeric
	TotalPaid       pgtype.Numeric
	DueAmount       pgtype.Numeric
	Notes           pgtype.Text
	FinalizedAt     pgtype.Timestamptz
}

const updateBill = `
UPDATE bills SET
	order_type = $2, table_number = $3, customer_name = $4, customer_phone = $5,
	customer_email = $6, delivery_address = $7, status = $8,
	subtotal = $9, tax_rate = $10, tax_amount = $11, discount = $12, service_charge = $13, total = $14,
	payment_mode = $15, paid_cash = $16, paid_card = $17, paid_upi = $18, total_paid = $19, due_amount = $20,
	notes = $21, finalized_at = $22, updated_at = now()
WHERE id = $1
RETURNING ` + billColumns

func (q *Queries) UpdateBill(ctx context.Context, arg UpdateBillParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, updateBill,
		arg.ID, arg.OrderType, arg.TableNumber, arg.CustomerName, arg.CustomerPhone,
		arg.CustomerEmail, arg.DeliveryAddress, arg.Status,
		arg.Subtotal, arg.TaxRate, arg.TaxAmount, arg.Discount, arg.ServiceCharge, arg.Total,
		arg.PaymentMode, arg.PaidCash, arg.PaidCard, arg.PaidUpi, arg.TotalPaid, arg.DueAmount,
		arg.Notes, arg.FinalizedAt))
}

type UpdateBillPaymentParams struct {
	ID          uuid.UUID
	Status      string
	PaymentMode pgtype.Text
	PaidCash    pgtype.Numeric
	PaidCard    pgtype.Numeric
	PaidUpi     pgtype.Numeric
	TotalPaid   pgtype.Numeric
	DueAmount   pgtype.Numeric
}

const updateBillPayment = `
UPDATE bills SET
	status = $2, payment_mode = $3, paid_cash = $4, paid_card = $5, paid_upi = $6,
	total_paid = $7, due_amount = $8, updated_at = now()
WHERE id = $1
RETURNING ` + billColumns

func (q *Queries) UpdateBillPayment(ctx context.Context, arg UpdateBillPaymentParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, updateBillPayment,
		arg.ID, arg.Status, arg.PaymentMode, arg.PaidCash, arg.PaidCard, arg.PaidUpi,
		arg.TotalPaid, arg.DueAmount))
}

const deleteBill = `DELETE FROM bills WHERE id = $1`

func (q *Queries) DeleteBill(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteBill, id)
	return err
}

// GetLatestBillNumber returns the most recently created bill number,
// used to derive the next monthly sequence.
const getLatestBillNumber = `
SELECT bill_number FROM bills
ORDER BY created_at DESC
LIMIT 1`

func (q *Queries) GetLatestBillNumber(ctx context.Context) (string, error) {
	var n string
	err := q.db.QueryRow(ctx, getLatestBillNumber).Scan(&n)
	return n, err
}

// ── Bill lines ──

const billLineColumns = `id, bill_id, menu_item_id, item_name, variation_id, variation_name, unit_price, quantity, line_total, notes`

func scanBillLine(row interface{ Scan(...any) error }) (BillLine, error) {
	var i BillLine
	err := row.Scan(&i.ID, &i.BillID, &i.MenuItemID, &i.ItemName, &i.VariationID, &i.VariationName,
		&i.UnitPrice, &i.Quantity, &i.LineTotal, &i.Notes)
	return i, err
}

type CreateBillLineParams struct {
	BillID        uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	VariationID   pgtype.UUID
	VariationName pgtype.Text
	UnitPrice     pgtype.Numeric
	Quantity      int32
	LineTotal     pgtype.Numeric
	Notes         pgtype.Text
}

const createBillLine = `
INSERT INTO bill_lines (bill_id, menu_item_id, item_name, variation_id, variation_name, unit_price, quantity, line_total, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + billLineColumns

func (q *Queries) CreateBillLine(ctx context.Context, arg CreateBillLineParams) (BillLine, error) {
	return scanBillLine(q.db.QueryRow(ctx, createBillLine,
		arg.BillID, arg.MenuItemID, arg.ItemName, arg.VariationID, arg.VariationName,
		arg.UnitPrice, arg.Quantity, arg.LineTotal, arg.Notes))
}

const listBillLines = `SELECT ` + billLineColumns + ` FROM bill_lines WHERE bill_id = $1 ORDER BY id`

func (q *Queries) ListBillLines(ctx context.Context, billID uuid.UUID) ([]BillLine, error) {
	rows, err := q.db.Query(ctx, listBillLines, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillLine
	for rows.Next() {
		i, err := scanBillLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteBillLines = `DELETE FROM bill_lines WHERE bill_id = $1`

func (q *Queries) DeleteBillLines(ctx context.Context, billID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteBillLines, billID)
	return err
}

type CreateBillLineAddonParams struct {
	BillLineID uuid.UUID
	AddonID    uuid.UUID
	AddonName  string
	Price      pgtype.Numeric
}

const createBillLineAddon = `
INSERT INTO bill_line_addons (bill_line_id, addon_id, addon_name, price)
VALUES ($1, $2, $3, $4)
RETURNING id, bill_line_id, addon_id, addon_name, price`

func (q *Queries) CreateBillLineAddon(ctx context.Context, arg CreateBillLineAddonParams) (BillLineAddon, error) {
	var i BillLineAddon
	err := q.db.QueryRow(ctx, createBillLineAddon, arg.BillLineID, arg.AddonID, arg.AddonName, arg.Price).
		Scan(&i.ID, &i.BillLineID, &i.AddonID, &i.AddonName, &i.Price)
	return i, err
}

const listBillLineAddonsByBill = `
SELECT bla.id, bla.bill_line_id, bla.addon_id, bla.addon_name, bla.price
FROM bill_line_addons bla
JOIN bill_lines bl ON bl.id = bla.bill_line_id
WHERE bl.bill_id = $1
ORDER BY bla.id`

func (q *Queries) ListBillLineAddonsByBill(ctx context.Context, billID uuid.UUID) ([]BillLineAddon, error) {
	rows, err := q.db.Query(ctx, listBillLineAddonsByBill, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillLineAddon
	for rows.Next() {
		var i BillLineAddon
		if err := rows.Scan(&i.ID, &i.BillLineID, &i.AddonID, &i.AddonName, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateBillLineDrawParams struct {
	BillLineID  uuid.UUID
	StockItemID uuid.UUID
	BatchID     uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
}

const createBillLineDraw = `
INSERT INTO bill_line_draws (bill_line_id, stock_item_id, batch_id, quantity, unit)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, bill_line_id, stock_item_id, batch_id, quantity, unit`

func (q *Queries) CreateBillLineDraw(ctx context.Context, arg CreateBillLineDrawParams) (BillLineDraw, error) {
	var i BillLineDraw
	err := q.db.QueryRow(ctx, createBillLineDraw,
		arg.BillLineID, arg.StockItemID, arg.BatchID, arg.Quantity, arg.Unit).
		Scan(&i.ID, &i.BillLineID, &i.StockItemID, &i.BatchID, &i.Quantity, &i.Unit)
	return i, err
}

const listBillLineDrawsByBill = `
SELECT bld.id, bld.bill_line_id, bld.stock_item_id, bld.batch_id, bld.quantity, bld.unit
FROM bill_line_draws bld
JOIN bill_lines bl ON bl.id = bld.bill_line_id
WHERE bl.bill_id = $1
ORDER BY bld.id`

func (q *Queries) ListBillLineDrawsByBill(ctx context.Context, billID uuid.UUID) ([]BillLineDraw, error) {
	rows, err := q.db.Query(ctx, listBillLineDrawsByBill, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillLineDraw
	for rows.Next() {
		var i BillLineDraw
		if err := rows.Scan(&i.ID, &i.BillLineID, &i.StockItemID, &i.BatchID, &i.Quantity, &i.Unit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
