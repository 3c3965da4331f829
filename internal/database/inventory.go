package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Stock items ──

const stockItemColumns = `id, name, unit, reorder_level, storage, supplier, state, created_at, updated_at`

func scanStockItem(row interface{ Scan(...any) error }) (StockItem, error) {
	var i StockItem
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.ReorderLevel, &i.Storage, &i.Supplier, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type ListStockItemsParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

const listStockItems = `
SELECT ` + stockItemColumns + ` FROM stock_items
WHERE state = 'ACTIVE' AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%')
ORDER BY name
LIMIT $2 OFFSET $3`

func (q *Queries) ListStockItems(ctx context.Context, arg ListStockItemsParams) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listStockItems, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		i, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countStockItems = `
SELECT count(*) FROM stock_items
WHERE state = 'ACTIVE' AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%')`

func (q *Queries) CountStockItems(ctx context.Context, search pgtype.Text) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countStockItems, search).Scan(&n)
	return n, err
}

const getStockItem = `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1`

func (q *Queries) GetStockItem(ctx context.Context, id uuid.UUID) (StockItem, error) {
	return scanStockItem(q.db.QueryRow(ctx, getStockItem, id))
}

type CreateStockItemParams struct {
	Name         string
	Unit         string
	ReorderLevel pgtype.Numeric
	Storage      pgtype.Text
	Supplier     pgtype.Text
}

const createStockItem = `
INSERT INTO stock_items (name, unit, reorder_level, storage, supplier)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + stockItemColumns

func (q *Queries) CreateStockItem(ctx context.Context, arg CreateStockItemParams) (StockItem, error) {
	return scanStockItem(q.db.QueryRow(ctx, createStockItem,
		arg.Name, arg.Unit, arg.ReorderLevel, arg.Storage, arg.Supplier))
}

type UpdateStockItemParams struct {
	ID           uuid.UUID
	Name         string
	Unit         string
	ReorderLevel pgtype.Numeric
	Storage      pgtype.Text
	Supplier     pgtype.Text
}

const updateStockItem = `
UPDATE stock_items SET name = $2, unit = $3, reorder_level = $4, storage = $5, supplier = $6, updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + stockItemColumns

func (q *Queries) UpdateStockItem(ctx context.Context, arg UpdateStockItemParams) (StockItem, error) {
	return scanStockItem(q.db.QueryRow(ctx, updateStockItem,
		arg.ID, arg.Name, arg.Unit, arg.ReorderLevel, arg.Storage, arg.Supplier))
}

const retireStockItem = `
UPDATE stock_items SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + stockItemColumns

func (q *Queries) RetireStockItem(ctx context.Context, id uuid.UUID) (StockItem, error) {
	return scanStockItem(q.db.QueryRow(ctx, retireStockItem, id))
}

// ── Stock batches ──

const stockBatchColumns = `id, stock_item_id, batch_number, quantity, cost, purchase_date, expiry_date, sync_status, created_at`

func scanStockBatch(row interface{ Scan(...any) error }) (StockBatch, error) {
	var i StockBatch
	err := row.Scan(&i.ID, &i.StockItemID, &i.BatchNumber, &i.Quantity, &i.Cost,
		&i.PurchaseDate, &i.ExpiryDate, &i.SyncStatus, &i.CreatedAt)
	return i, err
}

const listBatchesByStockItem = `
SELECT ` + stockBatchColumns + ` FROM stock_batches
WHERE stock_item_id = $1
ORDER BY purchase_date, created_at`

func (q *Queries) ListBatchesByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]StockBatch, error) {
	rows, err := q.db.Query(ctx, listBatchesByStockItem, stockItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockBatch
	for rows.Next() {
		i, err := scanStockBatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateStockBatchParams struct {
	StockItemID  uuid.UUID
	BatchNumber  string
	Quantity     pgtype.Numeric
	Cost         pgtype.Numeric
	PurchaseDate time.Time
	ExpiryDate   pgtype.Timestamptz
	SyncStatus   string
}

const createStockBatch = `
INSERT INTO stock_batches (stock_item_id, batch_number, quantity, cost, purchase_date, expiry_date, sync_status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + stockBatchColumns

func (q *Queries) CreateStockBatch(ctx context.Context, arg CreateStockBatchParams) (StockBatch, error) {
	return scanStockBatch(q.db.QueryRow(ctx, createStockBatch,
		arg.StockItemID, arg.BatchNumber, arg.Quantity, arg.Cost,
		arg.PurchaseDate, arg.ExpiryDate, arg.SyncStatus))
}

type UpdateBatchQuantityParams struct {
	ID       uuid.UUID
	Quantity pgtype.Numeric
}

const updateBatchQuantity = `UPDATE stock_batches SET quantity = $2 WHERE id = $1`

func (q *Queries) UpdateBatchQuantity(ctx context.Context, arg UpdateBatchQuantityParams) error {
	_, err := q.db.Exec(ctx, updateBatchQuantity, arg.ID, arg.Quantity)
	return err
}

const deleteBatch = `DELETE FROM stock_batches WHERE id = $1`

func (q *Queries) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteBatch, id)
	return err
}

// StockLevelRow is an item with its summed batch quantity.
type StockLevelRow struct {
	StockItem
	OnHand pgtype.Numeric
}

const listLowStockItems = `
SELECT ` + stockItemColumns + `, coalesce(sum(b.quantity), 0) AS on_hand
FROM stock_items si
LEFT JOIN stock_batches b ON b.stock_item_id = si.id
WHERE si.state = 'ACTIVE'
GROUP BY si.id
HAVING coalesce(sum(b.quantity), 0) <= si.reorder_level
ORDER BY si.name`

func (q *Queries) ListLowStockItems(ctx context.Context) ([]StockLevelRow, error) {
	rows, err := q.db.Query(ctx, listLowStockItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockLevelRow
	for rows.Next() {
		var i StockLevelRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Unit, &i.ReorderLevel, &i.Storage, &i.Supplier,
			&i.State, &i.CreatedAt, &i.UpdatedAt, &i.OnHand); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// ── Wastage ──

const wastageColumns = `id, stock_item_id, quantity, unit, reason, recorded_by, created_at`

func scanWastage(row interface{ Scan(...any) error }) (WastageEntry, error) {
	var i WastageEntry
	err := row.Scan(&i.ID, &i.StockItemID, &i.Quantity, &i.Unit, &i.Reason, &i.RecordedBy, &i.CreatedAt)
	return i, err
}

type CreateWastageEntryParams struct {
	StockItemID uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
	Reason      pgtype.Text
	RecordedBy  pgtype.UUID
}

const createWastageEntry = `
INSERT INTO wastage_entries (stock_item_id, quantity, unit, reason, recorded_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + wastageColumns

func (q *Queries) CreateWastageEntry(ctx context.Context, arg CreateWastageEntryParams) (WastageEntry, error) {
	return scanWastage(q.db.QueryRow(ctx, createWastageEntry,
		arg.StockItemID, arg.Quantity, arg.Unit, arg.Reason, arg.RecordedBy))
}

const listWastageByStockItem = `
SELECT ` + wastageColumns + ` FROM wastage_entries
WHERE stock_item_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListWastageByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]WastageEntry, error) {
	rows, err := q.db.Query(ctx, listWastageByStockItem, stockItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WastageEntry
	for rows.Next() {
		i, err := scanWastage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
