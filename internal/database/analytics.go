package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type SalesSummaryParams struct {
	Since pgtype.Timestamptz
	Until pgtype.Timestamptz
}

type SalesSummaryRow struct {
	BillCount    int64
	GrossSales   pgtype.Numeric
	TaxCollected pgtype.Numeric
	Discounts    pgtype.Numeric
	CashTaken    pgtype.Numeric
	CardTaken    pgtype.Numeric
	UpiTaken     pgtype.Numeric
	Outstanding  pgtype.Numeric
}

const getSalesSummary = `
SELECT count(*),
	coalesce(sum(total), 0),
	coalesce(sum(tax_amount), 0),
	coalesce(sum(discount), 0),
	coalesce(sum(paid_cash), 0),
	coalesce(sum(paid_card), 0),
	coalesce(sum(paid_upi), 0),
	coalesce(sum(due_amount), 0)
FROM bills
WHERE status IN ('PENDING', 'PAID')
  AND ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)`

func (q *Queries) GetSalesSummary(ctx context.Context, arg SalesSummaryParams) (SalesSummaryRow, error) {
	var i SalesSummaryRow
	err := q.db.QueryRow(ctx, getSalesSummary, arg.Since, arg.Until).
		Scan(&i.BillCount, &i.GrossSales, &i.TaxCollected, &i.Discounts,
			&i.CashTaken, &i.CardTaken, &i.UpiTaken, &i.Outstanding)
	return i, err
}

type TopMenuItemsParams struct {
	Since pgtype.Timestamptz
	Until pgtype.Timestamptz
	Limit int32
}

type TopMenuItemRow struct {
	MenuItemID   uuid.UUID
	ItemName     string
	QuantitySold int64
	Revenue      pgtype.Numeric
}

const listTopMenuItems = `
SELECT bl.menu_item_id, bl.item_name, sum(bl.quantity)::bigint, coalesce(sum(bl.line_total), 0)
FROM bill_lines bl
JOIN bills b ON b.id = bl.bill_id
WHERE b.status IN ('PENDING', 'PAID')
  AND ($1::timestamptz IS NULL OR b.created_at >= $1)
  AND ($2::timestamptz IS NULL OR b.created_at < $2)
GROUP BY bl.menu_item_id, bl.item_name
ORDER BY sum(bl.quantity) DESC
LIMIT $3`

func (q *Queries) ListTopMenuItems(ctx context.Context, arg TopMenuItemsParams) ([]TopMenuItemRow, error) {
	rows, err := q.db.Query(ctx, listTopMenuItems, arg.Since, arg.Until, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopMenuItemRow
	for rows.Next() {
		var i TopMenuItemRow
		if err := rows.Scan(&i.MenuItemID, &i.ItemName, &i.QuantitySold, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
