package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
)

const maxOrderNumberRetries = 3

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotRunning = errors.New("order is not running")
)

// OrderStore defines the DB methods needed for running orders and for
// generating their bills. Satisfied by *database.Queries (and its
// WithTx variant).
type OrderStore interface {
	SettlementStore
	GetActiveMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetMenuItemVariation(ctx context.Context, arg database.GetMenuItemVariationParams) (database.MenuItemVariationRow, error)
	GetAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
	GetLatestBillNumber(ctx context.Context) (string, error)
	CountOrdersThisMonth(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	CreateOrderLineAddon(ctx context.Context, arg database.CreateOrderLineAddonParams) (database.OrderLineAddon, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	ListOrderLineAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineAddon, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	CreateBillLine(ctx context.Context, arg database.CreateBillLineParams) (database.BillLine, error)
	CreateBillLineAddon(ctx context.Context, arg database.CreateBillLineAddonParams) (database.BillLineAddon, error)
	CreateBillLineDraw(ctx context.Context, arg database.CreateBillLineDrawParams) (database.BillLineDraw, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// SaveOrderRequest is the validated input for capturing a running order.
// Offline orders get a TEMP number and a PENDING sync status; the sync
// endpoint later re-submits them for permanent numbers.
type SaveOrderRequest struct {
	OrderType   string
	TableNumber string
	StewardID   pgtype.UUID
	StewardName string
	KotCount    int32
	Items       []CartLineRequest
	Discount    string
	Notes       string
	Offline     bool
	ClientRef   string
	CreatedBy   uuid.UUID
}

// GenerateBillRequest turns a running order into a finalized bill.
type GenerateBillRequest struct {
	OrderID       uuid.UUID
	ServiceCharge string
	Payment       *PaymentRequest
}

// OrderLineResult is an order line with its addons.
type OrderLineResult struct {
	Line   database.OrderLine
	Addons []database.OrderLineAddon
}

// OrderResult is the full order with lines.
type OrderResult struct {
	Order database.Order
	Lines []OrderLineResult
}

// GenerateBillResult is the completed order plus the bill cut for it.
type GenerateBillResult struct {
	Order database.Order
	Bill  BillResult
}

// SyncOutcome is the per-order result of an offline sync.
type SyncOutcome struct {
	ClientRef string
	Result    *OrderResult
	Err       error
}

// OrderService handles running-order capture, bill generation, and
// offline sync.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	engine   *SettlementEngine
	taxRate  decimal.Decimal
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore, engine *SettlementEngine, taxRate decimal.Decimal) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, engine: engine, taxRate: taxRate}
}

// SaveOrder validates, prices, and stores a running order. Retries on
// order_number unique violations (concurrent captures can derive the
// same monthly sequence).
func (s *OrderService) SaveOrder(ctx context.Context, req SaveOrderRequest) (*OrderResult, error) {
	if _, err := validateOrderType(req.OrderType, false); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.saveOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint
// violation on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) saveOrderTx(ctx context.Context, req SaveOrderRequest) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := time.Now()

	var orderNumber string
	syncStatus := enum.SyncStatusSynced
	if req.Offline {
		orderNumber = tempOrderNumber(now)
		syncStatus = enum.SyncStatusPending
	} else {
		count, err := store.CountOrdersThisMonth(ctx)
		if err != nil {
			return nil, fmt.Errorf("count orders: %w", err)
		}
		orderNumber = nextOrderNumber(count, now)
	}

	lines, err := processCart(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			return nil, ErrInvalidAmount
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.lineTotal)
	}
	taxAmount := subtotal.Mul(s.taxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(taxAmount).Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber: orderNumber,
		OrderType:   req.OrderType,
		TableNumber: toText(req.TableNumber),
		StewardID:   req.StewardID,
		StewardName: toText(req.StewardName),
		Status:      enum.OrderStatusRunning,
		Subtotal:    decimalToNumeric(subtotal),
		TaxAmount:   decimalToNumeric(taxAmount),
		Discount:    decimalToNumeric(discount),
		Total:       decimalToNumeric(total),
		KotCount:    req.KotCount,
		SyncStatus:  syncStatus,
		ClientRef:   toText(req.ClientRef),
		Notes:       toText(req.Notes),
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var lineResults []OrderLineResult
	for _, l := range lines {
		created, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:       order.ID,
			MenuItemID:    l.menuItemID,
			ItemName:      l.itemName,
			VariationID:   l.variationID,
			VariationName: l.variationName,
			UnitPrice:     decimalToNumeric(l.unitPrice),
			Quantity:      l.quantity,
			LineTotal:     decimalToNumeric(l.lineTotal),
			Notes:         toText(l.notes),
		})
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		res := OrderLineResult{Line: created}
		for _, a := range l.addons {
			addon, err := store.CreateOrderLineAddon(ctx, database.CreateOrderLineAddonParams{
				OrderLineID: created.ID,
				AddonID:     a.id,
				AddonName:   a.name,
				Price:       decimalToNumeric(a.price),
			})
			if err != nil {
				return nil, fmt.Errorf("create order line addon: %w", err)
			}
			res.Addons = append(res.Addons, addon)
		}
		lineResults = append(lineResults, res)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, Lines: lineResults}, nil
}

// GenerateBill settles the order's cart against stock, cuts a finalized
// bill from the order's snapshotted lines, and completes the order, all
// in one transaction.
func (s *OrderService) GenerateBill(ctx context.Context, req GenerateBillRequest) (*GenerateBillResult, error) {
	for attempt := 0; attempt < maxBillNumberRetries; attempt++ {
		result, err := s.generateBillTx(ctx, req, false)
		if !isBillNumberConflict(err) {
			return result, err
		}
	}
	return s.generateBillTx(ctx, req, true)
}

func (s *OrderService) generateBillTx(ctx context.Context, req GenerateBillRequest, useFallback bool) (*GenerateBillResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := time.Now()

	order, err := store.GetOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusRunning {
		return nil, ErrOrderNotRunning
	}

	orderLines, err := store.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	if len(orderLines) == 0 {
		return nil, ErrEmptyItems
	}
	orderAddons, err := store.ListOrderLineAddonsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order line addons: %w", err)
	}
	addonsByLine := make(map[uuid.UUID][]database.OrderLineAddon)
	for _, a := range orderAddons {
		addonsByLine[a.OrderLineID] = append(addonsByLine[a.OrderLineID], a)
	}

	serviceCharge := decimal.Zero
	if req.ServiceCharge != "" {
		serviceCharge, err = decimal.NewFromString(req.ServiceCharge)
		if err != nil || serviceCharge.IsNegative() {
			return nil, ErrInvalidAmount
		}
	}

	subtotal := numericToDecimal(order.Subtotal)
	taxAmount := numericToDecimal(order.TaxAmount)
	discount := numericToDecimal(order.Discount)
	total := subtotal.Add(taxAmount).Sub(discount).Add(serviceCharge).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	payment, err := resolvePayment(req.Payment, total, decimal.Zero, decimal.Zero, decimal.Zero)
	if err != nil {
		return nil, err
	}
	returnAmount := payment.totalPaid.Sub(total)
	if returnAmount.IsNegative() {
		returnAmount = decimal.Zero
	}

	settleLines := make([]SettlementLine, len(orderLines))
	for i, l := range orderLines {
		settleLines[i] = SettlementLine{
			MenuItemID:  l.MenuItemID,
			VariationID: l.VariationID,
			ItemName:    l.ItemName,
			Quantity:    l.Quantity,
		}
	}
	draws, err := s.engine.Settle(ctx, store, settleLines)
	if err != nil {
		return nil, err
	}

	var billNumber string
	if useFallback {
		billNumber = fallbackBillNumber(now)
	} else {
		billNumber, err = nextBillNumber(ctx, store, now)
		if err != nil {
			return nil, err
		}
	}

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		BillNumber:    billNumber,
		OrderType:     order.OrderType,
		TableNumber:   order.TableNumber,
		Status:        payment.status,
		Subtotal:      decimalToNumeric(subtotal),
		TaxRate:       decimalToNumeric(s.taxRate),
		TaxAmount:     decimalToNumeric(taxAmount),
		Discount:      decimalToNumeric(discount),
		ServiceCharge: decimalToNumeric(serviceCharge),
		Total:         decimalToNumeric(total),
		PaymentMode:   toText(payment.mode),
		PaidCash:      decimalToNumeric(payment.cash),
		PaidCard:      decimalToNumeric(payment.card),
		PaidUpi:       decimalToNumeric(payment.upi),
		TotalPaid:     decimalToNumeric(payment.totalPaid),
		DueAmount:     decimalToNumeric(payment.due),
		Notes:         order.Notes,
		CreatedBy:     order.CreatedBy,
		FinalizedAt:   pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	var billLines []BillLineResult
	for i, l := range orderLines {
		created, err := store.CreateBillLine(ctx, database.CreateBillLineParams{
			BillID:        bill.ID,
			MenuItemID:    l.MenuItemID,
			ItemName:      l.ItemName,
			VariationID:   l.VariationID,
			VariationName: l.VariationName,
			UnitPrice:     l.UnitPrice,
			Quantity:      l.Quantity,
			LineTotal:     l.LineTotal,
			Notes:         l.Notes,
		})
		if err != nil {
			return nil, fmt.Errorf("create bill line: %w", err)
		}
		res := BillLineResult{Line: created}

		for _, a := range addonsByLine[l.ID] {
			addon, err := store.CreateBillLineAddon(ctx, database.CreateBillLineAddonParams{
				BillLineID: created.ID,
				AddonID:    a.AddonID,
				AddonName:  a.AddonName,
				Price:      a.Price,
			})
			if err != nil {
				return nil, fmt.Errorf("create bill line addon: %w", err)
			}
			res.Addons = append(res.Addons, addon)
		}

		for _, d := range draws {
			if d.LineIndex != i {
				continue
			}
			draw, err := store.CreateBillLineDraw(ctx, database.CreateBillLineDrawParams{
				BillLineID:  created.ID,
				StockItemID: d.StockItemID,
				BatchID:     d.BatchID,
				Quantity:    quantityToNumeric(d.Quantity),
				Unit:        d.Unit,
			})
			if err != nil {
				return nil, fmt.Errorf("create bill line draw: %w", err)
			}
			res.Draws = append(res.Draws, draw)
		}
		billLines = append(billLines, res)
	}

	completed, err := store.CompleteOrder(ctx, database.CompleteOrderParams{
		ID:           order.ID,
		BillID:       pgtype.UUID{Bytes: bill.ID, Valid: true},
		PaymentMode:  toText(payment.mode),
		PaidCash:     decimalToNumeric(payment.cash),
		PaidCard:     decimalToNumeric(payment.card),
		PaidUpi:      decimalToNumeric(payment.upi),
		TotalPaid:    decimalToNumeric(payment.totalPaid),
		ReturnAmount: decimalToNumeric(returnAmount),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotRunning
		}
		return nil, fmt.Errorf("complete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &GenerateBillResult{
		Order: completed,
		Bill:  BillResult{Bill: bill, Lines: billLines},
	}, nil
}

// CancelOrder voids a running order. No stock moves: stock is only
// settled at bill time.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	cancelled, err := store.CancelOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotRunning
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &cancelled, nil
}

// SyncOfflineOrders replays orders captured offline, assigning each a
// permanent number. Failures are reported per order so one bad capture
// does not block the rest.
func (s *OrderService) SyncOfflineOrders(ctx context.Context, reqs []SaveOrderRequest) []SyncOutcome {
	outcomes := make([]SyncOutcome, 0, len(reqs))
	for _, req := range reqs {
		req.Offline = false
		result, err := s.SaveOrder(ctx, req)
		outcomes = append(outcomes, SyncOutcome{
			ClientRef: req.ClientRef,
			Result:    result,
			Err:       err,
		})
	}
	return outcomes
}
