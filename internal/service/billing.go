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

// Errors returned by the billing and order services.
var (
	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidOrderType    = errors.New("invalid order_type")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrInvalidVariationID  = errors.New("invalid variation_id")
	ErrInvalidAddonID      = errors.New("invalid addon_id")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrVariationNotFound   = errors.New("variation not offered for menu item")
	ErrAddonNotFound       = errors.New("addon not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPaymentMode  = errors.New("invalid payment_mode")
	ErrPaymentRequired     = errors.New("payment is required to finalize")
	ErrUnderpaid           = errors.New("payment does not cover bill total")
	ErrBillNotFound        = errors.New("bill not found")
	ErrBillNotDraft        = errors.New("bill is finalized and cannot be changed")
	ErrBillNotPending      = errors.New("bill is not awaiting payment")
	ErrStockItemMissing    = errors.New("referenced stock item missing")
)

// BillingStore defines the DB methods needed to create, finalize, and
// pay bills. Satisfied by *database.Queries (and its WithTx variant).
type BillingStore interface {
	SettlementStore
	GetLatestBillNumber(ctx context.Context) (string, error)
	GetActiveMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetMenuItemVariation(ctx context.Context, arg database.GetMenuItemVariationParams) (database.MenuItemVariationRow, error)
	GetAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	CreateBillLine(ctx context.Context, arg database.CreateBillLineParams) (database.BillLine, error)
	CreateBillLineAddon(ctx context.Context, arg database.CreateBillLineAddonParams) (database.BillLineAddon, error)
	CreateBillLineDraw(ctx context.Context, arg database.CreateBillLineDrawParams) (database.BillLineDraw, error)
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	DeleteBillLines(ctx context.Context, billID uuid.UUID) error
	UpdateBill(ctx context.Context, arg database.UpdateBillParams) (database.Bill, error)
	UpdateBillPayment(ctx context.Context, arg database.UpdateBillPaymentParams) (database.Bill, error)
	DeleteBill(ctx context.Context, id uuid.UUID) error
}

// NewBillingStore creates a BillingStore from a DBTX (pool or tx).
type NewBillingStore func(db database.DBTX) BillingStore

// PaymentRequest is a cash/card/upi split.
type PaymentRequest struct {
	Mode string
	Cash string
	Card string
	Upi  string
}

// CreateBillRequest is the validated input for creating a bill.
type CreateBillRequest struct {
	OrderType       string
	TableNumber     string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	DeliveryAddress string
	Items           []CartLineRequest
	Discount        string
	ServiceCharge   string
	TaxRate         string // optional override of the configured rate
	Notes           string
	Finalize        bool
	Payment         *PaymentRequest
	CreatedBy       uuid.UUID
}

// UpdateBillRequest replaces a draft bill's cart and details; with
// Finalize set it also settles stock and takes payment.
type UpdateBillRequest struct {
	OrderType       string
	TableNumber     string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	DeliveryAddress string
	Items           []CartLineRequest
	Discount        string
	ServiceCharge   string
	TaxRate         string
	Notes           string
	Finalize        bool
	Payment         *PaymentRequest
}

// BillLineResult is a bill line with its addons and batch draws.
type BillLineResult struct {
	Line   database.BillLine
	Addons []database.BillLineAddon
	Draws  []database.BillLineDraw
}

// BillResult is the full bill with lines.
type BillResult struct {
	Bill  database.Bill
	Lines []BillLineResult
}

// BillingService handles bill lifecycle: draft, finalize (with stock
// settlement), payment, and deletion of drafts.
type BillingService struct {
	pool     TxBeginner
	newStore NewBillingStore
	engine   *SettlementEngine
	taxRate  decimal.Decimal
}

func NewBillingService(pool TxBeginner, newStore NewBillingStore, engine *SettlementEngine, taxRate decimal.Decimal) *BillingService {
	return &BillingService{pool: pool, newStore: newStore, engine: engine, taxRate: taxRate}
}

// billTotals is the computed money column set for a bill.
type billTotals struct {
	subtotal      decimal.Decimal
	taxRate       decimal.Decimal
	taxAmount     decimal.Decimal
	discount      decimal.Decimal
	serviceCharge decimal.Decimal
	total         decimal.Decimal
}

// billPayment is the computed payment column set.
type billPayment struct {
	mode      string
	cash      decimal.Decimal
	card      decimal.Decimal
	upi       decimal.Decimal
	totalPaid decimal.Decimal
	due       decimal.Decimal
	status    string
}

// CreateBill validates, prices, optionally settles stock, and creates a
// bill atomically. Retries on bill_number unique violations, falling
// back to a timestamp-based number when the sequence keeps colliding.
func (s *BillingService) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResult, error) {
	if _, err := validateOrderType(req.OrderType, true); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	for attempt := 0; attempt < maxBillNumberRetries; attempt++ {
		result, err := s.createBillTx(ctx, req, false)
		if !isBillNumberConflict(err) {
			return result, err
		}
	}
	return s.createBillTx(ctx, req, true)
}

// isBillNumberConflict checks if the error is a unique constraint
// violation on the bill number (pgconn error code 23505).
func isBillNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "bills_bill_number_key"
	}
	return false
}

func (s *BillingService) createBillTx(ctx context.Context, req CreateBillRequest, useFallback bool) (*BillResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := time.Now()

	var billNumber string
	if useFallback {
		billNumber = fallbackBillNumber(now)
	} else {
		billNumber, err = nextBillNumber(ctx, store, now)
		if err != nil {
			return nil, err
		}
	}

	lines, err := processCart(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	totals, err := s.computeTotals(lines, req.Discount, req.ServiceCharge, req.TaxRate)
	if err != nil {
		return nil, err
	}

	status := enum.BillStatusDraft
	var payment billPayment
	finalizedAt := pgtype.Timestamptz{}
	var draws []BatchDraw

	if req.Finalize {
		payment, err = resolvePayment(req.Payment, totals.total, decimal.Zero, decimal.Zero, decimal.Zero)
		if err != nil {
			return nil, err
		}
		status = payment.status
		finalizedAt = pgtype.Timestamptz{Time: now, Valid: true}

		draws, err = s.engine.Settle(ctx, store, settlementLines(lines))
		if err != nil {
			return nil, err
		}
	}

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		BillNumber:      billNumber,
		OrderType:       req.OrderType,
		TableNumber:     toText(req.TableNumber),
		CustomerName:    toText(req.CustomerName),
		CustomerPhone:   toText(req.CustomerPhone),
		CustomerEmail:   toText(req.CustomerEmail),
		DeliveryAddress: toText(req.DeliveryAddress),
		Status:          status,
		Subtotal:        decimalToNumeric(totals.subtotal),
		TaxRate:         decimalToNumeric(totals.taxRate),
		TaxAmount:       decimalToNumeric(totals.taxAmount),
		Discount:        decimalToNumeric(totals.discount),
		ServiceCharge:   decimalToNumeric(totals.serviceCharge),
		Total:           decimalToNumeric(totals.total),
		PaymentMode:     toText(payment.mode),
		PaidCash:        decimalToNumeric(payment.cash),
		PaidCard:        decimalToNumeric(payment.card),
		PaidUpi:         decimalToNumeric(payment.upi),
		TotalPaid:       decimalToNumeric(payment.totalPaid),
		DueAmount:       decimalToNumeric(payment.due),
		Notes:           toText(req.Notes),
		CreatedBy:       req.CreatedBy,
		FinalizedAt:     finalizedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	lineResults, err := s.insertLines(ctx, store, bill.ID, lines, draws)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &BillResult{Bill: bill, Lines: lineResults}, nil
}

// UpdateBill rewrites a draft bill. Finalized bills are immutable.
func (s *BillingService) UpdateBill(ctx context.Context, billID uuid.UUID, req UpdateBillRequest) (*BillResult, error) {
	if _, err := validateOrderType(req.OrderType, true); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := time.Now()

	existing, err := store.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if existing.Status != enum.BillStatusDraft {
		return nil, ErrBillNotDraft
	}

	lines, err := processCart(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(lines, req.Discount, req.ServiceCharge, req.TaxRate)
	if err != nil {
		return nil, err
	}

	status := enum.BillStatusDraft
	var payment billPayment
	finalizedAt := pgtype.Timestamptz{}
	var draws []BatchDraw

	if req.Finalize {
		payment, err = resolvePayment(req.Payment, totals.total, decimal.Zero, decimal.Zero, decimal.Zero)
		if err != nil {
			return nil, err
		}
		status = payment.status
		finalizedAt = pgtype.Timestamptz{Time: now, Valid: true}

		draws, err = s.engine.Settle(ctx, store, settlementLines(lines))
		if err != nil {
			return nil, err
		}
	}

	if err := store.DeleteBillLines(ctx, billID); err != nil {
		return nil, fmt.Errorf("delete bill lines: %w", err)
	}

	bill, err := store.UpdateBill(ctx, database.UpdateBillParams{
		ID:              billID,
		OrderType:       req.OrderType,
		TableNumber:     toText(req.TableNumber),
		CustomerName:    toText(req.CustomerName),
		CustomerPhone:   toText(req.CustomerPhone),
		CustomerEmail:   toText(req.CustomerEmail),
		DeliveryAddress: toText(req.DeliveryAddress),
		Status:          status,
		Subtotal:        decimalToNumeric(totals.subtotal),
		TaxRate:         decimalToNumeric(totals.taxRate),
		TaxAmount:       decimalToNumeric(totals.taxAmount),
		Discount:        decimalToNumeric(totals.discount),
		ServiceCharge:   decimalToNumeric(totals.serviceCharge),
		Total:           decimalToNumeric(totals.total),
		PaymentMode:     toText(payment.mode),
		PaidCash:        decimalToNumeric(payment.cash),
		PaidCard:        decimalToNumeric(payment.card),
		PaidUpi:         decimalToNumeric(payment.upi),
		TotalPaid:       decimalToNumeric(payment.totalPaid),
		DueAmount:       decimalToNumeric(payment.due),
		Notes:           toText(req.Notes),
		FinalizedAt:     finalizedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}

	lineResults, err := s.insertLines(ctx, store, bill.ID, lines, draws)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &BillResult{Bill: bill, Lines: lineResults}, nil
}

// AddPayment records an additional payment on a pending bill, moving it
// to PAID once the due amount is covered.
func (s *BillingService) AddPayment(ctx context.Context, billID uuid.UUID, req PaymentRequest) (*database.Bill, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if bill.Status != enum.BillStatusPending {
		return nil, ErrBillNotPending
	}

	payment, err := resolvePayment(&req, numericToDecimal(bill.Total),
		numericToDecimal(bill.PaidCash), numericToDecimal(bill.PaidCard), numericToDecimal(bill.PaidUpi))
	if err != nil {
		return nil, err
	}

	updated, err := store.UpdateBillPayment(ctx, database.UpdateBillPaymentParams{
		ID:          billID,
		Status:      payment.status,
		PaymentMode: toText(payment.mode),
		PaidCash:    decimalToNumeric(payment.cash),
		PaidCard:    decimalToNumeric(payment.card),
		PaidUpi:     decimalToNumeric(payment.upi),
		TotalPaid:   decimalToNumeric(payment.totalPaid),
		DueAmount:   decimalToNumeric(payment.due),
	})
	if err != nil {
		return nil, fmt.Errorf("update bill payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// DeleteBill removes a draft. Finalized bills stay on the books.
func (s *BillingService) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBillNotFound
		}
		return fmt.Errorf("get bill: %w", err)
	}
	if bill.Status != enum.BillStatusDraft {
		return ErrBillNotDraft
	}
	if err := store.DeleteBill(ctx, billID); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *BillingService) computeTotals(lines []cartLine, discount, serviceCharge, taxRateOverride string) (billTotals, error) {
	t := billTotals{taxRate: s.taxRate}

	if taxRateOverride != "" {
		rate, err := decimal.NewFromString(taxRateOverride)
		if err != nil || rate.IsNegative() {
			return t, ErrInvalidAmount
		}
		t.taxRate = rate
	}
	if discount != "" {
		d, err := decimal.NewFromString(discount)
		if err != nil || d.IsNegative() {
			return t, ErrInvalidAmount
		}
		t.discount = d
	}
	if serviceCharge != "" {
		sc, err := decimal.NewFromString(serviceCharge)
		if err != nil || sc.IsNegative() {
			return t, ErrInvalidAmount
		}
		t.serviceCharge = sc
	}

	t.subtotal = decimal.Zero
	for _, l := range lines {
		t.subtotal = t.subtotal.Add(l.lineTotal)
	}
	t.taxAmount = t.subtotal.Mul(t.taxRate).Div(decimal.NewFromInt(100)).Round(2)
	t.total = t.subtotal.Add(t.taxAmount).Sub(t.discount).Add(t.serviceCharge).Round(2)
	if t.total.IsNegative() {
		t.total = decimal.Zero
	}
	return t, nil
}

// resolvePayment validates a payment on top of amounts already paid and
// decides the resulting bill status. A shortfall is only allowed when
// the mode is DUE; anything else must cover the total up front.
func resolvePayment(req *PaymentRequest, total, paidCash, paidCard, paidUpi decimal.Decimal) (billPayment, error) {
	if req == nil {
		return billPayment{}, ErrPaymentRequired
	}
	switch req.Mode {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodUPI,
		enum.PaymentMethodSplit, enum.PaymentMethodDue:
	default:
		return billPayment{}, ErrInvalidPaymentMode
	}

	cash, err := parseAmount(req.Cash)
	if err != nil {
		return billPayment{}, err
	}
	card, err := parseAmount(req.Card)
	if err != nil {
		return billPayment{}, err
	}
	upi, err := parseAmount(req.Upi)
	if err != nil {
		return billPayment{}, err
	}

	p := billPayment{
		mode: req.Mode,
		cash: paidCash.Add(cash),
		card: paidCard.Add(card),
		upi:  paidUpi.Add(upi),
	}
	p.totalPaid = p.cash.Add(p.card).Add(p.upi)
	p.due = total.Sub(p.totalPaid)

	if p.due.IsPositive() {
		if req.Mode != enum.PaymentMethodDue {
			return billPayment{}, ErrUnderpaid
		}
		p.status = enum.BillStatusPending
	} else {
		p.due = decimal.Zero
		p.status = enum.BillStatusPaid
	}
	return p, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// insertLines writes bill lines, their addons, and any batch draws from
// settlement, wiring draws to lines by cart index.
func (s *BillingService) insertLines(ctx context.Context, store BillingStore, billID uuid.UUID, lines []cartLine, draws []BatchDraw) ([]BillLineResult, error) {
	results := make([]BillLineResult, 0, len(lines))
	for i, l := range lines {
		created, err := store.CreateBillLine(ctx, database.CreateBillLineParams{
			BillID:        billID,
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
			return nil, fmt.Errorf("create bill line: %w", err)
		}
		res := BillLineResult{Line: created}

		for _, a := range l.addons {
			addon, err := store.CreateBillLineAddon(ctx, database.CreateBillLineAddonParams{
				BillLineID: created.ID,
				AddonID:    a.id,
				AddonName:  a.name,
				Price:      decimalToNumeric(a.price),
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
		results = append(results, res)
	}
	return results, nil
}

func validateOrderType(s string, allowOnline bool) (string, error) {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway, enum.OrderTypeDelivery:
		return s, nil
	case enum.OrderTypeOnline:
		if allowOnline {
			return s, nil
		}
	}
	return "", ErrInvalidOrderType
}
