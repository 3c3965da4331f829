package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/units"
)

// ===== order store mock =====

type mockOrderStore struct {
	*mockBillingStore

	countOrdersThisMonthFn       func(ctx context.Context) (int64, error)
	createOrderFn                func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	getOrderFn                   func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrderLinesFn             func(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	listOrderLineAddonsByOrderFn func(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineAddon, error)
	completeOrderFn              func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	cancelOrderFn                func(ctx context.Context, id uuid.UUID) (database.Order, error)

	createdOrderLines  []database.CreateOrderLineParams
	createdOrderAddons []database.CreateOrderLineAddonParams
}

func (m *mockOrderStore) CountOrdersThisMonth(ctx context.Context) (int64, error) {
	return m.countOrdersThisMonthFn(ctx)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderFn(ctx, id)
}
func (m *mockOrderStore) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error) {
	return m.listOrderLinesFn(ctx, orderID)
}
func (m *mockOrderStore) ListOrderLineAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineAddon, error) {
	return m.listOrderLineAddonsByOrderFn(ctx, orderID)
}
func (m *mockOrderStore) CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
	return m.completeOrderFn(ctx, arg)
}
func (m *mockOrderStore) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.cancelOrderFn(ctx, id)
}
func (m *mockOrderStore) CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error) {
	m.createdOrderLines = append(m.createdOrderLines, arg)
	return database.OrderLine{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		MenuItemID: arg.MenuItemID,
		ItemName:   arg.ItemName,
		UnitPrice:  arg.UnitPrice,
		Quantity:   arg.Quantity,
		LineTotal:  arg.LineTotal,
	}, nil
}
func (m *mockOrderStore) CreateOrderLineAddon(ctx context.Context, arg database.CreateOrderLineAddonParams) (database.OrderLineAddon, error) {
	m.createdOrderAddons = append(m.createdOrderAddons, arg)
	return database.OrderLineAddon{ID: uuid.New(), OrderLineID: arg.OrderLineID, AddonID: arg.AddonID, AddonName: arg.AddonName, Price: arg.Price}, nil
}

// orderFixture wraps the billing fixture's catalog with the order mock.
type orderFixture struct {
	store       *mockOrderStore
	menuItemID  uuid.UUID
	variationID uuid.UUID
	addonID     uuid.UUID
}

func defaultOrderStore() orderFixture {
	bf := defaultBillingStore()
	s := &mockOrderStore{mockBillingStore: bf.store}
	s.countOrdersThisMonthFn = func(ctx context.Context) (int64, error) {
		return 0, nil
	}
	s.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{
			ID:          uuid.New(),
			OrderNumber: arg.OrderNumber,
			OrderType:   arg.OrderType,
			TableNumber: arg.TableNumber,
			StewardID:   arg.StewardID,
			StewardName: arg.StewardName,
			Status:      arg.Status,
			Subtotal:    arg.Subtotal,
			TaxAmount:   arg.TaxAmount,
			Discount:    arg.Discount,
			Total:       arg.Total,
			KotCount:    arg.KotCount,
			SyncStatus:  arg.SyncStatus,
			ClientRef:   arg.ClientRef,
			CreatedBy:   arg.CreatedBy,
		}, nil
	}
	return orderFixture{store: s, menuItemID: bf.menuItemID, variationID: bf.variationID, addonID: bf.addonID}
}

func newTestOrderService(store OrderStore) *OrderService {
	return NewOrderService(
		&mockTxBeginner{},
		func(db database.DBTX) OrderStore { return store },
		NewSettlementEngine(units.Default()),
		decimal.NewFromInt(5),
	)
}

// ===== SaveOrder =====

func TestSaveOrder_EmptyItems(t *testing.T) {
	f := defaultOrderStore()
	svc := newTestOrderService(f.store)

	_, err := svc.SaveOrder(context.Background(), SaveOrderRequest{OrderType: enum.OrderTypeDineIn})
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got: %v", err)
	}
}

func TestSaveOrder_OnlineTypeRejected(t *testing.T) {
	f := defaultOrderStore()
	svc := newTestOrderService(f.store)

	_, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType: enum.OrderTypeOnline,
		Items:     []CartLineRequest{{MenuItemID: f.menuItemID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidOrderType) {
		t.Fatalf("expected ErrInvalidOrderType, got: %v", err)
	}
}

func TestSaveOrder_NumbersAndTotals(t *testing.T) {
	f := defaultOrderStore()
	f.store.countOrdersThisMonthFn = func(ctx context.Context) (int64, error) {
		return 7, nil
	}
	var captured database.CreateOrderParams
	inner := f.store.createOrderFn
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	result, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType:   enum.OrderTypeDineIn,
		TableNumber: "T4",
		Items: []CartLineRequest{{
			MenuItemID:  f.menuItemID.String(),
			VariationID: f.variationID.String(),
			Quantity:    2,
			AddonIDs:    []string{f.addonID.String()},
		}},
		CreatedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(captured.OrderNumber, "ORD-") || !strings.HasSuffix(captured.OrderNumber, "-0008") {
		t.Errorf("order number: got %q, want ORD-YYYYMM-0008", captured.OrderNumber)
	}
	if captured.Status != enum.OrderStatusRunning {
		t.Errorf("status: got %q, want RUNNING", captured.Status)
	}
	if captured.SyncStatus != enum.SyncStatusSynced {
		t.Errorf("sync status: got %q, want SYNCED", captured.SyncStatus)
	}
	// (120 + 50 + 30) x 2 = 400; tax 5% = 20; total 420.
	if !numericEquals(captured.Subtotal, "400") || !numericEquals(captured.Total, "420") {
		t.Errorf("totals: subtotal %v total %v, want 400/420",
			numericToDecimal(captured.Subtotal), numericToDecimal(captured.Total))
	}
	if len(result.Lines) != 1 || len(result.Lines[0].Addons) != 1 {
		t.Errorf("lines: got %+v, want 1 line with 1 addon", result.Lines)
	}
}

func TestSaveOrder_SnapshotsSteward(t *testing.T) {
	f := defaultOrderStore()
	var captured database.CreateOrderParams
	inner := f.store.createOrderFn
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	stewardID := uuid.New()
	result, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType:   enum.OrderTypeDineIn,
		TableNumber: "T4",
		StewardID:   pgtype.UUID{Bytes: stewardID, Valid: true},
		StewardName: "Ravi",
		KotCount:    2,
		Items: []CartLineRequest{{
			MenuItemID: f.menuItemID.String(),
			Quantity:   1,
		}},
		CreatedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !captured.StewardID.Valid || captured.StewardID.Bytes != stewardID {
		t.Errorf("steward id not snapshotted: %+v", captured.StewardID)
	}
	if captured.StewardName.String != "Ravi" {
		t.Errorf("steward name: got %q, want Ravi", captured.StewardName.String)
	}
	if captured.KotCount != 2 {
		t.Errorf("kot count: got %d, want 2", captured.KotCount)
	}
	if result.Order.StewardName.String != "Ravi" || result.Order.KotCount != 2 {
		t.Errorf("saved order should carry the steward snapshot: %+v", result.Order)
	}
}

func TestSaveOrder_OfflineGetsTempNumber(t *testing.T) {
	f := defaultOrderStore()
	f.store.countOrdersThisMonthFn = func(ctx context.Context) (int64, error) {
		t.Error("offline capture must not read the monthly count")
		return 0, nil
	}
	var captured database.CreateOrderParams
	inner := f.store.createOrderFn
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	_, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []CartLineRequest{{MenuItemID: f.menuItemID.String(), Quantity: 1}},
		Offline:   true,
		ClientRef: "device-42-0017",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(captured.OrderNumber, "TEMP-") {
		t.Errorf("order number: got %q, want TEMP- prefix", captured.OrderNumber)
	}
	if captured.SyncStatus != enum.SyncStatusPending {
		t.Errorf("sync status: got %q, want PENDING", captured.SyncStatus)
	}
	if !captured.ClientRef.Valid || captured.ClientRef.String != "device-42-0017" {
		t.Errorf("client ref: got %+v, want device-42-0017", captured.ClientRef)
	}
}

func TestSaveOrder_RetryOnNumberConflict(t *testing.T) {
	f := defaultOrderStore()
	conflicts := 0
	inner := f.store.createOrderFn
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		if conflicts < 2 {
			conflicts++
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
		}
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	result, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType: enum.OrderTypeDineIn,
		Items:     []CartLineRequest{{MenuItemID: f.menuItemID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflicts != 2 {
		t.Errorf("expected 2 conflicts before success, got %d", conflicts)
	}
	if result.Order.OrderNumber == "" {
		t.Error("expected an order number after retry")
	}
}

func TestSaveOrder_GivesUpAfterRetries(t *testing.T) {
	f := defaultOrderStore()
	calls := 0
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		calls++
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}
	svc := newTestOrderService(f.store)

	_, err := svc.SaveOrder(context.Background(), SaveOrderRequest{
		OrderType: enum.OrderTypeDineIn,
		Items:     []CartLineRequest{{MenuItemID: f.menuItemID.String(), Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxOrderNumberRetries {
		t.Errorf("expected %d attempts, got %d", maxOrderNumberRetries, calls)
	}
}

// ===== GenerateBill =====

// runningOrderFixture seeds the store with a RUNNING order holding one
// snapshotted line: 2x Paneer Tikka at 120.00 (subtotal 240, tax 12).
func runningOrderFixture(f orderFixture) (orderID uuid.UUID) {
	orderID = uuid.New()
	lineID := uuid.New()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		if id == orderID {
			return database.Order{
				ID:          orderID,
				OrderNumber: "ORD-202603-0008",
				OrderType:   enum.OrderTypeDineIn,
				Status:      enum.OrderStatusRunning,
				Subtotal:    makeNumeric("240.00"),
				TaxAmount:   makeNumeric("12.00"),
				Discount:    makeNumeric("0"),
				Total:       makeNumeric("252.00"),
				CreatedBy:   uuid.New(),
			}, nil
		}
		return database.Order{}, pgx.ErrNoRows
	}
	f.store.listOrderLinesFn = func(ctx context.Context, id uuid.UUID) ([]database.OrderLine, error) {
		return []database.OrderLine{{
			ID:         lineID,
			OrderID:    orderID,
			MenuItemID: f.menuItemID,
			ItemName:   "Paneer Tikka",
			UnitPrice:  makeNumeric("120.00"),
			Quantity:   2,
			LineTotal:  makeNumeric("240.00"),
		}}, nil
	}
	f.store.listOrderLineAddonsByOrderFn = func(ctx context.Context, id uuid.UUID) ([]database.OrderLineAddon, error) {
		return nil, nil
	}
	f.store.completeOrderFn = func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
		return database.Order{
			ID:           arg.ID,
			Status:       enum.OrderStatusCompleted,
			BillID:       arg.BillID,
			PaymentMode:  arg.PaymentMode,
			PaidCash:     arg.PaidCash,
			PaidCard:     arg.PaidCard,
			PaidUpi:      arg.PaidUpi,
			TotalPaid:    arg.TotalPaid,
			ReturnAmount: arg.ReturnAmount,
		}, nil
	}
	return orderID
}

func TestGenerateBill_CompletesOrder(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	var captured database.CreateBillParams
	inner := f.store.createBillFn
	f.store.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	result, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: orderID,
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "252"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Status != enum.BillStatusPaid {
		t.Errorf("bill status: got %q, want PAID", captured.Status)
	}
	if !numericEquals(captured.Total, "252") {
		t.Errorf("bill total: got %v, want 252", numericToDecimal(captured.Total))
	}
	if !captured.FinalizedAt.Valid {
		t.Error("generated bill must carry finalized_at")
	}
	if result.Order.Status != enum.OrderStatusCompleted {
		t.Errorf("order status: got %q, want COMPLETED", result.Order.Status)
	}
	if !result.Order.BillID.Valid || result.Order.BillID.Bytes != result.Bill.Bill.ID {
		t.Error("completed order must reference the generated bill")
	}
	if len(result.Bill.Lines) != 1 || result.Bill.Lines[0].Line.ItemName != "Paneer Tikka" {
		t.Errorf("bill lines: got %+v, want the snapshotted order line", result.Bill.Lines)
	}
}

func TestGenerateBill_RecordsPaymentAndChange(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	var captured database.CompleteOrderParams
	inner := f.store.completeOrderFn
	f.store.completeOrderFn = func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	// Cash 300 against a 252 total: 48 back to the customer.
	result, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: orderID,
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "300"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.PaymentMode.String != enum.PaymentMethodCash {
		t.Errorf("payment mode: got %q, want CASH", captured.PaymentMode.String)
	}
	if !numericEquals(captured.PaidCash, "300") || !numericEquals(captured.TotalPaid, "300") {
		t.Errorf("paid amounts: cash %v total %v, want 300/300",
			numericToDecimal(captured.PaidCash), numericToDecimal(captured.TotalPaid))
	}
	if !numericEquals(captured.ReturnAmount, "48") {
		t.Errorf("return amount: got %v, want 48", numericToDecimal(captured.ReturnAmount))
	}
	if !numericEquals(result.Order.ReturnAmount, "48") {
		t.Errorf("completed order return amount: got %v, want 48",
			numericToDecimal(result.Order.ReturnAmount))
	}
}

func TestGenerateBill_ExactPaymentNoChange(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	var captured database.CompleteOrderParams
	inner := f.store.completeOrderFn
	f.store.completeOrderFn = func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: orderID,
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "252"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(captured.ReturnAmount, "0") {
		t.Errorf("return amount: got %v, want 0", numericToDecimal(captured.ReturnAmount))
	}
}

func TestGenerateBill_ServiceChargeAddedOnTop(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	var captured database.CreateBillParams
	inner := f.store.createBillFn
	f.store.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		captured = arg
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID:       orderID,
		ServiceCharge: "25",
		Payment:       &PaymentRequest{Mode: enum.PaymentMethodCard, Card: "277"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(captured.Total, "277") {
		t.Errorf("total: got %v, want 277", numericToDecimal(captured.Total))
	}
	if !numericEquals(captured.ServiceCharge, "25") {
		t.Errorf("service charge: got %v, want 25", numericToDecimal(captured.ServiceCharge))
	}
}

func TestGenerateBill_OrderNotFound(t *testing.T) {
	f := defaultOrderStore()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc := newTestOrderService(f.store)

	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: uuid.New(),
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "100"},
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestGenerateBill_CompletedOrderRejected(t *testing.T) {
	f := defaultOrderStore()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{ID: id, Status: enum.OrderStatusCompleted}, nil
	}
	svc := newTestOrderService(f.store)

	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: uuid.New(),
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "100"},
	})
	if !errors.Is(err, ErrOrderNotRunning) {
		t.Fatalf("expected ErrOrderNotRunning, got: %v", err)
	}
}

func TestGenerateBill_UnderpaidRejected(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	billCreated := false
	f.store.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		billCreated = true
		return database.Bill{}, nil
	}
	svc := newTestOrderService(f.store)

	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: orderID,
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "200"},
	})
	if !errors.Is(err, ErrUnderpaid) {
		t.Fatalf("expected ErrUnderpaid, got: %v", err)
	}
	if billCreated {
		t.Error("underpaid generation must not create a bill")
	}
}

func TestGenerateBill_SettlementFailureBlocksBill(t *testing.T) {
	f := defaultOrderStore()
	orderID := runningOrderFixture(f)
	recipeID, stockItemID := uuid.New(), uuid.New()
	f.store.getDefaultRecipeByMenuFn = func(ctx context.Context, id uuid.UUID) (database.Recipe, error) {
		return database.Recipe{ID: recipeID, MenuItemID: id}, nil
	}
	f.store.listRecipeIngredientsFn = func(ctx context.Context, id uuid.UUID) ([]database.RecipeIngredient, error) {
		return []database.RecipeIngredient{
			{ID: uuid.New(), RecipeID: id, StockItemID: stockItemID, Quantity: makeNumeric("500"), Unit: "g"},
		}, nil
	}
	f.store.getStockItemFn = func(ctx context.Context, id uuid.UUID) (database.StockItem, error) {
		return database.StockItem{ID: stockItemID, Name: "Paneer", Unit: "g"}, nil
	}
	f.store.listBatchesByStockItemFn = func(ctx context.Context, id uuid.UUID) ([]database.StockBatch, error) {
		return []database.StockBatch{
			{ID: uuid.New(), StockItemID: stockItemID, Quantity: makeNumeric("300")},
		}, nil
	}
	billCreated := false
	f.store.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		billCreated = true
		return database.Bill{}, nil
	}
	svc := newTestOrderService(f.store)

	// Needs 500 g x 2 against 300 g on hand.
	_, err := svc.GenerateBill(context.Background(), GenerateBillRequest{
		OrderID: orderID,
		Payment: &PaymentRequest{Mode: enum.PaymentMethodCash, Cash: "252"},
	})
	if err == nil {
		t.Fatal("expected shortfall error")
	}
	if billCreated {
		t.Error("settlement failure must not create a bill")
	}
}

// ===== CancelOrder =====

func TestCancelOrder(t *testing.T) {
	f := defaultOrderStore()
	orderID := uuid.New()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{ID: id, Status: enum.OrderStatusRunning}, nil
	}
	f.store.cancelOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{ID: id, Status: enum.OrderStatusCancelled}, nil
	}
	svc := newTestOrderService(f.store)

	cancelled, err := svc.CancelOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != enum.OrderStatusCancelled {
		t.Errorf("status: got %q, want CANCELLED", cancelled.Status)
	}
}

func TestCancelOrder_NotFound(t *testing.T) {
	f := defaultOrderStore()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc := newTestOrderService(f.store)

	_, err := svc.CancelOrder(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCancelOrder_AlreadyTerminal(t *testing.T) {
	f := defaultOrderStore()
	f.store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{ID: id, Status: enum.OrderStatusCompleted}, nil
	}
	f.store.cancelOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc := newTestOrderService(f.store)

	_, err := svc.CancelOrder(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotRunning) {
		t.Fatalf("expected ErrOrderNotRunning, got: %v", err)
	}
}

// ===== SyncOfflineOrders =====

func TestSyncOfflineOrders_PerOrderOutcomes(t *testing.T) {
	f := defaultOrderStore()
	var numbers []string
	inner := f.store.createOrderFn
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		numbers = append(numbers, arg.OrderNumber)
		return inner(ctx, arg)
	}
	svc := newTestOrderService(f.store)

	outcomes := svc.SyncOfflineOrders(context.Background(), []SaveOrderRequest{
		{
			OrderType: enum.OrderTypeDineIn,
			Items:     []CartLineRequest{{MenuItemID: f.menuItemID.String(), Quantity: 1}},
			ClientRef: "dev1-001",
		},
		{
			OrderType: enum.OrderTypeDineIn,
			Items:     []CartLineRequest{{MenuItemID: uuid.NewString(), Quantity: 1}}, // unknown item
			ClientRef: "dev1-002",
		},
	})

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Errorf("first outcome should succeed: %+v", outcomes[0])
	}
	if outcomes[0].ClientRef != "dev1-001" {
		t.Errorf("client ref: got %q, want dev1-001", outcomes[0].ClientRef)
	}
	if !errors.Is(outcomes[1].Err, ErrMenuItemNotFound) {
		t.Errorf("second outcome: got %v, want ErrMenuItemNotFound", outcomes[1].Err)
	}

	// Synced orders get permanent numbers, not TEMP ones.
	for _, n := range numbers {
		if !strings.HasPrefix(n, "ORD-") {
			t.Errorf("synced order number %q is not permanent", n)
		}
	}
}
