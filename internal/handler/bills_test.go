package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/handler"
)

// --- Mock read store ---

type mockBillReadStore struct {
	bills  map[uuid.UUID]database.Bill
	lines  map[uuid.UUID][]database.BillLine
	addons map[uuid.UUID][]database.BillLineAddon
	draws  map[uuid.UUID][]database.BillLineDraw
}

func newMockBillReadStore() *mockBillReadStore {
	return &mockBillReadStore{
		bills:  make(map[uuid.UUID]database.Bill),
		lines:  make(map[uuid.UUID][]database.BillLine),
		addons: make(map[uuid.UUID][]database.BillLineAddon),
		draws:  make(map[uuid.UUID][]database.BillLineDraw),
	}
}

func (m *mockBillReadStore) addBill(number, status string) database.Bill {
	b := database.Bill{
		ID:         uuid.New(),
		BillNumber: number,
		OrderType:  enum.OrderTypeDineIn,
		Status:     status,
		Subtotal:   qty("400.00"),
		TaxRate:    qty("5.00"),
		TaxAmount:  qty("20.00"),
		Discount:   qty("0.00"),
		Total:      qty("420.00"),
		PaidCash:   qty("0.00"),
		PaidCard:   qty("0.00"),
		PaidUpi:    qty("0.00"),
		TotalPaid:  qty("0.00"),
		DueAmount:  qty("0.00"),
		CreatedAt:  time.Now(),
	}
	m.bills[b.ID] = b
	return b
}

func (m *mockBillReadStore) ListBills(_ context.Context, arg database.ListBillsParams) ([]database.Bill, error) {
	var result []database.Bill
	for _, b := range m.bills {
		if !arg.Status.Valid || b.Status == arg.Status.String {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBillReadStore) CountBills(_ context.Context, arg database.CountBillsParams) (int64, error) {
	var n int64
	for _, b := range m.bills {
		if !arg.Status.Valid || b.Status == arg.Status.String {
			n++
		}
	}
	return n, nil
}

func (m *mockBillReadStore) GetBill(_ context.Context, id uuid.UUID) (database.Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return database.Bill{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockBillReadStore) ListBillLines(_ context.Context, billID uuid.UUID) ([]database.BillLine, error) {
	return m.lines[billID], nil
}

func (m *mockBillReadStore) ListBillLineAddonsByBill(_ context.Context, billID uuid.UUID) ([]database.BillLineAddon, error) {
	return m.addons[billID], nil
}

func (m *mockBillReadStore) ListBillLineDrawsByBill(_ context.Context, billID uuid.UUID) ([]database.BillLineDraw, error) {
	return m.draws[billID], nil
}

func setupBillRouter(store *mockBillReadStore) *chi.Mux {
	h := handler.NewBillHandler(nil, store, nil)
	r := chi.NewRouter()
	r.Route("/billing", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
	return r
}

// --- Tests ---

func TestListBillsStatusFilter(t *testing.T) {
	store := newMockBillReadStore()
	store.addBill("BIL-202608-0001-a1b2", enum.BillStatusPaid)
	store.addBill("BIL-202608-0002-c3d4", enum.BillStatusDraft)
	store.addBill("BIL-202608-0003-e5f6", enum.BillStatusPaid)
	router := setupBillRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/billing?status=PAID", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	bills := body["bills"].([]interface{})
	if len(bills) != 2 {
		t.Fatalf("expected 2 paid bills, got %d", len(bills))
	}
	if body["total"] != float64(2) {
		t.Errorf("expected total 2, got %v", body["total"])
	}
}

func TestListBillsRejectsBadStatus(t *testing.T) {
	router := setupBillRouter(newMockBillReadStore())

	rr := doRequest(t, router, http.MethodGet, "/billing?status=SETTLED", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetBillWithLinesAndDraws(t *testing.T) {
	store := newMockBillReadStore()
	b := store.addBill("BIL-202608-0001-a1b2", enum.BillStatusPaid)

	line := database.BillLine{
		ID:         uuid.New(),
		BillID:     b.ID,
		MenuItemID: uuid.New(),
		ItemName:   "Paneer Tikka",
		UnitPrice:  qty("200.00"),
		Quantity:   2,
		LineTotal:  qty("400.00"),
	}
	store.lines[b.ID] = []database.BillLine{line}
	store.draws[b.ID] = []database.BillLineDraw{{
		ID:          uuid.New(),
		BillLineID:  line.ID,
		StockItemID: uuid.New(),
		BatchID:     uuid.New(),
		Quantity:    qty("400.000"),
		Unit:        "g",
	}}
	router := setupBillRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/billing/"+b.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	bill := body["bill"].(map[string]interface{})
	if bill["bill_number"] != "BIL-202608-0001-a1b2" {
		t.Errorf("wrong bill number: %v", bill["bill_number"])
	}
	lines := bill["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	gotLine := lines[0].(map[string]interface{})
	draws := gotLine["draws"].([]interface{})
	if len(draws) != 1 {
		t.Fatalf("expected 1 draw, got %d", len(draws))
	}
	draw := draws[0].(map[string]interface{})
	if draw["quantity"] != "400.000" || draw["unit"] != "g" {
		t.Errorf("wrong draw: %v", draw)
	}
}

func TestGetBillNotFound(t *testing.T) {
	router := setupBillRouter(newMockBillReadStore())

	rr := doRequest(t, router, http.MethodGet, "/billing/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

// Customer detail validation runs before the billing service is
// touched, so a nil service is safe here.
func setupBillWriteRouter(store *mockBillReadStore) *chi.Mux {
	h := handler.NewBillHandler(nil, store, nil)
	r := chi.NewRouter()
	r.Route("/billing", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
	return r
}

func TestCreateBillRejectsBadEmail(t *testing.T) {
	router := setupBillWriteRouter(newMockBillReadStore())

	rr := doRequest(t, router, http.MethodPost, "/billing", map[string]interface{}{
		"order_type":     enum.OrderTypeDineIn,
		"customer_name":  "Asha",
		"customer_phone": "9876543210",
		"customer_email": "not-an-email",
		"items":          []map[string]interface{}{{"menu_item_id": uuid.NewString(), "quantity": 1}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["message"] != "invalid customer_email" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreateBillDeliveryNeedsAddress(t *testing.T) {
	router := setupBillWriteRouter(newMockBillReadStore())

	rr := doRequest(t, router, http.MethodPost, "/billing", map[string]interface{}{
		"order_type":     enum.OrderTypeDelivery,
		"customer_name":  "Asha",
		"customer_phone": "9876543210",
		"items":          []map[string]interface{}{{"menu_item_id": uuid.NewString(), "quantity": 1}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["message"] != "delivery_address is required for delivery orders" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestUpdateBillRejectsBadEmail(t *testing.T) {
	store := newMockBillReadStore()
	bill := store.addBill("BIL-202608-0004-b7c8", enum.BillStatusDraft)
	router := setupBillWriteRouter(store)

	rr := doRequest(t, router, http.MethodPut, "/billing/"+bill.ID.String(), map[string]interface{}{
		"order_type":     enum.OrderTypeDineIn,
		"customer_name":  "Asha",
		"customer_phone": "9876543210",
		"customer_email": "asha@@example",
		"items":          []map[string]interface{}{{"menu_item_id": uuid.NewString(), "quantity": 1}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}
