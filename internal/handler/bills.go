package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/middleware"
	"github.com/tandoor-pos/api/internal/service"
)

// BillReadStore is the query surface for listing and fetching bills.
// Satisfied by *database.Queries.
type BillReadStore interface {
	ListBills(ctx context.Context, arg database.ListBillsParams) ([]database.Bill, error)
	CountBills(ctx context.Context, arg database.CountBillsParams) (int64, error)
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	ListBillLines(ctx context.Context, billID uuid.UUID) ([]database.BillLine, error)
	ListBillLineAddonsByBill(ctx context.Context, billID uuid.UUID) ([]database.BillLineAddon, error)
	ListBillLineDrawsByBill(ctx context.Context, billID uuid.UUID) ([]database.BillLineDraw, error)
}

// BillHandler handles the direct billing flow: draft bills, finalize
// with payment, top-ups on pending bills.
type BillHandler struct {
	svc      *service.BillingService
	store    BillReadStore
	notifier Notifier
}

func NewBillHandler(svc *service.BillingService, store BillReadStore, notifier Notifier) *BillHandler {
	return &BillHandler{svc: svc, store: store, notifier: notifier}
}

func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/payment", h.AddPayment)
}

type billPayload struct {
	OrderType       string            `json:"order_type"`
	TableNumber     string            `json:"table_number"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   string            `json:"customer_email"`
	DeliveryAddress string            `json:"delivery_address"`
	Items           []cartLinePayload `json:"items"`
	Discount        string            `json:"discount"`
	ServiceCharge   string            `json:"service_charge"`
	TaxRate         string            `json:"tax_rate"`
	Notes           string            `json:"notes"`
	Finalize        bool              `json:"finalize"`
	Payment         *paymentPayload   `json:"payment"`
}

// validateCustomer checks the customer detail fields shared by Create
// and Update. Email is optional but must parse when given; delivery
// orders cannot be cut without an address.
func (p billPayload) validateCustomer() string {
	if p.CustomerName == "" || p.CustomerPhone == "" {
		return "customer_name and customer_phone are required"
	}
	if p.CustomerEmail != "" {
		if _, err := mail.ParseAddress(p.CustomerEmail); err != nil {
			return "invalid customer_email"
		}
	}
	if p.OrderType == enum.OrderTypeDelivery && p.DeliveryAddress == "" {
		return "delivery_address is required for delivery orders"
	}
	return ""
}

func (p billPayload) items() []service.CartLineRequest {
	items := make([]service.CartLineRequest, len(p.Items))
	for i, line := range p.Items {
		items[i] = line.toRequest()
	}
	return items
}

type billDrawResponse struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	Quantity    string    `json:"quantity"`
	Unit        string    `json:"unit"`
}

type billLineResponse struct {
	ID            uuid.UUID           `json:"id"`
	MenuItemID    uuid.UUID           `json:"menu_item_id"`
	ItemName      string              `json:"item_name"`
	VariationName *string             `json:"variation_name"`
	UnitPrice     string              `json:"unit_price"`
	Quantity      int32               `json:"quantity"`
	LineTotal     string              `json:"line_total"`
	Notes         *string             `json:"notes"`
	Addons        []menuAddonResponse `json:"addons,omitempty"`
	Draws         []billDrawResponse  `json:"draws,omitempty"`
}

type billResponse struct {
	ID              uuid.UUID          `json:"id"`
	BillNumber      string             `json:"bill_number"`
	OrderType       string             `json:"order_type"`
	TableNumber     *string            `json:"table_number"`
	CustomerName    *string            `json:"customer_name"`
	CustomerPhone   *string            `json:"customer_phone"`
	CustomerEmail   *string            `json:"customer_email"`
	DeliveryAddress *string            `json:"delivery_address"`
	Status          string             `json:"status"`
	Subtotal        string             `json:"subtotal"`
	TaxRate         string             `json:"tax_rate"`
	TaxAmount       string             `json:"tax_amount"`
	Discount        string             `json:"discount"`
	ServiceCharge   string             `json:"service_charge"`
	Total           string             `json:"total"`
	PaymentMode     *string            `json:"payment_mode"`
	PaidCash        string             `json:"paid_cash"`
	PaidCard        string             `json:"paid_card"`
	PaidUpi         string             `json:"paid_upi"`
	TotalPaid       string             `json:"total_paid"`
	DueAmount       string             `json:"due_amount"`
	Notes           *string            `json:"notes"`
	Lines           []billLineResponse `json:"lines,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	FinalizedAt     *time.Time         `json:"finalized_at"`
}

func toBillResponse(b database.Bill) billResponse {
	resp := billResponse{
		ID:              b.ID,
		BillNumber:      b.BillNumber,
		OrderType:       b.OrderType,
		TableNumber:     textPtr(b.TableNumber),
		CustomerName:    textPtr(b.CustomerName),
		CustomerPhone:   textPtr(b.CustomerPhone),
		CustomerEmail:   textPtr(b.CustomerEmail),
		DeliveryAddress: textPtr(b.DeliveryAddress),
		Status:          b.Status,
		Subtotal:        numericString(b.Subtotal),
		TaxRate:         numericString(b.TaxRate),
		TaxAmount:       numericString(b.TaxAmount),
		Discount:        numericString(b.Discount),
		ServiceCharge:   numericString(b.ServiceCharge),
		Total:           numericString(b.Total),
		PaymentMode:     textPtr(b.PaymentMode),
		PaidCash:        numericString(b.PaidCash),
		PaidCard:        numericString(b.PaidCard),
		PaidUpi:         numericString(b.PaidUpi),
		TotalPaid:       numericString(b.TotalPaid),
		DueAmount:       numericString(b.DueAmount),
		Notes:           textPtr(b.Notes),
		CreatedAt:       b.CreatedAt,
	}
	if b.FinalizedAt.Valid {
		t := b.FinalizedAt.Time
		resp.FinalizedAt = &t
	}
	return resp
}

func toBillLineResponse(line database.BillLine, addons []database.BillLineAddon, draws []database.BillLineDraw) billLineResponse {
	resp := billLineResponse{
		ID:            line.ID,
		MenuItemID:    line.MenuItemID,
		ItemName:      line.ItemName,
		VariationName: textPtr(line.VariationName),
		UnitPrice:     numericString(line.UnitPrice),
		Quantity:      line.Quantity,
		LineTotal:     numericString(line.LineTotal),
		Notes:         textPtr(line.Notes),
	}
	for _, a := range addons {
		if a.BillLineID != line.ID {
			continue
		}
		resp.Addons = append(resp.Addons, menuAddonResponse{
			AddonID: a.AddonID,
			Name:    a.AddonName,
			Price:   numericString(a.Price),
		})
	}
	for _, d := range draws {
		if d.BillLineID != line.ID {
			continue
		}
		resp.Draws = append(resp.Draws, billDrawResponse{
			StockItemID: d.StockItemID,
			BatchID:     d.BatchID,
			Quantity:    numericString(d.Quantity),
			Unit:        d.Unit,
		})
	}
	return resp
}

func toBillResultResponse(result *service.BillResult) billResponse {
	resp := toBillResponse(result.Bill)
	for _, line := range result.Lines {
		resp.Lines = append(resp.Lines, toBillLineResponse(line.Line, line.Addons, line.Draws))
	}
	return resp
}

func (h *BillHandler) notifyFinalized(b database.Bill) {
	if h.notifier == nil || b.Status != enum.BillStatusPaid {
		return
	}
	h.notifier.Publish("bill.finalized", map[string]interface{}{
		"bill_id":     b.ID,
		"bill_number": b.BillNumber,
		"total":       numericString(b.Total),
	})
}

func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload billPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := payload.validateCustomer(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	var createdBy uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID
	}

	result, err := h.svc.CreateBill(r.Context(), service.CreateBillRequest{
		OrderType:       payload.OrderType,
		TableNumber:     payload.TableNumber,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerEmail:   payload.CustomerEmail,
		DeliveryAddress: payload.DeliveryAddress,
		Items:           payload.items(),
		Discount:        payload.Discount,
		ServiceCharge:   payload.ServiceCharge,
		TaxRate:         payload.TaxRate,
		Notes:           payload.Notes,
		Finalize:        payload.Finalize,
		Payment:         payload.Payment.toRequest(),
		CreatedBy:       createdBy,
	})
	if err != nil {
		respondServiceError(w, err, "create bill")
		return
	}
	h.notifyFinalized(result.Bill)
	respond(w, http.StatusCreated, envelope{"bill": toBillResultResponse(result)})
}

func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := int32(50)
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = int32(n)
		}
	}
	offset := int32(0)
	if s := q.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = int32(n)
		}
	}

	var status pgtype.Text
	if s := q.Get("status"); s != "" {
		switch s {
		case enum.BillStatusDraft, enum.BillStatusPending, enum.BillStatusPaid, enum.BillStatusCancelled:
			status = textFrom(s)
		default:
			respondError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	var since, until pgtype.Timestamptz
	if s := q.Get("since"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		since = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := q.Get("until"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "until must be YYYY-MM-DD")
			return
		}
		until = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	bills, err := h.store.ListBills(r.Context(), database.ListBillsParams{
		Status: status,
		Since:  since,
		Until:  until,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountBills(r.Context(), database.CountBillsParams{
		Status: status,
		Since:  since,
		Until:  until,
	})
	if err != nil {
		log.Printf("ERROR: count bills: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toBillResponse(b)
	}
	respond(w, http.StatusOK, envelope{"bills": resp, "total": total})
}

func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	bill, err := h.store.GetBill(r.Context(), id)
	if err != nil {
		respondServiceError(w, mapNoRows(err, service.ErrBillNotFound), "get bill")
		return
	}
	lines, err := h.store.ListBillLines(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list bill lines: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	addons, err := h.store.ListBillLineAddonsByBill(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list bill addons: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	draws, err := h.store.ListBillLineDrawsByBill(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list bill draws: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toBillResponse(bill)
	for _, line := range lines {
		resp.Lines = append(resp.Lines, toBillLineResponse(line, addons, draws))
	}
	respond(w, http.StatusOK, envelope{"bill": resp})
}

func (h *BillHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	var payload billPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := payload.validateCustomer(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.svc.UpdateBill(r.Context(), id, service.UpdateBillRequest{
		OrderType:       payload.OrderType,
		TableNumber:     payload.TableNumber,
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerEmail:   payload.CustomerEmail,
		DeliveryAddress: payload.DeliveryAddress,
		Items:           payload.items(),
		Discount:        payload.Discount,
		ServiceCharge:   payload.ServiceCharge,
		TaxRate:         payload.TaxRate,
		Notes:           payload.Notes,
		Finalize:        payload.Finalize,
		Payment:         payload.Payment.toRequest(),
	})
	if err != nil {
		respondServiceError(w, err, "update bill")
		return
	}
	h.notifyFinalized(result.Bill)
	respond(w, http.StatusOK, envelope{"bill": toBillResultResponse(result)})
}

func (h *BillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	if err := h.svc.DeleteBill(r.Context(), id); err != nil {
		respondServiceError(w, err, "delete bill")
		return
	}
	respond(w, http.StatusOK, envelope{"message": "bill deleted"})
}

func (h *BillHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.svc.AddPayment(r.Context(), id, *payload.toRequest())
	if err != nil {
		respondServiceError(w, err, "add payment")
		return
	}
	h.notifyFinalized(*bill)
	respond(w, http.StatusOK, envelope{"bill": toBillResponse(*bill)})
}
