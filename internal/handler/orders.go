package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
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

// OrderReadStore is the query surface for listing and fetching orders.
// Satisfied by *database.Queries.
type OrderReadStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CountOrders(ctx context.Context, status pgtype.Text) (int64, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	ListOrderLineAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineAddon, error)
}

// Notifier pushes realtime events to connected POS terminals.
type Notifier interface {
	Publish(event string, payload interface{})
}

// OrderHandler handles running-order capture, bill generation, and
// offline sync.
type OrderHandler struct {
	svc      *service.OrderService
	store    OrderReadStore
	notifier Notifier
}

func NewOrderHandler(svc *service.OrderService, store OrderReadStore, notifier Notifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/save", h.Save)
	r.Get("/running", h.Running)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/generate-bill", h.GenerateBill)
	r.Post("/sync", h.Sync)
}

type cartLinePayload struct {
	MenuItemID  string   `json:"menu_item_id"`
	VariationID string   `json:"variation_id"`
	Quantity    int32    `json:"quantity"`
	AddonIDs    []string `json:"addon_ids"`
	Notes       string   `json:"notes"`
}

func (p cartLinePayload) toRequest() service.CartLineRequest {
	return service.CartLineRequest{
		MenuItemID:  p.MenuItemID,
		VariationID: p.VariationID,
		Quantity:    p.Quantity,
		AddonIDs:    p.AddonIDs,
		Notes:       p.Notes,
	}
}

type paymentPayload struct {
	Mode string `json:"mode"`
	Cash string `json:"cash"`
	Card string `json:"card"`
	Upi  string `json:"upi"`
}

func (p *paymentPayload) toRequest() *service.PaymentRequest {
	if p == nil {
		return nil
	}
	return &service.PaymentRequest{Mode: p.Mode, Cash: p.Cash, Card: p.Card, Upi: p.Upi}
}

type saveOrderPayload struct {
	OrderType   string            `json:"order_type"`
	TableNumber string            `json:"table_number"`
	StewardID   string            `json:"steward_id"`
	StewardName string            `json:"steward_name"`
	KotCount    int32             `json:"kot_count"`
	Items       []cartLinePayload `json:"items"`
	Discount    string            `json:"discount"`
	Notes       string            `json:"notes"`
	Offline     bool              `json:"offline"`
	ClientRef   string            `json:"client_ref"`
}

var errInvalidStewardID = errors.New("invalid steward_id")

func (p saveOrderPayload) toRequest(createdBy uuid.UUID) (service.SaveOrderRequest, error) {
	var stewardID pgtype.UUID
	if p.StewardID != "" {
		id, err := uuid.Parse(p.StewardID)
		if err != nil {
			return service.SaveOrderRequest{}, errInvalidStewardID
		}
		stewardID = pgtype.UUID{Bytes: id, Valid: true}
	}
	items := make([]service.CartLineRequest, len(p.Items))
	for i, line := range p.Items {
		items[i] = line.toRequest()
	}
	return service.SaveOrderRequest{
		OrderType:   p.OrderType,
		TableNumber: p.TableNumber,
		StewardID:   stewardID,
		StewardName: p.StewardName,
		KotCount:    p.KotCount,
		Items:       items,
		Discount:    p.Discount,
		Notes:       p.Notes,
		Offline:     p.Offline,
		ClientRef:   p.ClientRef,
		CreatedBy:   createdBy,
	}, nil
}

type orderLineResponse struct {
	ID            uuid.UUID           `json:"id"`
	MenuItemID    uuid.UUID           `json:"menu_item_id"`
	ItemName      string              `json:"item_name"`
	VariationName *string             `json:"variation_name"`
	UnitPrice     string              `json:"unit_price"`
	Quantity      int32               `json:"quantity"`
	LineTotal     string              `json:"line_total"`
	Notes         *string             `json:"notes"`
	Addons        []menuAddonResponse `json:"addons,omitempty"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	OrderType    string              `json:"order_type"`
	TableNumber  *string             `json:"table_number"`
	StewardID    *uuid.UUID          `json:"steward_id"`
	StewardName  *string             `json:"steward_name"`
	Status       string              `json:"status"`
	Subtotal     string              `json:"subtotal"`
	TaxAmount    string              `json:"tax_amount"`
	Discount     string              `json:"discount"`
	Total        string              `json:"total"`
	KotCount     int32               `json:"kot_count"`
	BillID       *uuid.UUID          `json:"bill_id"`
	PaymentMode  *string             `json:"payment_mode"`
	PaidCash     string              `json:"paid_cash"`
	PaidCard     string              `json:"paid_card"`
	PaidUpi      string              `json:"paid_upi"`
	TotalPaid    string              `json:"total_paid"`
	ReturnAmount string              `json:"return_amount"`
	SyncStatus   string              `json:"sync_status"`
	ClientRef    *string             `json:"client_ref"`
	Notes        *string             `json:"notes"`
	Lines        []orderLineResponse `json:"lines,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at"`
}

func toOrderLineResponse(line database.OrderLine, addons []database.OrderLineAddon) orderLineResponse {
	resp := orderLineResponse{
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
		if a.OrderLineID != line.ID {
			continue
		}
		resp.Addons = append(resp.Addons, menuAddonResponse{
			AddonID: a.AddonID,
			Name:    a.AddonName,
			Price:   numericString(a.Price),
		})
	}
	return resp
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		OrderType:    o.OrderType,
		TableNumber:  textPtr(o.TableNumber),
		StewardName:  textPtr(o.StewardName),
		Status:       o.Status,
		Subtotal:     numericString(o.Subtotal),
		TaxAmount:    numericString(o.TaxAmount),
		Discount:     numericString(o.Discount),
		Total:        numericString(o.Total),
		KotCount:     o.KotCount,
		PaymentMode:  textPtr(o.PaymentMode),
		PaidCash:     numericString(o.PaidCash),
		PaidCard:     numericString(o.PaidCard),
		PaidUpi:      numericString(o.PaidUpi),
		TotalPaid:    numericString(o.TotalPaid),
		ReturnAmount: numericString(o.ReturnAmount),
		SyncStatus:   o.SyncStatus,
		ClientRef:    textPtr(o.ClientRef),
		Notes:        textPtr(o.Notes),
		CreatedAt:    o.CreatedAt,
	}
	if o.StewardID.Valid {
		id := uuid.UUID(o.StewardID.Bytes)
		resp.StewardID = &id
	}
	if o.BillID.Valid {
		id := uuid.UUID(o.BillID.Bytes)
		resp.BillID = &id
	}
	if o.CompletedAt.Valid {
		t := o.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

func toOrderResultResponse(result *service.OrderResult) orderResponse {
	resp := toOrderResponse(result.Order)
	for _, line := range result.Lines {
		lr := toOrderLineResponse(line.Line, nil)
		for _, a := range line.Addons {
			lr.Addons = append(lr.Addons, menuAddonResponse{
				AddonID: a.AddonID,
				Name:    a.AddonName,
				Price:   numericString(a.Price),
			})
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

func (h *OrderHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload saveOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var createdBy uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID
	}

	req, err := payload.toRequest(createdBy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.SaveOrder(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "save order")
		return
	}
	respond(w, http.StatusCreated, envelope{"order": toOrderResultResponse(result)})
}

func (h *OrderHandler) Running(w http.ResponseWriter, r *http.Request) {
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

	status := textFrom(enum.OrderStatusRunning)
	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list running orders: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountOrders(r.Context(), status)
	if err != nil {
		log.Printf("ERROR: count running orders: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	respond(w, http.StatusOK, envelope{"orders": resp, "total": total})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, mapNoRows(err, service.ErrOrderNotFound), "get order")
		return
	}
	lines, err := h.store.ListOrderLines(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order lines: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	addons, err := h.store.ListOrderLineAddonsByOrder(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order addons: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toOrderResponse(order)
	for _, line := range lines {
		resp.Lines = append(resp.Lines, toOrderLineResponse(line, addons))
	}
	respond(w, http.StatusOK, envelope{"order": resp})
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "cancel order")
		return
	}
	respond(w, http.StatusOK, envelope{"order": toOrderResponse(*order)})
}

type generateBillPayload struct {
	ServiceCharge string          `json:"service_charge"`
	Payment       *paymentPayload `json:"payment"`
}

func (h *OrderHandler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var payload generateBillPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.GenerateBill(r.Context(), service.GenerateBillRequest{
		OrderID:       id,
		ServiceCharge: payload.ServiceCharge,
		Payment:       payload.Payment.toRequest(),
	})
	if err != nil {
		respondServiceError(w, err, "generate bill")
		return
	}

	if h.notifier != nil {
		h.notifier.Publish("order.completed", map[string]interface{}{
			"order_id":     result.Order.ID,
			"order_number": result.Order.OrderNumber,
			"bill_number":  result.Bill.Bill.BillNumber,
		})
	}

	respond(w, http.StatusOK, envelope{
		"order": toOrderResponse(result.Order),
		"bill":  toBillResultResponse(&result.Bill),
	})
}

type syncPayload struct {
	Orders []saveOrderPayload `json:"orders"`
}

type syncOutcomeResponse struct {
	ClientRef string         `json:"client_ref"`
	Synced    bool           `json:"synced"`
	Message   string         `json:"message,omitempty"`
	Order     *orderResponse `json:"order,omitempty"`
}

// Sync replays offline-captured orders, assigning permanent numbers.
// Each order succeeds or fails on its own.
func (h *OrderHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var payload syncPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Orders) == 0 {
		respondError(w, http.StatusBadRequest, "orders is required")
		return
	}

	var createdBy uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID
	}

	reqs := make([]service.SaveOrderRequest, len(payload.Orders))
	for i, p := range payload.Orders {
		req, err := p.toRequest(createdBy)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		reqs[i] = req
	}

	outcomes := h.svc.SyncOfflineOrders(r.Context(), reqs)
	resp := make([]syncOutcomeResponse, len(outcomes))
	for i, out := range outcomes {
		resp[i] = syncOutcomeResponse{ClientRef: out.ClientRef, Synced: out.Err == nil}
		if out.Err != nil {
			resp[i].Message = out.Err.Error()
			continue
		}
		order := toOrderResultResponse(out.Result)
		resp[i].Order = &order
	}
	respond(w, http.StatusOK, envelope{"results": resp})
}
