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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/middleware"
	"github.com/tandoor-pos/api/internal/stock"
)

// InventoryStore defines the database methods needed by inventory
// handlers. Satisfied by *database.Queries.
type InventoryStore interface {
	ListStockItems(ctx context.Context, arg database.ListStockItemsParams) ([]database.StockItem, error)
	CountStockItems(ctx context.Context, search pgtype.Text) (int64, error)
	GetStockItem(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	CreateStockItem(ctx context.Context, arg database.CreateStockItemParams) (database.StockItem, error)
	UpdateStockItem(ctx context.Context, arg database.UpdateStockItemParams) (database.StockItem, error)
	RetireStockItem(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	ListBatchesByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]database.StockBatch, error)
	CreateStockBatch(ctx context.Context, arg database.CreateStockBatchParams) (database.StockBatch, error)
	CreateWastageEntry(ctx context.Context, arg database.CreateWastageEntryParams) (database.WastageEntry, error)
	ListWastageByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]database.WastageEntry, error)
}

// InventoryHandler handles stock item CRUD, batch receipts and the
// wastage log.
type InventoryHandler struct {
	store InventoryStore
}

func NewInventoryHandler(store InventoryStore) *InventoryHandler {
	return &InventoryHandler{store: store}
}

// RegisterRoutes mounts the inventory routes. Mutations go through the
// writes middleware except Delete, which the router gates separately.
func (h *InventoryHandler) RegisterRoutes(r chi.Router, writes, deletes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(deletes).Delete("/{id}", h.Delete)
	r.With(writes).Post("/{id}/batches", h.AddBatch)
	r.With(writes).Post("/{id}/wastage", h.RecordWastage)
	r.Get("/{id}/wastage", h.ListWastage)
}

type stockItemRequest struct {
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	ReorderLevel string `json:"reorder_level"`
	Storage      string `json:"storage"`
	Supplier     string `json:"supplier"`
}

type batchResponse struct {
	ID           uuid.UUID  `json:"id"`
	BatchNumber  string     `json:"batch_number"`
	Quantity     string     `json:"quantity"`
	Cost         string     `json:"cost"`
	PurchaseDate time.Time  `json:"purchase_date"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	SyncStatus   string     `json:"sync_status"`
}

type stockItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	ReorderLevel string          `json:"reorder_level"`
	Storage      *string         `json:"storage"`
	Supplier     *string         `json:"supplier"`
	OnHand       string          `json:"on_hand"`
	Batches      []batchResponse `json:"batches,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toStockItemResponse(s database.StockItem) stockItemResponse {
	return stockItemResponse{
		ID:           s.ID,
		Name:         s.Name,
		Unit:         s.Unit,
		ReorderLevel: numericString(s.ReorderLevel),
		Storage:      textPtr(s.Storage),
		Supplier:     textPtr(s.Supplier),
		OnHand:       "0",
		CreatedAt:    s.CreatedAt,
	}
}

// attachBatches loads the item's batches and computes on-hand as their
// sum, all in the item's canonical unit.
func (h *InventoryHandler) attachBatches(ctx context.Context, resp *stockItemResponse) error {
	rows, err := h.store.ListBatchesByStockItem(ctx, resp.ID)
	if err != nil {
		return err
	}
	batches := make([]stock.Batch, len(rows))
	for i, b := range rows {
		batches[i] = stock.Batch{ID: b.ID, Quantity: numericDecimal(b.Quantity)}
		resp.Batches = append(resp.Batches, batchResponse{
			ID:           b.ID,
			BatchNumber:  b.BatchNumber,
			Quantity:     numericString(b.Quantity),
			Cost:         numericString(b.Cost),
			PurchaseDate: b.PurchaseDate,
			ExpiryDate:   timePtr(b.ExpiryDate),
			SyncStatus:   b.SyncStatus,
		})
	}
	resp.OnHand = stock.TotalOnHand(batches).StringFixed(3)
	return nil
}

func validateStorage(s string) bool {
	switch s {
	case "", "DRY", "CHILLED", "FROZEN":
		return true
	}
	return false
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
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
	search := textFrom(q.Get("search"))

	items, err := h.store.ListStockItems(r.Context(), database.ListStockItemsParams{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list stock items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountStockItems(r.Context(), search)
	if err != nil {
		log.Printf("ERROR: count stock items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]stockItemResponse, len(items))
	for i, s := range items {
		resp[i] = toStockItemResponse(s)
		if err := h.attachBatches(r.Context(), &resp[i]); err != nil {
			log.Printf("ERROR: load batches: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp[i].Batches = nil
	}
	respond(w, http.StatusOK, envelope{"items": resp, "total": total})
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	item, err := h.store.GetStockItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "stock item not found")
			return
		}
		log.Printf("ERROR: get stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toStockItemResponse(item)
	if err := h.attachBatches(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load batches: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, envelope{"item": resp})
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req stockItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Unit == "" {
		respondError(w, http.StatusBadRequest, "name and unit are required")
		return
	}
	if !validateStorage(req.Storage) {
		respondError(w, http.StatusBadRequest, "storage must be DRY, CHILLED or FROZEN")
		return
	}
	reorderLevel, ok := parseQuantityOrZero(req.ReorderLevel)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid reorder_level")
		return
	}

	item, err := h.store.CreateStockItem(r.Context(), database.CreateStockItemParams{
		Name:         req.Name,
		Unit:         req.Unit,
		ReorderLevel: reorderLevel,
		Storage:      textFrom(req.Storage),
		Supplier:     textFrom(req.Supplier),
	})
	if err != nil {
		log.Printf("ERROR: create stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusCreated, envelope{"item": toStockItemResponse(item)})
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	var req stockItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Unit == "" {
		respondError(w, http.StatusBadRequest, "name and unit are required")
		return
	}
	if !validateStorage(req.Storage) {
		respondError(w, http.StatusBadRequest, "storage must be DRY, CHILLED or FROZEN")
		return
	}
	reorderLevel, ok := parseQuantityOrZero(req.ReorderLevel)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid reorder_level")
		return
	}

	item, err := h.store.UpdateStockItem(r.Context(), database.UpdateStockItemParams{
		ID:           id,
		Name:         req.Name,
		Unit:         req.Unit,
		ReorderLevel: reorderLevel,
		Storage:      textFrom(req.Storage),
		Supplier:     textFrom(req.Supplier),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "stock item not found")
			return
		}
		log.Printf("ERROR: update stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, envelope{"item": toStockItemResponse(item)})
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	if _, err := h.store.RetireStockItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "stock item not found")
			return
		}
		log.Printf("ERROR: retire stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, envelope{"message": "stock item retired"})
}

type batchRequest struct {
	BatchNumber  string `json:"batch_number"`
	Quantity     string `json:"quantity"`
	Cost         string `json:"cost"`
	PurchaseDate string `json:"purchase_date"`
	ExpiryDate   string `json:"expiry_date"`
}

// newBatchNumber derives a receipt identifier from the wall clock:
// BATCH-<dd-mm-yyyy>-<hh-mm-ss>.
func newBatchNumber(now time.Time) string {
	return "BATCH-" + now.Format("02-01-2006") + "-" + now.Format("15-04-05")
}

// AddBatch records a stock receipt as a new batch. Quantity is in the
// item's canonical unit.
func (h *InventoryHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quantity, ok := parseQuantity(req.Quantity)
	if !ok {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	cost, ok := parseMoney(req.Cost)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid cost")
		return
	}
	now := time.Now().UTC()
	purchaseDate := now
	if req.PurchaseDate != "" {
		purchaseDate, err = time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "purchase_date must be YYYY-MM-DD")
			return
		}
	}
	var expiryDate pgtype.Timestamptz
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expiry_date must be YYYY-MM-DD")
			return
		}
		expiryDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	batchNumber := req.BatchNumber
	if batchNumber == "" {
		batchNumber = newBatchNumber(now)
	}

	if _, err := h.store.GetStockItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "stock item not found")
			return
		}
		log.Printf("ERROR: get stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	batch, err := h.store.CreateStockBatch(r.Context(), database.CreateStockBatchParams{
		StockItemID:  id,
		BatchNumber:  batchNumber,
		Quantity:     quantity,
		Cost:         cost,
		PurchaseDate: purchaseDate,
		ExpiryDate:   expiryDate,
		SyncStatus:   enum.SyncStatusSynced,
	})
	if err != nil {
		log.Printf("ERROR: create batch: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"batch": batchResponse{
		ID:           batch.ID,
		BatchNumber:  batch.BatchNumber,
		Quantity:     numericString(batch.Quantity),
		Cost:         numericString(batch.Cost),
		PurchaseDate: batch.PurchaseDate,
		ExpiryDate:   timePtr(batch.ExpiryDate),
		SyncStatus:   batch.SyncStatus,
	}})
}

type wastageRequest struct {
	Quantity string `json:"quantity"`
	Reason   string `json:"reason"`
}

type wastageResponse struct {
	ID        uuid.UUID `json:"id"`
	Quantity  string    `json:"quantity"`
	Unit      string    `json:"unit"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordWastage appends a wastage log entry for the item. Entries are
// an audit trail; batch corrections are made through receipts.
func (h *InventoryHandler) RecordWastage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	var req wastageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quantity, ok := parseQuantity(req.Quantity)
	if !ok {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	item, err := h.store.GetStockItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "stock item not found")
			return
		}
		log.Printf("ERROR: get stock item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var recordedBy pgtype.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		recordedBy = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}

	entry, err := h.store.CreateWastageEntry(r.Context(), database.CreateWastageEntryParams{
		StockItemID: id,
		Quantity:    quantity,
		Unit:        item.Unit,
		Reason:      textFrom(req.Reason),
		RecordedBy:  recordedBy,
	})
	if err != nil {
		log.Printf("ERROR: create wastage entry: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"wastage": wastageResponse{
		ID:        entry.ID,
		Quantity:  numericString(entry.Quantity),
		Unit:      entry.Unit,
		Reason:    textPtr(entry.Reason),
		CreatedAt: entry.CreatedAt,
	}})
}

func (h *InventoryHandler) ListWastage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stock item ID")
		return
	}

	entries, err := h.store.ListWastageByStockItem(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list wastage: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]wastageResponse, len(entries))
	for i, e := range entries {
		resp[i] = wastageResponse{
			ID:        e.ID,
			Quantity:  numericString(e.Quantity),
			Unit:      e.Unit,
			Reason:    textPtr(e.Reason),
			CreatedAt: e.CreatedAt,
		}
	}
	respond(w, http.StatusOK, envelope{"wastage": resp})
}
