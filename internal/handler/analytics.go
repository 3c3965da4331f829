package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tandoor-pos/api/internal/database"
)

// AnalyticsStore defines the database methods needed by the analytics
// handler. Satisfied by *database.Queries.
type AnalyticsStore interface {
	GetSalesSummary(ctx context.Context, arg database.SalesSummaryParams) (database.SalesSummaryRow, error)
	ListTopMenuItems(ctx context.Context, arg database.TopMenuItemsParams) ([]database.TopMenuItemRow, error)
	ListLowStockItems(ctx context.Context) ([]database.StockLevelRow, error)
}

// AnalyticsHandler serves the daily operations summary: sales totals,
// best sellers and items at or below reorder level.
type AnalyticsHandler struct {
	store AnalyticsStore
}

func NewAnalyticsHandler(store AnalyticsStore) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
}

type salesSummaryResponse struct {
	BillCount    int64  `json:"bill_count"`
	GrossSales   string `json:"gross_sales"`
	TaxCollected string `json:"tax_collected"`
	Discounts    string `json:"discounts"`
	CashTaken    string `json:"cash_taken"`
	CardTaken    string `json:"card_taken"`
	UpiTaken     string `json:"upi_taken"`
	Outstanding  string `json:"outstanding"`
}

type topItemResponse struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Name         string    `json:"name"`
	QuantitySold int64     `json:"quantity_sold"`
	Revenue      string    `json:"revenue"`
}

type lowStockResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	OnHand       string    `json:"on_hand"`
	ReorderLevel string    `json:"reorder_level"`
}

// summaryWindow parses since/until query params, defaulting to the
// current day in the server's timezone.
func summaryWindow(r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	until := since.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return since, until, false
		}
		since = t
	}
	if s := r.URL.Query().Get("until"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return since, until, false
		}
		until = t.AddDate(0, 0, 1)
	}
	return since, until, true
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	since, until, ok := summaryWindow(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "since and until must be YYYY-MM-DD")
		return
	}

	window := database.SalesSummaryParams{
		Since: pgtype.Timestamptz{Time: since, Valid: true},
		Until: pgtype.Timestamptz{Time: until, Valid: true},
	}

	summary, err := h.store.GetSalesSummary(r.Context(), window)
	if err != nil {
		log.Printf("ERROR: sales summary: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	topRows, err := h.store.ListTopMenuItems(r.Context(), database.TopMenuItemsParams{
		Since: window.Since,
		Until: window.Until,
		Limit: 10,
	})
	if err != nil {
		log.Printf("ERROR: top menu items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	lowRows, err := h.store.ListLowStockItems(r.Context())
	if err != nil {
		log.Printf("ERROR: low stock items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	topItems := make([]topItemResponse, len(topRows))
	for i, row := range topRows {
		topItems[i] = topItemResponse{
			MenuItemID:   row.MenuItemID,
			Name:         row.ItemName,
			QuantitySold: row.QuantitySold,
			Revenue:      numericString(row.Revenue),
		}
	}

	lowStock := make([]lowStockResponse, len(lowRows))
	for i, row := range lowRows {
		lowStock[i] = lowStockResponse{
			ID:           row.ID,
			Name:         row.Name,
			Unit:         row.Unit,
			OnHand:       numericString(row.OnHand),
			ReorderLevel: numericString(row.ReorderLevel),
		}
	}

	respond(w, http.StatusOK, envelope{
		"sales": salesSummaryResponse{
			BillCount:    summary.BillCount,
			GrossSales:   numericString(summary.GrossSales),
			TaxCollected: numericString(summary.TaxCollected),
			Discounts:    numericString(summary.Discounts),
			CashTaken:    numericString(summary.CashTaken),
			CardTaken:    numericString(summary.CardTaken),
			UpiTaken:     numericString(summary.UpiTaken),
			Outstanding:  numericString(summary.Outstanding),
		},
		"top_items": topItems,
		"low_stock": lowStock,
		"since":     since.Format("2006-01-02"),
		"until":     until.AddDate(0, 0, -1).Format("2006-01-02"),
	})
}
