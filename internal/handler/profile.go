package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tandoor-pos/api/internal/database"
)

// ProfileStore defines the database methods needed by the restaurant
// profile handler. Satisfied by *database.Queries.
type ProfileStore interface {
	GetRestaurantProfile(ctx context.Context) (database.RestaurantProfile, error)
	UpdateRestaurantProfile(ctx context.Context, arg database.UpdateRestaurantProfileParams) (database.RestaurantProfile, error)
}

// ProfileHandler serves the single restaurant profile row: identity,
// tax rate and support/subscription details.
type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/me", h.Get)
	r.With(writes).Put("/me", h.Update)
}

type profileRequest struct {
	Name              string `json:"name"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Gstin             string `json:"gstin"`
	TaxRate           string `json:"tax_rate"`
	Currency          string `json:"currency"`
	SupportPlan       string `json:"support_plan"`
	SupportTier       string `json:"support_tier"`
	LicenseKey        string `json:"license_key"`
	SubscriptionStart string `json:"subscription_start"`
	SubscriptionEnd   string `json:"subscription_end"`
	PaymentStatus     string `json:"payment_status"`
}

type profileResponse struct {
	Name              string     `json:"name"`
	Address           *string    `json:"address"`
	Phone             *string    `json:"phone"`
	Email             *string    `json:"email"`
	Gstin             *string    `json:"gstin"`
	TaxRate           string     `json:"tax_rate"`
	Currency          string     `json:"currency"`
	SupportPlan       *string    `json:"support_plan"`
	SupportTier       *string    `json:"support_tier"`
	LicenseKey        *string    `json:"license_key"`
	SubscriptionStart *time.Time `json:"subscription_start"`
	SubscriptionEnd   *time.Time `json:"subscription_end"`
	PaymentStatus     *string    `json:"payment_status"`
}

func toProfileResponse(p database.RestaurantProfile) profileResponse {
	return profileResponse{
		Name:              p.Name,
		Address:           textPtr(p.Address),
		Phone:             textPtr(p.Phone),
		Email:             textPtr(p.Email),
		Gstin:             textPtr(p.Gstin),
		TaxRate:           numericString(p.TaxRate),
		Currency:          p.Currency,
		SupportPlan:       textPtr(p.SupportPlan),
		SupportTier:       textPtr(p.SupportTier),
		LicenseKey:        textPtr(p.LicenseKey),
		SubscriptionStart: timePtr(p.SubscriptionStart),
		SubscriptionEnd:   timePtr(p.SubscriptionEnd),
		PaymentStatus:     textPtr(p.PaymentStatus),
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetRestaurantProfile(r.Context())
	if err != nil {
		log.Printf("ERROR: get restaurant profile: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, envelope{"restaurant": toProfileResponse(profile)})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}
	taxRate, ok := parseMoney(req.TaxRate)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tax_rate")
		return
	}
	// Tax rate is a percentage, not a price.
	if d, err := decimal.NewFromString(req.TaxRate); req.TaxRate != "" && err == nil && d.GreaterThan(decimal.NewFromInt(100)) {
		respondError(w, http.StatusBadRequest, "tax_rate must be between 0 and 100")
		return
	}

	var subStart, subEnd pgtype.Timestamptz
	if req.SubscriptionStart != "" {
		t, err := time.Parse("2006-01-02", req.SubscriptionStart)
		if err != nil {
			respondError(w, http.StatusBadRequest, "subscription_start must be YYYY-MM-DD")
			return
		}
		subStart = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if req.SubscriptionEnd != "" {
		t, err := time.Parse("2006-01-02", req.SubscriptionEnd)
		if err != nil {
			respondError(w, http.StatusBadRequest, "subscription_end must be YYYY-MM-DD")
			return
		}
		subEnd = pgtype.Timestamptz{Time: t, Valid: true}
	}

	profile, err := h.store.UpdateRestaurantProfile(r.Context(), database.UpdateRestaurantProfileParams{
		Name:              req.Name,
		Address:           textFrom(req.Address),
		Phone:             textFrom(req.Phone),
		Email:             textFrom(req.Email),
		Gstin:             textFrom(req.Gstin),
		TaxRate:           taxRate,
		Currency:          req.Currency,
		SupportPlan:       textFrom(req.SupportPlan),
		SupportTier:       textFrom(req.SupportTier),
		LicenseKey:        textFrom(req.LicenseKey),
		SubscriptionStart: subStart,
		SubscriptionEnd:   subEnd,
		PaymentStatus:     textFrom(req.PaymentStatus),
	})
	if err != nil {
		log.Printf("ERROR: update restaurant profile: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, envelope{"restaurant": toProfileResponse(profile)})
}
