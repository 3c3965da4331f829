package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tandoor-pos/api/internal/database"
)

// VariationStore defines the database methods needed by variation
// handlers. Satisfied by *database.Queries.
type VariationStore interface {
	ListVariations(ctx context.Context) ([]database.Variation, error)
	CreateVariation(ctx context.Context, name string) (database.Variation, error)
	UpdateVariation(ctx context.Context, arg database.UpdateVariationParams) (database.Variation, error)
	RetireVariation(ctx context.Context, id uuid.UUID) (database.Variation, error)
}

// VariationHandler handles variation CRUD endpoints. Variations are
// plain labels (Half, Full, Large); per-item pricing lives on the menu
// item link.
type VariationHandler struct {
	store VariationStore
}

func NewVariationHandler(store VariationStore) *VariationHandler {
	return &VariationHandler{store: store}
}

func (h *VariationHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(writes).Delete("/{id}", h.Delete)
}

type variationRequest struct {
	Name string `json:"name"`
}

type variationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toVariationResponse(v database.Variation) variationResponse {
	return variationResponse{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAt}
}

func (h *VariationHandler) List(w http.ResponseWriter, r *http.Request) {
	variations, err := h.store.ListVariations(r.Context())
	if err != nil {
		log.Printf("ERROR: list variations: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]variationResponse, len(variations))
	for i, v := range variations {
		resp[i] = toVariationResponse(v)
	}
	respond(w, http.StatusOK, envelope{"variations": resp})
}

func (h *VariationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req variationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	variation, err := h.store.CreateVariation(r.Context(), req.Name)
	if err != nil {
		log.Printf("ERROR: create variation: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"variation": toVariationResponse(variation)})
}

func (h *VariationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid variation ID")
		return
	}

	var req variationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	variation, err := h.store.UpdateVariation(r.Context(), database.UpdateVariationParams{ID: id, Name: req.Name})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "variation not found")
			return
		}
		log.Printf("ERROR: update variation: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"variation": toVariationResponse(variation)})
}

func (h *VariationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid variation ID")
		return
	}

	if _, err := h.store.RetireVariation(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "variation not found")
			return
		}
		log.Printf("ERROR: retire variation: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"message": "variation retired"})
}
