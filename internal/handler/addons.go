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

// AddonStore defines the database methods needed by addon handlers.
// Satisfied by *database.Queries.
type AddonStore interface {
	ListAddons(ctx context.Context) ([]database.Addon, error)
	GetAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
	CreateAddon(ctx context.Context, arg database.CreateAddonParams) (database.Addon, error)
	UpdateAddon(ctx context.Context, arg database.UpdateAddonParams) (database.Addon, error)
	RetireAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
}

// AddonHandler handles addon CRUD endpoints.
type AddonHandler struct {
	store AddonStore
}

func NewAddonHandler(store AddonStore) *AddonHandler {
	return &AddonHandler{store: store}
}

func (h *AddonHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(writes).Delete("/{id}", h.Delete)
}

type addonRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type addonResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func toAddonResponse(a database.Addon) addonResponse {
	return addonResponse{
		ID:        a.ID,
		Name:      a.Name,
		Price:     numericString(a.Price),
		CreatedAt: a.CreatedAt,
	}
}

func (h *AddonHandler) List(w http.ResponseWriter, r *http.Request) {
	addons, err := h.store.ListAddons(r.Context())
	if err != nil {
		log.Printf("ERROR: list addons: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]addonResponse, len(addons))
	for i, a := range addons {
		resp[i] = toAddonResponse(a)
	}
	respond(w, http.StatusOK, envelope{"addons": resp})
}

func (h *AddonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	price, ok := parseMoney(req.Price)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}

	addon, err := h.store.CreateAddon(r.Context(), database.CreateAddonParams{
		Name:  req.Name,
		Price: price,
	})
	if err != nil {
		log.Printf("ERROR: create addon: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"addon": toAddonResponse(addon)})
}

func (h *AddonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid addon ID")
		return
	}

	var req addonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	price, ok := parseMoney(req.Price)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}

	addon, err := h.store.UpdateAddon(r.Context(), database.UpdateAddonParams{
		ID:    id,
		Name:  req.Name,
		Price: price,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "addon not found")
			return
		}
		log.Printf("ERROR: update addon: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"addon": toAddonResponse(addon)})
}

func (h *AddonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid addon ID")
		return
	}

	if _, err := h.store.RetireAddon(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "addon not found")
			return
		}
		log.Printf("ERROR: retire addon: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"message": "addon retired"})
}
