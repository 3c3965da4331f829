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
	"github.com/tandoor-pos/api/internal/enum"
)

// CategoryStore defines the database methods needed by category
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	RetireCategory(ctx context.Context, id uuid.UUID) (database.Category, error)
}

// CategoryHandler handles category CRUD endpoints. Each category type
// maps to a stock illustration the POS client shows on its tiles.
type CategoryHandler struct {
	store  CategoryStore
	images map[string]string
}

// NewCategoryHandler creates a new CategoryHandler. images maps
// category types to image URLs and is fixed at startup.
func NewCategoryHandler(store CategoryStore, images map[string]string) *CategoryHandler {
	return &CategoryHandler{store: store, images: images}
}

// DefaultCategoryImages is the built-in category type to image map.
func DefaultCategoryImages() map[string]string {
	return map[string]string{
		enum.CategoryTypeFood:     "/assets/categories/food.png",
		enum.CategoryTypeBeverage: "/assets/categories/beverage.png",
	}
}

// RegisterRoutes registers category CRUD endpoints. Writes are gated
// to ADMIN and MANAGER in the router.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(writes).Delete("/{id}", h.Delete)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	SortOrder   int32  `json:"sort_order"`
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	SortOrder   int32     `json:"sort_order"`
	ImageUrl    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *CategoryHandler) toCategoryResponse(c database.Category) categoryResponse {
	resp := categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Description: textPtr(c.Description),
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
	}
	if url, ok := h.images[c.Type]; ok {
		resp.ImageUrl = &url
	}
	return resp
}

func (r categoryRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	switch r.Type {
	case enum.CategoryTypeFood, enum.CategoryTypeBeverage:
	default:
		return "type must be FOOD or BEVERAGE"
	}
	return ""
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = h.toCategoryResponse(c)
	}
	respond(w, http.StatusOK, envelope{"categories": resp})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	category, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("ERROR: get category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"category": h.toCategoryResponse(category)})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:        req.Name,
		Type:        req.Type,
		Description: textFrom(req.Description),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"category": h.toCategoryResponse(category)})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Description: textFrom(req.Description),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("ERROR: update category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"category": h.toCategoryResponse(category)})
}

// Delete retires a category; menu items keep their reference so
// historical bills stay intact.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	if _, err := h.store.RetireCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("ERROR: retire category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"message": "category retired"})
}
