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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tandoor-pos/api/internal/database"
)

// MenuStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	RetireMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItemVariations(ctx context.Context, menuItemID uuid.UUID) ([]database.MenuItemVariationRow, error)
	CreateMenuItemVariation(ctx context.Context, arg database.CreateMenuItemVariationParams) error
	DeleteMenuItemVariations(ctx context.Context, menuItemID uuid.UUID) error
	ListMenuItemAddons(ctx context.Context, menuItemID uuid.UUID) ([]database.MenuItemAddonRow, error)
	CreateMenuItemAddon(ctx context.Context, arg database.CreateMenuItemAddonParams) error
	DeleteMenuItemAddons(ctx context.Context, menuItemID uuid.UUID) error
}

// MenuHandler handles menu item CRUD with variation and addon links.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(writes).Delete("/{id}", h.Delete)
}

type menuVariationRequest struct {
	VariationID string `json:"variation_id"`
	ExtraPrice  string `json:"extra_price"`
}

type menuItemRequest struct {
	Name        string                 `json:"name"`
	CategoryID  string                 `json:"category_id"`
	Description string                 `json:"description"`
	BasePrice   string                 `json:"base_price"`
	ImageURL    string                 `json:"image_url"`
	IsVeg       bool                   `json:"is_veg"`
	Available   bool                   `json:"available"`
	Variations  []menuVariationRequest `json:"variations"`
	AddonIDs    []string               `json:"addon_ids"`
}

type menuVariationResponse struct {
	VariationID uuid.UUID `json:"variation_id"`
	Name        string    `json:"name"`
	ExtraPrice  string    `json:"extra_price"`
}

type menuAddonResponse struct {
	AddonID uuid.UUID `json:"addon_id"`
	Name    string    `json:"name"`
	Price   string    `json:"price"`
}

type menuItemResponse struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	CategoryID  uuid.UUID               `json:"category_id"`
	Description *string                 `json:"description"`
	BasePrice   string                  `json:"base_price"`
	ImageURL    *string                 `json:"image_url"`
	IsVeg       bool                    `json:"is_veg"`
	Available   bool                    `json:"available"`
	Variations  []menuVariationResponse `json:"variations,omitempty"`
	Addons      []menuAddonResponse     `json:"addons,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		CategoryID:  m.CategoryID,
		Description: textPtr(m.Description),
		BasePrice:   numericString(m.BasePrice),
		ImageURL:    textPtr(m.ImageUrl),
		IsVeg:       m.IsVeg,
		Available:   m.Available,
		CreatedAt:   m.CreatedAt,
	}
}

// attachLinks loads the item's variation and addon links onto the
// response.
func (h *MenuHandler) attachLinks(ctx context.Context, resp *menuItemResponse) error {
	variations, err := h.store.ListMenuItemVariations(ctx, resp.ID)
	if err != nil {
		return err
	}
	for _, v := range variations {
		resp.Variations = append(resp.Variations, menuVariationResponse{
			VariationID: v.VariationID,
			Name:        v.VariationName,
			ExtraPrice:  numericString(v.ExtraPrice),
		})
	}

	addons, err := h.store.ListMenuItemAddons(ctx, resp.ID)
	if err != nil {
		return err
	}
	for _, a := range addons {
		resp.Addons = append(resp.Addons, menuAddonResponse{
			AddonID: a.AddonID,
			Name:    a.AddonName,
			Price:   numericString(a.Price),
		})
	}
	return nil
}

// parseMenuItemRequest validates the request and converts it to create
// params. Returns a message on validation failure.
func parseMenuItemRequest(req menuItemRequest) (database.CreateMenuItemParams, string) {
	var params database.CreateMenuItemParams
	if req.Name == "" {
		return params, "name is required"
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return params, "invalid category_id"
	}
	basePrice, ok := parseMoney(req.BasePrice)
	if !ok {
		return params, "invalid base_price"
	}

	params = database.CreateMenuItemParams{
		Name:        req.Name,
		CategoryID:  categoryID,
		Description: textFrom(req.Description),
		BasePrice:   basePrice,
		ImageUrl:    textFrom(req.ImageURL),
		IsVeg:       req.IsVeg,
		Available:   req.Available,
	}
	return params, ""
}

// writeLinks replaces the item's variation and addon links.
func (h *MenuHandler) writeLinks(ctx context.Context, menuItemID uuid.UUID, req menuItemRequest) error {
	if err := h.store.DeleteMenuItemVariations(ctx, menuItemID); err != nil {
		return err
	}
	if err := h.store.DeleteMenuItemAddons(ctx, menuItemID); err != nil {
		return err
	}
	for _, v := range req.Variations {
		vid, err := uuid.Parse(v.VariationID)
		if err != nil {
			return errBadLink
		}
		extra, ok := parseMoney(v.ExtraPrice)
		if !ok {
			return errBadLink
		}
		err = h.store.CreateMenuItemVariation(ctx, database.CreateMenuItemVariationParams{
			MenuItemID:  menuItemID,
			VariationID: vid,
			ExtraPrice:  extra,
		})
		if err != nil {
			return err
		}
	}
	for _, addonID := range req.AddonIDs {
		aid, err := uuid.Parse(addonID)
		if err != nil {
			return errBadLink
		}
		err = h.store.CreateMenuItemAddon(ctx, database.CreateMenuItemAddonParams{
			MenuItemID: menuItemID,
			AddonID:    aid,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

var errBadLink = errors.New("invalid variation or addon reference")

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID pgtype.UUID
	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = pgtype.UUID{Bytes: id, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), database.ListMenuItemsParams{CategoryID: categoryID})
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	respond(w, http.StatusOK, envelope{"items": resp})
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toMenuItemResponse(item)
	if err := h.attachLinks(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load menu item links: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"item": resp})
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, msg := parseMenuItemRequest(req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.writeLinks(r.Context(), item.ID, req); err != nil {
		if errors.Is(err, errBadLink) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: write menu item links: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toMenuItemResponse(item)
	if err := h.attachLinks(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load menu item links: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"item": resp})
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, msg := parseMenuItemRequest(req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        params.Name,
		CategoryID:  params.CategoryID,
		Description: params.Description,
		BasePrice:   params.BasePrice,
		ImageUrl:    params.ImageUrl,
		IsVeg:       params.IsVeg,
		Available:   params.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.writeLinks(r.Context(), item.ID, req); err != nil {
		if errors.Is(err, errBadLink) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: write menu item links: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toMenuItemResponse(item)
	if err := h.attachLinks(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load menu item links: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"item": resp})
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	if _, err := h.store.RetireMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: retire menu item: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"message": "menu item retired"})
}
