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

// RecipeStore defines the database methods needed by recipe handlers.
// Satisfied by *database.Queries.
type RecipeStore interface {
	ListRecipes(ctx context.Context) ([]database.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	CreateRecipe(ctx context.Context, arg database.CreateRecipeParams) (database.Recipe, error)
	RetireRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
	TouchRecipe(ctx context.Context, id uuid.UUID) error
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeIngredient, error)
	CreateRecipeIngredient(ctx context.Context, arg database.CreateRecipeIngredientParams) (database.RecipeIngredient, error)
	DeleteRecipeIngredients(ctx context.Context, recipeID uuid.UUID) error
}

// RecipeHandler handles recipe CRUD. A recipe maps a menu item (and
// optionally one of its variations) to the stock ingredients one
// serving consumes.
type RecipeHandler struct {
	store RecipeStore
}

func NewRecipeHandler(store RecipeStore) *RecipeHandler {
	return &RecipeHandler{store: store}
}

func (h *RecipeHandler) RegisterRoutes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(writes).Post("/", h.Create)
	r.With(writes).Put("/{id}", h.Update)
	r.With(writes).Delete("/{id}", h.Delete)
}

type recipeIngredientRequest struct {
	StockItemID string `json:"stock_item_id"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
}

type recipeRequest struct {
	Name        string                    `json:"name"`
	MenuItemID  string                    `json:"menu_item_id"`
	VariationID string                    `json:"variation_id"`
	Ingredients []recipeIngredientRequest `json:"ingredients"`
}

type recipeIngredientResponse struct {
	ID          uuid.UUID `json:"id"`
	StockItemID uuid.UUID `json:"stock_item_id"`
	Quantity    string    `json:"quantity"`
	Unit        string    `json:"unit"`
}

type recipeResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Name        string                     `json:"name"`
	MenuItemID  uuid.UUID                  `json:"menu_item_id"`
	VariationID *uuid.UUID                 `json:"variation_id"`
	Ingredients []recipeIngredientResponse `json:"ingredients,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

func toRecipeResponse(rec database.Recipe) recipeResponse {
	resp := recipeResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		MenuItemID: rec.MenuItemID,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	if rec.VariationID.Valid {
		id := uuid.UUID(rec.VariationID.Bytes)
		resp.VariationID = &id
	}
	return resp
}

func (h *RecipeHandler) attachIngredients(ctx context.Context, resp *recipeResponse) error {
	ingredients, err := h.store.ListRecipeIngredients(ctx, resp.ID)
	if err != nil {
		return err
	}
	for _, ing := range ingredients {
		resp.Ingredients = append(resp.Ingredients, recipeIngredientResponse{
			ID:          ing.ID,
			StockItemID: ing.StockItemID,
			Quantity:    numericString(ing.Quantity),
			Unit:        ing.Unit,
		})
	}
	return nil
}

// writeIngredients replaces the recipe's ingredient list. Every
// ingredient needs a stock item, a positive quantity and a unit; the
// list order is stored so settlement walks ingredients the same way
// every time.
func (h *RecipeHandler) writeIngredients(ctx context.Context, recipeID uuid.UUID, ingredients []recipeIngredientRequest) (string, error) {
	if err := h.store.DeleteRecipeIngredients(ctx, recipeID); err != nil {
		return "", err
	}
	for i, ing := range ingredients {
		stockItemID, err := uuid.Parse(ing.StockItemID)
		if err != nil {
			return "invalid stock_item_id", nil
		}
		quantity, ok := parseQuantity(ing.Quantity)
		if !ok {
			return "ingredient quantity must be positive", nil
		}
		if ing.Unit == "" {
			return "ingredient unit is required", nil
		}
		_, err = h.store.CreateRecipeIngredient(ctx, database.CreateRecipeIngredientParams{
			RecipeID:    recipeID,
			StockItemID: stockItemID,
			Quantity:    quantity,
			Unit:        ing.Unit,
			Position:    int32(i),
		})
		if err != nil {
			return "", err
		}
	}
	return "", nil
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.ListRecipes(r.Context())
	if err != nil {
		log.Printf("ERROR: list recipes: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]recipeResponse, len(recipes))
	for i, rec := range recipes {
		resp[i] = toRecipeResponse(rec)
		if err := h.attachIngredients(r.Context(), &resp[i]); err != nil {
			log.Printf("ERROR: load recipe ingredients: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	respond(w, http.StatusOK, envelope{"recipes": resp})
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recipe ID")
		return
	}

	rec, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "recipe not found")
			return
		}
		log.Printf("ERROR: get recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toRecipeResponse(rec)
	if err := h.attachIngredients(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load recipe ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"recipe": resp})
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu_item_id")
		return
	}
	if len(req.Ingredients) == 0 {
		respondError(w, http.StatusBadRequest, "at least one ingredient is required")
		return
	}

	var variationID pgtype.UUID
	if req.VariationID != "" {
		vid, err := uuid.Parse(req.VariationID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid variation_id")
			return
		}
		variationID = pgtype.UUID{Bytes: vid, Valid: true}
	}

	rec, err := h.store.CreateRecipe(r.Context(), database.CreateRecipeParams{
		Name:        req.Name,
		MenuItemID:  menuItemID,
		VariationID: variationID,
	})
	if err != nil {
		log.Printf("ERROR: create recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	msg, err := h.writeIngredients(r.Context(), rec.ID, req.Ingredients)
	if err != nil {
		log.Printf("ERROR: write recipe ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	resp := toRecipeResponse(rec)
	if err := h.attachIngredients(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load recipe ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, envelope{"recipe": resp})
}

// Update replaces the recipe's ingredient list. The menu item and
// variation binding is fixed at creation.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recipe ID")
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Ingredients) == 0 {
		respondError(w, http.StatusBadRequest, "at least one ingredient is required")
		return
	}

	rec, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "recipe not found")
			return
		}
		log.Printf("ERROR: get recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	msg, err := h.writeIngredients(r.Context(), rec.ID, req.Ingredients)
	if err != nil {
		log.Printf("ERROR: write recipe ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.TouchRecipe(r.Context(), rec.ID); err != nil {
		log.Printf("ERROR: touch recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toRecipeResponse(rec)
	if err := h.attachIngredients(r.Context(), &resp); err != nil {
		log.Printf("ERROR: load recipe ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"recipe": resp})
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recipe ID")
		return
	}

	if _, err := h.store.RetireRecipe(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "recipe not found")
			return
		}
		log.Printf("ERROR: retire recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, envelope{"message": "recipe retired"})
}
