package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/handler"
)

// --- Mock store ---

type mockRecipeStore struct {
	recipes     map[uuid.UUID]database.Recipe
	ingredients map[uuid.UUID][]database.RecipeIngredient
}

func newMockRecipeStore() *mockRecipeStore {
	return &mockRecipeStore{
		recipes:     make(map[uuid.UUID]database.Recipe),
		ingredients: make(map[uuid.UUID][]database.RecipeIngredient),
	}
}

func (m *mockRecipeStore) addRecipe(menuItemID uuid.UUID) database.Recipe {
	rec := database.Recipe{
		ID:         uuid.New(),
		Name:       "Paneer Tikka",
		MenuItemID: menuItemID,
		State:      enum.EntityStateActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.recipes[rec.ID] = rec
	return rec
}

func (m *mockRecipeStore) ListRecipes(_ context.Context) ([]database.Recipe, error) {
	var result []database.Recipe
	for _, rec := range m.recipes {
		if rec.State == enum.EntityStateActive {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *mockRecipeStore) GetRecipe(_ context.Context, id uuid.UUID) (database.Recipe, error) {
	rec, ok := m.recipes[id]
	if !ok || rec.State != enum.EntityStateActive {
		return database.Recipe{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (m *mockRecipeStore) CreateRecipe(_ context.Context, arg database.CreateRecipeParams) (database.Recipe, error) {
	rec := database.Recipe{
		ID:          uuid.New(),
		Name:        arg.Name,
		MenuItemID:  arg.MenuItemID,
		VariationID: arg.VariationID,
		State:       enum.EntityStateActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.recipes[rec.ID] = rec
	return rec, nil
}

func (m *mockRecipeStore) RetireRecipe(_ context.Context, id uuid.UUID) (database.Recipe, error) {
	rec, ok := m.recipes[id]
	if !ok || rec.State != enum.EntityStateActive {
		return database.Recipe{}, pgx.ErrNoRows
	}
	rec.State = enum.EntityStateRetired
	m.recipes[id] = rec
	return rec, nil
}

func (m *mockRecipeStore) TouchRecipe(_ context.Context, id uuid.UUID) error {
	rec, ok := m.recipes[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.UpdatedAt = time.Now()
	m.recipes[id] = rec
	return nil
}

func (m *mockRecipeStore) ListRecipeIngredients(_ context.Context, recipeID uuid.UUID) ([]database.RecipeIngredient, error) {
	return m.ingredients[recipeID], nil
}

func (m *mockRecipeStore) CreateRecipeIngredient(_ context.Context, arg database.CreateRecipeIngredientParams) (database.RecipeIngredient, error) {
	ing := database.RecipeIngredient{
		ID:          uuid.New(),
		RecipeID:    arg.RecipeID,
		StockItemID: arg.StockItemID,
		Quantity:    arg.Quantity,
		Unit:        arg.Unit,
		Position:    arg.Position,
	}
	m.ingredients[arg.RecipeID] = append(m.ingredients[arg.RecipeID], ing)
	return ing, nil
}

func (m *mockRecipeStore) DeleteRecipeIngredients(_ context.Context, recipeID uuid.UUID) error {
	delete(m.ingredients, recipeID)
	return nil
}

func setupRecipeRouter(store *mockRecipeStore) *chi.Mux {
	h := handler.NewRecipeHandler(store)
	r := chi.NewRouter()
	r.Route("/recipes", func(r chi.Router) {
		h.RegisterRoutes(r, passthrough)
	})
	return r
}

// --- Tests ---

func TestCreateRecipe(t *testing.T) {
	store := newMockRecipeStore()
	router := setupRecipeRouter(store)
	menuItemID := uuid.New()
	stockItemID := uuid.New()

	rr := doRequest(t, router, http.MethodPost, "/recipes", map[string]interface{}{
		"name":         "Paneer Tikka",
		"menu_item_id": menuItemID.String(),
		"ingredients": []map[string]interface{}{
			{"stock_item_id": stockItemID.String(), "quantity": "400", "unit": "g"},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	recipe := body["recipe"].(map[string]interface{})
	if recipe["name"] != "Paneer Tikka" {
		t.Errorf("wrong name: %v", recipe["name"])
	}
	if recipe["menu_item_id"] != menuItemID.String() {
		t.Errorf("wrong menu item: %v", recipe["menu_item_id"])
	}
	if recipe["variation_id"] != nil {
		t.Errorf("expected default recipe (nil variation), got %v", recipe["variation_id"])
	}
	ingredients := recipe["ingredients"].([]interface{})
	if len(ingredients) != 1 {
		t.Fatalf("expected 1 ingredient, got %d", len(ingredients))
	}
	ing := ingredients[0].(map[string]interface{})
	if ing["quantity"] != "400.000" || ing["unit"] != "g" {
		t.Errorf("wrong ingredient: %v", ing)
	}
}

func TestCreateRecipeRequiresName(t *testing.T) {
	router := setupRecipeRouter(newMockRecipeStore())

	rr := doRequest(t, router, http.MethodPost, "/recipes", map[string]interface{}{
		"menu_item_id": uuid.NewString(),
		"ingredients": []map[string]interface{}{
			{"stock_item_id": uuid.NewString(), "quantity": "400", "unit": "g"},
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "name is required" {
		t.Errorf("wrong message: %v", body["message"])
	}
}

func TestCreateRecipeRequiresIngredients(t *testing.T) {
	router := setupRecipeRouter(newMockRecipeStore())

	rr := doRequest(t, router, http.MethodPost, "/recipes", map[string]interface{}{
		"name":         "Paneer Tikka",
		"menu_item_id": uuid.NewString(),
		"ingredients":  []map[string]interface{}{},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateRecipeAssignsIngredientPositions(t *testing.T) {
	store := newMockRecipeStore()
	router := setupRecipeRouter(store)

	rr := doRequest(t, router, http.MethodPost, "/recipes", map[string]interface{}{
		"name":         "Masala Chai",
		"menu_item_id": uuid.NewString(),
		"ingredients": []map[string]interface{}{
			{"stock_item_id": uuid.NewString(), "quantity": "200", "unit": "ml"},
			{"stock_item_id": uuid.NewString(), "quantity": "10", "unit": "g"},
			{"stock_item_id": uuid.NewString(), "quantity": "5", "unit": "g"},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var stored []database.RecipeIngredient
	for _, ings := range store.ingredients {
		stored = ings
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(stored))
	}
	for i, ing := range stored {
		if ing.Position != int32(i) {
			t.Errorf("ingredient %d stored at position %d", i, ing.Position)
		}
	}
}

func TestCreateRecipeRejectsZeroQuantity(t *testing.T) {
	router := setupRecipeRouter(newMockRecipeStore())

	rr := doRequest(t, router, http.MethodPost, "/recipes", map[string]interface{}{
		"name":         "Paneer Tikka",
		"menu_item_id": uuid.NewString(),
		"ingredients": []map[string]interface{}{
			{"stock_item_id": uuid.NewString(), "quantity": "0", "unit": "g"},
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "ingredient quantity must be positive" {
		t.Errorf("wrong message: %v", body["message"])
	}
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	store := newMockRecipeStore()
	rec := store.addRecipe(uuid.New())
	store.ingredients[rec.ID] = []database.RecipeIngredient{{
		ID:          uuid.New(),
		RecipeID:    rec.ID,
		StockItemID: uuid.New(),
		Quantity:    qty("100.000"),
		Unit:        "g",
	}}
	router := setupRecipeRouter(store)
	newStockItem := uuid.New()

	rr := doRequest(t, router, http.MethodPut, "/recipes/"+rec.ID.String(), map[string]interface{}{
		"ingredients": []map[string]interface{}{
			{"stock_item_id": newStockItem.String(), "quantity": "250", "unit": "ml"},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	ingredients := body["recipe"].(map[string]interface{})["ingredients"].([]interface{})
	if len(ingredients) != 1 {
		t.Fatalf("expected old ingredient replaced, got %d", len(ingredients))
	}
	ing := ingredients[0].(map[string]interface{})
	if ing["stock_item_id"] != newStockItem.String() || ing["unit"] != "ml" {
		t.Errorf("wrong ingredient after update: %v", ing)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	router := setupRecipeRouter(newMockRecipeStore())

	rr := doRequest(t, router, http.MethodGet, "/recipes/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteRecipeRetires(t *testing.T) {
	store := newMockRecipeStore()
	rec := store.addRecipe(uuid.New())
	router := setupRecipeRouter(store)

	rr := doRequest(t, router, http.MethodDelete, "/recipes/"+rec.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.recipes[rec.ID].State != enum.EntityStateRetired {
		t.Errorf("recipe not retired")
	}
}
