package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const recipeColumns = `id, name, menu_item_id, variation_id, state, created_at, updated_at`

func scanRecipe(row interface{ Scan(...any) error }) (Recipe, error) {
	var i Recipe
	err := row.Scan(&i.ID, &i.Name, &i.MenuItemID, &i.VariationID, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listRecipes = `
SELECT ` + recipeColumns + ` FROM recipes
WHERE state = 'ACTIVE'
ORDER BY created_at DESC`

func (q *Queries) ListRecipes(ctx context.Context) ([]Recipe, error) {
	rows, err := q.db.Query(ctx, listRecipes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Recipe
	for rows.Next() {
		i, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getRecipe = `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

func (q *Queries) GetRecipe(ctx context.Context, id uuid.UUID) (Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, getRecipe, id))
}

type GetRecipeByMenuAndVariationParams struct {
	MenuItemID  uuid.UUID
	VariationID uuid.UUID
}

const getRecipeByMenuAndVariation = `
SELECT ` + recipeColumns + ` FROM recipes
WHERE menu_item_id = $1 AND variation_id = $2 AND state = 'ACTIVE'`

func (q *Queries) GetRecipeByMenuAndVariation(ctx context.Context, arg GetRecipeByMenuAndVariationParams) (Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, getRecipeByMenuAndVariation, arg.MenuItemID, arg.VariationID))
}

const getDefaultRecipeByMenu = `
SELECT ` + recipeColumns + ` FROM recipes
WHERE menu_item_id = $1 AND variation_id IS NULL AND state = 'ACTIVE'`

func (q *Queries) GetDefaultRecipeByMenu(ctx context.Context, menuItemID uuid.UUID) (Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, getDefaultRecipeByMenu, menuItemID))
}

type CreateRecipeParams struct {
	Name        string
	MenuItemID  uuid.UUID
	VariationID pgtype.UUID
}

const createRecipe = `
INSERT INTO recipes (name, menu_item_id, variation_id)
VALUES ($1, $2, $3)
RETURNING ` + recipeColumns

func (q *Queries) CreateRecipe(ctx context.Context, arg CreateRecipeParams) (Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, createRecipe, arg.Name, arg.MenuItemID, arg.VariationID))
}

const retireRecipe = `
UPDATE recipes SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + recipeColumns

func (q *Queries) RetireRecipe(ctx context.Context, id uuid.UUID) (Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, retireRecipe, id))
}

const touchRecipe = `UPDATE recipes SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchRecipe(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchRecipe, id)
	return err
}

// ── Recipe ingredients ──

const recipeIngredientColumns = `id, recipe_id, stock_item_id, quantity, unit, position`

func scanRecipeIngredient(row interface{ Scan(...any) error }) (RecipeIngredient, error) {
	var i RecipeIngredient
	err := row.Scan(&i.ID, &i.RecipeID, &i.StockItemID, &i.Quantity, &i.Unit, &i.Position)
	return i, err
}

const listRecipeIngredients = `
SELECT ` + recipeIngredientColumns + ` FROM recipe_ingredients
WHERE recipe_id = $1
ORDER BY position`

func (q *Queries) ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]RecipeIngredient, error) {
	rows, err := q.db.Query(ctx, listRecipeIngredients, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeIngredient
	for rows.Next() {
		i, err := scanRecipeIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateRecipeIngredientParams struct {
	RecipeID    uuid.UUID
	StockItemID uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
	Position    int32
}

const createRecipeIngredient = `
INSERT INTO recipe_ingredients (recipe_id, stock_item_id, quantity, unit, position)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + recipeIngredientColumns

func (q *Queries) CreateRecipeIngredient(ctx context.Context, arg CreateRecipeIngredientParams) (RecipeIngredient, error) {
	return scanRecipeIngredient(q.db.QueryRow(ctx, createRecipeIngredient,
		arg.RecipeID, arg.StockItemID, arg.Quantity, arg.Unit, arg.Position))
}

const deleteRecipeIngredients = `DELETE FROM recipe_ingredients WHERE recipe_id = $1`

func (q *Queries) DeleteRecipeIngredients(ctx context.Context, recipeID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteRecipeIngredients, recipeID)
	return err
}
