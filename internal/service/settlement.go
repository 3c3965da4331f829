package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/stock"
	"github.com/tandoor-pos/api/internal/units"
)

// SettlementStore defines the DB methods needed to settle a cart against
// inventory. Satisfied by *database.Queries (and its WithTx variant).
type SettlementStore interface {
	GetRecipeByMenuAndVariation(ctx context.Context, arg database.GetRecipeByMenuAndVariationParams) (database.Recipe, error)
	GetDefaultRecipeByMenu(ctx context.Context, menuItemID uuid.UUID) (database.Recipe, error)
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeIngredient, error)
	GetStockItem(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	ListBatchesByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]database.StockBatch, error)
	UpdateBatchQuantity(ctx context.Context, arg database.UpdateBatchQuantityParams) error
	DeleteBatch(ctx context.Context, id uuid.UUID) error
}

// SettlementLine is one cart line to settle.
type SettlementLine struct {
	MenuItemID  uuid.UUID
	VariationID pgtype.UUID
	ItemName    string
	Quantity    int32
}

// BatchDraw is a persisted deduction from one stock batch, in the stock
// item's unit.
type BatchDraw struct {
	LineIndex   int
	StockItemID uuid.UUID
	BatchID     uuid.UUID
	Quantity    decimal.Decimal
	Unit        string
}

// SettlementEngine resolves cart lines to recipes and deducts the
// required ingredients from stock batches, oldest purchase first.
type SettlementEngine struct {
	units *units.Converter
}

func NewSettlementEngine(conv *units.Converter) *SettlementEngine {
	return &SettlementEngine{units: conv}
}

// itemState is the in-flight batch picture for one stock item, shared
// across lines so that repeated ingredients draw from already-reduced
// quantities.
type itemState struct {
	item     database.StockItem
	original []stock.Batch
	batches  []stock.Batch
}

// Settle validates and applies ingredient deductions for every line.
// The whole cart is checked against the same in-memory batch state, so
// either every line is covered or nothing is written. Callers run it
// inside a transaction via a store bound to that transaction.
//
// Lines whose menu item has no recipe (neither for the exact variation
// nor a default) are skipped: not every sellable is made from tracked
// stock.
func (e *SettlementEngine) Settle(ctx context.Context, store SettlementStore, lines []SettlementLine) ([]BatchDraw, error) {
	states := make(map[uuid.UUID]*itemState)
	var draws []BatchDraw

	for idx, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line[%d]: %w", idx, ErrInvalidQuantity)
		}

		recipe, found, err := e.resolveRecipe(ctx, store, line)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: resolve recipe: %w", idx, err)
		}
		if !found {
			continue
		}

		ingredients, err := store.ListRecipeIngredients(ctx, recipe.ID)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: list ingredients: %w", idx, err)
		}

		for _, ing := range ingredients {
			st, err := e.loadItem(ctx, store, states, ing.StockItemID)
			if err != nil {
				return nil, fmt.Errorf("line[%d]: %w", idx, err)
			}

			// recipe quantity is per single serving, in the recipe's
			// own unit; convert into the stock item's unit and scale.
			perServing := e.units.Convert(numericToDecimal(ing.Quantity), ing.Unit, st.item.Unit)
			need := perServing.Mul(decimal.NewFromInt32(line.Quantity))

			survivors, batchDraws, err := stock.Deduct(st.batches, need)
			if err != nil {
				var ins *stock.InsufficientError
				if errors.As(err, &ins) {
					ins.Item = st.item.Name
					ins.Unit = st.item.Unit
				}
				return nil, err
			}
			st.batches = survivors
			for _, d := range batchDraws {
				draws = append(draws, BatchDraw{
					LineIndex:   idx,
					StockItemID: st.item.ID,
					BatchID:     d.BatchID,
					Quantity:    d.Quantity,
					Unit:        st.item.Unit,
				})
			}
		}
	}

	// Every line validated; persist the final batch state.
	for _, st := range states {
		if err := e.persistItem(ctx, store, st); err != nil {
			return nil, err
		}
	}
	return draws, nil
}

// resolveRecipe looks up the recipe for the exact variation first, then
// falls back to the menu item's default recipe.
func (e *SettlementEngine) resolveRecipe(ctx context.Context, store SettlementStore, line SettlementLine) (database.Recipe, bool, error) {
	if line.VariationID.Valid {
		r, err := store.GetRecipeByMenuAndVariation(ctx, database.GetRecipeByMenuAndVariationParams{
			MenuItemID:  line.MenuItemID,
			VariationID: line.VariationID.Bytes,
		})
		if err == nil {
			return r, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Recipe{}, false, err
		}
	}
	r, err := store.GetDefaultRecipeByMenu(ctx, line.MenuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Recipe{}, false, nil
		}
		return database.Recipe{}, false, err
	}
	return r, true, nil
}

func (e *SettlementEngine) loadItem(ctx context.Context, store SettlementStore, states map[uuid.UUID]*itemState, stockItemID uuid.UUID) (*itemState, error) {
	if st, ok := states[stockItemID]; ok {
		return st, nil
	}
	item, err := store.GetStockItem(ctx, stockItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemMissing
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	rows, err := store.ListBatchesByStockItem(ctx, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	batches := make([]stock.Batch, 0, len(rows))
	for _, b := range rows {
		batches = append(batches, stock.Batch{
			ID:           b.ID,
			Quantity:     numericToDecimal(b.Quantity),
			PurchaseDate: b.PurchaseDate,
			CreatedAt:    b.CreatedAt,
		})
	}
	st := &itemState{item: item, original: batches, batches: batches}
	states[stockItemID] = st
	return st, nil
}

// persistItem writes the diff between an item's loaded and final batch
// state: drained batches are deleted, reduced ones updated.
func (e *SettlementEngine) persistItem(ctx context.Context, store SettlementStore, st *itemState) error {
	final := make(map[uuid.UUID]decimal.Decimal, len(st.batches))
	for _, b := range st.batches {
		final[b.ID] = b.Quantity
	}
	for _, orig := range st.original {
		qty, ok := final[orig.ID]
		if !ok {
			if err := store.DeleteBatch(ctx, orig.ID); err != nil {
				return fmt.Errorf("delete batch: %w", err)
			}
			continue
		}
		if !qty.Equal(orig.Quantity) {
			err := store.UpdateBatchQuantity(ctx, database.UpdateBatchQuantityParams{
				ID:       orig.ID,
				Quantity: quantityToNumeric(qty),
			})
			if err != nil {
				return fmt.Errorf("update batch: %w", err)
			}
		}
	}
	return nil
}
