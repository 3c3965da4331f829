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
)

// CartLineRequest is a single sellable in a cart, shared by bills and
// running orders.
type CartLineRequest struct {
	MenuItemID  string
	VariationID string
	Quantity    int32
	AddonIDs    []string
	Notes       string
}

// catalogStore is the menu lookup surface needed to price a cart.
type catalogStore interface {
	GetActiveMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetMenuItemVariation(ctx context.Context, arg database.GetMenuItemVariationParams) (database.MenuItemVariationRow, error)
	GetAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
}

type cartAddon struct {
	id    uuid.UUID
	name  string
	price decimal.Decimal
}

// cartLine is a validated, priced cart line with name and price
// snapshots taken at processing time.
type cartLine struct {
	menuItemID    uuid.UUID
	itemName      string
	variationID   pgtype.UUID
	variationName pgtype.Text
	unitPrice     decimal.Decimal
	quantity      int32
	lineTotal     decimal.Decimal
	notes         string
	addons        []cartAddon
}

func (l cartLine) settlementLine() SettlementLine {
	return SettlementLine{
		MenuItemID:  l.menuItemID,
		VariationID: l.variationID,
		ItemName:    l.itemName,
		Quantity:    l.quantity,
	}
}

// processCart validates each cart line against the menu and prices it:
// unit price = base price + variation extra + addons, line total =
// unit price x quantity, rounded to 2 decimal places.
func processCart(ctx context.Context, store catalogStore, items []CartLineRequest) ([]cartLine, error) {
	var lines []cartLine
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetActiveMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
		if !menuItem.Available {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemUnavailable)
		}

		line := cartLine{
			menuItemID: menuItemID,
			itemName:   menuItem.Name,
			unitPrice:  numericToDecimal(menuItem.BasePrice),
			quantity:   item.Quantity,
			notes:      item.Notes,
		}

		if item.VariationID != "" {
			vid, err := uuid.Parse(item.VariationID)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidVariationID)
			}
			variation, err := store.GetMenuItemVariation(ctx, database.GetMenuItemVariationParams{
				MenuItemID:  menuItemID,
				VariationID: vid,
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("item[%d]: %w", i, ErrVariationNotFound)
				}
				return nil, fmt.Errorf("item[%d]: get variation: %w", i, err)
			}
			line.variationID = pgtype.UUID{Bytes: vid, Valid: true}
			line.variationName = pgtype.Text{String: variation.VariationName, Valid: true}
			line.unitPrice = line.unitPrice.Add(numericToDecimal(variation.ExtraPrice))
		}

		for j, addonID := range item.AddonIDs {
			aid, err := uuid.Parse(addonID)
			if err != nil {
				return nil, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidAddonID)
			}
			addon, err := store.GetAddon(ctx, aid)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrAddonNotFound)
				}
				return nil, fmt.Errorf("item[%d].addons[%d]: get addon: %w", i, j, err)
			}
			line.unitPrice = line.unitPrice.Add(numericToDecimal(addon.Price))
			line.addons = append(line.addons, cartAddon{
				id:    aid,
				name:  addon.Name,
				price: numericToDecimal(addon.Price),
			})
		}

		line.lineTotal = line.unitPrice.Mul(decimal.NewFromInt32(item.Quantity)).Round(2)
		lines = append(lines, line)
	}
	return lines, nil
}

func settlementLines(lines []cartLine) []SettlementLine {
	out := make([]SettlementLine, len(lines))
	for i, l := range lines {
		out[i] = l.settlementLine()
	}
	return out
}
