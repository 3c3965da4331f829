package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, category_id, description, base_price, image_url, is_veg, available, state, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(&i.ID, &i.Name, &i.CategoryID, &i.Description, &i.BasePrice,
		&i.ImageUrl, &i.IsVeg, &i.Available, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type ListMenuItemsParams struct {
	CategoryID pgtype.UUID
}

const listMenuItems = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE state = 'ACTIVE' AND ($1::uuid IS NULL OR category_id = $1)
ORDER BY name`

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const getActiveMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1 AND state = 'ACTIVE'`

func (q *Queries) GetActiveMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getActiveMenuItem, id))
}

type CreateMenuItemParams struct {
	Name        string
	CategoryID  uuid.UUID
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	ImageUrl    pgtype.Text
	IsVeg       bool
	Available   bool
}

const createMenuItem = `
INSERT INTO menu_items (name, category_id, description, base_price, image_url, is_veg, available)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + menuItemColumns

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.Name, arg.CategoryID, arg.Description, arg.BasePrice, arg.ImageUrl, arg.IsVeg, arg.Available))
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	CategoryID  uuid.UUID
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	ImageUrl    pgtype.Text
	IsVeg       bool
	Available   bool
}

const updateMenuItem = `
UPDATE menu_items SET
	name = $2, category_id = $3, description = $4, base_price = $5,
	image_url = $6, is_veg = $7, available = $8, updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + menuItemColumns

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.Name, arg.CategoryID, arg.Description, arg.BasePrice, arg.ImageUrl, arg.IsVeg, arg.Available))
}

const retireMenuItem = `
UPDATE menu_items SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + menuItemColumns

func (q *Queries) RetireMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, retireMenuItem, id))
}

// ── Menu item variations ──

type MenuItemVariationRow struct {
	ID            uuid.UUID
	VariationID   uuid.UUID
	VariationName string
	ExtraPrice    pgtype.Numeric
}

const listMenuItemVariations = `
SELECT miv.id, miv.variation_id, v.name, miv.extra_price
FROM menu_item_variations miv
JOIN variations v ON v.id = miv.variation_id
WHERE miv.menu_item_id = $1
ORDER BY v.name`

func (q *Queries) ListMenuItemVariations(ctx context.Context, menuItemID uuid.UUID) ([]MenuItemVariationRow, error) {
	rows, err := q.db.Query(ctx, listMenuItemVariations, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItemVariationRow
	for rows.Next() {
		var i MenuItemVariationRow
		if err := rows.Scan(&i.ID, &i.VariationID, &i.VariationName, &i.ExtraPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetMenuItemVariationParams struct {
	MenuItemID  uuid.UUID
	VariationID uuid.UUID
}

const getMenuItemVariation = `
SELECT miv.id, miv.variation_id, v.name, miv.extra_price
FROM menu_item_variations miv
JOIN variations v ON v.id = miv.variation_id
WHERE miv.menu_item_id = $1 AND miv.variation_id = $2`

func (q *Queries) GetMenuItemVariation(ctx context.Context, arg GetMenuItemVariationParams) (MenuItemVariationRow, error) {
	var i MenuItemVariationRow
	err := q.db.QueryRow(ctx, getMenuItemVariation, arg.MenuItemID, arg.VariationID).
		Scan(&i.ID, &i.VariationID, &i.VariationName, &i.ExtraPrice)
	return i, err
}

type CreateMenuItemVariationParams struct {
	MenuItemID  uuid.UUID
	VariationID uuid.UUID
	ExtraPrice  pgtype.Numeric
}

const createMenuItemVariation = `
INSERT INTO menu_item_variations (menu_item_id, variation_id, extra_price)
VALUES ($1, $2, $3)`

func (q *Queries) CreateMenuItemVariation(ctx context.Context, arg CreateMenuItemVariationParams) error {
	_, err := q.db.Exec(ctx, createMenuItemVariation, arg.MenuItemID, arg.VariationID, arg.ExtraPrice)
	return err
}

const deleteMenuItemVariations = `DELETE FROM menu_item_variations WHERE menu_item_id = $1`

func (q *Queries) DeleteMenuItemVariations(ctx context.Context, menuItemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItemVariations, menuItemID)
	return err
}

// ── Menu item addons ──

type MenuItemAddonRow struct {
	ID        uuid.UUID
	AddonID   uuid.UUID
	AddonName string
	Price     pgtype.Numeric
}

const listMenuItemAddons = `
SELECT mia.id, mia.addon_id, a.name, a.price
FROM menu_item_addons mia
JOIN addons a ON a.id = mia.addon_id
WHERE mia.menu_item_id = $1
ORDER BY a.name`

func (q *Queries) ListMenuItemAddons(ctx context.Context, menuItemID uuid.UUID) ([]MenuItemAddonRow, error) {
	rows, err := q.db.Query(ctx, listMenuItemAddons, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItemAddonRow
	for rows.Next() {
		var i MenuItemAddonRow
		if err := rows.Scan(&i.ID, &i.AddonID, &i.AddonName, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateMenuItemAddonParams struct {
	MenuItemID uuid.UUID
	AddonID    uuid.UUID
}

const createMenuItemAddon = `
INSERT INTO menu_item_addons (menu_item_id, addon_id)
VALUES ($1, $2)`

func (q *Queries) CreateMenuItemAddon(ctx context.Context, arg CreateMenuItemAddonParams) error {
	_, err := q.db.Exec(ctx, createMenuItemAddon, arg.MenuItemID, arg.AddonID)
	return err
}

const deleteMenuItemAddons = `DELETE FROM menu_item_addons WHERE menu_item_id = $1`

func (q *Queries) DeleteMenuItemAddons(ctx context.Context, menuItemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItemAddons, menuItemID)
	return err
}
