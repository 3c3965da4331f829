package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Categories ──

const categoryColumns = `id, name, type, description, sort_order, state, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Description, &i.SortOrder, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listCategories = `
SELECT ` + categoryColumns + ` FROM categories
WHERE state = 'ACTIVE'
ORDER BY sort_order, name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

type CreateCategoryParams struct {
	Name        string
	Type        string
	Description pgtype.Text
	SortOrder   int32
}

const createCategory = `
INSERT INTO categories (name, type, description, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING ` + categoryColumns

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, createCategory, arg.Name, arg.Type, arg.Description, arg.SortOrder))
}

type UpdateCategoryParams struct {
	ID          uuid.UUID
	Name        string
	Type        string
	Description pgtype.Text
	SortOrder   int32
}

const updateCategory = `
UPDATE categories SET name = $2, type = $3, description = $4, sort_order = $5, updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + categoryColumns

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.Type, arg.Description, arg.SortOrder))
}

const retireCategory = `
UPDATE categories SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + categoryColumns

func (q *Queries) RetireCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, retireCategory, id))
}

// ── Addons ──

const addonColumns = `id, name, price, state, created_at, updated_at`

func scanAddon(row interface{ Scan(...any) error }) (Addon, error) {
	var i Addon
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listAddons = `SELECT ` + addonColumns + ` FROM addons WHERE state = 'ACTIVE' ORDER BY name`

func (q *Queries) ListAddons(ctx context.Context) ([]Addon, error) {
	rows, err := q.db.Query(ctx, listAddons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Addon
	for rows.Next() {
		i, err := scanAddon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getAddon = `SELECT ` + addonColumns + ` FROM addons WHERE id = $1`

func (q *Queries) GetAddon(ctx context.Context, id uuid.UUID) (Addon, error) {
	return scanAddon(q.db.QueryRow(ctx, getAddon, id))
}

type CreateAddonParams struct {
	Name  string
	Price pgtype.Numeric
}

const createAddon = `
INSERT INTO addons (name, price)
VALUES ($1, $2)
RETURNING ` + addonColumns

func (q *Queries) CreateAddon(ctx context.Context, arg CreateAddonParams) (Addon, error) {
	return scanAddon(q.db.QueryRow(ctx, createAddon, arg.Name, arg.Price))
}

type UpdateAddonParams struct {
	ID    uuid.UUID
	Name  string
	Price pgtype.Numeric
}

const updateAddon = `
UPDATE addons SET name = $2, price = $3, updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + addonColumns

func (q *Queries) UpdateAddon(ctx context.Context, arg UpdateAddonParams) (Addon, error) {
	return scanAddon(q.db.QueryRow(ctx, updateAddon, arg.ID, arg.Name, arg.Price))
}

const retireAddon = `
UPDATE addons SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + addonColumns

func (q *Queries) RetireAddon(ctx context.Context, id uuid.UUID) (Addon, error) {
	return scanAddon(q.db.QueryRow(ctx, retireAddon, id))
}

// ── Variations ──

const variationColumns = `id, name, state, created_at, updated_at`

func scanVariation(row interface{ Scan(...any) error }) (Variation, error) {
	var i Variation
	err := row.Scan(&i.ID, &i.Name, &i.State, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listVariations = `SELECT ` + variationColumns + ` FROM variations WHERE state = 'ACTIVE' ORDER BY name`

func (q *Queries) ListVariations(ctx context.Context) ([]Variation, error) {
	rows, err := q.db.Query(ctx, listVariations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Variation
	for rows.Next() {
		i, err := scanVariation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getVariation = `SELECT ` + variationColumns + ` FROM variations WHERE id = $1`

func (q *Queries) GetVariation(ctx context.Context, id uuid.UUID) (Variation, error) {
	return scanVariation(q.db.QueryRow(ctx, getVariation, id))
}

const createVariation = `
INSERT INTO variations (name)
VALUES ($1)
RETURNING ` + variationColumns

func (q *Queries) CreateVariation(ctx context.Context, name string) (Variation, error) {
	return scanVariation(q.db.QueryRow(ctx, createVariation, name))
}

type UpdateVariationParams struct {
	ID   uuid.UUID
	Name string
}

const updateVariation = `
UPDATE variations SET name = $2, updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + variationColumns

func (q *Queries) UpdateVariation(ctx context.Context, arg UpdateVariationParams) (Variation, error) {
	return scanVariation(q.db.QueryRow(ctx, updateVariation, arg.ID, arg.Name))
}

const retireVariation = `
UPDATE variations SET state = 'RETIRED', updated_at = now()
WHERE id = $1 AND state = 'ACTIVE'
RETURNING ` + variationColumns

func (q *Queries) RetireVariation(ctx context.Context, id uuid.UUID) (Variation, error) {
	return scanVariation(q.db.QueryRow(ctx, retireVariation, id))
}
