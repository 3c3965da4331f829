package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const profileColumns = `id, name, address, phone, email, gstin, tax_rate, currency,
	support_plan, support_tier, license_key, subscription_start, subscription_end, payment_status,
	created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (RestaurantProfile, error) {
	var i RestaurantProfile
	err := row.Scan(&i.ID, &i.Name, &i.Address, &i.Phone, &i.Email, &i.Gstin,
		&i.TaxRate, &i.Currency,
		&i.SupportPlan, &i.SupportTier, &i.LicenseKey, &i.SubscriptionStart, &i.SubscriptionEnd, &i.PaymentStatus,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// The profile table holds a single row, inserted by the seed.
const getRestaurantProfile = `SELECT ` + profileColumns + ` FROM restaurant_profile ORDER BY created_at LIMIT 1`

func (q *Queries) GetRestaurantProfile(ctx context.Context) (RestaurantProfile, error) {
	return scanProfile(q.db.QueryRow(ctx, getRestaurantProfile))
}

type UpdateRestaurantProfileParams struct {
	Name              string
	Address           pgtype.Text
	Phone             pgtype.Text
	Email             pgtype.Text
	Gstin             pgtype.Text
	TaxRate           pgtype.Numeric
	Currency          string
	SupportPlan       pgtype.Text
	SupportTier       pgtype.Text
	LicenseKey        pgtype.Text
	SubscriptionStart pgtype.Timestamptz
	SubscriptionEnd   pgtype.Timestamptz
	PaymentStatus     pgtype.Text
}

const updateRestaurantProfile = `
UPDATE restaurant_profile SET
	name = $1, address = $2, phone = $3, email = $4, gstin = $5,
	tax_rate = $6, currency = $7,
	support_plan = $8, support_tier = $9, license_key = $10,
	subscription_start = $11, subscription_end = $12, payment_status = $13,
	updated_at = now()
WHERE id = (SELECT id FROM restaurant_profile ORDER BY created_at LIMIT 1)
RETURNING ` + profileColumns

func (q *Queries) UpdateRestaurantProfile(ctx context.Context, arg UpdateRestaurantProfileParams) (RestaurantProfile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateRestaurantProfile,
		arg.Name, arg.Address, arg.Phone, arg.Email, arg.Gstin,
		arg.TaxRate, arg.Currency,
		arg.SupportPlan, arg.SupportTier, arg.LicenseKey,
		arg.SubscriptionStart, arg.SubscriptionEnd, arg.PaymentStatus))
}
