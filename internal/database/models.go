package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	State        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RestaurantProfile struct {
	ID                uuid.UUID
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
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Type        string
	Description pgtype.Text
	SortOrder   int32
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Addon struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Variation struct {
	ID        uuid.UUID
	Name      string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	CategoryID  uuid.UUID
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	ImageUrl    pgtype.Text
	IsVeg       bool
	Available   bool
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MenuItemVariation struct {
	ID          uuid.UUID
	MenuItemID  uuid.UUID
	VariationID uuid.UUID
	ExtraPrice  pgtype.Numeric
}

type MenuItemAddon struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	AddonID    uuid.UUID
}

type StockItem struct {
	ID           uuid.UUID
	Name         string
	Unit         string
	ReorderLevel pgtype.Numeric
	Storage      pgtype.Text
	Supplier     pgtype.Text
	State        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockBatch quantity is stored in the stock item's canonical unit,
// converted at intake time.
type StockBatch struct {
	ID           uuid.UUID
	StockItemID  uuid.UUID
	BatchNumber  string
	Quantity     pgtype.Numeric
	Cost         pgtype.Numeric
	PurchaseDate time.Time
	ExpiryDate   pgtype.Timestamptz
	SyncStatus   string
	CreatedAt    time.Time
}

type WastageEntry struct {
	ID          uuid.UUID
	StockItemID uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
	Reason      pgtype.Text
	RecordedBy  pgtype.UUID
	CreatedAt   time.Time
}

type Recipe struct {
	ID          uuid.UUID
	Name        string
	MenuItemID  uuid.UUID
	VariationID pgtype.UUID
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeIngredient position fixes the order ingredients are listed and
// settled in.
type RecipeIngredient struct {
	ID          uuid.UUID
	RecipeID    uuid.UUID
	StockItemID uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
	Position    int32
}

type Bill struct {
	ID            uuid.UUID
	BillNumber    string
	OrderType     string
	TableNumber     pgtype.Text
	CustomerName    pgtype.Text
	CustomerPhone   pgtype.Text
	CustomerEmail   pgtype.Text
	DeliveryAddress pgtype.Text
	Status          string
	Subtotal      pgtype.Numeric
	TaxRate       pgtype.Numeric
	TaxAmount     pgtype.Numeric
	Discount      pgtype.Numeric
	ServiceCharge pgtype.Numeric
	Total         pgtype.Numeric
	PaymentMode   pgtype.Text
	PaidCash      pgtype.Numeric
	PaidCard      pgtype.Numeric
	PaidUpi       pgtype.Numeric
	TotalPaid     pgtype.Numeric
	DueAmount     pgtype.Numeric
	Notes         pgtype.Text
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinalizedAt   pgtype.Timestamptz
}

type BillLine struct {
	ID            uuid.UUID
	BillID        uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	VariationID   pgtype.UUID
	VariationName pgtype.Text
	UnitPrice     pgtype.Numeric
	Quantity      int32
	LineTotal     pgtype.Numeric
	Notes         pgtype.Text
}

type BillLineAddon struct {
	ID         uuid.UUID
	BillLineID uuid.UUID
	AddonID    uuid.UUID
	AddonName  string
	Price      pgtype.Numeric
}

// BillLineDraw records which stock batch a finalized bill line consumed
// from, in the stock item's canonical unit.
type BillLineDraw struct {
	ID          uuid.UUID
	BillLineID  uuid.UUID
	StockItemID uuid.UUID
	BatchID     uuid.UUID
	Quantity    pgtype.Numeric
	Unit        string
}

// Order snapshots the steward who took it; payment columns are filled
// in when the order completes and a bill is cut.
type Order struct {
	ID           uuid.UUID
	OrderNumber  string
	OrderType    string
	TableNumber  pgtype.Text
	StewardID    pgtype.UUID
	StewardName  pgtype.Text
	Status       string
	Subtotal     pgtype.Numeric
	TaxAmount    pgtype.Numeric
	Discount     pgtype.Numeric
	Total        pgtype.Numeric
	KotCount     int32
	BillID       pgtype.UUID
	PaymentMode  pgtype.Text
	PaidCash     pgtype.Numeric
	PaidCard     pgtype.Numeric
	PaidUpi      pgtype.Numeric
	TotalPaid    pgtype.Numeric
	ReturnAmount pgtype.Numeric
	SyncStatus   string
	ClientRef    pgtype.Text
	Notes        pgtype.Text
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  pgtype.Timestamptz
}

type OrderLine struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	VariationID   pgtype.UUID
	VariationName pgtype.Text
	UnitPrice     pgtype.Numeric
	Quantity      int32
	LineTotal     pgtype.Numeric
	Notes         pgtype.Text
}

type OrderLineAddon struct {
	ID          uuid.UUID
	OrderLineID uuid.UUID
	AddonID     uuid.UUID
	AddonName   string
	Price       pgtype.Numeric
}
