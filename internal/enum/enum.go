package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	BillStatusDraft     = "DRAFT"
	BillStatusPending   = "PENDING"
	BillStatusPaid      = "PAID"
	BillStatusCancelled = "CANCELLED"
)

const (
	OrderStatusRunning   = "RUNNING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	SyncStatusSynced  = "SYNCED"
	SyncStatusPending = "PENDING"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleSteward = "STEWARD"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
	OrderTypeOnline   = "ONLINE"
)

const (
	EntityStateActive  = "ACTIVE"
	EntityStateRetired = "RETIRED"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash  = "CASH"
	PaymentMethodCard  = "CARD"
	PaymentMethodUPI   = "UPI"
	PaymentMethodSplit = "SPLIT"
	PaymentMethodDue   = "DUE"
)

const (
	CategoryTypeFood     = "FOOD"
	CategoryTypeBeverage = "BEVERAGE"
)

const (
	StorageDry     = "DRY"
	StorageChilled = "CHILLED"
	StorageFrozen  = "FROZEN"
)
