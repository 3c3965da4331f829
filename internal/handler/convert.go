package handler

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func textFrom(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// numericString renders a money/quantity column for JSON. Amounts are
// strings on the wire so clients never touch binary floats.
func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	return val.(string)
}

// parseMoney parses a non-negative decimal amount field.
func parseMoney(s string) (pgtype.Numeric, bool) {
	var n pgtype.Numeric
	if s == "" {
		_ = n.Scan("0")
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return n, false
	}
	_ = n.Scan(d.StringFixed(2))
	return n, true
}

// numericDecimal converts a numeric column for arithmetic. Invalid or
// unscannable values count as zero.
func numericDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseQuantity parses a positive decimal quantity field.
func parseQuantity(s string) (pgtype.Numeric, bool) {
	var n pgtype.Numeric
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return n, false
	}
	_ = n.Scan(d.StringFixed(3))
	return n, true
}

// parseQuantityOrZero is parseQuantity but treats empty or zero input
// as zero instead of rejecting it.
func parseQuantityOrZero(s string) (pgtype.Numeric, bool) {
	var n pgtype.Numeric
	if s == "" {
		_ = n.Scan("0")
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return n, false
	}
	_ = n.Scan(d.StringFixed(3))
	return n, true
}
