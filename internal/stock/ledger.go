// Package stock implements the batch ledger: on-hand totals and
// oldest-first deductions over purchase batches. All quantities are in
// the stock item's canonical unit. The functions here are pure; callers
// persist the resulting batch state.
package stock

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Batch struct {
	ID           uuid.UUID
	Quantity     decimal.Decimal
	PurchaseDate time.Time
	CreatedAt    time.Time
}

// Draw records how much was taken from a single batch.
type Draw struct {
	BatchID  uuid.UUID
	Quantity decimal.Decimal
}

// InsufficientError reports that a deduction could not be covered by the
// batches on hand. Quantities are in the item's canonical unit.
type InsufficientError struct {
	Item      string
	Unit      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

func (e *InsufficientError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("insufficient stock: required %s, available %s", e.Required, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %s: required %s %s, available %s %s (short %s %s)",
		e.Item, e.Required, e.Unit, e.Available, e.Unit, e.Shortfall(), e.Unit)
}

func TotalOnHand(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.Quantity)
	}
	return total
}

// Deduct removes qty from batches oldest purchase first, ties broken by
// creation time. It returns the surviving batches (emptied batches are
// dropped) and the per-batch draws. On a shortfall it returns an
// InsufficientError and leaves the input untouched.
func Deduct(batches []Batch, qty decimal.Decimal) ([]Batch, []Draw, error) {
	if qty.IsNegative() {
		return nil, nil, fmt.Errorf("negative deduction %s", qty)
	}

	available := TotalOnHand(batches)
	if available.LessThan(qty) {
		return nil, nil, &InsufficientError{Required: qty, Available: available}
	}

	ordered := make([]Batch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].PurchaseDate.Equal(ordered[j].PurchaseDate) {
			return ordered[i].PurchaseDate.Before(ordered[j].PurchaseDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	remaining := qty
	var draws []Draw
	var survivors []Batch
	for _, b := range ordered {
		if remaining.IsPositive() && b.Quantity.IsPositive() {
			take := decimal.Min(b.Quantity, remaining)
			draws = append(draws, Draw{BatchID: b.ID, Quantity: take})
			b.Quantity = b.Quantity.Sub(take)
			remaining = remaining.Sub(take)
		}
		if b.Quantity.IsPositive() {
			survivors = append(survivors, b)
		}
	}
	return survivors, draws, nil
}
