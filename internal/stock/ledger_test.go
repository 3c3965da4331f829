package stock

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestTotalOnHand(t *testing.T) {
	batches := []Batch{
		{ID: uuid.New(), Quantity: decimal.NewFromInt(600), PurchaseDate: day(1)},
		{ID: uuid.New(), Quantity: decimal.NewFromInt(400), PurchaseDate: day(2)},
	}
	if got := TotalOnHand(batches); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("TotalOnHand = %s, want 1000", got)
	}
	if got := TotalOnHand(nil); !got.IsZero() {
		t.Errorf("TotalOnHand(nil) = %s, want 0", got)
	}
}

func TestDeductOldestFirst(t *testing.T) {
	newer := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(400), PurchaseDate: day(5)}
	older := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(600), PurchaseDate: day(1)}

	// Input order is newest first; deduction must still hit the oldest.
	survivors, draws, err := Deduct([]Batch{newer, older}, decimal.NewFromInt(600))
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if len(draws) != 1 || draws[0].BatchID != older.ID {
		t.Fatalf("draws = %+v, want single draw from oldest batch", draws)
	}
	if !draws[0].Quantity.Equal(decimal.NewFromInt(600)) {
		t.Errorf("draw quantity = %s, want 600", draws[0].Quantity)
	}
	if len(survivors) != 1 || survivors[0].ID != newer.ID {
		t.Fatalf("survivors = %+v, want only the newer batch", survivors)
	}
	if !survivors[0].Quantity.Equal(decimal.NewFromInt(400)) {
		t.Errorf("surviving quantity = %s, want 400", survivors[0].Quantity)
	}
}

func TestDeductSpansBatches(t *testing.T) {
	first := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(600), PurchaseDate: day(1)}
	second := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(400), PurchaseDate: day(2)}

	survivors, draws, err := Deduct([]Batch{first, second}, decimal.NewFromInt(700))
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].BatchID != first.ID || !draws[0].Quantity.Equal(decimal.NewFromInt(600)) {
		t.Errorf("first draw = %+v, want 600 from oldest", draws[0])
	}
	if draws[1].BatchID != second.ID || !draws[1].Quantity.Equal(decimal.NewFromInt(100)) {
		t.Errorf("second draw = %+v, want 100 from next", draws[1])
	}
	if len(survivors) != 1 || !survivors[0].Quantity.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("survivors = %+v, want one batch of 300", survivors)
	}
}

func TestDeductConservation(t *testing.T) {
	batches := []Batch{
		{ID: uuid.New(), Quantity: decimal.NewFromFloat(123.45), PurchaseDate: day(1)},
		{ID: uuid.New(), Quantity: decimal.NewFromFloat(67.89), PurchaseDate: day(2)},
		{ID: uuid.New(), Quantity: decimal.NewFromFloat(200.1), PurchaseDate: day(3)},
	}
	before := TotalOnHand(batches)
	need := decimal.NewFromFloat(150.5)

	survivors, draws, err := Deduct(batches, need)
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}

	drawn := decimal.Zero
	for _, d := range draws {
		drawn = drawn.Add(d.Quantity)
	}
	if !drawn.Equal(need) {
		t.Errorf("total drawn = %s, want %s", drawn, need)
	}
	if after := TotalOnHand(survivors); !before.Sub(after).Equal(need) {
		t.Errorf("on hand went %s -> %s, delta != %s", before, after, need)
	}
}

func TestDeductTieBreaksOnCreatedAt(t *testing.T) {
	earlier := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(10), PurchaseDate: day(1), CreatedAt: day(1).Add(time.Hour)}
	later := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(10), PurchaseDate: day(1), CreatedAt: day(1).Add(2 * time.Hour)}

	_, draws, err := Deduct([]Batch{later, earlier}, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if len(draws) != 1 || draws[0].BatchID != earlier.ID {
		t.Fatalf("draws = %+v, want draw from the earlier-created batch", draws)
	}
}

func TestDeductShortfall(t *testing.T) {
	batches := []Batch{
		{ID: uuid.New(), Quantity: decimal.NewFromInt(600), PurchaseDate: day(1)},
		{ID: uuid.New(), Quantity: decimal.NewFromInt(400), PurchaseDate: day(2)},
	}

	survivors, draws, err := Deduct(batches, decimal.NewFromInt(2000))
	if err == nil {
		t.Fatal("expected shortfall error")
	}
	var insErr *InsufficientError
	if !errors.As(err, &insErr) {
		t.Fatalf("error type = %T, want *InsufficientError", err)
	}
	if !insErr.Required.Equal(decimal.NewFromInt(2000)) || !insErr.Available.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("error = required %s available %s, want 2000/1000", insErr.Required, insErr.Available)
	}
	if !insErr.Shortfall().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("shortfall = %s, want 1000", insErr.Shortfall())
	}
	if survivors != nil || draws != nil {
		t.Errorf("shortfall must not return partial state, got survivors=%v draws=%v", survivors, draws)
	}
	// Input slice untouched.
	if !batches[0].Quantity.Equal(decimal.NewFromInt(600)) || !batches[1].Quantity.Equal(decimal.NewFromInt(400)) {
		t.Errorf("input batches mutated: %+v", batches)
	}
}

func TestDeductZero(t *testing.T) {
	b := Batch{ID: uuid.New(), Quantity: decimal.NewFromInt(5), PurchaseDate: day(1)}
	survivors, draws, err := Deduct([]Batch{b}, decimal.Zero)
	if err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if len(draws) != 0 {
		t.Errorf("draws = %+v, want none", draws)
	}
	if len(survivors) != 1 || !survivors[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("survivors = %+v, want untouched batch", survivors)
	}
}

func TestDeductNegative(t *testing.T) {
	_, _, err := Deduct(nil, decimal.NewFromInt(-1))
	if err == nil {
		t.Fatal("expected error for negative quantity")
	}
}
