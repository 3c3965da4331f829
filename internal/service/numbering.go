package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxBillNumberRetries = 3

// billNumberStore reads the latest bill number for sequence derivation.
type billNumberStore interface {
	GetLatestBillNumber(ctx context.Context) (string, error)
}

// nextBillNumber builds BIL-YYYYMM-NNNN-XXXX where NNNN continues the
// latest bill's sequence and XXXX is a random hex suffix that keeps
// concurrent generators from colliding on the unique constraint.
func nextBillNumber(ctx context.Context, store billNumberStore, now time.Time) (string, error) {
	seq := 1
	latest, err := store.GetLatestBillNumber(ctx)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("get latest bill number: %w", err)
	}
	if err == nil {
		if n, ok := parseBillSequence(latest); ok {
			seq = n + 1
		}
	}
	return fmt.Sprintf("BIL-%s-%04d-%s", now.Format("200601"), seq, randomHex(2)), nil
}

// parseBillSequence extracts NNNN from BIL-YYYYMM-NNNN-XXXX. Numbers in
// the fallback shape simply restart the sequence.
func parseBillSequence(number string) (int, bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 4 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, false
	}
	return n, true
}

// fallbackBillNumber is used when the sequenced number keeps colliding:
// timestamp plus uuid prefix is unique enough to always land.
func fallbackBillNumber(now time.Time) string {
	return fmt.Sprintf("BIL-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// nextOrderNumber builds ORD-YYYYMM-NNNN from the monthly order count.
func nextOrderNumber(count int64, now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("200601"), count+1)
}

// tempOrderNumber is assigned to orders captured offline, replaced with
// a permanent number at sync time.
func tempOrderNumber(now time.Time) string {
	return fmt.Sprintf("TEMP-%d-%s", now.UnixMilli(), randomHex(3))
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
