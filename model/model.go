package model

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateUUIDWithSuffix generates a UUID prefixed with a module name,
// e.g. "acc_8d3b..." or "txn_91fa...".
func GenerateUUIDWithSuffix(module string) string {
	return fmt.Sprintf("%s_%s", module, uuid.New().String())
}

// GenerateAccountNumber produces a display account number in the
// NNNNNNNN-D format used on statements.
func GenerateAccountNumber() string {
	return fmt.Sprintf("%08d-%d", rand.Intn(100000000), rand.Intn(10))
}

// ParseAmount converts a decimal amount string ("150.50") to minor units
// (15050). Amounts with more than two decimal places are rejected rather
// than rounded, so the ledger never absorbs sub-cent drift.
func ParseAmount(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, errors.New("amount has more than two decimal places")
	}
	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a two decimal place string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
