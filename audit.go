package moneta

import (
	"context"

	"github.com/sirupsen/logrus"
)

// BalanceVerification is the result of replaying an account's history
// against its stored balance. A mismatch is a diagnostic finding, not an
// error. Amounts are minor units and the comparison is exact.
type BalanceVerification struct {
	IsConsistent      bool  `json:"is_consistent"`
	CalculatedBalance int64 `json:"calculated_balance"`
	StoredBalance     int64 `json:"stored_balance"`
	Difference        int64 `json:"difference"`
}

// VerifyBalanceConsistency recomputes the account balance by replaying
// every COMPLETED transaction touching it, oldest first, and compares the
// result with the stored balance. The replay applies the same central
// debit/credit classification as the write path, so record-only types like
// ADJUSTMENT do not produce false drift.
func (l *Moneta) VerifyBalanceConsistency(ctx context.Context, accountID string) (*BalanceVerification, error) {
	ctx, span := tracer.Start(ctx, "Verifying balance consistency")
	defer span.End()

	account, err := l.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := l.datasource.GetCompletedTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, logAndRecordError(span, "error replaying transactions: ", err)
	}

	var calculated int64
	for _, txn := range transactions {
		if txn.Source == accountID && txn.Type.DebitsSource() {
			calculated -= txn.Amount
		}
		if txn.Destination == accountID && txn.Type.CreditsDestination() {
			calculated += txn.Amount
		}
	}

	difference := calculated - account.Balance
	if difference < 0 {
		difference = -difference
	}

	if difference != 0 {
		logrus.WithFields(logrus.Fields{
			"account_id":         accountID,
			"calculated_balance": calculated,
			"stored_balance":     account.Balance,
		}).Warn("balance drift detected")
	}

	return &BalanceVerification{
		IsConsistent:      difference == 0,
		CalculatedBalance: calculated,
		StoredBalance:     account.Balance,
		Difference:        difference,
	}, nil
}
