package moneta

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/monetahq/moneta/internal/apierror"
	"github.com/monetahq/moneta/model"
)

// CreateAccount opens an account with a zero balance. An initial balance is
// applied afterwards as a regular DEPOSIT through the ledger, so even the
// opening amount has a transaction row behind it.
func (l *Moneta) CreateAccount(ctx context.Context, account model.Account, initialBalance int64) (model.Account, error) {
	ctx, span := tracer.Start(ctx, "Creating account")
	defer span.End()

	if initialBalance < 0 {
		return model.Account{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Initial balance cannot be negative", nil)
	}

	account.Balance = 0
	if err := account.Validate(); err != nil {
		return model.Account{}, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	created, err := l.datasource.CreateAccount(ctx, account)
	if err != nil {
		return model.Account{}, err
	}

	if initialBalance > 0 {
		txn, err := l.Deposit(ctx, created.AccountID, initialBalance, "Initial deposit")
		if err != nil {
			return model.Account{}, logAndRecordError(span, "error applying initial deposit: ", err)
		}
		created.Balance = txn.NewBalance
	}

	logrus.WithFields(logrus.Fields{
		"account_id": created.AccountID,
		"type":       created.Type,
	}).Info("account created")

	return created, nil
}

func (l *Moneta) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return l.datasource.GetAccountByID(ctx, accountID)
}

func (l *Moneta) GetUserAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	return l.datasource.GetAccountsByUserID(ctx, userID)
}

func (l *Moneta) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return l.datasource.GetAllAccounts(ctx, limit, offset)
}

// GetCurrentBalance returns the stored balance in minor units.
func (l *Moneta) GetCurrentBalance(ctx context.Context, accountID string) (int64, error) {
	account, err := l.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// DeactivateAccount soft-deactivates; the account's history stays
// queryable and auditable.
func (l *Moneta) DeactivateAccount(ctx context.Context, accountID string) error {
	return l.datasource.DeactivateAccount(ctx, accountID)
}
