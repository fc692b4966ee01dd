package database

import (
	"context"

	"github.com/monetahq/moneta/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	transaction // Interface for transaction-related operations
	account     // Interface for account-related operations
}

// transaction defines methods for the ledger write path and log reads.
type transaction interface {
	// ApplyLedgerTransaction executes one ledger operation as an atomic
	// unit: row-locked balance reads, balance mutation and the log insert
	// either all commit or all roll back.
	ApplyLedgerTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsForAccount(ctx context.Context, accountID string, filter model.TransactionFilter) ([]*model.Transaction, int64, error)
	GetCompletedTransactionsForAccount(ctx context.Context, accountID string) ([]*model.Transaction, error)
}

// account defines methods for handling accounts.
type account interface {
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountsByUserID(ctx context.Context, userID string) ([]model.Account, error)
	GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error)
	DeactivateAccount(ctx context.Context, id string) error
}
