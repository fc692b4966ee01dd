package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/monetahq/moneta/internal/apierror"
	"github.com/monetahq/moneta/model"
)

// ApplyLedgerTransaction executes one ledger operation as a single database
// transaction: it row-locks every touched account, applies the balance
// rules, persists the new balances and appends the immutable transaction
// record. A failure at any step rolls the whole unit back, so a transaction
// row can never exist without its balance change or vice versa.
//
// Accounts are locked in ascending account_id order. Two transfers moving
// money in opposite directions between the same pair therefore always
// contend on the same first row instead of deadlocking.
func (d Datasource) ApplyLedgerTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := otel.Tracer("ledger.database").Start(ctx, "Applying ledger transaction")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin ledger transaction", err)
	}

	locked, err := d.lockAccounts(ctx, tx, txn)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	var source, destination *model.Account
	for _, account := range locked {
		if account.AccountID == txn.Source {
			source = account
		}
		if account.AccountID == txn.Destination {
			destination = account
		}
	}

	if err := model.ApplyTransaction(txn, source, destination); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, model.ErrInsufficientFunds) {
			return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds,
				fmt.Sprintf("Insufficient funds in account '%s'", txn.Source), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Failed to apply transaction", err)
	}

	for _, account := range locked {
		if err := updateAccountBalance(ctx, tx, account); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit ledger transaction", err)
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"type":           txn.Type,
		"amount":         txn.Amount,
	}).Info("ledger transaction applied")

	return txn, nil
}

// lockAccounts loads every account the transaction touches with FOR UPDATE,
// in ascending account_id order, and rejects inactive accounts. The returned
// slice keeps the lock order.
func (d Datasource) lockAccounts(ctx context.Context, tx *sql.Tx, txn *model.Transaction) ([]*model.Account, error) {
	ids := make([]string, 0, 2)
	if txn.Source != "" {
		ids = append(ids, txn.Source)
	}
	if txn.Destination != "" && txn.Destination != txn.Source {
		ids = append(ids, txn.Destination)
	}
	sort.Strings(ids)

	accounts := make([]*model.Account, 0, len(ids))
	for _, id := range ids {
		account, err := d.getAccountForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if !account.Active {
			return nil, apierror.NewAPIError(apierror.ErrInactiveAccount,
				fmt.Sprintf("Account with ID '%s' is deactivated", id), nil)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *model.Transaction) error {
	metaDataJSON, err := json.Marshal(txn.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions(transaction_id,type,source,destination,amount,description,status,previous_balance,new_balance,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		txn.TransactionID, txn.Type, nullString(txn.Source), nullString(txn.Destination), txn.Amount, txn.Description, txn.Status, txn.PreviousBalance, txn.NewBalance, txn.CreatedAt, metaDataJSON,
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}
	return nil
}

func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT transaction_id, type, source, destination, amount, description, status, previous_balance, new_balance, created_at, meta_data
		FROM transactions
		WHERE transaction_id = $1
	`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}

	return txn, nil
}

// GetTransactionsForAccount returns transactions where the account is either
// side, newest first, with the total row count for pagination metadata.
func (d Datasource) GetTransactionsForAccount(ctx context.Context, accountID string, filter model.TransactionFilter) ([]*model.Transaction, int64, error) {
	where := `WHERE (source = $1 OR destination = $1)`
	args := []interface{}{accountID}
	argIndex := 2

	addClause := func(clause string, value interface{}) {
		where += fmt.Sprintf(" AND %s $%d", clause, argIndex)
		args = append(args, value)
		argIndex++
	}

	if filter.Type != "" {
		addClause("type =", filter.Type)
	}
	if filter.Status != "" {
		addClause("status =", filter.Status)
	}
	if !filter.FromDate.IsZero() {
		addClause("created_at >=", filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		addClause("created_at <=", filter.ToDate)
	}
	if filter.MinAmount > 0 {
		addClause("amount >=", filter.MinAmount)
	}
	if filter.MaxAmount > 0 {
		addClause("amount <=", filter.MaxAmount)
	}

	var total int64
	err := d.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count transactions", err)
	}

	query := fmt.Sprintf(`
		SELECT transaction_id, type, source, destination, amount, description, status, previous_balance, new_balance, created_at, meta_data
		FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// GetCompletedTransactionsForAccount returns every COMPLETED transaction
// touching the account, oldest first, for balance replay.
func (d Datasource) GetCompletedTransactionsForAccount(ctx context.Context, accountID string) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT transaction_id, type, source, destination, amount, description, status, previous_balance, new_balance, created_at, meta_data
		FROM transactions
		WHERE (source = $1 OR destination = $1) AND status = $2
		ORDER BY created_at ASC
	`, accountID, model.StatusCompleted)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	var source, destination sql.NullString
	var metaDataJSON []byte
	err := row.Scan(&txn.TransactionID, &txn.Type, &source, &destination, &txn.Amount, &txn.Description, &txn.Status, &txn.PreviousBalance, &txn.NewBalance, &txn.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}
	txn.Source = source.String
	txn.Destination = destination.String
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &txn.MetaData); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func collectTransactions(rows *sql.Rows) ([]*model.Transaction, error) {
	transactions := []*model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transactions", err)
	}
	return transactions, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
