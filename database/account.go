package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/monetahq/moneta/internal/apierror"
	"github.com/monetahq/moneta/model"
)

func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, span := otel.Tracer("ledger.database").Start(ctx, "Saving account to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(account.MetaData)
	if err != nil {
		return model.Account{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	account.AccountID = model.GenerateUUIDWithSuffix("acc")
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	account.Active = true
	if account.Number == "" {
		account.Number = model.GenerateAccountNumber()
	}
	if account.Agency == "" {
		account.Agency = "0001"
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO accounts(account_id,user_id,number,agency,type,balance,active,created_at,updated_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		account.AccountID, account.UserID, account.Number, account.Agency, account.Type, account.Balance, account.Active, account.CreatedAt, account.UpdatedAt, metaDataJSON,
	)
	if err != nil {
		return model.Account{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create account", err)
	}

	return account, nil
}

func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT account_id, user_id, number, agency, type, balance, active, created_at, updated_at, meta_data
		FROM accounts
		WHERE account_id = $1
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}

	return account, nil
}

func (d Datasource) GetAccountsByUserID(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT account_id, user_id, number, agency, type, balance, active, created_at, updated_at, meta_data
		FROM accounts
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (d Datasource) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT account_id, user_id, number, agency, type, balance, active, created_at, updated_at, meta_data
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// DeactivateAccount soft-deletes: the row stays so the transaction log keeps
// resolving, but no further ledger operation will touch the account.
func (d Datasource) DeactivateAccount(ctx context.Context, id string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE accounts
		SET active = FALSE, updated_at = NOW()
		WHERE account_id = $1
	`, id)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to deactivate account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), nil)
	}

	return nil
}

// getAccountForUpdate loads an account inside tx holding its row lock until
// commit. Callers must lock accounts in ascending account_id order.
func (d Datasource) getAccountForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Account, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT account_id, user_id, number, agency, type, balance, active, created_at, updated_at, meta_data
		FROM accounts
		WHERE account_id = $1
		FOR UPDATE
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}

	return account, nil
}

func updateAccountBalance(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE account_id = $1
	`, account.AccountID, account.Balance)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account balance", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	var metaDataJSON []byte
	err := row.Scan(&account.AccountID, &account.UserID, &account.Number, &account.Agency, &account.Type, &account.Balance, &account.Active, &account.CreatedAt, &account.UpdatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &account.MetaData); err != nil {
			return nil, err
		}
	}
	return account, nil
}

func collectAccounts(rows *sql.Rows) ([]model.Account, error) {
	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over accounts", err)
	}
	return accounts, nil
}
