package model

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AccountType tags the product an account belongs to.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountSavings  AccountType = "SAVINGS"
	AccountSalary   AccountType = "SALARY"
)

// Account is one row of the balance store. Balance is held in minor units
// (cents) and must only ever change inside a ledger transaction. Accounts
// are soft-deactivated, never deleted, so historical transactions always
// resolve.
type Account struct {
	ID        int64                  `json:"-"`
	AccountID string                 `json:"account_id"`
	UserID    string                 `json:"user_id"`
	Number    string                 `json:"number"`
	Agency    string                 `json:"agency"`
	Type      AccountType            `json:"type"`
	Balance   int64                  `json:"balance"`
	Active    bool                   `json:"active"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}

func (account *Account) ToJSON() ([]byte, error) {
	return json.Marshal(account)
}

func (account *Account) Validate() error {
	return validation.ValidateStruct(account,
		validation.Field(&account.UserID, validation.Required),
		validation.Field(&account.Type, validation.Required,
			validation.In(AccountChecking, AccountSavings, AccountSalary)),
		validation.Field(&account.Balance, validation.Min(int64(0))),
	)
}
