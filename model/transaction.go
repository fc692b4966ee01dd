package model

import (
	"encoding/json"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TransactionType classifies a ledger movement. Whether a type debits its
// source or credits its destination is defined here, once, so a new type
// cannot silently bypass the balance rules.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
	TypeFee        TransactionType = "FEE"
	TypeInterest   TransactionType = "INTEREST"
	TypePayment    TransactionType = "PAYMENT"
	TypeReversal   TransactionType = "REVERSAL"
	TypeAdjustment TransactionType = "ADJUSTMENT"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type typeRule struct {
	debitsSource       bool
	creditsDestination bool
	sidesOptional      bool
}

// ADJUSTMENT is record-only: it appends to the log without touching either
// balance. REVERSAL moves money both ways so that reversing a transfer
// conserves the total across the pair; its sides are optional because a
// reversal of a one-sided transaction carries only the swapped side.
var typeRules = map[TransactionType]typeRule{
	TypeDeposit:    {creditsDestination: true},
	TypeWithdrawal: {debitsSource: true},
	TypeTransfer:   {debitsSource: true, creditsDestination: true},
	TypeFee:        {debitsSource: true},
	TypeInterest:   {creditsDestination: true},
	TypePayment:    {debitsSource: true},
	TypeReversal:   {debitsSource: true, creditsDestination: true, sidesOptional: true},
	TypeAdjustment: {sidesOptional: true},
}

func (t TransactionType) Valid() bool {
	_, ok := typeRules[t]
	return ok
}

// DebitsSource reports whether the type decreases the source balance.
func (t TransactionType) DebitsSource() bool {
	return typeRules[t].debitsSource
}

// CreditsDestination reports whether the type increases the destination balance.
func (t TransactionType) CreditsDestination() bool {
	return typeRules[t].creditsDestination
}

// BalancePair captures an account balance immediately before and after a
// ledger transaction was applied to it.
type BalancePair struct {
	Previous int64 `json:"previous"`
	New      int64 `json:"new"`
}

type Transaction struct {
	ID                int64                  `json:"-"`
	TransactionID     string                 `json:"id"`
	Type              TransactionType        `json:"type"`
	Source            string                 `json:"source,omitempty"`
	Destination       string                 `json:"destination,omitempty"`
	Amount            int64                  `json:"amount"`
	Description       string                 `json:"description,omitempty"`
	Status            string                 `json:"status"`
	PreviousBalance   int64                  `json:"previous_balance"`
	NewBalance        int64                  `json:"new_balance"`
	SourceChange      *BalancePair           `json:"source_change,omitempty"`
	DestinationChange *BalancePair           `json:"destination_change,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	MetaData          map[string]interface{} `json:"meta_data,omitempty"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

// Validate checks the transaction spec before it reaches the ledger. The
// side requirements follow the type rules: a debiting type must name a
// source and a crediting type a destination, except for types whose sides
// are optional, which need at least one account.
func (transaction *Transaction) Validate() error {
	rule := typeRules[transaction.Type]
	err := validation.ValidateStruct(transaction,
		validation.Field(&transaction.Type, validation.Required, validation.By(validTransactionType)),
		validation.Field(&transaction.Amount, validation.Required, validation.Min(int64(1)).Error("amount must be positive")),
		validation.Field(&transaction.Status, validation.In(StatusPending, StatusCompleted, StatusFailed, StatusCancelled)),
		validation.Field(&transaction.Source,
			validation.Required.When(rule.debitsSource && !rule.sidesOptional).Error("source account is required for this transaction type")),
		validation.Field(&transaction.Destination,
			validation.Required.When(rule.creditsDestination && !rule.sidesOptional).Error("destination account is required for this transaction type")),
	)
	if err != nil {
		return err
	}
	if transaction.Source == "" && transaction.Destination == "" {
		return errors.New("transaction must reference at least one account")
	}
	return nil
}

func validTransactionType(value interface{}) error {
	t, _ := value.(TransactionType)
	if !t.Valid() {
		return errors.New("unknown transaction type")
	}
	return nil
}

// ApplyTransaction runs the balance rules for txn against the already loaded
// and locked accounts. Either side may be nil when the transaction does not
// touch it. On success the in-memory balances are mutated and the before and
// after pair of each touched account is recorded on the transaction, with
// the primary pair (source if present, otherwise destination) copied onto
// PreviousBalance and NewBalance.
func ApplyTransaction(txn *Transaction, source, destination *Account) error {
	if source != nil {
		previous := source.Balance
		if txn.Type.DebitsSource() {
			if source.Balance < txn.Amount {
				return ErrInsufficientFunds
			}
			source.Balance -= txn.Amount
		}
		txn.SourceChange = &BalancePair{Previous: previous, New: source.Balance}
	}

	if destination != nil {
		previous := destination.Balance
		if txn.Type.CreditsDestination() {
			destination.Balance += txn.Amount
		}
		txn.DestinationChange = &BalancePair{Previous: previous, New: destination.Balance}
	}

	switch {
	case txn.SourceChange != nil:
		txn.PreviousBalance = txn.SourceChange.Previous
		txn.NewBalance = txn.SourceChange.New
	case txn.DestinationChange != nil:
		txn.PreviousBalance = txn.DestinationChange.Previous
		txn.NewBalance = txn.DestinationChange.New
	}

	return nil
}

// TransactionFilter narrows a statement or replay query. Zero values mean
// the dimension is not filtered.
type TransactionFilter struct {
	Type      TransactionType
	Status    string
	FromDate  time.Time
	ToDate    time.Time
	MinAmount int64
	MaxAmount int64
	Limit     int
	Offset    int
}
