package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionTypeClassification(t *testing.T) {
	tests := []struct {
		txnType            TransactionType
		debitsSource       bool
		creditsDestination bool
	}{
		{TypeDeposit, false, true},
		{TypeWithdrawal, true, false},
		{TypeTransfer, true, true},
		{TypeFee, true, false},
		{TypeInterest, false, true},
		{TypePayment, true, false},
		{TypeReversal, true, true},
		{TypeAdjustment, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txnType), func(t *testing.T) {
			assert.True(t, tt.txnType.Valid())
			assert.Equal(t, tt.debitsSource, tt.txnType.DebitsSource())
			assert.Equal(t, tt.creditsDestination, tt.txnType.CreditsDestination())
		})
	}

	assert.False(t, TransactionType("GIFT").Valid())
}

func TestApplyTransaction_Deposit(t *testing.T) {
	destination := &Account{AccountID: "acc_1", Balance: 100000, Active: true}
	txn := &Transaction{Type: TypeDeposit, Destination: "acc_1", Amount: 50000}

	err := ApplyTransaction(txn, nil, destination)
	assert.NoError(t, err)
	assert.Equal(t, int64(150000), destination.Balance)
	assert.Equal(t, int64(100000), txn.PreviousBalance)
	assert.Equal(t, int64(150000), txn.NewBalance)
	assert.Nil(t, txn.SourceChange)
	assert.Equal(t, &BalancePair{Previous: 100000, New: 150000}, txn.DestinationChange)
}

func TestApplyTransaction_WithdrawalInsufficientFunds(t *testing.T) {
	source := &Account{AccountID: "acc_1", Balance: 80000, Active: true}
	txn := &Transaction{Type: TypeWithdrawal, Source: "acc_1", Amount: 200000}

	err := ApplyTransaction(txn, source, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(80000), source.Balance)
	assert.Nil(t, txn.SourceChange)
}

func TestApplyTransaction_TransferConservesTotal(t *testing.T) {
	source := &Account{AccountID: "acc_a", Balance: 100000, Active: true}
	destination := &Account{AccountID: "acc_b", Balance: 50000, Active: true}
	txn := &Transaction{Type: TypeTransfer, Source: "acc_a", Destination: "acc_b", Amount: 15050}

	err := ApplyTransaction(txn, source, destination)
	assert.NoError(t, err)
	assert.Equal(t, int64(84950), source.Balance)
	assert.Equal(t, int64(65050), destination.Balance)
	assert.Equal(t, int64(150000), source.Balance+destination.Balance)

	// source is the primary account
	assert.Equal(t, int64(100000), txn.PreviousBalance)
	assert.Equal(t, int64(84950), txn.NewBalance)
	assert.Equal(t, &BalancePair{Previous: 50000, New: 65050}, txn.DestinationChange)
}

func TestApplyTransaction_ReversalDebitsSource(t *testing.T) {
	source := &Account{AccountID: "acc_b", Balance: 65050, Active: true}
	destination := &Account{AccountID: "acc_a", Balance: 84950, Active: true}
	txn := &Transaction{Type: TypeReversal, Source: "acc_b", Destination: "acc_a", Amount: 15050}

	err := ApplyTransaction(txn, source, destination)
	assert.NoError(t, err)
	assert.Equal(t, int64(50000), source.Balance)
	assert.Equal(t, int64(100000), destination.Balance)
}

func TestApplyTransaction_AdjustmentIsRecordOnly(t *testing.T) {
	source := &Account{AccountID: "acc_1", Balance: 30000, Active: true}
	txn := &Transaction{Type: TypeAdjustment, Source: "acc_1", Amount: 99999}

	err := ApplyTransaction(txn, source, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(30000), source.Balance)
	assert.Equal(t, &BalancePair{Previous: 30000, New: 30000}, txn.SourceChange)
	assert.Equal(t, int64(30000), txn.PreviousBalance)
	assert.Equal(t, int64(30000), txn.NewBalance)
}

func TestTransactionValidate(t *testing.T) {
	valid := &Transaction{Type: TypeDeposit, Destination: "acc_1", Amount: 100}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		txn  *Transaction
	}{
		{"zero amount", &Transaction{Type: TypeDeposit, Destination: "acc_1"}},
		{"negative amount", &Transaction{Type: TypeDeposit, Destination: "acc_1", Amount: -50}},
		{"unknown type", &Transaction{Type: "GIFT", Destination: "acc_1", Amount: 100}},
		{"withdrawal without source", &Transaction{Type: TypeWithdrawal, Amount: 100}},
		{"transfer without destination", &Transaction{Type: TypeTransfer, Source: "acc_1", Amount: 100}},
		{"no accounts at all", &Transaction{Type: TypeAdjustment, Amount: 100}},
		{"bad status", &Transaction{Type: TypeDeposit, Destination: "acc_1", Amount: 100, Status: "DONE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.txn.Validate())
		})
	}

	// a reversal of a one-sided transaction carries only one account
	oneSided := &Transaction{Type: TypeReversal, Source: "acc_1", Amount: 100}
	assert.NoError(t, oneSided.Validate())
}
