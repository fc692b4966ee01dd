package moneta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/monetahq/moneta/internal/apierror"
	"github.com/monetahq/moneta/model"
)

func TestVerifyBalanceConsistency_Consistent(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_1").
		Return(&model.Account{AccountID: "acc_1", Balance: 97500, Active: true}, nil)
	datasource.On("GetCompletedTransactionsForAccount", mock.Anything, "acc_1").
		Return([]*model.Transaction{
			{Type: model.TypeDeposit, Destination: "acc_1", Amount: 100000},
			{Type: model.TypeTransfer, Source: "acc_1", Destination: "acc_2", Amount: 2000},
			{Type: model.TypeFee, Source: "acc_1", Amount: 500},
		}, nil)

	verification, err := ledger.VerifyBalanceConsistency(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.True(t, verification.IsConsistent)
	assert.Equal(t, int64(97500), verification.CalculatedBalance)
	assert.Equal(t, int64(97500), verification.StoredBalance)
	assert.Zero(t, verification.Difference)
	datasource.AssertExpectations(t)
}

func TestVerifyBalanceConsistency_Drift(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	// Stored balance is one minor unit off from what the history replays to.
	datasource.On("GetAccountByID", mock.Anything, "acc_1").
		Return(&model.Account{AccountID: "acc_1", Balance: 100001, Active: true}, nil)
	datasource.On("GetCompletedTransactionsForAccount", mock.Anything, "acc_1").
		Return([]*model.Transaction{
			{Type: model.TypeDeposit, Destination: "acc_1", Amount: 100000},
		}, nil)

	verification, err := ledger.VerifyBalanceConsistency(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.False(t, verification.IsConsistent)
	assert.Equal(t, int64(100000), verification.CalculatedBalance)
	assert.Equal(t, int64(100001), verification.StoredBalance)
	assert.Equal(t, int64(1), verification.Difference)
	datasource.AssertExpectations(t)
}

func TestVerifyBalanceConsistency_IgnoresRecordOnlyTypes(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_1").
		Return(&model.Account{AccountID: "acc_1", Balance: 100000, Active: true}, nil)
	datasource.On("GetCompletedTransactionsForAccount", mock.Anything, "acc_1").
		Return([]*model.Transaction{
			{Type: model.TypeDeposit, Destination: "acc_1", Amount: 100000},
			{Type: model.TypeAdjustment, Destination: "acc_1", Amount: 9999},
		}, nil)

	verification, err := ledger.VerifyBalanceConsistency(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.True(t, verification.IsConsistent)
	datasource.AssertExpectations(t)
}

func TestVerifyBalanceConsistency_UnknownAccount(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_missing").
		Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Account with ID 'acc_missing' not found", nil))

	_, err := ledger.VerifyBalanceConsistency(context.Background(), "acc_missing")
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrNotFound}))
	datasource.AssertNotCalled(t, "GetCompletedTransactionsForAccount", mock.Anything, mock.Anything)
}
