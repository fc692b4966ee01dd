package moneta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/monetahq/moneta/config"
	"github.com/monetahq/moneta/database/mocks"
	"github.com/monetahq/moneta/internal/apierror"
	"github.com/monetahq/moneta/model"
)

func newTestLedger(t *testing.T) (*Moneta, *mocks.MockDataSource) {
	config.MockConfig(&config.Configuration{})
	datasource := &mocks.MockDataSource{}
	ledger, err := NewMoneta(datasource)
	require.NoError(t, err)
	return ledger, datasource
}

func TestDeposit(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("ApplyLedgerTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TypeDeposit &&
			txn.Destination == "acc_1" &&
			txn.Source == "" &&
			txn.Amount == int64(50000) &&
			txn.Description == "Deposit" &&
			txn.Status == model.StatusCompleted &&
			txn.TransactionID != "" &&
			!txn.CreatedAt.IsZero()
	})).Return(&model.Transaction{
		TransactionID:   "txn_1",
		Type:            model.TypeDeposit,
		Destination:     "acc_1",
		Amount:          50000,
		PreviousBalance: 100000,
		NewBalance:      150000,
	}, nil)

	txn, err := ledger.Deposit(context.Background(), "acc_1", 50000, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), txn.PreviousBalance)
	assert.Equal(t, int64(150000), txn.NewBalance)
	datasource.AssertExpectations(t)
}

func TestWithdraw_InsufficientFundsPropagates(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("ApplyLedgerTransaction", mock.Anything, mock.Anything).
		Return(nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "Insufficient funds in account 'acc_1'", nil))

	_, err := ledger.Withdraw(context.Background(), "acc_1", 200000, "")
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrInsufficientFunds}))
	datasource.AssertExpectations(t)
}

func TestRecordTransaction_RejectsInvalidSpec(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	_, err := ledger.RecordTransaction(context.Background(), &model.Transaction{
		Type:        model.TypeDeposit,
		Destination: "acc_1",
		Amount:      0,
	})
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrInvalidInput}))
	datasource.AssertNotCalled(t, "ApplyLedgerTransaction", mock.Anything, mock.Anything)
}

func TestTransfer(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_b").
		Return(&model.Account{AccountID: "acc_b", Active: true}, nil)
	datasource.On("ApplyLedgerTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TypeTransfer &&
			txn.Source == "acc_a" &&
			txn.Destination == "acc_b" &&
			txn.Amount == int64(15050)
	})).Return(&model.Transaction{
		TransactionID: "txn_1",
		Type:          model.TypeTransfer,
		Source:        "acc_a",
		Destination:   "acc_b",
		Amount:        15050,
	}, nil)

	txn, err := ledger.Transfer(context.Background(), "acc_a", "acc_b", 15050, "")
	require.NoError(t, err)
	assert.Equal(t, "acc_a", txn.Source)
	assert.Equal(t, "acc_b", txn.Destination)
	datasource.AssertExpectations(t)
}

func TestTransfer_SameAccount(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	_, err := ledger.Transfer(context.Background(), "acc_a", "acc_a", 100, "")
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrSameAccountTransfer}))
	datasource.AssertNotCalled(t, "ApplyLedgerTransaction", mock.Anything, mock.Anything)
}

func TestTransfer_UnknownDestination(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_missing").
		Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Account with ID 'acc_missing' not found", nil))

	_, err := ledger.Transfer(context.Background(), "acc_a", "acc_missing", 100, "")
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrNotFound}))
	datasource.AssertNotCalled(t, "ApplyLedgerTransaction", mock.Anything, mock.Anything)
}

func TestTransfer_InactiveDestination(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetAccountByID", mock.Anything, "acc_b").
		Return(&model.Account{AccountID: "acc_b", Active: false}, nil)

	_, err := ledger.Transfer(context.Background(), "acc_a", "acc_b", 100, "")
	assert.True(t, errors.Is(err, apierror.APIError{Code: apierror.ErrInactiveAccount}))
	datasource.AssertNotCalled(t, "ApplyLedgerTransaction", mock.Anything, mock.Anything)
}

func TestGetTransaction_ServesRepeatReadsFromCache(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("GetTransaction", mock.Anything, "txn_1").
		Return(&model.Transaction{
			TransactionID: "txn_1",
			Type:          model.TypeDeposit,
			Destination:   "acc_1",
			Amount:        100000,
			Status:        model.StatusCompleted,
		}, nil).Once()

	first, err := ledger.GetTransaction(context.Background(), "txn_1")
	require.NoError(t, err)
	second, err := ledger.GetTransaction(context.Background(), "txn_1")
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, first.Amount, second.Amount)
	datasource.AssertExpectations(t)
}

func TestApplyFeeAndInterestFixTheSides(t *testing.T) {
	ledger, datasource := newTestLedger(t)

	datasource.On("ApplyLedgerTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TypeFee && txn.Source == "acc_1" && txn.Destination == ""
	})).Return(&model.Transaction{Type: model.TypeFee}, nil).Once()
	datasource.On("ApplyLedgerTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TypeInterest && txn.Destination == "acc_1" && txn.Source == ""
	})).Return(&model.Transaction{Type: model.TypeInterest}, nil).Once()

	_, err := ledger.ApplyFee(context.Background(), "acc_1", 500, "Maintenance fee")
	require.NoError(t, err)
	_, err = ledger.ApplyInterest(context.Background(), "acc_1", 120, "")
	require.NoError(t, err)
	datasource.AssertExpectations(t)
}
