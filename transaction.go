package moneta

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/monetahq/moneta/internal/apierror"
	redlock "github.com/monetahq/moneta/internal/lock"
	"github.com/monetahq/moneta/model"
)

var tracer = otel.Tracer("ledger.engine")

const (
	lockTimeout         = 30 * time.Second
	lockWaitTimeout     = 10 * time.Second
	transactionCacheTTL = 24 * time.Hour
)

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// RecordTransaction validates a transaction spec and applies it as one
// atomic unit against the backing store. Either the balance mutations and
// the log row all commit, or none of them do.
func (l *Moneta) RecordTransaction(ctx context.Context, transaction *model.Transaction) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Recording transaction")
	defer span.End()

	if err := transaction.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	applyDefaults(transaction)

	locker, err := l.acquireLock(ctx, transaction)
	if err != nil {
		return nil, logAndRecordError(span, "lock error: ", err)
	}
	if locker != nil {
		defer func() {
			if err := locker.Unlock(ctx); err != nil {
				logrus.Error("lock error", err)
			}
		}()
	}

	applied, err := l.datasource.ApplyLedgerTransaction(ctx, transaction)
	if err != nil {
		return nil, logAndRecordError(span, "error applying transaction: ", err)
	}

	return applied, nil
}

func applyDefaults(transaction *model.Transaction) {
	if transaction.TransactionID == "" {
		transaction.TransactionID = model.GenerateUUIDWithSuffix("txn")
	}
	if transaction.Status == "" {
		transaction.Status = model.StatusCompleted
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
}

// acquireLock takes the per-account advisory lock when redis is configured.
// The database row locks already guarantee correctness; the advisory lock
// keeps hot accounts from piling up on the row lock.
func (l *Moneta) acquireLock(ctx context.Context, transaction *model.Transaction) (*redlock.Locker, error) {
	if l.redis == nil {
		return nil, nil
	}
	key := transaction.Source
	if key == "" {
		key = transaction.Destination
	}
	locker := redlock.NewAccountLocker(l.redis, key, model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, lockTimeout, lockWaitTimeout); err != nil {
		return nil, err
	}
	return locker, nil
}

// Deposit credits an account.
func (l *Moneta) Deposit(ctx context.Context, destination string, amount int64, description string) (*model.Transaction, error) {
	if description == "" {
		description = "Deposit"
	}
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeDeposit,
		Destination: destination,
		Amount:      amount,
		Description: description,
	})
}

// Withdraw debits an account, failing with InsufficientFunds when the
// balance cannot cover the amount.
func (l *Moneta) Withdraw(ctx context.Context, source string, amount int64, description string) (*model.Transaction, error) {
	if description == "" {
		description = "Withdrawal"
	}
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeWithdrawal,
		Source:      source,
		Amount:      amount,
		Description: description,
	})
}

// Transfer moves the amount between two distinct accounts. The destination
// is checked up front so the caller gets SameAccountTransfer or a
// destination NotFound before any lock is taken.
func (l *Moneta) Transfer(ctx context.Context, source, destination string, amount int64, description string) (*model.Transaction, error) {
	if source == destination {
		return nil, apierror.NewAPIError(apierror.ErrSameAccountTransfer, "Source and destination accounts must differ", nil)
	}

	destinationAccount, err := l.datasource.GetAccountByID(ctx, destination)
	if err != nil {
		return nil, err
	}
	if !destinationAccount.Active {
		return nil, apierror.NewAPIError(apierror.ErrInactiveAccount, "Destination account is deactivated", nil)
	}

	if description == "" {
		description = "Transfer"
	}
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeTransfer,
		Source:      source,
		Destination: destination,
		Amount:      amount,
		Description: description,
	})
}

// ApplyFee debits a service fee from an account.
func (l *Moneta) ApplyFee(ctx context.Context, source string, amount int64, description string) (*model.Transaction, error) {
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeFee,
		Source:      source,
		Amount:      amount,
		Description: description,
	})
}

// ApplyInterest credits interest to an account.
func (l *Moneta) ApplyInterest(ctx context.Context, destination string, amount int64, description string) (*model.Transaction, error) {
	if description == "" {
		description = "Interest"
	}
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeInterest,
		Destination: destination,
		Amount:      amount,
		Description: description,
	})
}

// MakePayment debits a bill payment from an account.
func (l *Moneta) MakePayment(ctx context.Context, source string, amount int64, description string) (*model.Transaction, error) {
	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypePayment,
		Source:      source,
		Amount:      amount,
		Description: description,
	})
}

// GetTransaction looks a transaction up by ID. Completed transactions are
// immutable, so they are served from the cache after the first read.
func (l *Moneta) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	var cached model.Transaction
	if l.cache != nil {
		if err := l.cache.Get(ctx, transactionCacheKey(transactionID), &cached); err == nil && cached.TransactionID != "" {
			return &cached, nil
		}
	}

	transaction, err := l.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && transaction.Status == model.StatusCompleted {
		if err := l.cache.Set(ctx, transactionCacheKey(transactionID), transaction, transactionCacheTTL); err != nil {
			logrus.Error("cache error", err)
		}
	}
	return transaction, nil
}

func transactionCacheKey(transactionID string) string {
	return "moneta:transaction:" + transactionID
}
