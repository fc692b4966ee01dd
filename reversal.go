package moneta

import (
	"context"
	"fmt"

	"github.com/monetahq/moneta/model"
)

// ReverseTransaction synthesizes a REVERSAL with source and destination
// swapped relative to the original and the same amount, and applies it as a
// brand-new atomic ledger operation. The original record is never touched;
// a reversal of a reversal is just another transaction. Errors from the
// underlying apply (for example InsufficientFunds when the funds were
// already spent elsewhere) propagate unwrapped.
func (l *Moneta) ReverseTransaction(ctx context.Context, transactionID, reason string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Reversing transaction")
	defer span.End()

	original, err := l.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "Requested"
	}

	return l.RecordTransaction(ctx, &model.Transaction{
		Type:        model.TypeReversal,
		Source:      original.Destination,
		Destination: original.Source,
		Amount:      original.Amount,
		Description: fmt.Sprintf("Reversal: %s - %s", original.Description, reason),
		MetaData: map[string]interface{}{
			"reversed_transaction_id": original.TransactionID,
		},
	})
}
