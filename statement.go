package moneta

import (
	"context"

	"github.com/monetahq/moneta/config"
	"github.com/monetahq/moneta/model"
)

// StatementEntry is one transaction seen from the queried account's side.
type StatementEntry struct {
	*model.Transaction
	IsDebit     bool   `json:"is_debit"`
	Counterpart string `json:"counterpart,omitempty"`
}

type StatementMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type Statement struct {
	Entries []StatementEntry `json:"data"`
	Meta    StatementMeta    `json:"meta"`
}

// StatementRequest selects and pages a statement. Page is 1-indexed; a zero
// or oversized limit is normalized from configuration.
type StatementRequest struct {
	Page   int
	Limit  int
	Filter model.TransactionFilter
}

// GetStatement returns the account's transaction history, newest first,
// with each entry classified as debit or credit relative to the account.
// It only ever reads committed data, so it is safe to call concurrently
// with writers.
func (l *Moneta) GetStatement(ctx context.Context, accountID string, req StatementRequest) (*Statement, error) {
	ctx, span := tracer.Start(ctx, "Reading statement")
	defer span.End()

	if _, err := l.datasource.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	page, limit := normalizePage(req.Page, req.Limit)

	filter := req.Filter
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	transactions, total, err := l.datasource.GetTransactionsForAccount(ctx, accountID, filter)
	if err != nil {
		return nil, logAndRecordError(span, "error reading statement: ", err)
	}

	entries := make([]StatementEntry, 0, len(transactions))
	for _, txn := range transactions {
		isDebit := txn.Source == accountID
		counterpart := txn.Source
		if isDebit {
			counterpart = txn.Destination
		}
		entries = append(entries, StatementEntry{
			Transaction: txn,
			IsDebit:     isDebit,
			Counterpart: counterpart,
		})
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &Statement{
		Entries: entries,
		Meta: StatementMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	defaultLimit, maxLimit := config.DEFAULT_STATEMENT_PAGE_SIZE, config.MAX_STATEMENT_PAGE_SIZE
	if cnf, err := config.Fetch(); err == nil {
		defaultLimit = cnf.Ledger.StatementPageSize
		maxLimit = cnf.Ledger.MaxStatementPageSize
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
