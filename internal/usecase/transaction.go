package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an append-only log entry for a completed transfer. It is
// never updated or deleted.
type Transaction struct {
	ID                 uuid.UUID
	Kind               TransferKind
	Buyer              string
	Seller             string
	TargetID           string
	Price              decimal.Decimal
	Currency           string
	Commission         decimal.Decimal
	CommissionCurrency string
	CreatedAt          time.Time
}

type ListTransactionsOption struct {
	Skip   int
	Limit  int
	Buyer  string
	Seller string
}

func (u Usecase) ListTransactions(ctx context.Context, opt ListTransactionsOption) ([]Transaction, int, error) {
	return u.repo.ListTransactions(ctx, opt)
}
