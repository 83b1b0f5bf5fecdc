package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inftyart/inftyart/internal/usecase"
)

// Transaction rows are append-only; there is no update or delete path.
type Transaction struct {
	ID                 uuid.UUID       `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Kind               string          `gorm:"column:kind;type:varchar(30);not null;index"`
	Buyer              string          `gorm:"column:buyer;type:varchar(255);not null;index"`
	Seller             string          `gorm:"column:seller;type:varchar(255);not null;index"`
	TargetID           string          `gorm:"column:target_id;type:varchar(255);not null;index"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric"`
	Currency           string          `gorm:"column:currency;type:varchar(10)"`
	Commission         decimal.Decimal `gorm:"column:commission;type:numeric"`
	CommissionCurrency string          `gorm:"column:commission_currency;type:varchar(10)"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (s *service) ListTransactions(ctx context.Context, opt usecase.ListTransactionsOption) ([]usecase.Transaction, int, error) {
	var (
		txns  []Transaction
		utxns []usecase.Transaction
		count int64
	)

	db := s.db.Model([]Transaction{}).WithContext(ctx)

	// Both filters set means either side of the transfer.
	switch {
	case opt.Buyer != "" && opt.Seller != "":
		db = db.Where("buyer = ? OR seller = ?", opt.Buyer, opt.Seller)
	case opt.Buyer != "":
		db = db.Where("buyer = ?", opt.Buyer)
	case opt.Seller != "":
		db = db.Where("seller = ?", opt.Seller)
	}

	err := db.
		Order("created_at DESC").
		Count(&count).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&txns).
		Error
	if err != nil {
		return nil, 0, err
	}

	for _, t := range txns {
		utxns = append(utxns, t.ConvertToUsecase())
	}

	return utxns, int(count), nil
}

// Convert core model to Usecase
func (t Transaction) ConvertToUsecase() usecase.Transaction {
	return usecase.Transaction{
		ID:                 t.ID,
		Kind:               usecase.TransferKind(t.Kind),
		Buyer:              t.Buyer,
		Seller:             t.Seller,
		TargetID:           t.TargetID,
		Price:              t.Price,
		Currency:           t.Currency,
		Commission:         t.Commission,
		CommissionCurrency: t.CommissionCurrency,
		CreatedAt:          t.CreatedAt,
	}
}
