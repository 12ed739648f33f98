package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of settlement a history entry records.
type TransactionType string

const (
	TransactionTypeBuy   TransactionType = "buy"
	TransactionTypeSell  TransactionType = "sell"
	TransactionTypeTopUp TransactionType = "topUp"
)

// Transaction is an immutable, append-only ledger history entry.
//
// Amount is always the quantity of the traded (non-home) leg: the acquired
// quantity for a buy, the sold quantity for a sell, and the credited
// home-currency amount for a top-up. CurrencyFrom is empty for top-ups.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	CurrencyFrom string          `json:"currency_from,omitempty"`
	CurrencyTo   string          `json:"currency_to"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"date"`
}

// NewTopUpTransaction records a home-currency credit with no debited leg.
func NewTopUpTransaction(amount decimal.Decimal, now time.Time) Transaction {
	return Transaction{
		ID:         uuid.New(),
		CurrencyTo: HomeCurrency,
		Amount:     amount,
		Type:       TransactionTypeTopUp,
		Date:       now,
	}
}

// NewBuyTransaction records acquiring amount units of code against PLN.
func NewBuyTransaction(amount decimal.Decimal, code string, now time.Time) Transaction {
	return Transaction{
		ID:           uuid.New(),
		CurrencyFrom: HomeCurrency,
		CurrencyTo:   code,
		Amount:       amount,
		Type:         TransactionTypeBuy,
		Date:         now,
	}
}

// NewSellTransaction records giving up amount units of code for PLN.
func NewSellTransaction(amount decimal.Decimal, code string, now time.Time) Transaction {
	return Transaction{
		ID:           uuid.New(),
		CurrencyFrom: code,
		CurrencyTo:   HomeCurrency,
		Amount:       amount,
		Type:         TransactionTypeSell,
		Date:         now,
	}
}

// IsTopUp reports whether the entry has no debited leg.
func (t *Transaction) IsTopUp() bool {
	return t.Type == TransactionTypeTopUp
}
