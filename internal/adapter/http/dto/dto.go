package dto

import (
	"time"

	"cantor/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Fullname string `json:"fullname" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response body for successful registration or login.
type AuthResponse struct {
	UserID string       `json:"user_id"`
	Token  string       `json:"token"`
	Expiry int64        `json:"expiry"` // Unix timestamp
	User   UserResponse `json:"user"`
}

// TopUpRequest is the request body for a home-currency top-up. Amounts
// travel as decimal strings to avoid binary-float drift.
type TopUpRequest struct {
	Amount string `json:"amount" binding:"required,decimal"`
}

// ExchangeRequest is the request body for buy and sell operations.
type ExchangeRequest struct {
	Amount string `json:"amount" binding:"required,decimal"`
	Code   string `json:"code" binding:"required,currency_code"`
	Rate   string `json:"rate" binding:"required,decimal"`
}

// WatchlistCreateRequest is the request body for creating a watchlist.
type WatchlistCreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// WatchlistRenameRequest is the request body for renaming a watchlist.
type WatchlistRenameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// PinRateRequest is the request body for pinning a rate to a watchlist.
type PinRateRequest struct {
	Currency string `json:"currency" binding:"required"`
	Code     string `json:"code" binding:"required,currency_code"`
	Mid      string `json:"mid" binding:"omitempty,decimal"`
}

// UserResponse is the wire shape of a ledger snapshot.
type UserResponse struct {
	ID           string                `json:"id"`
	Fullname     string                `json:"fullname"`
	Email        string                `json:"email"`
	Balance      map[string]string     `json:"balance"`
	Watchlists   []WatchlistResponse   `json:"watchlists"`
	Transactions []TransactionResponse `json:"transactions,omitempty"`
	CreatedAt    string                `json:"created_at"`
}

// TransactionResponse is the wire shape of one history entry.
type TransactionResponse struct {
	ID           string `json:"id"`
	CurrencyFrom string `json:"currency_from,omitempty"`
	CurrencyTo   string `json:"currency_to"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
	Date         string `json:"date"`
}

// WatchlistResponse is the wire shape of a watchlist.
type WatchlistResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Rates []RateResponse `json:"rates"`
}

// RateResponse is the wire shape of one rate-table row.
type RateResponse struct {
	Currency string  `json:"currency"`
	Code     string  `json:"code"`
	Mid      *string `json:"mid"`
}

// RateTableResponse is the wire shape of the current rate table.
type RateTableResponse struct {
	Table         string         `json:"table"`
	No            string         `json:"no"`
	EffectiveDate string         `json:"effective_date"`
	Rates         []RateResponse `json:"rates"`
}

// RatePointResponse is one sample of a historical series.
type RatePointResponse struct {
	Date string `json:"date"`
	Mid  string `json:"mid"`
}

// RateHistoryResponse is the wire shape of a historical series.
type RateHistoryResponse struct {
	Code   string              `json:"code"`
	Points []RatePointResponse `json:"points"`
}

// FromRate converts a domain rate row.
func FromRate(r domain.Rate) RateResponse {
	out := RateResponse{Currency: r.Currency, Code: r.Code}
	if r.Mid.Valid {
		mid := r.Mid.Decimal.String()
		out.Mid = &mid
	}
	return out
}

// ToRate converts a pin request into a domain rate row.
func (r PinRateRequest) ToRate() (domain.Rate, error) {
	rate := domain.Rate{Currency: r.Currency, Code: r.Code}
	if r.Mid != "" {
		mid, err := decimal.NewFromString(r.Mid)
		if err != nil {
			return domain.Rate{}, err
		}
		rate.Mid = decimal.NewNullDecimal(mid)
	}
	return rate, nil
}

// FromWatchlist converts a domain watchlist.
func FromWatchlist(wl domain.Watchlist) WatchlistResponse {
	out := WatchlistResponse{
		ID:    wl.ID.String(),
		Name:  wl.Name,
		Rates: make([]RateResponse, 0, len(wl.Rates)),
	}
	for _, r := range wl.Rates {
		out.Rates = append(out.Rates, FromRate(r))
	}
	return out
}

// FromTransaction converts a domain history entry.
func FromTransaction(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           txn.ID.String(),
		CurrencyFrom: txn.CurrencyFrom,
		CurrencyTo:   txn.CurrencyTo,
		Amount:       txn.Amount.String(),
		Type:         string(txn.Type),
		Date:         txn.Date.UTC().Format(time.RFC3339),
	}
}

// FromUser converts a ledger snapshot, history included.
func FromUser(u *domain.User) UserResponse {
	out := UserResponse{
		ID:         u.ID.String(),
		Fullname:   u.Fullname,
		Email:      u.Email,
		Balance:    make(map[string]string, len(u.Balance)),
		Watchlists: make([]WatchlistResponse, 0, len(u.Watchlists)),
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
	}
	for code, amount := range u.Balance {
		out.Balance[code] = amount.String()
	}
	for _, wl := range u.Watchlists {
		out.Watchlists = append(out.Watchlists, FromWatchlist(wl))
	}
	for _, txn := range u.TransactionHistory {
		out.Transactions = append(out.Transactions, FromTransaction(txn))
	}
	return out
}

// FromRateTable converts a domain rate table.
func FromRateTable(t *domain.RateTable) RateTableResponse {
	out := RateTableResponse{
		Table:         t.Table,
		No:            t.No,
		EffectiveDate: t.EffectiveDate,
		Rates:         make([]RateResponse, 0, len(t.Rates)),
	}
	for _, r := range t.Rates {
		out.Rates = append(out.Rates, FromRate(r))
	}
	return out
}

// FromRatePoints converts a historical series.
func FromRatePoints(code string, points []domain.RatePoint) RateHistoryResponse {
	out := RateHistoryResponse{
		Code:   code,
		Points: make([]RatePointResponse, 0, len(points)),
	}
	for _, p := range points {
		out.Points = append(out.Points, RatePointResponse{
			Date: p.Date.UTC().Format("2006-01-02"),
			Mid:  p.Mid.String(),
		})
	}
	return out
}
