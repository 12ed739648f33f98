package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HomeCurrency is the base currency every conversion is denominated through.
const HomeCurrency = "PLN"

// DefaultWatchlistName is the watchlist every user starts with.
const DefaultWatchlistName = "My Watchlist"

// User is the ledger root: balances, transaction history and watchlists
// for a single account. One authoritative in-memory copy exists per
// signed-in session; all mutation goes through the settlement engine.
type User struct {
	ID                 uuid.UUID                  `json:"id"`
	Fullname           string                     `json:"fullname"`
	Email              string                     `json:"email"`
	Balance            map[string]decimal.Decimal `json:"balance"`
	TransactionHistory []Transaction              `json:"transaction_history"`
	Watchlists         []Watchlist                `json:"watchlists"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// NewUser creates a fresh ledger for a newly registered account:
// zero home-currency balance, empty history, the default watchlist.
func NewUser(id uuid.UUID, fullname, email string, now time.Time) *User {
	return &User{
		ID:       id,
		Fullname: fullname,
		Email:    email,
		Balance: map[string]decimal.Decimal{
			HomeCurrency: decimal.Zero,
		},
		TransactionHistory: []Transaction{},
		Watchlists: []Watchlist{
			NewWatchlist(DefaultWatchlistName),
		},
		CreatedAt: now,
	}
}

// BalanceOf returns the balance for a currency code, zero if absent.
func (u *User) BalanceOf(code string) decimal.Decimal {
	if amount, ok := u.Balance[code]; ok {
		return amount
	}
	return decimal.Zero
}

// WatchlistByID finds a watchlist by its surrogate ID.
// Returns the index and true, or -1 and false.
func (u *User) WatchlistByID(id uuid.UUID) (int, bool) {
	for i := range u.Watchlists {
		if u.Watchlists[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// HasWatchlistNamed reports whether any watchlist uses the given name.
func (u *User) HasWatchlistNamed(name string) bool {
	for i := range u.Watchlists {
		if u.Watchlists[i].Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the ledger. Settlement mutates a clone and
// swaps it in only after the mutation is durably recorded, so a failed
// write never leaves a half-applied ledger visible.
func (u *User) Clone() *User {
	cp := *u

	cp.Balance = make(map[string]decimal.Decimal, len(u.Balance))
	for code, amount := range u.Balance {
		cp.Balance[code] = amount
	}

	cp.TransactionHistory = make([]Transaction, len(u.TransactionHistory))
	copy(cp.TransactionHistory, u.TransactionHistory)

	cp.Watchlists = make([]Watchlist, len(u.Watchlists))
	for i := range u.Watchlists {
		cp.Watchlists[i] = u.Watchlists[i].Clone()
	}

	return &cp
}
